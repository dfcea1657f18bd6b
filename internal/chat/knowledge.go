package chat

// LegalInfo is the static corpus injected verbatim into every system prompt.
// It is owned and edited by the legal team; an update takes effect for all
// subsequent requests immediately.
const LegalInfo = `
Prados de Paraíso - Información Legal Completa:

1. CONDICIÓN LEGAL DEL PROYECTO:
- 50% del terreno: Propiedad adquirida mediante compraventa de acciones y derechos
- 50% restante: Terreno bajo condición de posesión legítima y mediata

2. DIFERENCIA ENTRE PROPIEDAD Y POSESIÓN:
- Propiedad: Derecho que otorga titularidad legal inscribible en Registros Públicos
- Posesión: Ejercicio de hecho de poderes inherentes a la propiedad

3. PREGUNTAS FRECUENTES:

Q1: ¿Cuándo entregan el título de propiedad?
R: La condición legal es la POSESIÓN. Se entrega contrato de transferencia de posesión. Para obtener título de propiedad, el cliente debe gestionar saneamiento tras completar pago.

Q2: ¿En qué estado se encuentra el lote?
R: Posesión legítima, mediata y de buena fe, respaldada por escrituras públicas desde 1998.

Q3: ¿Tenemos partida registral?
R: No hay partida registral a nombre de la desarrolladora. El predio figura a nombre de DIREFOR (entidad estatal). Esto no representa riesgo ya que poseemos legítimamente desde 1998.

Q4: ¿Tipos de posesión?
R: Legítima (mediata e inmediata) e Ilegítima (buena fe, mala fe, precaria). Nuestra situación: Posesión Legítima Mediata y de Buena Fe.

Q5: ¿Por qué no hay partida registral?
R: Decisión estratégica comercial. La posesión es un derecho reconocido y protegido por ley.

Q6: ¿Procedimiento para sacar partida registral?
R: Vía prescripción adquisitiva de dominio. Requiere asesoría legal especializada. Costos asumidos por el adquirente.

Q7: ¿Garantía al comprar?
R: Marca con trayectoria, posesión legítima respaldada por escrituras públicas, asesoramiento legal especializado (DS Casa Hierro Abogados), convenio con Notaría Tambini, y más de 500 clientes satisfechos.

4. SANEAMIENTO FÍSICO LEGAL:
- Proceso de regularización para acceso a Registros Públicos
- Vía: Prescripción Adquisitiva de Dominio (Usucapión)
- Requisitos: Posesión continua, pacífica y pública

5. RESPALDO LEGAL:
- Notaría Tambini
- Casahierro Abogados
`
