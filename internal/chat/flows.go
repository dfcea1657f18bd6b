package chat

import (
	"fmt"
	"time"
)

// Flow names used for metrics labels and logs.
const (
	FlowVoice = "voice"
	FlowText  = "text"
	FlowAgent = "agent"
	FlowTTS   = "tts"
)

const voicePersonaTemplate = `Eres un asistente legal experto en Prados de Paraíso.
Tu trabajo es responder preguntas sobre condiciones legales, propiedad, posesión y saneamiento.

Información legal disponible:
%s

Responde de manera profesional, clara, concisa y precisa. Mantén las respuestas breves (máximo 3-4 frases)
ya que serán convertidas a voz. Si no tienes información específica, indica que el usuario debe consultar
con el equipo legal.`

const textPersonaTemplate = `Eres un asistente legal experto en Prados de Paraíso.
Tu trabajo es responder preguntas sobre condiciones legales, propiedad, posesión y saneamiento.

Información legal disponible:
%s

Responde de manera profesional, clara y precisa. Si no tienes información específica,
indica que el usuario debe consultar con el equipo legal.`

const agentPersonaTemplate = `Eres %s, un asistente legal experto especializado en Prados de Paraíso.
Tu trabajo es responder preguntas sobre condiciones legales, propiedad, posesión y saneamiento del proyecto.

Información legal disponible:
%s

Responde de manera profesional, clara, concisa y amigable como lo haría el Dr. Prados.
Mantén las respuestas breves (máximo 3-4 frases) ya que serán convertidas a voz.`

// FlowConfig fixes the persona, voice and completion policy of one request
// flow so synthesis parameters are not re-derived at each call site.
type FlowConfig struct {
	Persona     string
	VoiceID     string
	VoiceName   string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// VoiceFlow answers spoken questions with the default voice. The faster model
// tier keeps turnaround interactive since the reply is spoken back.
func VoiceFlow(voiceID string) FlowConfig {
	return FlowConfig{
		Persona:     fmt.Sprintf(voicePersonaTemplate, LegalInfo),
		VoiceID:     voiceID,
		Model:       "gpt-4o-mini",
		MaxTokens:   300,
		Temperature: 0.7,
		Timeout:     20 * time.Second,
	}
}

// TextFlow answers typed questions at full depth; audio is a best-effort
// extra rendered with the Dr. Prados voice.
func TextFlow(voiceID, voiceName string) FlowConfig {
	return FlowConfig{
		Persona:     fmt.Sprintf(textPersonaTemplate, LegalInfo),
		VoiceID:     voiceID,
		VoiceName:   voiceName,
		Model:       "gpt-4o",
		MaxTokens:   1000,
		Temperature: 0.7,
		Timeout:     45 * time.Second,
	}
}

// AgentFlow answers spoken questions in the persona of an externally
// configured agent. The persona text depends on the resolved agent name, so
// it is rendered per request by agentPersona.
func AgentFlow(voiceID, voiceName string) FlowConfig {
	return FlowConfig{
		VoiceID:     voiceID,
		VoiceName:   voiceName,
		Model:       "gpt-4o-mini",
		MaxTokens:   300,
		Temperature: 0.7,
		Timeout:     20 * time.Second,
	}
}

func agentPersona(agentName string) string {
	return fmt.Sprintf(agentPersonaTemplate, agentName, LegalInfo)
}
