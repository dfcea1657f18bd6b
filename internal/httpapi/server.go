package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pradosdeparaiso/legalhub/internal/chat"
	"github.com/pradosdeparaiso/legalhub/internal/config"
	"github.com/pradosdeparaiso/legalhub/internal/observability"
	"github.com/pradosdeparaiso/legalhub/internal/speech"
)

const maxAudioUpload = 16 << 20

type Server struct {
	cfg  config.Config
	chat *chat.Service
}

func New(cfg config.Config, svc *chat.Service) *Server {
	return &Server{cfg: cfg, chat: svc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleHealthz)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{"message": "Prados de Paraíso Legal Hub API"})
		})
		r.Get("/health", s.handleHealth)
		r.Post("/tts", s.handleTTS)
		r.Post("/voice-chat", s.handleVoiceChat)
		r.Post("/text-chat", s.handleTextChat)
		r.Post("/voice-agent", s.handleVoiceAgent)
		r.Post("/clear-conversation", s.handleClear)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"openai_configured":     s.chat.LLMConfigured(),
		"elevenlabs_configured": s.chat.SpeechConfigured(),
		"cors_origins":          s.cfg.CORSOrigins,
	})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "Text is required")
		return
	}

	audio, err := s.chat.Speak(r.Context(), req.Text)
	if err != nil {
		s.respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"audio":  base64.StdEncoding.EncodeToString(audio),
		"format": "mp3",
	})
}

func (s *Server) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	audio, sessionID, _, ok := s.readAudioForm(w, r, false)
	if !ok {
		return
	}

	res, err := s.chat.VoiceChat(r.Context(), audio, sessionID)
	if err != nil {
		s.respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":       res.SessionID,
		"transcribed_text": res.Transcript,
		"ai_response":      res.Reply,
		"audio_url":        audioDataURI(res.Audio),
		"format":           "mp3",
	})
}

func (s *Server) handleTextChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text      string `json:"text"`
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "Text is required")
		return
	}

	res, err := s.chat.TextChat(r.Context(), text, req.SessionID)
	if err != nil {
		s.respondFlowError(w, err)
		return
	}

	payload := map[string]any{
		"session_id":  res.SessionID,
		"user_text":   res.Text,
		"ai_response": res.Reply,
		"audio_url":   nil,
		"format":      nil,
	}
	if len(res.Audio) > 0 {
		payload["audio_url"] = audioDataURI(res.Audio)
		payload["format"] = "mp3"
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleVoiceAgent(w http.ResponseWriter, r *http.Request) {
	audio, sessionID, agentID, ok := s.readAudioForm(w, r, true)
	if !ok {
		return
	}

	res, err := s.chat.VoiceAgent(r.Context(), audio, agentID, sessionID)
	if err != nil {
		s.respondFlowError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id":       res.SessionID,
		"transcribed_text": res.Transcript,
		"agent_response":   res.Reply,
		"audio_url":        audioDataURI(res.Audio),
		"format":           "mp3",
		"voice_used":       res.VoiceID,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}

	if err := s.chat.Clear(r.Context(), req.SessionID); err != nil {
		respondError(w, http.StatusInternalServerError, "clear_failed",
			"No se pudo borrar la conversación. Inténtalo nuevamente.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Conversación eliminada",
		"session_id": req.SessionID,
	})
}

// readAudioForm parses the multipart body shared by the voice endpoints.
func (s *Server) readAudioForm(w http.ResponseWriter, r *http.Request, requireAgent bool) (audio []byte, sessionID, agentID string, ok bool) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return nil, "", "", false
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_audio", "Audio file is required")
		return nil, "", "", false
	}
	defer file.Close()

	audio, err = io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", "could not read audio upload")
		return nil, "", "", false
	}

	agentID = strings.TrimSpace(r.FormValue("agent_id"))
	if requireAgent && agentID == "" {
		respondError(w, http.StatusBadRequest, "missing_agent_id", "agent_id is required")
		return nil, "", "", false
	}

	return audio, r.FormValue("session_id"), agentID, true
}

// respondFlowError maps domain errors to HTTP statuses with user-renderable
// Spanish messages. Raw provider details stay in the logs.
func (s *Server) respondFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, speech.ErrAudioTooShort):
		respondError(w, http.StatusBadRequest, "audio_too_short",
			"El audio es demasiado corto. Habla durante al menos 1 o 2 segundos.")
	case errors.Is(err, speech.ErrEmptyTranscript):
		respondError(w, http.StatusBadRequest, "empty_transcript",
			"No se pudo transcribir el audio. Intenta hablar más claro.")
	case errors.Is(err, speech.ErrBadRequest):
		respondError(w, http.StatusBadRequest, "bad_audio",
			"No se pudo procesar el audio enviado. Intenta grabarlo nuevamente.")
	case errors.Is(err, chat.ErrProviderUnavailable):
		respondError(w, http.StatusServiceUnavailable, "provider_unavailable",
			"El asistente no está disponible en este momento. Inténtalo más tarde.")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error",
			"Ocurrió un error procesando tu consulta. Inténtalo nuevamente.")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func audioDataURI(audio []byte) string {
	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio)
}
