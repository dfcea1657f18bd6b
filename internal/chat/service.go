package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pradosdeparaiso/legalhub/internal/history"
	"github.com/pradosdeparaiso/legalhub/internal/llm"
	"github.com/pradosdeparaiso/legalhub/internal/observability"
	"github.com/pradosdeparaiso/legalhub/internal/session"
	"github.com/pradosdeparaiso/legalhub/internal/speech"
)

// Config fixes the per-flow policies of the pipeline.
type Config struct {
	MinAudioBytes      int
	AgentLookupTimeout time.Duration
	Voice              FlowConfig
	Text               FlowConfig
	Agent              FlowConfig
}

// Service orchestrates the conversational flows. It owns the sequencing of
// history reads and writes; providers are injected once at startup and a nil
// provider marks the capability as unconfigured.
type Service struct {
	llm     llm.Client
	stt     speech.Transcriber
	tts     speech.Synthesizer
	agents  speech.AgentDirectory
	store   history.Store
	metrics *observability.Metrics
	cfg     Config
}

func NewService(
	llmClient llm.Client,
	stt speech.Transcriber,
	tts speech.Synthesizer,
	agents speech.AgentDirectory,
	store history.Store,
	metrics *observability.Metrics,
	cfg Config,
) *Service {
	if cfg.MinAudioBytes <= 0 {
		cfg.MinAudioBytes = 1000
	}
	if cfg.AgentLookupTimeout <= 0 {
		cfg.AgentLookupTimeout = 5 * time.Second
	}
	return &Service{
		llm:     llmClient,
		stt:     stt,
		tts:     tts,
		agents:  agents,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
	}
}

type VoiceChatResult struct {
	SessionID  string
	Transcript string
	Reply      string
	Audio      []byte
}

type TextChatResult struct {
	SessionID string
	Text      string
	Reply     string
	// Audio is nil when synthesis is unavailable or failed; the text flow
	// still succeeds.
	Audio []byte
}

type VoiceAgentResult struct {
	SessionID  string
	Transcript string
	Reply      string
	Audio      []byte
	VoiceID    string
}

// VoiceChat transcribes the recording, answers it and renders the answer as
// speech. Every step is fatal in this flow.
func (s *Service) VoiceChat(ctx context.Context, audio []byte, sessionID string) (result VoiceChatResult, err error) {
	defer s.observe(FlowVoice, time.Now(), &err)

	if s.stt == nil || s.tts == nil {
		return result, fmt.Errorf("%w: speech", ErrProviderUnavailable)
	}
	if s.llm == nil {
		return result, fmt.Errorf("%w: language model", ErrProviderUnavailable)
	}
	if len(audio) < s.cfg.MinAudioBytes {
		return result, fmt.Errorf("%w: got %d bytes, need %d", speech.ErrAudioTooShort, len(audio), s.cfg.MinAudioBytes)
	}

	sid := session.Resolve(sessionID)

	transcript, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		s.countProviderError("speech", "transcribe")
		return result, err
	}

	reply, err := s.converse(ctx, s.cfg.Voice, s.cfg.Voice.Persona, sid, transcript)
	if err != nil {
		return result, err
	}

	rendered, err := s.tts.Synthesize(ctx, reply, s.cfg.Voice.VoiceID)
	if err != nil {
		s.countProviderError("speech", "synthesize")
		return result, &ProviderError{Provider: "speech", Err: err}
	}

	return VoiceChatResult{SessionID: sid, Transcript: transcript, Reply: reply, Audio: rendered}, nil
}

// TextChat answers a typed question. Speech synthesis is strictly best-effort
// here: a failure is logged and the text answer still goes out.
func (s *Service) TextChat(ctx context.Context, text, sessionID string) (result TextChatResult, err error) {
	defer s.observe(FlowText, time.Now(), &err)

	if s.llm == nil {
		return result, fmt.Errorf("%w: language model", ErrProviderUnavailable)
	}

	sid := session.Resolve(sessionID)

	reply, err := s.converse(ctx, s.cfg.Text, s.cfg.Text.Persona, sid, text)
	if err != nil {
		return result, err
	}

	result = TextChatResult{SessionID: sid, Text: text, Reply: reply}
	if s.tts != nil {
		rendered, synthErr := s.tts.Synthesize(ctx, reply, s.cfg.Text.VoiceID)
		if synthErr != nil {
			s.countProviderError("speech", "synthesize")
			log.Printf("text chat: synthesis degraded for session %s: %v", sid, synthErr)
		} else {
			result.Audio = rendered
		}
	}
	return result, nil
}

// VoiceAgent is the voice flow with an externally configured persona. The
// agent voice lookup is an enhancement, never a precondition for answering.
func (s *Service) VoiceAgent(ctx context.Context, audio []byte, agentID, sessionID string) (result VoiceAgentResult, err error) {
	defer s.observe(FlowAgent, time.Now(), &err)

	if s.stt == nil || s.tts == nil {
		return result, fmt.Errorf("%w: speech", ErrProviderUnavailable)
	}
	if s.llm == nil {
		return result, fmt.Errorf("%w: language model", ErrProviderUnavailable)
	}
	if len(audio) < s.cfg.MinAudioBytes {
		return result, fmt.Errorf("%w: got %d bytes, need %d", speech.ErrAudioTooShort, len(audio), s.cfg.MinAudioBytes)
	}

	sid := session.Resolve(sessionID)

	transcript, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		s.countProviderError("speech", "transcribe")
		return result, err
	}

	voiceID, voiceName := s.resolveAgentVoice(ctx, agentID)

	reply, err := s.converse(ctx, s.cfg.Agent, agentPersona(voiceName), sid, transcript)
	if err != nil {
		return result, err
	}

	rendered, err := s.tts.Synthesize(ctx, reply, voiceID)
	if err != nil {
		s.countProviderError("speech", "synthesize")
		return result, &ProviderError{Provider: "speech", Err: err}
	}

	return VoiceAgentResult{SessionID: sid, Transcript: transcript, Reply: reply, Audio: rendered, VoiceID: voiceID}, nil
}

// Speak renders arbitrary text with the default voice. Stateless, no session.
func (s *Service) Speak(ctx context.Context, text string) (audio []byte, err error) {
	defer s.observe(FlowTTS, time.Now(), &err)

	if s.tts == nil {
		return nil, fmt.Errorf("%w: speech", ErrProviderUnavailable)
	}
	rendered, err := s.tts.Synthesize(ctx, text, s.cfg.Voice.VoiceID)
	if err != nil {
		s.countProviderError("speech", "synthesize")
		return nil, &ProviderError{Provider: "speech", Err: err}
	}
	return rendered, nil
}

// Clear deletes the session's history. Unlike reads and appends, a failure
// here propagates: the user explicitly asked to forget and a silent no-op
// would be misleading.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		s.metrics.HistoryFailures.WithLabelValues("clear").Inc()
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

// converse runs the shared middle of every flow: bounded history read, prompt
// composition, completion, then the history append. Read and append failures
// degrade silently; losing continuity is acceptable, losing the answer is not.
func (s *Service) converse(ctx context.Context, fc FlowConfig, persona, sessionID, userText string) (string, error) {
	turns, err := s.store.Recent(ctx, sessionID)
	if err != nil {
		s.metrics.HistoryFailures.WithLabelValues("read").Inc()
		log.Printf("history read degraded for session %s: %v", sessionID, err)
		turns = nil
	}

	msgs := composeMessages(persona, turns, userText)

	reply, err := s.llm.Complete(ctx, msgs, llm.Options{
		Model:       fc.Model,
		MaxTokens:   fc.MaxTokens,
		Temperature: fc.Temperature,
		Timeout:     fc.Timeout,
	})
	if err != nil {
		s.countProviderError("llm", "complete")
		return "", &ProviderError{Provider: "llm", Err: err}
	}

	if err := s.store.AppendPair(ctx, sessionID, userText, reply); err != nil {
		s.metrics.HistoryFailures.WithLabelValues("append").Inc()
		log.Printf("history append degraded for session %s: %v", sessionID, err)
	}

	return reply, nil
}

// resolveAgentVoice overlays the persona defaults with the agent's configured
// voice when the lookup succeeds. Failures fall back and are counted.
func (s *Service) resolveAgentVoice(ctx context.Context, agentID string) (voiceID, voiceName string) {
	voiceID = s.cfg.Agent.VoiceID
	voiceName = s.cfg.Agent.VoiceName
	if s.agents == nil {
		return voiceID, voiceName
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentLookupTimeout)
	defer cancel()

	av, err := s.agents.AgentVoice(lookupCtx, agentID)
	if err != nil {
		s.metrics.VoiceFallbacks.Inc()
		log.Printf("agent %s voice lookup failed, keeping default voice: %v", agentID, err)
		return voiceID, voiceName
	}
	if av.VoiceID != "" {
		voiceID = av.VoiceID
	}
	if av.Name != "" {
		voiceName = av.Name
	}
	return voiceID, voiceName
}

func (s *Service) observe(flow string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	s.metrics.Requests.WithLabelValues(flow, outcome).Inc()
	s.metrics.ObserveTurn(flow, time.Since(start))
}

func (s *Service) countProviderError(provider, code string) {
	s.metrics.ProviderErrors.WithLabelValues(provider, code).Inc()
}

// LLMConfigured reports whether a language-model credential was supplied.
func (s *Service) LLMConfigured() bool { return s.llm != nil }

// SpeechConfigured reports whether a speech credential was supplied.
func (s *Service) SpeechConfigured() bool { return s.stt != nil && s.tts != nil }
