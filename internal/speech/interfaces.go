package speech

import (
	"context"
	"errors"
)

var (
	// ErrAudioTooShort marks recordings below the minimum byte threshold.
	ErrAudioTooShort = errors.New("audio too short")
	// ErrEmptyTranscript marks a transcription that produced no usable text.
	ErrEmptyTranscript = errors.New("empty transcript")
	// ErrBadRequest marks audio the provider rejected as malformed.
	ErrBadRequest = errors.New("audio rejected by provider")
)

// AgentVoice identifies the synthesized voice of an externally configured agent.
type AgentVoice struct {
	VoiceID string
	Name    string
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

type AgentDirectory interface {
	AgentVoice(ctx context.Context, agentID string) (AgentVoice, error)
}
