package speech

import (
	"context"
	"sync"
)

// MockClient is a canned speech provider for tests. Call counters let tests
// assert that rejected requests never reached the provider.
type MockClient struct {
	mu sync.Mutex

	TranscribeText string
	TranscribeErr  error
	SynthesisAudio []byte
	SynthesisErr   error
	Agent          AgentVoice
	AgentErr       error

	TranscribeCalls int
	SynthesizeCalls int
	AgentCalls      int

	LastSynthesisText  string
	LastSynthesisVoice string
}

func (c *MockClient) Transcribe(_ context.Context, _ []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TranscribeCalls++
	if c.TranscribeErr != nil {
		return "", c.TranscribeErr
	}
	return c.TranscribeText, nil
}

func (c *MockClient) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SynthesizeCalls++
	c.LastSynthesisText = text
	c.LastSynthesisVoice = voiceID
	if c.SynthesisErr != nil {
		return nil, c.SynthesisErr
	}
	return c.SynthesisAudio, nil
}

func (c *MockClient) AgentVoice(_ context.Context, _ string) (AgentVoice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AgentCalls++
	if c.AgentErr != nil {
		return AgentVoice{}, c.AgentErr
	}
	return c.Agent, nil
}
