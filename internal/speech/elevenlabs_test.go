package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func newSTTServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech-to-text" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing xi-api-key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model_id"); got != "scribe_v1" {
			t.Errorf("model_id = %q, want scribe_v1", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newClientFor(ts *httptest.Server) *ElevenLabsClient {
	return NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
	})
}

func TestTranscribeReturnsText(t *testing.T) {
	ts := newSTTServer(t, http.StatusOK, `{"text": "  ¿Tengo partida registral?  "}`)

	text, err := newClientFor(ts).Transcribe(context.Background(), []byte("fake-audio"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "¿Tengo partida registral?" {
		t.Fatalf("Transcribe() = %q, want trimmed transcript", text)
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	ts := newSTTServer(t, http.StatusOK, `{"text": "   "}`)

	_, err := newClientFor(ts).Transcribe(context.Background(), []byte("fake-audio"))
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("Transcribe() error = %v, want ErrEmptyTranscript", err)
	}
}

func TestTranscribeClassifiesProviderErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"too short by message", http.StatusBadRequest, `{"detail": "audio duration too short"}`, ErrAudioTooShort},
		{"bad request", http.StatusBadRequest, `{"detail": "unsupported codec"}`, ErrBadRequest},
		{"unprocessable", http.StatusUnprocessableEntity, `{"detail": "invalid file"}`, ErrBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newSTTServer(t, tc.status, tc.body)
			_, err := newClientFor(ts).Transcribe(context.Background(), []byte("fake-audio"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Transcribe() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTranscribeGenericProviderError(t *testing.T) {
	ts := newSTTServer(t, http.StatusInternalServerError, `{"detail": "upstream exploded"}`)

	_, err := newClientFor(ts).Transcribe(context.Background(), []byte("fake-audio"))
	if err == nil {
		t.Fatalf("Transcribe() error = nil, want generic provider error")
	}
	if errors.Is(err, ErrAudioTooShort) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("Transcribe() error = %v, want unclassified provider error", err)
	}
}

func TestAgentVoiceLookup(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/agents/agent-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "Doctora Paraíso",
			"conversation_config": map[string]any{
				"tts": map[string]any{"voice_id": "custom-voice"},
			},
		})
	}))
	t.Cleanup(ts.Close)

	av, err := newClientFor(ts).AgentVoice(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("AgentVoice() error = %v", err)
	}
	if av.VoiceID != "custom-voice" {
		t.Fatalf("VoiceID = %q, want custom-voice", av.VoiceID)
	}
	if av.Name != "Doctora Paraíso" {
		t.Fatalf("Name = %q", av.Name)
	}
}

func TestAgentVoiceLookupNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	if _, err := newClientFor(ts).AgentVoice(context.Background(), "agent-1"); err == nil {
		t.Fatalf("AgentVoice() error = nil, want failure on non-200")
	}
}

func TestSynthesizeCollectsStreamedChunks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/voice-1/stream-input") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Consume client messages until the empty-text input close.
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if text, ok := msg["text"].(string); ok && text == "" {
				break
			}
		}

		_ = conn.WriteJSON(map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte("chun"))})
		_ = conn.WriteJSON(map[string]any{"audio": base64.StdEncoding.EncodeToString([]byte("k2")), "isFinal": true})
	}))
	t.Cleanup(ts.Close)

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:    "test-key",
		WSBaseURL: "ws://" + strings.TrimPrefix(ts.URL, "http://"),
	})

	audio, err := client.Synthesize(context.Background(), "hola", "voice-1")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "chunk2" {
		t.Fatalf("Synthesize() = %q, want concatenated chunks", audio)
	}
}

func TestSynthesizeStreamError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if text, ok := msg["text"].(string); ok && text == "" {
				break
			}
		}
		_ = conn.WriteJSON(map[string]any{"error": "quota exceeded"})
	}))
	t.Cleanup(ts.Close)

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:    "test-key",
		WSBaseURL: "ws://" + strings.TrimPrefix(ts.URL, "http://"),
	})

	if _, err := client.Synthesize(context.Background(), "hola", "voice-1"); err == nil {
		t.Fatalf("Synthesize() error = nil, want stream error")
	}
}
