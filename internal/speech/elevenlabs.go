package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pradosdeparaiso/legalhub/internal/reliability"
)

// Fixed voice-quality settings, not tunable per call.
const (
	ttsStability       = 0.5
	ttsSimilarityBoost = 0.75
	ttsStyle           = 0.0
	ttsSpeakerBoost    = true
)

const synthesisReadBudget = 60 * time.Second

type ElevenLabsConfig struct {
	APIKey     string
	BaseURL    string
	WSBaseURL  string
	STTModelID string
	TTSModelID string
	HTTPClient *http.Client
}

// ElevenLabsClient talks to the ElevenLabs REST and streaming APIs. It serves
// as Transcriber, Synthesizer and AgentDirectory.
type ElevenLabsClient struct {
	cfg  ElevenLabsConfig
	http *http.Client
}

func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = "wss://api.elevenlabs.io"
	}
	if strings.TrimSpace(cfg.STTModelID) == "" {
		cfg.STTModelID = "scribe_v1"
	}
	if strings.TrimSpace(cfg.TTSModelID) == "" {
		cfg.TTSModelID = "eleven_multilingual_v2"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ElevenLabsClient{cfg: cfg, http: httpClient}
}

// Transcribe sends the recording to the speech-to-text endpoint and returns
// the transcript. Provider failures are classified into the domain error
// kinds; a blank transcript is an error because it must never reach the model.
func (c *ElevenLabsClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "recording.webm")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio payload: %w", err)
	}
	if err := writer.WriteField("model_id", c.cfg.STTModelID); err != nil {
		return "", fmt.Errorf("write model_id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/speech-to-text", &body)
	if err != nil {
		return "", fmt.Errorf("create stt request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech to text call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		switch reliability.ClassifyTranscription(res.StatusCode, string(detail)) {
		case reliability.TranscriptionAudioTooShort:
			return "", fmt.Errorf("%w: %s", ErrAudioTooShort, strings.TrimSpace(string(detail)))
		case reliability.TranscriptionBadRequest:
			return "", fmt.Errorf("%w: %s", ErrBadRequest, strings.TrimSpace(string(detail)))
		default:
			return "", fmt.Errorf("speech to text status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
		}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// Synthesize renders text with the given voice over the stream-input
// websocket and collects the chunked audio into one mp3 buffer. The service
// responds with complete payloads, so nothing is streamed onward.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("voice_id is required")
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.WSBaseURL, "/") +
		"/v1/text-to-speech/" + url.PathEscape(voiceID) + "/stream-input")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model_id", c.cfg.TTSModelID)
	q.Set("output_format", "mp3_44100_128")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", c.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial tts websocket: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(synthesisReadBudget)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	// Prime the stream with the voice settings as documented for stream-input.
	prime := map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":         ttsStability,
			"similarity_boost":  ttsSimilarityBoost,
			"style":             ttsStyle,
			"use_speaker_boost": ttsSpeakerBoost,
		},
	}
	if err := conn.WriteJSON(prime); err != nil {
		return nil, fmt.Errorf("prime tts stream: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"text": text, "try_trigger_generation": true}); err != nil {
		return nil, fmt.Errorf("send tts text: %w", err)
	}
	// Empty text closes the input side.
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return nil, fmt.Errorf("close tts input: %w", err)
	}

	var audio bytes.Buffer
	for {
		var raw struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := conn.ReadJSON(&raw); err != nil {
			// The server may close the socket instead of flagging the last
			// chunk; the collected audio is still a complete utterance.
			if audio.Len() > 0 && websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return audio.Bytes(), nil
			}
			return nil, fmt.Errorf("read tts stream: %w", err)
		}
		if raw.Error != "" {
			return nil, fmt.Errorf("tts stream error: %s", raw.Error)
		}
		if raw.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(raw.Audio)
			if err != nil {
				return nil, fmt.Errorf("decode tts chunk: %w", err)
			}
			audio.Write(chunk)
		}
		if raw.IsFinal {
			break
		}
	}

	if audio.Len() == 0 {
		return nil, fmt.Errorf("tts stream produced no audio")
	}
	return audio.Bytes(), nil
}

// AgentVoice fetches the conversational agent's configured voice and display
// name. Callers treat any failure as non-fatal and keep their defaults.
func (c *ElevenLabsClient) AgentVoice(ctx context.Context, agentID string) (AgentVoice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/convai/agents/"+url.PathEscape(agentID), nil)
	if err != nil {
		return AgentVoice{}, fmt.Errorf("create agent request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return AgentVoice{}, fmt.Errorf("agent lookup call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return AgentVoice{}, fmt.Errorf("agent lookup status %d", res.StatusCode)
	}

	var parsed struct {
		Name               string `json:"name"`
		ConversationConfig struct {
			TTS struct {
				VoiceID string `json:"voice_id"`
			} `json:"tts"`
		} `json:"conversation_config"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return AgentVoice{}, fmt.Errorf("decode agent response: %w", err)
	}

	return AgentVoice{VoiceID: parsed.ConversationConfig.TTS.VoiceID, Name: parsed.Name}, nil
}
