package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pradosdeparaiso/legalhub/internal/chat"
	"github.com/pradosdeparaiso/legalhub/internal/config"
	"github.com/pradosdeparaiso/legalhub/internal/history"
	"github.com/pradosdeparaiso/legalhub/internal/llm"
	"github.com/pradosdeparaiso/legalhub/internal/observability"
	"github.com/pradosdeparaiso/legalhub/internal/speech"
)

var metricsSeq int64

func newTestServer(t *testing.T, brain llm.Client, sp *speech.MockClient) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		CORSOrigins: []string{"http://localhost:3000"},
	}
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", atomic.AddInt64(&metricsSeq, 1)))

	var (
		stt    speech.Transcriber
		tts    speech.Synthesizer
		agents speech.AgentDirectory
	)
	if sp != nil {
		stt, tts, agents = sp, sp, sp
	}

	svc := chat.NewService(brain, stt, tts, agents, history.NewInMemoryStore(20), metrics, chat.Config{
		MinAudioBytes:      1000,
		AgentLookupTimeout: time.Second,
		Voice:              chat.VoiceFlow("rachel-voice"),
		Text:               chat.TextFlow("prados-voice", "Doctor Prados de Paraiso"),
		Agent:              chat.AgentFlow("prados-voice", "Doctor Prados de Paraiso"),
	})

	ts := httptest.NewServer(New(cfg, svc).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, _ := json.Marshal(payload)
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func postAudio(t *testing.T, url string, audio []byte, fields map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "clip.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(audio); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	res, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestTextChatReturnsAnswerWithoutSpeechProvider(t *testing.T) {
	brain := &llm.MockClient{Reply: "La condición legal es la posesión."}
	ts := newTestServer(t, brain, nil)

	res := postJSON(t, ts.URL+"/api/text-chat", map[string]string{"text": "¿Tengo partida registral?"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)

	if payload["ai_response"] != "La condición legal es la posesión." {
		t.Fatalf("ai_response = %v", payload["ai_response"])
	}
	sessionID, _ := payload["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id in response: %+v", payload)
	}
	if payload["audio_url"] != nil {
		t.Fatalf("audio_url = %v, want null", payload["audio_url"])
	}
	if payload["format"] != nil {
		t.Fatalf("format = %v, want null", payload["format"])
	}
}

func TestTextChatDegradedSynthesisStillSucceeds(t *testing.T) {
	brain := &llm.MockClient{Reply: "respuesta"}
	sp := &speech.MockClient{SynthesisErr: fmt.Errorf("tts down")}
	ts := newTestServer(t, brain, sp)

	res := postJSON(t, ts.URL+"/api/text-chat", map[string]string{"text": "hola"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)
	if payload["ai_response"] != "respuesta" {
		t.Fatalf("ai_response = %v", payload["ai_response"])
	}
	if payload["audio_url"] != nil {
		t.Fatalf("audio_url = %v, want null after degraded synthesis", payload["audio_url"])
	}
}

func TestTextChatMissingText(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, nil)

	res := postJSON(t, ts.URL+"/api/text-chat", map[string]string{"text": "   "})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	payload := decodeBody(t, res)
	if payload["code"] != "missing_text" {
		t.Fatalf("code = %v, want missing_text", payload["code"])
	}
}

func TestTextChatUnavailableWithoutLLM(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	res := postJSON(t, ts.URL+"/api/text-chat", map[string]string{"text": "hola"})
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestVoiceChatFullFlow(t *testing.T) {
	brain := &llm.MockClient{Reply: "respuesta"}
	sp := &speech.MockClient{TranscribeText: "hola", SynthesisAudio: []byte("mp3-bytes")}
	ts := newTestServer(t, brain, sp)

	res := postAudio(t, ts.URL+"/api/voice-chat", make([]byte, 4096), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)

	if payload["transcribed_text"] != "hola" {
		t.Fatalf("transcribed_text = %v", payload["transcribed_text"])
	}
	if payload["format"] != "mp3" {
		t.Fatalf("format = %v, want mp3", payload["format"])
	}
	audioURL, _ := payload["audio_url"].(string)
	if !strings.HasPrefix(audioURL, "data:audio/mpeg;base64,") {
		t.Fatalf("audio_url = %q, want data URI", audioURL)
	}
}

func TestVoiceChatShortAudioRejected(t *testing.T) {
	sp := &speech.MockClient{TranscribeText: "hola"}
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, sp)

	res := postAudio(t, ts.URL+"/api/voice-chat", make([]byte, 200), nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	payload := decodeBody(t, res)
	if payload["code"] != "audio_too_short" {
		t.Fatalf("code = %v, want audio_too_short", payload["code"])
	}
	if sp.TranscribeCalls != 0 {
		t.Fatalf("TranscribeCalls = %d, want 0", sp.TranscribeCalls)
	}
}

func TestVoiceChatMissingAudio(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, &speech.MockClient{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("session_id", "sess-1")
	_ = writer.Close()

	res, err := http.Post(ts.URL+"/api/voice-chat", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	payload := decodeBody(t, res)
	if payload["code"] != "missing_audio" {
		t.Fatalf("code = %v, want missing_audio", payload["code"])
	}
}

func TestVoiceAgentRequiresAgentID(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, &speech.MockClient{TranscribeText: "hola"})

	res := postAudio(t, ts.URL+"/api/voice-agent", make([]byte, 4096), nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	payload := decodeBody(t, res)
	if payload["code"] != "missing_agent_id" {
		t.Fatalf("code = %v, want missing_agent_id", payload["code"])
	}
}

func TestVoiceAgentReportsVoiceUsed(t *testing.T) {
	brain := &llm.MockClient{Reply: "respuesta"}
	sp := &speech.MockClient{
		TranscribeText: "hola",
		SynthesisAudio: []byte("mp3"),
		Agent:          speech.AgentVoice{VoiceID: "custom-voice", Name: "Doctora Paraíso"},
	}
	ts := newTestServer(t, brain, sp)

	res := postAudio(t, ts.URL+"/api/voice-agent", make([]byte, 4096), map[string]string{"agent_id": "agent-1"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)
	if payload["voice_used"] != "custom-voice" {
		t.Fatalf("voice_used = %v, want custom-voice", payload["voice_used"])
	}
	if payload["agent_response"] != "respuesta" {
		t.Fatalf("agent_response = %v", payload["agent_response"])
	}
}

func TestClearConversation(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, nil)

	res := postJSON(t, ts.URL+"/api/clear-conversation", map[string]string{"session_id": "sess-1"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)
	if payload["session_id"] != "sess-1" {
		t.Fatalf("session_id = %v, want sess-1", payload["session_id"])
	}

	missing := postJSON(t, ts.URL+"/api/clear-conversation", map[string]string{})
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing session_id status = %d, want %d", missing.StatusCode, http.StatusBadRequest)
	}
	missing.Body.Close()
}

func TestTTSEndpoint(t *testing.T) {
	sp := &speech.MockClient{SynthesisAudio: []byte("mp3")}
	ts := newTestServer(t, nil, sp)

	res := postJSON(t, ts.URL+"/api/tts", map[string]string{"text": "hola"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)
	if payload["format"] != "mp3" {
		t.Fatalf("format = %v, want mp3", payload["format"])
	}
	if payload["audio"] == "" {
		t.Fatalf("audio empty, want base64 payload")
	}

	missing := postJSON(t, ts.URL+"/api/tts", map[string]string{})
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing text status = %d, want %d", missing.StatusCode, http.StatusBadRequest)
	}
	missing.Body.Close()
}

func TestHealthReportsProviderConfiguration(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, nil)

	res, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	payload := decodeBody(t, res)
	if payload["openai_configured"] != true {
		t.Fatalf("openai_configured = %v, want true", payload["openai_configured"])
	}
	if payload["elevenlabs_configured"] != false {
		t.Fatalf("elevenlabs_configured = %v, want false", payload["elevenlabs_configured"])
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &llm.MockClient{Reply: "x"}, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/text-chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	reqBad, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/text-chat", nil)
	reqBad.Header.Set("Origin", "https://evil.example.com")
	resBad, err := http.DefaultClient.Do(reqBad)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	defer resBad.Body.Close()
	if got := resBad.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin for disallowed origin = %q, want empty", got)
	}
}
