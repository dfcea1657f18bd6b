package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Origins that must always be allowed regardless of CORS_ORIGINS.
var baseCORSOrigins = []string{
	"https://legbotdev.pradosdeparaiso.com.pe",
	"https://www.legbotdev.pradosdeparaiso.com.pe",
	"http://localhost:3000",
	"http://localhost:3001",
}

// Config contains all runtime settings for the legal assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	CORSOrigins []string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	ElevenLabsAPIKey    string
	ElevenLabsBaseURL   string
	ElevenLabsWSBaseURL string
	STTModelID          string
	TTSModelID          string

	DefaultVoiceID     string
	AgentVoiceID       string
	AgentVoiceName     string
	AgentLookupTimeout time.Duration

	DatabaseURL   string
	HistoryLimit  int
	MinAudioBytes int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "legalhub"),
		CORSOrigins:         mergeCORSOrigins(os.Getenv("CORS_ORIGINS")),
		OpenAIAPIKey:        stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:       stringsTrimSpace("OPENAI_BASE_URL"),
		ElevenLabsAPIKey:    stringsTrimSpace("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL:   envOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsWSBaseURL: envOrDefault("ELEVENLABS_WS_BASE_URL", "wss://api.elevenlabs.io"),
		STTModelID:          envOrDefault("ELEVENLABS_STT_MODEL_ID", "scribe_v1"),
		TTSModelID:          envOrDefault("ELEVENLABS_TTS_MODEL_ID", "eleven_multilingual_v2"),
		// Rachel, multilingual premade voice used for the plain voice flows.
		DefaultVoiceID: envOrDefault("ELEVENLABS_TTS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		// Dr. Prados persona voice mirrored from the ElevenLabs agent config.
		AgentVoiceID:       envOrDefault("ELEVENLABS_AGENT_VOICE_ID", "5kMbtRSEKIkRZSdXxrZg"),
		AgentVoiceName:     envOrDefault("AGENT_VOICE_NAME", "Doctor Prados de Paraiso"),
		AgentLookupTimeout: 5 * time.Second,
		DatabaseURL:        stringsTrimSpace("DATABASE_URL"),
		HistoryLimit:       20,
		MinAudioBytes:      1000,
		ShutdownTimeout:    15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AgentLookupTimeout, err = durationFromEnv("AGENT_LOOKUP_TIMEOUT", cfg.AgentLookupTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.MinAudioBytes, err = intFromEnv("MIN_AUDIO_BYTES", cfg.MinAudioBytes)
	if err != nil {
		return Config{}, err
	}

	if cfg.HistoryLimit < 2 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be at least 2 (one user/assistant pair)")
	}
	if cfg.MinAudioBytes <= 0 {
		return Config{}, fmt.Errorf("MIN_AUDIO_BYTES must be positive")
	}
	if cfg.AgentLookupTimeout <= 0 {
		return Config{}, fmt.Errorf("AGENT_LOOKUP_TIMEOUT must be positive")
	}

	return cfg, nil
}

// mergeCORSOrigins combines the hardcoded production origins with any extras
// from the environment. The hardcoded set always wins on conflicts.
func mergeCORSOrigins(raw string) []string {
	origins := append([]string(nil), baseCORSOrigins...)
	seen := make(map[string]bool, len(origins))
	for _, o := range origins {
		seen[o] = true
	}
	raw = trimSpace(raw)
	if raw == "" || raw == "*" {
		return origins
	}
	for _, part := range strings.Split(raw, ",") {
		o := trimSpace(part)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	return strings.TrimSpace(v)
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
