package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pradosdeparaiso/legalhub/internal/chat"
	"github.com/pradosdeparaiso/legalhub/internal/config"
	"github.com/pradosdeparaiso/legalhub/internal/history"
	"github.com/pradosdeparaiso/legalhub/internal/httpapi"
	"github.com/pradosdeparaiso/legalhub/internal/llm"
	"github.com/pradosdeparaiso/legalhub/internal/observability"
	"github.com/pradosdeparaiso/legalhub/internal/speech"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := history.NewStore(ctx, cfg.DatabaseURL, cfg.HistoryLimit)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("history store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("history store: postgres")
	}

	var llmClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		llmClient = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		log.Printf("language model: openai")
	} else {
		log.Printf("OPENAI_API_KEY not set, completions disabled")
	}

	var (
		stt    speech.Transcriber
		tts    speech.Synthesizer
		agents speech.AgentDirectory
	)
	if cfg.ElevenLabsAPIKey != "" {
		el := speech.NewElevenLabsClient(speech.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			BaseURL:    cfg.ElevenLabsBaseURL,
			WSBaseURL:  cfg.ElevenLabsWSBaseURL,
			STTModelID: cfg.STTModelID,
			TTSModelID: cfg.TTSModelID,
		})
		stt, tts, agents = el, el, el
		log.Printf("speech provider: elevenlabs")
	} else {
		log.Printf("ELEVENLABS_API_KEY not set, voice flows disabled")
	}

	service := chat.NewService(llmClient, stt, tts, agents, store, metrics, chat.Config{
		MinAudioBytes:      cfg.MinAudioBytes,
		AgentLookupTimeout: cfg.AgentLookupTimeout,
		Voice:              chat.VoiceFlow(cfg.DefaultVoiceID),
		Text:               chat.TextFlow(cfg.AgentVoiceID, cfg.AgentVoiceName),
		Agent:              chat.AgentFlow(cfg.AgentVoiceID, cfg.AgentVoiceName),
	})

	api := httpapi.New(cfg, service)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
