package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/livescribe/internal/api"
	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/internal/websocket"
	"github.com/yegors/livescribe/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting livescribe server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.String("environment", cfg.Server.Environment),
		logger.String("language", cfg.Speech.Language),
		logger.String("translation_provider", cfg.Translation.Provider),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A broken provider setup only disables translation; the page still transcribes
	provider, err := translation.NewProvider(ctx, cfg.Translation, log)
	if err != nil {
		log.Error("Translation provider unavailable, translation is disabled", logger.Error(err))
		provider = nil
	}

	wsServer := websocket.NewServer(log)
	sessions := websocket.NewSessionHandler(ctx, websocket.SessionHandlerConfig{
		Session: session.Config{
			Language:               cfg.Speech.Language,
			DefaultTargetLanguage:  cfg.Translation.DefaultTargetLanguage,
			DurationTickInterval:   time.Duration(cfg.Session.DurationTickMs) * time.Millisecond,
			AudioLevelTickInterval: time.Duration(cfg.Session.AudioLevelTickMs) * time.Millisecond,
		},
		MicrophoneTimeout: time.Duration(cfg.Session.MicrophoneTimeoutSeconds) * time.Second,
	}, func() session.Translator {
		return newTranslator(provider, cfg, log)
	}, log)
	wsServer.SetMessageHandler(sessions)
	go wsServer.Run(ctx)

	router := api.NewRouter(cfg, provider, wsServer, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("Shutting down server...", logger.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server error", logger.String("addr", addr), logger.Error(err))
	}

	wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeStatus,
		Data: map[string]any{"message": "Server is shutting down", "level": string(session.StatusWarning)},
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	// Stops the hub and every browser session
	cancel()

	log.Info("Server fully stopped")
}

// newTranslator gives each browser session its own client so target language
// and debounce state are not shared between tabs
func newTranslator(provider translation.Provider, cfg *config.Config, log *logger.Logger) session.Translator {
	if provider == nil {
		return translation.NewClient(unavailableProvider{}, log)
	}
	return translation.NewClient(provider, log,
		translation.WithDebounce(time.Duration(cfg.Translation.InterimDebounceMs)*time.Millisecond))
}

type unavailableProvider struct{}

func (unavailableProvider) Translate(ctx context.Context, texts []string, from, to string) ([]string, error) {
	return nil, fmt.Errorf("translation provider is not configured")
}
