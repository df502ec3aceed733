package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yegors/livescribe/internal/audio"
	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/internal/recognition"
	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/internal/tui"
	"github.com/yegors/livescribe/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	serverURL := flag.String("server", "", "Base URL of a livescribe server to read /api/config from (optional)")
	language := flag.String("language", "", "Recognition language, e.g. en-US (overrides config and server)")
	exportDir := flag.String("export-dir", ".", "Directory transcript exports are written to")
	logFile := flag.String("log-file", "livescribe.log", "File to write logs to")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a file so they do not draw over the terminal UI
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{*logFile},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting livescribe terminal client",
		logger.String("version", Version),
		logger.String("server_url", *serverURL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Flags win over the server, which wins over the local file and environment
	overrides := map[string]string{
		config.EnvSpeechLanguage:        *language,
		config.EnvDefaultTargetLanguage: os.Getenv(config.EnvDefaultTargetLanguage),
	}
	if *serverURL == "" {
		overrides[config.EnvSpeechLanguage] = firstNonEmpty(*language, cfg.Speech.Language)
		overrides[config.EnvDefaultTargetLanguage] = cfg.Translation.DefaultTargetLanguage
	}
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 10*time.Second)
	client := config.NewProvider(*serverURL, overrides, log).Resolve(fetchCtx)
	fetchCancel()

	provider, err := translation.NewProvider(ctx, cfg.Translation, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating translation provider: %v\n", err)
		os.Exit(1)
	}
	translator := translation.NewClient(provider, log,
		translation.WithDebounce(time.Duration(cfg.Translation.InterimDebounceMs)*time.Millisecond))

	mic := audio.NewLocalMicrophone(cfg.Recognition.SampleRate, log)
	engine := recognition.NewGoogleEngine(recognition.GoogleConfig{
		CredentialsFile: cfg.Recognition.CredentialsFile,
		SampleRate:      cfg.Recognition.SampleRate,
	}, log)

	// The program is created first so the sink can deliver into it
	var program *tea.Program
	sink := tui.NewSink(func(msg tea.Msg) {
		program.Send(msg)
	})

	controller := session.NewController(session.Config{
		Language:               client.Language,
		DefaultTargetLanguage:  client.DefaultTargetLanguage,
		DurationTickInterval:   time.Duration(cfg.Session.DurationTickMs) * time.Millisecond,
		AudioLevelTickInterval: time.Duration(cfg.Session.AudioLevelTickMs) * time.Millisecond,
	}, mic, engine, translator, log, session.WithSink(sink))

	model := tui.New(ctx, controller, tui.Options{
		Language:              client.Language,
		DefaultTargetLanguage: client.DefaultTargetLanguage,
		ExportDir:             *exportDir,
	})
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		if err := controller.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("Session controller stopped", logger.Error(err))
		}
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		log.Error("Terminal UI error", logger.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	// Releases the microphone and recognizer
	cancel()
	<-controller.Done()

	log.Info("Terminal client stopped")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
