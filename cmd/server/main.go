package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"fable-lab/ai"
	"fable-lab/contract"
	"fable-lab/infrastructure/storage"
	"fable-lab/infrastructure/ws"
	"fable-lab/internal"
	"fable-lab/observability"
	"fable-lab/runtime"
	"fable-lab/runtime/workers"
	"fable-lab/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	roomRepository := storage.NewRoomRepository(db, logger)
	audioRepository := storage.NewAudioRepository(db, logger)

	// 3. Outbound AI clients
	generator := ai.NewOpenAIGenerator(
		config.OpenAIBaseURL, config.OpenAIModel,
		config.OpenAIFastURL, config.OpenAIFastModel,
		config.OpenAIAPIKey, logger,
	)

	var narrator contract.Narrator
	if config.TTSBaseURL != nil {
		narrator = ai.NewAllTalkNarrator(*config.TTSBaseURL, config.TTSVoice, audioRepository, logger)
	} else {
		logger.Info("TTS_BASE_URL not set, narration disabled")
	}

	// 4. Supervision & Orchestration
	sup := workers.NewSupervisor(logger)
	registry := runtime.NewRegistry()
	stats := &observability.GameStats{}

	orchestrator := runtime.NewOrchestrator(
		logger, sup, registry, roomRepository, generator, narrator, stats,
		runtime.OrchestratorOptions{
			BufferSize:         config.BufferSize,
			RoomQueueSize:      config.RoomQueueSize,
			PersistRetries:     config.PersistRetries,
			SinkTimeout:        config.SinkTimeout,
			MetricInterval:     config.MetricInterval,
			GenerationTimeout:  config.GenerationTimeout,
			GenerationAttempts: config.GenerationAttempts,
			CharReplacement:    charReplacement,
		},
	)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Error (HTTP & Orchestrator)
	errChan := make(chan error, 2)

	// 6. Start the Engine (Workers and Fanout)
	go func() {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
		}
	}()

	// 7. WebSocket Server Setup
	adminService := services.NewAdminService(orchestrator, config.AdminPasswordHash, logger)
	gameService := services.NewGameService(orchestrator, adminService)
	server := ws.NewServer(config.Host, config.Port, gameService, audioRepository, logger)

	go func() {
		if err := server.Run(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	// The execution blocks here until either a signal is received or a component crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	orchestrator.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
