package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"meet-lab/auth"
	"meet-lab/infrastructure/api"
	"meet-lab/infrastructure/ws"
	"meet-lab/internal"
	"meet-lab/notification"
	"meet-lab/observability"
	"meet-lab/relay"
	"meet-lab/repositories"
	"meet-lab/runtime"
	"meet-lab/runtime/workers"
	"meet-lab/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownGracePeriod = 10 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Coordinator terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if config.RequireJoinToken && config.JoinTokenSecret == "" {
		return exitConfig, fmt.Errorf("REQUIRE_JOIN_TOKEN is set but JOIN_TOKEN_SECRET is empty")
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Collaborators
	monitoring := observability.NewMonitoring()
	registry := runtime.NewRegistry()
	coordinator := runtime.NewCoordinator(log, config.BufferSize, config.InboxIdleTTL)
	meetingRepository := repositories.NewMeetingRepository(db, log)
	userDirectory := repositories.NewUserDirectory(db)
	signalRelay := relay.NewRelay(log, registry, monitoring, config.SinkTimeout)

	var issuer *auth.TokenIssuer
	if config.JoinTokenSecret != "" {
		issuer = auth.NewTokenIssuer(config.JoinTokenSecret, config.JoinTokenDuration)
	}

	var gateway notification.INotificationGateway
	if config.SMTPHost != "" {
		gateway = notification.NewSMTPGateway(log, config.SMTPHost, config.SMTPPort,
			config.SMTPFrom, config.SMTPUsername, config.SMTPPassword)
	} else {
		gateway = notification.NewNoopGateway(log)
	}

	admission := services.NewAdmissionService(log, meetingRepository, userDirectory,
		registry, signalRelay, coordinator, monitoring)
	scheduling := services.NewSchedulingService(log, meetingRepository, userDirectory,
		issuer, gateway, config.FrontendURL)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	supervisor := workers.NewSupervisor(log)
	supervisor.Add(
		coordinator,
		workers.NewBacklogWorker(log, coordinator, registry,
			config.MetricInterval, config.LowCapacityThreshold),
		workers.NewProcessStatsWorker(log, monitoring, config.MetricInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 6. HTTP + websocket server
	wsHandler := ws.NewHandler(log, admission, signalRelay, monitoring,
		issuer, config.RequireJoinToken, config.ConnectionBufferSize)
	apiHandler := api.NewHandler(log, scheduling, userDirectory)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWs)
	apiHandler.Register(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting meeting coordinator", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return exitOK, nil
}
