package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docgrader/app/api"
	"docgrader/app/cfg"
	"docgrader/app/config"
	"docgrader/app/database"
	"docgrader/app/jobs"
	"docgrader/app/rating"
	"docgrader/app/stats"
	"docgrader/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting DocGrader server...", "version", appCfg.Version)

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()
	slog.Info("Database opened", "path", appCfg.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	// Load rating and source configurations
	loader := config.NewLoader(appCfg.ConfigDir)
	ratingConfig, err := loader.LoadRating()
	if err != nil {
		log.Fatal("Failed to load rating configuration:", err)
	}
	sources, err := loader.LoadSources()
	if err != nil {
		log.Fatal("Failed to load source configurations:", err)
	}
	slog.Info("Configuration loaded", "config_dir", appCfg.ConfigDir, "sources", len(sources))

	// Initialize repositories
	jobRepo := database.NewJobRepository(db)
	itemRepo := database.NewItemRepository(db)
	ratingRepo := database.NewRatingRepository(db)

	// Initialize core components
	engine, err := rating.NewEngine(*ratingConfig, itemRepo, ratingRepo)
	if err != nil {
		log.Fatal("Failed to initialize rating engine:", err)
	}
	manager := jobs.NewManager(jobRepo, itemRepo, appCfg.WorkerCount, appCfg.UserAgent, appCfg.AllowedDomains)
	defer manager.Shutdown()
	reporter := stats.NewReporter(itemRepo, ratingRepo)

	// Initialize and start scheduler
	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(sources, manager, engine)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	apiHandler := api.NewHandler(manager, engine, reporter, scheduler, sources, ratingConfig.Thresholds.Average)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("DocGrader server started successfully")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler and job manager are stopped via defers
	slog.Info("DocGrader server shutdown complete")
}
