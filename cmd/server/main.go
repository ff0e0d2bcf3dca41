package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/routes"
	"jobscout/internal/background"
	"jobscout/internal/callback"
	"jobscout/internal/config"
	"jobscout/internal/fetch"
	"jobscout/internal/llm"
	"jobscout/internal/logging"
	"jobscout/internal/orchestrator"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting JobScout", map[string]interface{}{
		"address": cfg.GetServerAddress(),
	})

	ctx := context.Background()

	// Initialize LLM manager
	llmManager, err := llm.NewManager(cfg)
	if err != nil {
		logger.Error("Failed to create LLM manager", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	if err := llmManager.Start(ctx); err != nil {
		logger.Error("Failed to start LLM manager", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Initialize fetch engines
	engines, err := fetch.NewEngines(cfg)
	if err != nil {
		logger.Error("Failed to initialize fetch engines", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer engines.Cleanup()

	// Initialize orchestrator
	orch := orchestrator.New(cfg, engines, llmManager)

	// Task store: Redis when reachable, in-memory otherwise
	var store background.TaskStore
	if redisStore, err := background.NewRedisTaskStore(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, using in-memory task store", map[string]interface{}{
			"error": err.Error(),
		})
		store = background.NewInMemoryTaskStore()
	} else {
		store = redisStore
	}

	// Initialize background task manager
	callbackClient := callback.NewClient(cfg)
	taskManager := background.NewManager(cfg, store, orch, callbackClient)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Setup routes
	routes.SetupRoutes(e, cfg, orch, llmManager, taskManager, engines)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := taskManager.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
		}

		if err := llmManager.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
		}

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	if err := e.Start(cfg.GetServerAddress()); err != nil {
		logger.Error("Server stopped", map[string]interface{}{"error": err.Error()})
	}
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if _, err := os.Stat("configs/config.yaml"); err == nil {
		return "configs/config.yaml"
	}
	return ""
}
