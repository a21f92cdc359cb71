package main

import (
	"context"
	"log"
	"os"

	appconfig "github.com/her-voice/companion/internal/config"
	"github.com/her-voice/companion/internal/server"
	"github.com/her-voice/companion/pkg/config"
	"github.com/her-voice/companion/pkg/logger"
)

func main() {
	ctx := context.Background()

	// Optional YAML config file; environment variables take precedence.
	configFile := os.Getenv("CONFIG_FILE")

	var cfg appconfig.AppConfig
	if err := config.GetConfig(&cfg, configFile, true); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})
	cfg.LogConfig(appLogger)

	srv, err := server.New(ctx, &cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize server", logger.ErrorField(err))
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		appLogger.Error("Server exited with error", logger.ErrorField(err))
		os.Exit(1)
	}
}
