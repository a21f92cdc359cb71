// Package server wires the application together and owns the HTTP lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appconfig "github.com/her-voice/companion/internal/config"
	"github.com/her-voice/companion/internal/extractor"
	"github.com/her-voice/companion/internal/memory_store"
	"github.com/her-voice/companion/internal/models"
	"github.com/her-voice/companion/internal/models/anthropic"
	"github.com/her-voice/companion/internal/models/openai"
	"github.com/her-voice/companion/internal/monitoring"
	"github.com/her-voice/companion/internal/orchestrator"
	"github.com/her-voice/companion/internal/prompt_manager"
	"github.com/her-voice/companion/internal/storage_manager"
	"github.com/her-voice/companion/internal/tts"
	"github.com/her-voice/companion/pkg/httpmiddleware"
	"github.com/her-voice/companion/pkg/logger"
	"github.com/her-voice/companion/pkg/metrics"
)

// Server encapsulates all components and lifecycle management.
type Server struct {
	cfg *appconfig.AppConfig
	log logger.Logger

	storageManager *storage_manager.StorageManager
	store          *memory_store.Store
	prompts        *prompt_manager.PromptManager
	sessions       *orchestrator.Manager
	metrics        metrics.Metrics
	health         *monitoring.HealthMonitor
	router         chi.Router

	cancel context.CancelFunc
}

// New creates a Server instance with all components initialized.
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	var err error
	s.storageManager, err = s.createStorageManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	// The store lives in its own namespace; the topic catalog override sits
	// beside it in "prompts".
	s.store = memory_store.New(memory_store.Config{
		Provider: s.storageManager.GetProvider("records"),
		Logger:   log,
	})
	s.prompts = prompt_manager.New(ctx, prompt_manager.Config{
		Store:    s.store,
		Provider: s.storageManager.GetProvider("prompts"),
		Logger:   log,
	})

	chatModel, err := s.createChatModel()
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	extractionModel, err := openai.New(cfg.OpenAI.APIKey, cfg.Memory.ExtractionModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction model: %w", err)
	}

	s.metrics = metrics.NewMetrics(cfg.Monitoring.MetricsEnabled, cfg.Monitoring.MetricsEnabled, log)

	memoryExtractor := extractor.New(extractor.Config{
		Model:   extractionModel,
		Store:   s.store,
		Logger:  log,
		Metrics: &s.metrics,
		Breaker: extractor.NewCircuitBreakerWithConfig(extractor.CircuitBreakerConfig{
			MaxFailures:          uint32(cfg.Memory.BreakerMaxFailures),
			Timeout:              cfg.Memory.BreakerTimeout,
			HalfOpenMaxSuccesses: 2,
		}),
	})

	s.sessions = orchestrator.NewManager(orchestrator.Config{
		Store:           s.store,
		Prompts:         s.prompts,
		Model:           chatModel,
		Extractor:       memoryExtractor,
		Logger:          log,
		ExtractionDelay: cfg.Memory.ExtractionDelay,
	})

	synthesizers, err := s.createSynthesizers()
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS backends: %w", err)
	}

	s.health = monitoring.NewHealthMonitor(monitoring.Config{
		Logger:           log,
		Version:          cfg.Version,
		Storage:          s.storageManager.GetRootProvider(),
		ChatAPIURL:       s.chatAPIURL(),
		Timeout:          cfg.Monitoring.HealthCheckTimeout,
		FailureThreshold: cfg.Health.FailureThreshold,
	})

	s.router = s.buildRouter(&api{
		store:        s.store,
		prompts:      s.prompts,
		sessions:     s.sessions,
		synthesizers: synthesizers,
		log:          log,
	})

	return s, nil
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	if s.cfg.Monitoring.MetricsEnabled {
		s.metrics.Listen(s.cfg.Monitoring.MetricsPort)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.IntField("port", s.cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second) //nolint:contextcheck // New context needed for shutdown
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // Using new context for graceful shutdown
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// buildRouter assembles the chi router with the full middleware stack.
func (s *Server) buildRouter(a *api) chi.Router {
	router := chi.NewRouter()

	mwConfig := httpmiddleware.DefaultConfig()
	mwConfig.Logger = s.log
	mwConfig.EnableLogging = true
	mwConfig.Timeout = s.cfg.RequestTimeout
	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		mwConfig.CORS.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	}
	mwConfig.EnableRateLimit = s.cfg.Security.RateLimitEnabled
	if mwConfig.EnableRateLimit {
		mwConfig.RateLimit = &httpmiddleware.RateLimitConfig{
			RequestsPerSecond: float64(s.cfg.Security.RateLimitRPS),
			Burst:             s.cfg.Security.RateLimitBurst,
		}
	}
	httpmiddleware.ApplyToRouter(router, mwConfig)

	router.Use(middleware.RequestSize(s.cfg.Security.MaxRequestSize))
	if s.cfg.Monitoring.MetricsEnabled {
		router.Use(s.metrics.HTTPMiddleware())
	}

	if s.cfg.Health.Enabled {
		router.Get(s.cfg.Health.LivenessPath, s.health.LivenessHandler())
		router.Get(s.cfg.Health.ReadinessPath, s.health.ReadinessHandler())
		router.Get(s.cfg.Health.CombinedPath, s.health.HealthHandler())
	}

	a.routes(router)
	return router
}

// createStorageManager creates a storage manager based on configuration.
func (s *Server) createStorageManager(ctx context.Context) (*storage_manager.StorageManager, error) {
	cfg := &s.cfg.Storage

	switch cfg.Backend {
	case appconfig.StorageBackendLocal:
		s.log.Info("Using local file-based storage", logger.StringField("directory", cfg.LocalDir))

		// 0750 needed for directory traversal
		if err := os.MkdirAll(cfg.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}

		return storage_manager.New(storage_manager.Config{
			Backend: storage_manager.BackendLocal,
			LocalConfig: &storage_manager.LocalConfig{
				BaseDir: cfg.LocalDir,
			},
		})

	case appconfig.StorageBackendS3:
		s.log.Info("Using S3-based storage",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix),
			logger.StringField("region", cfg.S3Region))

		configOptions := []func(*awsconfig.LoadOptions) error{}
		if cfg.S3Profile != "" {
			configOptions = append(configOptions, awsconfig.WithSharedConfigProfile(cfg.S3Profile))
		}
		if cfg.S3Region != "" {
			configOptions = append(configOptions, awsconfig.WithRegion(cfg.S3Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		return storage_manager.New(storage_manager.Config{
			Backend: storage_manager.BackendS3,
			S3Config: &storage_manager.S3Config{
				Bucket: cfg.S3Bucket,
				Prefix: cfg.S3Prefix,
				Client: s3.NewFromConfig(awsCfg),
			},
		})

	case appconfig.StorageBackendPostgres:
		s.log.Info("Using Postgres-based storage")

		return storage_manager.New(storage_manager.Config{
			Backend: storage_manager.BackendPostgres,
			PostgresConfig: &storage_manager.PostgresConfig{
				DSN: cfg.PostgresDSN,
			},
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local', 's3', or 'postgres')", cfg.Backend)
	}
}

// createChatModel creates the conversation model for the configured provider.
func (s *Server) createChatModel() (models.ChatModel, error) {
	provider := strings.ToLower(s.cfg.LLM.Provider)

	switch provider {
	case appconfig.ProviderClaude:
		s.log.Info("Initializing Claude model",
			logger.StringField("model", s.cfg.Anthropic.Model))
		return anthropic.NewClaudeModel(s.cfg.Anthropic.APIKey, s.cfg.Anthropic.Model)

	case appconfig.ProviderOpenAI:
		s.log.Info("Initializing OpenAI model",
			logger.StringField("model", s.cfg.OpenAI.Model))
		return openai.New(s.cfg.OpenAI.APIKey, s.cfg.OpenAI.Model)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// createSynthesizers builds the available TTS backends, keyed by provider name.
func (s *Server) createSynthesizers() (map[string]tts.Synthesizer, error) {
	synthesizers := make(map[string]tts.Synthesizer)

	if s.cfg.OpenAI.APIKey != "" {
		openaiTTS, err := tts.NewOpenAISynthesizer(s.cfg.OpenAI.APIKey, s.cfg.OpenAI.TTSModel)
		if err != nil {
			return nil, err
		}
		synthesizers[openaiTTS.Provider()] = openaiTTS
	}

	if s.cfg.ElevenLabs.APIKey != "" {
		elevenLabs, err := tts.NewElevenLabsSynthesizer(tts.ElevenLabsConfig{
			APIKey:  s.cfg.ElevenLabs.APIKey,
			VoiceID: s.cfg.ElevenLabs.VoiceID,
			BaseURL: s.cfg.ElevenLabs.APIBaseURL,
			Timeout: s.cfg.ElevenLabs.Timeout,
		})
		if err != nil {
			return nil, err
		}
		synthesizers[elevenLabs.Provider()] = elevenLabs
		s.log.Info("ElevenLabs TTS enabled")
	}

	return synthesizers, nil
}

// chatAPIURL returns the vendor base URL probed by the readiness check.
func (s *Server) chatAPIURL() string {
	if strings.ToLower(s.cfg.LLM.Provider) == appconfig.ProviderClaude {
		return s.cfg.Anthropic.APIBaseURL
	}
	return s.cfg.OpenAI.APIBaseURL
}

// setupGracefulShutdown sets up signal handling for graceful shutdown.
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		if s.cancel != nil {
			s.cancel()
		}

		// Give in-flight requests time to finish, then force exit.
		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}
