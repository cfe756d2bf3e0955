package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrSnakeDoc/anansi/internal/config"
	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/httpserver"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/metrics"
	"github.com/MrSnakeDoc/anansi/internal/scheduler"
	"github.com/MrSnakeDoc/anansi/internal/sources/yamlfile"
	"github.com/MrSnakeDoc/anansi/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	backend  *Backend
	importer *scheduler.Importer
}

// New connects the backends and assembles the HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	svc := domain.NewBookmarkService(backend.Store)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize importer (if an import file is configured)
	var importer *scheduler.Importer
	var importTrigger func() bool
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing importer",
			logger.String("file", cfg.ImportFile))
		importLog := loggerClient.Named("import")
		importer = scheduler.NewImporter(
			yamlfile.NewImporter(cfg.ImportFile, svc, importLog),
			importLog,
			m,
			cfg.ImportInterval,
		)
		importTrigger = importer.Trigger
	} else {
		loggerClient.Info("import file not configured, yaml import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		Bookmarks:          svc,
		Metrics:            m,
		ImportTrigger:      importTrigger,
		DefaultPageSize:    cfg.DefaultPageSize,
		RateLimitBurst:     cfg.RateLimitBurst,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	if backend.Cache != nil {
		d.Cache = backend.Cache
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg, loggerClient, d),
		backend:  backend,
		importer: importer,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting Anansi v%s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Infof("Anansi %s (commit=%s, built=%s, go=%s, store=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.StoreBackend)

	defer a.backend.Close()

	// Start importer (if enabled)
	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start importer: %w", err)
		}
		a.logger.Info("importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	// Stop importer
	if a.importer != nil {
		a.importer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	a.logger.Info("✅ Anansi stopped cleanly")
	return nil
}
