package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/selfservice/pkg/actions"
	"github.com/platinummonkey/selfservice/pkg/api"
	"github.com/platinummonkey/selfservice/pkg/async"
	"github.com/platinummonkey/selfservice/pkg/cache"
	"github.com/platinummonkey/selfservice/pkg/config"
	"github.com/platinummonkey/selfservice/pkg/crm"
	"github.com/platinummonkey/selfservice/pkg/csa"
	"github.com/platinummonkey/selfservice/pkg/directory"
	"github.com/platinummonkey/selfservice/pkg/email"
	"github.com/platinummonkey/selfservice/pkg/facets"
	"github.com/platinummonkey/selfservice/pkg/observability"
	"github.com/platinummonkey/selfservice/pkg/registry"
	"github.com/platinummonkey/selfservice/pkg/ticket"
)

const dbStatsInterval = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("selfservice stopped")
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := newLogrus(cfg.Observability.LogLevel)
	httpLogger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	async.SetLogger(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, httpLogger)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("Connected to PostgreSQL")

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = openRedis(ctx, cfg.Redis)
		if err != nil {
			db.Close()
			return err
		}
		logger.Info("Connected to Redis, registry snapshots will be kept as fallback")
	}

	var metrics *observability.Metrics
	promRegistry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(promRegistry)
	}

	// Caches
	cacheCfg := &cache.Config{
		DefaultLocale:   cfg.Locale.Default,
		LocaleCacheSize: cfg.Locale.CacheSize,
		LocaleCacheTTL:  cfg.Locale.CacheTTL,
		Logger:          logger,
	}
	if metrics != nil {
		cacheCfg.Observer = metrics
	}

	reg := newRegistry(cfg.Registry, rdb, logger)
	services := cache.NewServicesCache(reg, cacheCfg)
	providers := cache.NewProviderCache(reg, cacheCfg)
	crmData := cache.NewCrmCache(crm.NewPostgresSource(db), cacheCfg)

	scheduler := cache.NewScheduler(logger, cfg.Refresh.Timeout)
	for _, job := range []struct {
		spec string
		c    cache.Refreshable
	}{
		{cfg.Refresh.Services, services},
		{cfg.Refresh.Providers, providers},
		{cfg.Refresh.Crm, crmData},
	} {
		if err := scheduler.Register(job.spec, job.c); err != nil {
			return err
		}
	}

	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.Refresh.Timeout)
	if err := scheduler.RefreshAll(warmCtx); err != nil {
		logger.WithError(err).Warn("Initial cache load incomplete, serving what loaded until the next refresh")
	}
	warmCancel()
	scheduler.Start()

	if cfg.Registry.Type == config.RegistryFile && cfg.Registry.Watch {
		err := registry.Watch(ctx, cfg.Registry.File, logger, func() {
			async.SafeGo(ctx, cfg.Refresh.Timeout, "registry reload", scheduler.RefreshAll)
		})
		if err != nil {
			logger.WithError(err).Warn("Registry file watch disabled")
		}
	}

	// Core
	actionStore := actions.NewPostgresStore(db)
	dir := directory.New(providers)
	csaCfg := csa.Config{
		DefaultLocale: services.DefaultLocale(),
		TicketEnabled: cfg.Features.TicketEnabled,
		EmailEnabled:  cfg.Features.EmailEnabled,
		MailCC:        cfg.Email.CC,
		Logger:        logger,
	}
	if metrics != nil {
		csaCfg.Observer = metrics
	}
	deps := csa.Dependencies{
		Catalog:      services,
		Connectivity: providers,
		Crm:          crmData,
		Directory:    dir,
		Facets:       facets.NewPostgresStore(db),
		Actions:      actionStore,
	}
	if cfg.Features.TicketEnabled {
		deps.Tickets = ticket.NewHTTPClient(ctx, cfg.Ticket)
	}
	var emailer *email.SMTPEmailer
	if cfg.Features.EmailEnabled {
		emailer = email.NewSMTPEmailer(ctx, cfg.Email.SMTP, logger)
		deps.Mailer = email.NewService(cfg.Email.AdminEmails, emailer)
	}
	aggregator := csa.New(deps, csaCfg)

	// HTTP
	apiServer := api.NewServer(api.Options{
		Aggregator:     aggregator,
		Actions:        actionStore,
		Users:          api.NewHeaderUserResolver(dir),
		Institutions:   dir,
		Logger:         httpLogger,
		Metrics:        metrics,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	apiSrv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	checker := observability.NewHealthChecker(db, rdb, cfg.Observability.OTelServiceVersion).
		WithCaches(cfg.Refresh.MaxAge, services, providers, crmData)
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, checker)
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, promRegistry)
		go recordDBStats(ctx, db, metrics)
	}
	healthSrv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdown := observability.NewShutdownManager(httpLogger, cfg.Server.ShutdownTimeout, apiSrv, healthSrv)
	shutdown.RegisterShutdownFunc("scheduler", func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if emailer != nil {
		shutdown.RegisterShutdownFunc("mail queue", func(context.Context) error {
			return emailer.Close(cfg.Server.ShutdownTimeout)
		})
	}
	shutdown.RegisterShutdownFunc("tracing", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, tp, httpLogger)
	})
	if rdb != nil {
		shutdown.RegisterShutdownFunc("redis", func(context.Context) error { return rdb.Close() })
	}

	serve(apiSrv, "api", logger, cancel)
	serve(healthSrv, "health", logger, cancel)

	// Wait for termination signal, or for a server to fail
	waitErr := shutdown.WaitForShutdown(ctx)
	cancel()
	if err := db.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close database")
	}
	return waitErr
}

func serve(srv *http.Server, name string, logger *logrus.Logger, cancel context.CancelFunc) {
	go func() {
		logger.Infof("Starting %s server on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Errorf("%s server failed", name)
			cancel()
		}
	}()
}

func newLogrus(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(level.String()); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// newRegistry builds the configured registry client, wrapped with the redis snapshot fallback when available
func newRegistry(cfg config.RegistryConfig, rdb *redis.Client, logger *logrus.Logger) registry.Registry {
	var reg registry.Registry
	switch cfg.Type {
	case config.RegistryFile:
		reg = registry.NewFileRegistry(cfg.File)
	default:
		reg = registry.NewHTTPRegistry(cfg.URL, cfg.Timeout)
	}
	if rdb != nil {
		return registry.NewFallbackRegistry(reg, rdb, logger)
	}
	return reg
}

func recordDBStats(ctx context.Context, db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordDBStats(db.Stats())
		}
	}
}
