// Package observability provides the dashboard's request logging, Prometheus metrics,
// health checks and OpenTelemetry tracing.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.ParseLogLevel("info"), os.Stdout)
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithError(err).Error("aggregation failed")
//
// # Prometheus Metrics
//
// Metrics implements the cache refresh observer, so it can be handed straight to the caches:
//
//	metrics := observability.NewMetrics(registry)
//	cfg.Observer = metrics
//
// # Health Checks
//
// Readiness is degraded while any snapshot cache has never loaded:
//
//	checker := observability.NewHealthChecker(db, redisClient, version).WithCaches(time.Hour, services, providers, crm)
//	observability.RegisterHealthRoutes(mux, checker)
//
// # OpenTelemetry
//
//	tp, err := observability.InitOTel(ctx, observability.OTelConfig{Enabled: true, Endpoint: "otel-collector:4317"}, logger)
//	defer observability.ShutdownOTel(ctx, tp, logger)
package observability
