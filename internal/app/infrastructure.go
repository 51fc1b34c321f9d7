package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/trialconnect/agent/internal/config"
	"github.com/trialconnect/agent/internal/gateway"
	"github.com/trialconnect/agent/internal/store"
	"github.com/trialconnect/agent/pkg/observability"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

type Infrastructure interface {
	Store() store.Store
	Gateway() *gateway.Client
	Logger() *zap.Logger
	Metrics() *observability.AgentMetrics
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	store          store.Store
	gateway        *gateway.Client
	logger         *zap.Logger
	metrics        *observability.AgentMetrics
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	meterProvider, metricsHandler, err := observability.InitTelemetry("trialconnect-agent")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	metrics, err := observability.NewAgentMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	i.metrics = metrics

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisStore, err := store.NewRedis(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		i.store = redisStore
	default:
		i.store = store.NewMemory()
	}

	i.gateway = gateway.New(
		cfg.Backend.BaseURL,
		cfg.Backend.RequestTimeout.Duration,
		logger,
		metrics.GatewayRequests,
	)

	return i, nil
}

func (i *infrastructure) Store() store.Store {
	return i.store
}

func (i *infrastructure) Gateway() *gateway.Client {
	return i.gateway
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) Metrics() *observability.AgentMetrics {
	return i.metrics
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	errs := make(chan error, 3)

	go func() { errs <- i.store.Close() }()
	go func() { errs <- i.logger.Sync() }()
	go func() { errs <- observability.Shutdown(ctx, i.meterProvider, i.logger) }()

	return errors.Join(<-errs, <-errs, <-errs)
}
