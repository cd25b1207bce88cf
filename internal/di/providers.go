package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/config"
	"mymemo-client/internal/credentials"
	"mymemo-client/internal/editsession"
	"mymemo-client/internal/gateway"
	"mymemo-client/internal/listview"
	"mymemo-client/internal/memos"
	"mymemo-client/internal/observability"
	"mymemo-client/internal/session"
)

// Logging is the root logger together with the level that controls it.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// TracerShutdown flushes and stops the tracer provider.
type TracerShutdown func(context.Context) error

// ProvideLogging creates the root logger.
func ProvideLogging(cfg *config.Config) (Logging, func(), error) {
	logger, level, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return Logging{}, nil, err
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger extracts the root logger.
func ProvideLogger(l Logging) *zap.Logger {
	return l.Logger
}

// ProvideMetrics creates the metrics collector.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracing installs the global tracer provider.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (TracerShutdown, func(), error) {
	shutdown, err := observability.InitTracing(ctx, cfg.Tracing.ServiceName, string(cfg.Environment), cfg.Tracing.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return shutdown, cleanup, nil
}

// ProvideCredentialStore opens the SQLite credential store at
// cfg.Credentials.Path, or keeps credentials in memory when no path is set.
func ProvideCredentialStore(cfg *config.Config, logger *zap.Logger) (credentials.Store, func(), error) {
	if cfg.Credentials.Path == "" {
		logger.Debug("Using in-memory credential store")
		return credentials.NewMemoryStore(), func() {}, nil
	}

	store := credentials.NewSQLiteStore(cfg.Credentials.Path)
	if err := store.Open(); err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close credential store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideGateway creates the API gateway.
func ProvideGateway(cfg *config.Config, store credentials.Store, logger *zap.Logger, metrics *observability.Collector) (*gateway.Gateway, error) {
	return gateway.New(cfg.API, store,
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithMetrics(metrics),
	)
}

// ProvideCache creates the shared query cache.
func ProvideCache(logger *zap.Logger, metrics *observability.Collector) *cache.Engine {
	return cache.NewEngine(logger.Named("cache"), metrics)
}

// ProvideMemoService creates the memo service.
func ProvideMemoService(api memos.API, engine *cache.Engine, logger *zap.Logger) *memos.Service {
	return memos.NewService(api, engine, logger.Named("memos"))
}

// ProvideViewOptions creates the view options store.
func ProvideViewOptions() *listview.Store {
	return listview.NewStore()
}

// ProvideSession restores the session and has it end whenever the server
// rejects the stored token.
func ProvideSession(
	ctx context.Context,
	gw *gateway.Gateway,
	store credentials.Store,
	logger *zap.Logger,
	engine *cache.Engine,
	opts *listview.Store,
) (*session.Manager, error) {
	mgr, err := session.NewManager(ctx, gw, store, logger.Named("session"), engine, opts)
	if err != nil {
		return nil, err
	}
	gw.OnUnauthorized(mgr.Invalidate)
	return mgr, nil
}

// ProvideProjector creates the list projector for the configured locale.
func ProvideProjector(cfg *config.Config) *listview.Projector {
	return listview.NewProjector(cfg.ListView.Locale)
}

// ProvideListController creates the list view controller.
func ProvideListController(
	svc *memos.Service,
	opts *listview.Store,
	mgr *session.Manager,
	projector *listview.Projector,
	logger *zap.Logger,
) *listview.Controller {
	return listview.NewController(svc, opts, mgr, projector, logger.Named("listview"))
}

// ProvideEditController creates the edit session controller.
func ProvideEditController(
	svc *memos.Service,
	confirmer editsession.Confirmer,
	navigator editsession.Navigator,
	logger *zap.Logger,
) *editsession.Controller {
	return editsession.NewController(svc, confirmer, navigator, logger.Named("editsession"))
}
