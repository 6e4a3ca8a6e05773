package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/config"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/history"
	"marketwatch/internal/httpapi"
	"marketwatch/internal/market"
	"marketwatch/internal/metrics"
	"marketwatch/internal/normalizer"
	"marketwatch/internal/pricing"
	"marketwatch/internal/scheduler"
	"marketwatch/internal/service"
	"marketwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

// components is the fully wired object graph shared by the commands.
type components struct {
	store     *storage.Store
	redis     *redis.Client
	metrics   *metrics.Metrics
	directory *fetcher.Directory
	market    *fetcher.Market
	notifier  *alerting.TelegramNotifier
	evaluator *alerting.Evaluator
	service   *service.Service
	catalog   *service.Catalog
}

func (c *components) close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, error) {
	if a.Config.Database.DSN == "" {
		return nil, errors.New("database.dsn not configured")
	}
	return storage.Open(ctx, a.Config.Database, a.Config.App.Name)
}

// openRedis returns nil when no address is configured or the server is unreachable.
func (a *App) openRedis(ctx context.Context) *redis.Client {
	if a.Config.Cache.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: a.Config.Cache.RedisAddr,
		DB:   a.Config.Cache.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.Logger.Warn().Err(err).Str("addr", a.Config.Cache.RedisAddr).Msg("redis unreachable; using in-process cache without rate limiting")
		_ = client.Close()
		return nil
	}
	return client
}

func (a *App) newMarket(rdb *redis.Client, rec fetcher.CacheRecorder) *fetcher.Market {
	up := a.Config.Upstream
	opts := []fetcher.Option{fetcher.WithRecorder(rec)}
	if rdb != nil {
		opts = append(opts, fetcher.WithCache(fetcher.NewRedisCache(rdb, a.Config.Cache.RedisPrefix)))
		if l := fetcher.NewRedisLimiter(rdb, a.Config.Cache.RedisPrefix+"upstream", up.RatePerMinute); l != nil {
			opts = append(opts, fetcher.WithLimiter(l))
		}
	}
	return fetcher.NewMarket(fetcher.MarketOptions{
		DataURL:   up.DataURL,
		NamesURL:  up.NamesURL,
		Referer:   up.Referer,
		UserAgent: up.UserAgent,
		Timeout:   up.RequestTimeout,
		ServerTTL: a.Config.Cache.ServerTTL,
		NamesTTL:  a.Config.Cache.NamesTTL,
	}, a.Logger, opts...)
}

func (a *App) telegramFallback() *market.TelegramSettings {
	tg := a.Config.Alerting.Telegram
	if !tg.Enabled {
		return nil
	}
	return &market.TelegramSettings{BotToken: tg.BotToken, ChatID: tg.ChatID, Active: true}
}

// wire opens the store and builds every component on top of it.
func (a *App) wire(ctx context.Context, reg *prometheus.Registry) (*components, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	c := &components{store: store}
	c.metrics = metrics.New(reg)
	c.redis = a.openRedis(ctx)
	c.directory = fetcher.NewDirectory(a.Config.Upstream.Servers)
	c.market = a.newMarket(c.redis, c.metrics)

	tg := a.Config.Alerting.Telegram
	c.notifier = alerting.NewTelegramNotifier(tg.APIBase, tg.Timeout, a.Logger)

	aggregator := pricing.NewAggregator(store)
	reconstructor := history.NewReconstructor(store)

	c.evaluator = alerting.NewEvaluator(store, store, aggregator, c.notifier, a.telegramFallback(), a.Config.Alerting.Cooldown, a.Logger)
	c.evaluator.SetRecorder(c.metrics)

	ingestor := normalizer.NewIngestor(c.market, c.directory, store, a.Config.Upstream.Language, a.Logger)
	c.service = service.New(a.Config, ingestor, c.evaluator, store, c.metrics, a.Logger)
	c.catalog = service.NewCatalog(store, aggregator, reconstructor, c.directory, c.notifier)
	return c, nil
}

// Run executes the long-running monitoring service, plus the HTTP API when http.listen is set.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.service.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	sched, err := scheduler.New(scheduler.Options{
		Tick:         a.Config.Scheduler.Tick,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger, c.service.Jobs()...)
	if err != nil {
		return err
	}

	httpErr := make(chan error, 1)
	if a.Config.HTTP.Listen != "" {
		srv := a.newHTTPServer(c)
		go func() { httpErr <- serveHTTP(ctx, srv, a.Logger) }()
	}

	a.Logger.Info().Msg("starting monitoring service")
	err = sched.Run(ctx)
	if a.Config.HTTP.Listen != "" {
		cancel()
		if herr := <-httpErr; herr != nil {
			a.Logger.Error().Err(herr).Msg("http server stopped with error")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// Serve runs only the HTTP query API.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.Config.HTTP.Listen == "" {
		return errors.New("http.listen not configured")
	}

	c, err := a.wire(ctx, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if err := c.store.EnsureSchema(ctx); err != nil {
		return err
	}
	return serveHTTP(ctx, a.newHTTPServer(c), a.Logger)
}

func (a *App) newHTTPServer(c *components) *http.Server {
	if a.Config.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(c.catalog, c.store, c.metrics.Handler(), a.Config.Export.MaxDataPoints, a.Logger)
	return &http.Server{
		Addr:              a.Config.HTTP.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func serveHTTP(ctx context.Context, srv *http.Server, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}

// HistoryOptions select the item and the export targets of a history run.
type HistoryOptions struct {
	Item      string
	CSVPath   string
	PNGPath   string
	XLSXPath  string
	MaxPoints int
}

// ListingsOptions configure the listings command.
type ListingsOptions struct {
	Server string
	Search string
	Sort   string
	Offset int
	Limit  int
}

// ImportOptions configure the legacy history import.
type ImportOptions struct {
	Item    string
	CSVPath string
	DryRun  bool
}
