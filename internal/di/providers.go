package di

import (
	"fmt"
	"time"

	"CryptoCompass/internal/domain/models"
	"CryptoCompass/internal/domain/repository"
	"CryptoCompass/internal/handler/api"
	mid "CryptoCompass/internal/middleware"
	internalrepo "CryptoCompass/internal/repository"
	"CryptoCompass/internal/scheduler"
	"CryptoCompass/internal/service/coingecko"
	"CryptoCompass/internal/service/ratelimit"
	"CryptoCompass/internal/service/stream"
	"CryptoCompass/internal/usecase"
	"CryptoCompass/pkg/cache"
	"CryptoCompass/pkg/config"
	xhttp "CryptoCompass/pkg/http"
	pkgkafka "CryptoCompass/pkg/kafka"
	applogger "CryptoCompass/pkg/logger"
	"CryptoCompass/pkg/metrics"
	"CryptoCompass/pkg/server"
)

const (
	ResourceMarkets = "markets"
	ResourcePrices  = "prices"

	rateLimitPruneInterval = time.Minute
)

// Refreshers groups the two sequenced resources.
type Refreshers struct {
	Markets *usecase.Refresher
	Prices  *usecase.Refresher
}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCatalog exposes the configured option tables.
func ProvideCatalog(cfg *config.Config) *models.Catalog {
	return &cfg.Catalog
}

// ProvideMarketData creates the CoinGecko client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return coingecko.New(
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithVsCurrency(cfg.CoinGecko.VsCurrency),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout),
		coingecko.WithLogger(l),
	)
}

// ProvideCache creates the relay cache: in-memory, or memory in front of
// Redis when Redis is enabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(remote,
		cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		cache.WithLayeredL1TTL(cfg.Relay.CacheTTL),
	), nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithBatchSize(1),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithClientID("cryptocompass"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSimulationService creates the simulator use case.
func ProvideSimulationService(catalog *models.Catalog, source repository.MarketData, m repository.Metrics, l *applogger.Logger) *usecase.SimulationService {
	return usecase.NewSimulationService(catalog, source, m, l)
}

// ProvideHub creates the websocket hub.
func ProvideHub(cfg *config.Config, sim *usecase.SimulationService, m repository.Metrics, l *applogger.Logger) *stream.Hub {
	return stream.NewHub(
		stream.WithSimulator(sim),
		stream.WithMetrics(m),
		stream.WithLogger(l),
		stream.WithSendBuffer(cfg.Stream.SendBuffer),
		stream.WithWriteTimeout(cfg.Stream.WriteTimeout),
		stream.WithPingInterval(cfg.Stream.PingInterval),
		stream.WithAllowedOrigins(cfg.Origins()),
	)
}

// ProvideSnapshotPipeline fans applied snapshots out to the hub and, when
// enabled, to Kafka.
func ProvideSnapshotPipeline(cfg *config.Config, hub *stream.Hub, producer *pkgkafka.Producer, m repository.Metrics, l *applogger.Logger) *mid.SnapshotPipeline {
	var sinks []repository.SnapshotPublisher
	if cfg.Stream.Enabled {
		sinks = append(sinks, hub)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic))
	}
	return mid.NewSnapshotPipeline(m, sinks,
		mid.WithMaxRPS(5),
		mid.WithBufferSize(64),
		mid.WithLogger(l),
	)
}

// ProvideRefreshers creates the markets and prices boards and their refreshers.
func ProvideRefreshers(cfg *config.Config, source repository.MarketData, pipeline *mid.SnapshotPipeline, m repository.Metrics, l *applogger.Logger) Refreshers {
	newRefresher := func(resource string, limit int) *usecase.Refresher {
		board := usecase.NewBoard(resource,
			usecase.WithSink(pipeline),
			usecase.WithBoardMetrics(m),
			usecase.WithBoardLogger(l),
		)
		return usecase.NewRefresher(board, source, limit, cfg.CoinGecko.Timeout, m, l)
	}
	return Refreshers{
		Markets: newRefresher(ResourceMarkets, cfg.Refresh.Markets.Limit),
		Prices:  newRefresher(ResourcePrices, cfg.Refresh.Prices.Limit),
	}
}

// ProvideMarketService creates the listing use case.
func ProvideMarketService(catalog *models.Catalog, r Refreshers) *usecase.MarketService {
	return usecase.NewMarketService(catalog, r.Markets)
}

// ProvideAllocationService creates the allocation use case on the prices board.
func ProvideAllocationService(catalog *models.Catalog, r Refreshers) *usecase.AllocationService {
	return usecase.NewAllocationService(catalog, r.Prices.Board())
}

// ProvideLimiter creates the shared rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHandlers builds every HTTP handler.
func ProvideHandlers(
	cfg *config.Config,
	l *applogger.Logger,
	catalog *models.Catalog,
	source repository.MarketData,
	c cache.Service,
	limiter *ratelimit.Limiter,
	markets *usecase.MarketService,
	alloc *usecase.AllocationService,
	sim *usecase.SimulationService,
	hub *stream.Hub,
	r Refreshers,
) []xhttp.Handler {
	relayLimit := ratelimit.Middleware(limiter, "relay", cfg.RateLimit.Relay.Capacity, cfg.RateLimit.Relay.RefillPerSec)
	simLimit := ratelimit.Middleware(limiter, "simulator", cfg.RateLimit.Simulator.Capacity, cfg.RateLimit.Simulator.RefillPerSec)

	handlers := []xhttp.Handler{
		api.NewHealthHandler(r.Markets.Board(), r.Prices.Board()),
		api.NewMarketsHandler(l, markets),
		api.NewRelayHandler(l, source, c, api.RelayConfig{
			CacheTTL:     cfg.Relay.CacheTTL,
			CacheControl: cfg.Relay.CacheControl,
			DefaultLimit: cfg.Relay.DefaultLimit,
		}, relayLimit),
		api.NewPortfolioHandler(l, catalog, alloc),
		api.NewSimulatorHandler(l, sim, simLimit),
	}
	if cfg.Stream.Enabled {
		handlers = append(handlers, api.NewStreamHandler(l, hub))
	}
	return handlers
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	return xhttp.NewServer(handlers,
		xhttp.WithLogger(l),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Origins()...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Server.SlowThreshold),
	)
}

// ProvideScheduler registers the refresh and housekeeping jobs.
func ProvideScheduler(cfg *config.Config, l *applogger.Logger, r Refreshers, limiter *ratelimit.Limiter) (*scheduler.Scheduler, error) {
	s := scheduler.New(l)
	if err := s.Every(cfg.Refresh.Markets.Interval, r.Markets); err != nil {
		return nil, err
	}
	if err := s.Every(cfg.Refresh.Prices.Interval, r.Prices); err != nil {
		return nil, err
	}
	if err := s.Every(rateLimitPruneInterval, limiter); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	pipeline *mid.SnapshotPipeline,
	hub *stream.Hub,
	c cache.Service,
	r Refreshers,
) *server.App {
	return server.New(cfg, l, httpServer, sched, pipeline, hub, c, r.Markets.Board(), r.Prices.Board())
}
