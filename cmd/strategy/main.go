package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/httpclient"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"
	"github.com/wyfcoding/pkg/redis"
	"golang.org/x/sync/errgroup"

	connapp "github.com/franksiereveld/rationalmarkets/internal/connectivity/application"
	conndomain "github.com/franksiereveld/rationalmarkets/internal/connectivity/domain"
	connhttp "github.com/franksiereveld/rationalmarkets/internal/connectivity/interfaces/http"
	execapp "github.com/franksiereveld/rationalmarkets/internal/execution/application"
	execdomain "github.com/franksiereveld/rationalmarkets/internal/execution/domain"
	"github.com/franksiereveld/rationalmarkets/internal/execution/infrastructure/broker/alpaca"
	"github.com/franksiereveld/rationalmarkets/internal/execution/infrastructure/broker/swissquote"
	execmessaging "github.com/franksiereveld/rationalmarkets/internal/execution/infrastructure/messaging"
	mdapp "github.com/franksiereveld/rationalmarkets/internal/marketdata/application"
	mddomain "github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
	"github.com/franksiereveld/rationalmarkets/internal/marketdata/infrastructure/cache"
	"github.com/franksiereveld/rationalmarkets/internal/marketdata/infrastructure/persistence/mysql"
	persistenceredis "github.com/franksiereveld/rationalmarkets/internal/marketdata/infrastructure/persistence/redis"
	"github.com/franksiereveld/rationalmarkets/internal/marketdata/infrastructure/provider"
	mdconsumer "github.com/franksiereveld/rationalmarkets/internal/marketdata/interfaces/consumer"
	mdhttp "github.com/franksiereveld/rationalmarkets/internal/marketdata/interfaces/http"
	refapp "github.com/franksiereveld/rationalmarkets/internal/referencedata/application"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	refinfra "github.com/franksiereveld/rationalmarkets/internal/referencedata/infrastructure"
	refhttp "github.com/franksiereveld/rationalmarkets/internal/referencedata/interfaces/http"
	stratapp "github.com/franksiereveld/rationalmarkets/internal/strategy/application"
	stratdomain "github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
	stratinfra "github.com/franksiereveld/rationalmarkets/internal/strategy/infrastructure"
	stratmessaging "github.com/franksiereveld/rationalmarkets/internal/strategy/infrastructure/messaging"
	strathttp "github.com/franksiereveld/rationalmarkets/internal/strategy/interfaces/http"
)

var configPath = flag.String("config", "configs/strategy/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	logger := logging.NewFromConfig(&logging.Config{
		Service:    cfg.Server.Name,
		Module:     "strategy",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		stop := metricsImpl.ExposeHTTP(cfg.Metrics.Port)
		defer stop()
	}

	// 4. Reference data
	registry, err := refinfra.NewDefaultRegistry()
	if err != nil {
		slog.Error("failed to build symbol registry", "error", err)
		os.Exit(1)
	}

	// 5. Snapshot cache: Redis 可用时用 Redis，否则退回进程内缓存
	var snapshotCache mddomain.SnapshotCache
	redisClient, redisCleanup, err := redis.NewClient(&cfg.Data.Redis, logger)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory snapshot cache", "error", err)
		snapshotCache = cache.NewMemoryCache()
	} else {
		defer redisCleanup()
		snapshotCache = persistenceredis.NewSnapshotRedisCache(redisClient)
	}

	// 6. Snapshot history: MySQL 可选
	var history mddomain.SnapshotHistoryRepository
	if cfg.Data.Database.DSN != "" {
		db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
		if err != nil {
			slog.Warn("database unavailable, snapshot history disabled", "error", err)
		} else {
			if cfg.Server.Environment == "dev" {
				if err := db.RawDB().AutoMigrate(&mysql.SnapshotPO{}); err != nil {
					slog.Error("failed to migrate database", "error", err)
				}
			}
			history = mysql.NewSnapshotRepository(db.RawDB())
		}
	}

	// 7. Market data providers
	httpClient := httpclient.NewClient(httpclient.Config{
		ServiceName: cfg.Server.Name,
		Timeout:     10 * time.Second,
	}, logger, metricsImpl)

	providers := make([]mddomain.QuoteProvider, 0, 2)
	if apiKey := os.Getenv("FMP_API_KEY"); apiKey != "" {
		providers = append(providers, provider.NewFMPProvider(httpClient, apiKey))
	}
	providers = append(providers, provider.NewYahooProvider(httpClient))

	fetcher := mdapp.NewFetcher(
		mdapp.DefaultFetcherConfig(),
		providers,
		provider.NewSyntheticProvider(),
		snapshotCache,
		provider.NewStaticRates(),
		slog.Default(),
	)
	fetcher.SetHistory(history)

	// 8. Kafka
	var allocationPublisher *kafka.Producer
	if len(cfg.MessageQueue.Kafka.Brokers) > 0 {
		producerCfg := cfg.MessageQueue.Kafka
		producerCfg.Topic = "strategy.allocation"
		allocationPublisher = kafka.NewProducer(&producerCfg, logger, metricsImpl)
		defer allocationPublisher.Close()
	}

	// 9. Brokers & connectivity
	alpacaCreds := conndomain.Credentials{
		APIKey:    os.Getenv("ALPACA_API_KEY"),
		APISecret: os.Getenv("ALPACA_API_SECRET"),
		Mode:      conndomain.Mode(envOr("ALPACA_MODE", string(conndomain.ModePaper))),
	}
	swissquoteCreds := conndomain.Credentials{
		ClientID:     os.Getenv("SWISSQUOTE_CLIENT_ID"),
		ClientSecret: os.Getenv("SWISSQUOTE_CLIENT_SECRET"),
		Mode:         conndomain.Mode(envOr("SWISSQUOTE_MODE", string(conndomain.ModePaper))),
	}
	alpacaClient := alpaca.NewClient(httpClient, alpacaCreds)
	swissquoteClient := swissquote.NewClient(httpClient, swissquoteCreds)

	manager := connapp.NewManager(
		map[refdomain.Broker]conndomain.Prober{
			refdomain.BrokerAlpaca:     alpacaClient,
			refdomain.BrokerSwissquote: swissquoteClient,
		},
		map[refdomain.Broker]conndomain.Credentials{
			refdomain.BrokerAlpaca:     alpacaCreds,
			refdomain.BrokerSwissquote: swissquoteCreds,
		},
		slog.Default(),
	)

	// 10. Application services
	catalog, err := stratinfra.NewCatalog()
	if err != nil {
		slog.Error("failed to load strategy catalog", "error", err)
		os.Exit(1)
	}

	var allocationEvents *kafka.Producer
	var executionEvents *kafka.Producer
	if allocationPublisher != nil {
		allocationEvents = allocationPublisher
		executionCfg := cfg.MessageQueue.Kafka
		executionCfg.Topic = "strategy.execution"
		executionEvents = kafka.NewProducer(&executionCfg, logger, metricsImpl)
		defer executionEvents.Close()
	}

	allocator := stratapp.NewAllocationService(
		catalog,
		registry,
		fetcher,
		optionalStrategyPublisher(allocationEvents),
		slog.Default(),
	)
	executor := execapp.NewExecutionService(
		map[refdomain.Broker]execdomain.BrokerClient{
			refdomain.BrokerAlpaca:     alpacaClient,
			refdomain.BrokerSwissquote: swissquoteClient,
		},
		manager,
		optionalExecutionPublisher(executionEvents),
		slog.Default(),
	)
	marketData := mdapp.NewMarketDataService(fetcher, registry, history)
	referenceData := refapp.NewReferenceDataService(registry)

	// 11. Kafka consumer: 外部价格事件入缓存
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.MessageQueue.Kafka.Brokers) > 0 {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.GroupID = "strategy-group"
		consumerCfg.Topic = "market.price"
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		priceHandler := mdconsumer.NewPriceEventHandler(snapshotCache, mdapp.DefaultFetcherConfig().PriceTTL)
		go consumer.Start(ctx, 2, priceHandler.HandleMarketPrice)
		defer consumer.Close()
	}

	// 12. HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	// 请求 ID 注入 context，下游 httpclient 会透传给行情供应商。
	router.Use(middleware.RequestID())

	mdhttp.NewMarketDataHandler(marketData).RegisterRoutes(router)
	strathttp.NewStrategyHandler(allocator, executor).RegisterRoutes(router)
	connhttp.NewConnectivityHandler(manager).RegisterRoutes(router)
	refhttp.NewReferenceDataHandler(referenceData).RegisterRoutes(router)

	// 13. Start
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTP.Port),
		Handler: router,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down server...")
		case <-gctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func optionalStrategyPublisher(producer *kafka.Producer) stratdomain.EventPublisher {
	if producer == nil {
		return nil
	}
	return stratmessaging.NewKafkaPublisher(producer)
}

func optionalExecutionPublisher(producer *kafka.Producer) execdomain.EventPublisher {
	if producer == nil {
		return nil
	}
	return execmessaging.NewKafkaPublisher(producer)
}
