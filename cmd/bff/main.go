package main

import (
	"context"
	"time"

	"github.com/jogardn/fooddash/internal/addresses"
	"github.com/jogardn/fooddash/internal/api"
	"github.com/jogardn/fooddash/internal/catalog"
	"github.com/jogardn/fooddash/internal/circuitbreaker"
	"github.com/jogardn/fooddash/internal/config"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/identity"
	"github.com/jogardn/fooddash/internal/localcache"
	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/jogardn/fooddash/internal/session"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadBFF()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	breakers := circuitbreaker.NewManager(circuitbreaker.Config{
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
	}, logger)
	upstream := func(name, baseURL string) *restapi.Client {
		return restapi.NewClient(baseURL, cfg.UpstreamTimeout, logger).
			WithBreaker(breakers.Breaker(name, restapi.IsUpstreamFailure))
	}

	var cache localcache.Cache = localcache.NewMemory()
	if cfg.RedisAddr != "" {
		client, err := config.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()
		cache = localcache.NewRedis(client, cfg.CacheTTL)
		logger.WithField("addr", cfg.RedisAddr).Info("Using Redis cache")
	} else {
		logger.Info("REDIS_ADDR not set, using in-memory cache")
	}

	var provider identity.Provider = identity.HeaderProvider{}
	if cfg.JWTSecret != "" {
		provider = identity.NewJWTProvider(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET not set, trusting the X-Customer-ID header")
	}

	serverMetrics := metrics.NewServerMetrics("bff")
	orderMetrics := metrics.NewOrderMetrics(serverMetrics.Registry)

	catalogClient := catalog.NewClient(upstream("catalog", cfg.CatalogURL), catalog.Defaults{
		DeliveryFee: cfg.DefaultDeliveryFee,
		MinOrder:    cfg.DefaultMinOrder,
	}, logger)
	store := orders.NewStoreClient(upstream("order-store", cfg.OrderStoreURL), logger)
	book := addresses.NewBook(addresses.NewClient(upstream("address-store", cfg.AddressURL), logger), cache, logger)
	history := orders.NewHistory(cache, logger)

	sessions := session.NewManager(logger)
	go sessions.Run(ctx, time.Minute, cfg.SessionIdleTimeout)

	server := api.NewServer(api.Deps{
		Catalog:   catalogClient,
		Addresses: book,
		Submitter: orders.NewSubmitter(store, history, catalogClient, logger,
			orders.WithTimeout(cfg.SubmitTimeout),
			orders.WithMetrics(orderMetrics),
		),
		Tracker:      orders.NewTracker(store, history, catalogClient, orderMetrics, logger),
		Sessions:     sessions,
		Breakers:     breakers,
		Identity:     provider,
		Metrics:      serverMetrics,
		OrderMetrics: orderMetrics,
		QR:           api.TrackingQR{BaseURL: cfg.PublicURL},
		CORSOrigins:  cfg.CORSOrigins,
	}, logger)

	logger.WithFields(logrus.Fields{
		"catalog_url":     cfg.CatalogURL,
		"address_url":     cfg.AddressURL,
		"order_store_url": cfg.OrderStoreURL,
	}).Info("Upstreams configured")

	httpserver.Run(httpserver.New(cfg.Port, server.Handler()), "bff", logger, cancel)
}
