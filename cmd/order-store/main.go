package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/config"
	"github.com/jogardn/fooddash/internal/events"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/metrics"
	"github.com/jogardn/fooddash/internal/orderstore"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadOrderStore()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	db, err := config.OpenPostgres(ctx, cfg.DB, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := orderstore.CreateTables(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	producer, err := events.NewKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka producer")
	}
	defer producer.Close()

	service := orderstore.NewService(orderstore.NewPostgresRepository(db), producer, orderstore.Config{
		PlatformFee: cfg.PlatformFee,
		OrderETA:    cfg.OrderETA,
	}, logger)

	serverMetrics := metrics.NewServerMetrics("order_store")
	router := mux.NewRouter()
	router.Use(httpserver.LoggingMiddleware(logger))
	router.Use(serverMetrics.Middleware)
	router.Handle("/metrics", serverMetrics.Handler()).Methods(http.MethodGet)
	orderstore.NewHandler(service, logger).Register(router)

	logger.WithFields(logrus.Fields{
		"platform_fee": cfg.PlatformFee.String(),
		"order_eta":    cfg.OrderETA.String(),
	}).Info("Order store configured")

	httpserver.Run(httpserver.New(cfg.Port, router), "order-store", logger, nil)
}
