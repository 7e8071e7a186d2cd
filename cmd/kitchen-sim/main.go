package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fooddash/internal/circuitbreaker"
	"github.com/jogardn/fooddash/internal/config"
	"github.com/jogardn/fooddash/internal/events"
	"github.com/jogardn/fooddash/internal/httpserver"
	"github.com/jogardn/fooddash/internal/kitchen"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadKitchen()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:      "order-store",
		IsFailure: restapi.IsUpstreamFailure,
	}, logger)
	store := orders.NewStoreClient(
		restapi.NewClient(cfg.OrderStoreURL, cfg.UpstreamTimeout, logger).WithBreaker(breaker),
		logger,
	)
	simulator := kitchen.NewSimulator(store, cfg.StepDelay, logger)

	policy := events.DefaultRetryPolicy
	policy.MaxRetries = cfg.MaxRetries

	logger.WithField("brokers", cfg.KafkaBrokers).Info("Initializing Kafka consumer...")
	var consumer *events.KafkaConsumer
	for i := 0; i < 10; i++ {
		consumer, err = events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.GroupID, simulator, policy, logger)
		if err == nil {
			logger.Info("Successfully connected to Kafka")
			break
		}
		logger.WithError(err).WithField("attempt", i+1).Warn("Failed to connect to Kafka, retrying...")
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka consumer after retries")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Kafka consumer error")
		}
	}()

	router := mux.NewRouter()
	router.Use(httpserver.LoggingMiddleware(logger))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpserver.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "healthy",
			"service":         "kitchen-sim",
			"kitchen":         simulator.Stats(),
			"consumer":        consumer.Stats(),
			"circuit_breaker": breaker.Stats(),
		})
	}).Methods(http.MethodGet)

	logger.WithFields(logrus.Fields{
		"order_store_url": cfg.OrderStoreURL,
		"step_delay":      cfg.StepDelay.String(),
	}).Info("Kitchen simulator configured")

	httpserver.Run(httpserver.New(cfg.Port, router), "kitchen-sim", logger, func() {
		cancel()
		if err := consumer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka consumer")
		}
		simulator.Close()
	})
}
