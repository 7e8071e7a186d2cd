package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/jogardn/fooddash/internal/config"
	"github.com/jogardn/fooddash/internal/events"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadDLQMonitor()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	var total atomic.Int64
	monitor, err := events.NewDLQMonitor(cfg.KafkaBrokers, cfg.GroupID, func(events.DeadLetter) {
		logger.WithField("dead_letters_seen", total.Add(1)).Info("Dead letter recorded")
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create DLQ consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := monitor.Start(ctx); err != nil {
			logger.WithError(err).Error("Error consuming from DLQ")
		}
	}()

	logger.WithField("topic", events.OrderCreatedDLQTopic).Info("DLQ monitor started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down DLQ monitor...")
	cancel()
	if err := monitor.Close(); err != nil {
		logger.WithError(err).Error("Failed to close DLQ consumer")
	}
}
