// Package kitchen simulates the restaurant and rider side of an order: it
// reacts to order.created events and walks each order through its stages
// on the order store.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/fooddash/internal/events"
	"github.com/jogardn/fooddash/internal/orders"
	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStepDelay = 10 * time.Second
	stepAttempts     = 3
)

// stages after CONFIRMED, in order.
var stages = []models.RemoteStatus{
	models.RemotePreparing,
	models.RemoteReady,
	models.RemoteOutForDelivery,
	models.RemoteDelivered,
}

type Stats struct {
	Accepted  int64 `json:"accepted"`
	Delivered int64 `json:"delivered"`
	Abandoned int64 `json:"abandoned"`
	InFlight  int64 `json:"in_flight"`
}

type Simulator struct {
	store     orders.Store
	stepDelay time.Duration
	newRider  func() string
	logger    *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	accepted  atomic.Int64
	delivered atomic.Int64
	abandoned atomic.Int64
	inFlight  atomic.Int64
}

var _ events.OrderCreatedHandler = (*Simulator)(nil)

func NewSimulator(store orders.Store, stepDelay time.Duration, logger *logrus.Logger) *Simulator {
	if stepDelay < 0 {
		stepDelay = DefaultStepDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		store:     store,
		stepDelay: stepDelay,
		newRider:  func() string { return "rider-" + uuid.New().String()[:8] },
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// HandleOrderCreated confirms the order and hands the remaining stages to a
// background walk. Only the confirmation is subject to consumer retries.
func (s *Simulator) HandleOrderCreated(ctx context.Context, event events.OrderCreatedEvent) error {
	logger := s.logger.WithFields(logrus.Fields{
		"order_id":      event.OrderID,
		"restaurant_id": event.RestaurantID,
		"item_count":    event.ItemCount,
	})

	_, err := s.store.UpdateOrderStatus(ctx, event.OrderID, models.UpdateStatusRequest{Status: string(models.RemoteConfirmed)})
	if errors.Is(err, orders.ErrStatusConflict) {
		logger.Info("Order already moved past PENDING, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to confirm order %s: %w", event.OrderID, err)
	}

	s.accepted.Add(1)
	logger.WithField("step_delay", s.stepDelay.String()).Info("Kitchen accepted order")

	s.wg.Add(1)
	s.inFlight.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)
		s.walk(event.OrderID)
	}()
	return nil
}

// IsRetryable treats transport errors, open breakers and 5xx replies as
// transient. 4xx replies mean retrying cannot help.
func (s *Simulator) IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, orders.ErrNotFound) || errors.Is(err, orders.ErrStatusConflict) {
		return false
	}
	return restapi.IsUpstreamFailure(err)
}

func (s *Simulator) walk(orderID string) {
	logger := s.logger.WithField("order_id", orderID)

	for _, next := range stages {
		if !s.sleep() {
			logger.WithField("next_status", next).Info("Kitchen stopped before order completed")
			return
		}

		req := models.UpdateStatusRequest{Status: string(next)}
		if next == models.RemoteOutForDelivery {
			req.RiderID = s.newRider()
		}

		order, err := s.advance(orderID, req)
		switch {
		case errors.Is(err, orders.ErrStatusConflict), errors.Is(err, orders.ErrNotFound):
			s.abandoned.Add(1)
			logger.WithError(err).WithField("next_status", next).Info("Order left the kitchen flow")
			return
		case errors.Is(err, context.Canceled):
			logger.WithField("next_status", next).Info("Kitchen stopped before order completed")
			return
		case err != nil:
			s.abandoned.Add(1)
			logger.WithError(err).WithField("next_status", next).Error("Failed to advance order")
			return
		}

		logger.WithFields(logrus.Fields{
			"status":   order.Status,
			"rider_id": req.RiderID,
		}).Info("Order advanced")
	}

	s.delivered.Add(1)
}

func (s *Simulator) advance(orderID string, req models.UpdateStatusRequest) (*models.APIOrder, error) {
	var lastErr error
	for attempt := 1; attempt <= stepAttempts; attempt++ {
		order, err := s.store.UpdateOrderStatus(s.ctx, orderID, req)
		if err == nil {
			return order, nil
		}
		if !s.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		s.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": orderID,
			"attempt":  attempt,
		}).Warn("Status update failed, retrying")
		if !s.sleep() {
			return nil, s.ctx.Err()
		}
	}
	return nil, lastErr
}

// sleep waits one step delay and reports false when the simulator is closing.
func (s *Simulator) sleep() bool {
	timer := time.NewTimer(s.stepDelay)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Simulator) Stats() Stats {
	return Stats{
		Accepted:  s.accepted.Load(),
		Delivered: s.delivered.Load(),
		Abandoned: s.abandoned.Load(),
		InFlight:  s.inFlight.Load(),
	}
}

// Close stops in-flight walks and waits for them to return.
func (s *Simulator) Close() {
	s.cancel()
	s.wg.Wait()
}
