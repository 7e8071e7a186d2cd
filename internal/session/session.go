// Package session holds the per-customer state the BFF keeps between
// requests: the cart and the idempotency key of a pending checkout.
package session

import (
	"sync"
	"time"

	"github.com/jogardn/fooddash/internal/cart"
)

type Session struct {
	customerID string

	mutex           sync.Mutex
	cart            *cart.Cart
	checkoutKey     string
	checkoutVersion uint64
	lastSeen        time.Time
}

func newSession(customerID string, onChange func(cart.Mutation)) *Session {
	c := cart.New()
	if onChange != nil {
		c.OnChange(onChange)
	}
	return &Session{
		customerID: customerID,
		cart:       c,
		lastSeen:   time.Now(),
	}
}

func (s *Session) CustomerID() string {
	return s.customerID
}

// WithCart runs fn with exclusive access to the session cart.
func (s *Session) WithCart(fn func(c *cart.Cart)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSeen = time.Now()
	fn(s.cart)
}

// Snapshot returns a by-value copy of the cart.
func (s *Session) Snapshot() cart.Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cart.Snapshot()
}

// BeginCheckout snapshots the cart and returns the idempotency key to submit
// it with. The key is reused for as long as the cart has not changed since it
// was issued, so retrying a failed or timed-out submission cannot create a
// second order.
func (s *Session) BeginCheckout(newKey func() string) (cart.Snapshot, string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastSeen = time.Now()

	snap := s.cart.Snapshot()
	if s.checkoutKey == "" || s.checkoutVersion != snap.Version {
		s.checkoutKey = newKey()
		s.checkoutVersion = snap.Version
	}
	return snap, s.checkoutKey
}

// CompleteCheckout clears the cart after a confirmed submission made with key.
func (s *Session) CompleteCheckout(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cart.Clear()
	if s.checkoutKey == key {
		s.checkoutKey = ""
		s.checkoutVersion = 0
	}
}

func (s *Session) idleSince() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastSeen
}
