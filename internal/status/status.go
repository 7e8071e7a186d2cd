// Package status maps the order store's status codes onto the client's
// closed set of order stages and owns the store-side transition rules.
package status

import (
	"strings"

	"github.com/jogardn/fooddash/pkg/models"
)

// FromRemote maps a status code reported by the order store to a client
// stage. It is total: unknown or empty codes map to models.StatusPlaced.
func FromRemote(code string) models.OrderStatus {
	switch models.RemoteStatus(strings.ToUpper(strings.TrimSpace(code))) {
	case models.RemotePending, "PLACED":
		return models.StatusPlaced
	case models.RemoteConfirmed:
		return models.StatusConfirmed
	case models.RemotePreparing, models.RemoteReady:
		return models.StatusPreparing
	case models.RemoteOutForDelivery:
		return models.StatusOutForDelivery
	case models.RemoteDelivered:
		return models.StatusDelivered
	case models.RemoteCancelled:
		return models.StatusCancelled
	default:
		return models.StatusPlaced
	}
}

// Label is the display text for a client stage.
func Label(s models.OrderStatus) string {
	switch s {
	case models.StatusConfirmed:
		return "Confirmed"
	case models.StatusPreparing:
		return "Preparing"
	case models.StatusOutForDelivery:
		return "Out for Delivery"
	case models.StatusDelivered:
		return "Delivered"
	case models.StatusCancelled:
		return "Cancelled"
	default:
		return "Order Placed"
	}
}

// IsTerminal reports whether no further stage can follow s.
func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusDelivered || s == models.StatusCancelled
}

var remoteRank = map[models.RemoteStatus]int{
	models.RemotePending:        0,
	models.RemoteConfirmed:      1,
	models.RemotePreparing:      2,
	models.RemoteReady:          3,
	models.RemoteOutForDelivery: 4,
	models.RemoteDelivered:      5,
}

// ParseRemote normalises a remote code and reports whether it is known.
func ParseRemote(code string) (models.RemoteStatus, bool) {
	s := models.RemoteStatus(strings.ToUpper(strings.TrimSpace(code)))
	if s == models.RemoteCancelled {
		return s, true
	}
	_, ok := remoteRank[s]
	return s, ok
}

// IsRemoteTerminal reports whether the store status can no longer change.
func IsRemoteTerminal(s models.RemoteStatus) bool {
	return s == models.RemoteDelivered || s == models.RemoteCancelled
}

// CanTransition reports whether the order store may move an order from one
// status to another. Stages only move forward; CANCELLED is reachable from
// any non-terminal status.
func CanTransition(from, to models.RemoteStatus) bool {
	if IsRemoteTerminal(from) {
		return false
	}
	if to == models.RemoteCancelled {
		return true
	}
	fromRank, ok := remoteRank[from]
	if !ok {
		return false
	}
	toRank, ok := remoteRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
