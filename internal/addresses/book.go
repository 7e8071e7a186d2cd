// Package addresses is the customer's address book: CRUD against the remote
// address API plus the locally kept selected-address pointer.
package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jogardn/fooddash/internal/localcache"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound       = errors.New("address not found")
	ErrInvalidAddress = errors.New("invalid address")
)

type Fields struct {
	Type        models.AddressType `json:"type"`
	Nickname    string             `json:"nickname,omitempty"`
	Address     string             `json:"address"`
	Landmark    string             `json:"landmark,omitempty"`
	Coordinates models.Coordinates `json:"coordinates"`
}

func (f *Fields) validate() error {
	f.Address = strings.TrimSpace(f.Address)
	if f.Address == "" {
		return fmt.Errorf("%w: address text is required", ErrInvalidAddress)
	}
	t, ok := models.ParseAddressType(string(f.Type))
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAddress, f.Type)
	}
	f.Type = t
	return validateCoordinates(f.Coordinates)
}

// Update holds the fields to change; nil fields are left as they are.
type Update struct {
	Type        *models.AddressType `json:"type,omitempty"`
	Nickname    *string             `json:"nickname,omitempty"`
	Address     *string             `json:"address,omitempty"`
	Landmark    *string             `json:"landmark,omitempty"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

func (u *Update) validate() error {
	if u.Address != nil && strings.TrimSpace(*u.Address) == "" {
		return fmt.Errorf("%w: address text cannot be empty", ErrInvalidAddress)
	}
	if u.Type != nil {
		t, ok := models.ParseAddressType(string(*u.Type))
		if !ok {
			return fmt.Errorf("%w: unknown type %q", ErrInvalidAddress, *u.Type)
		}
		u.Type = &t
	}
	if u.Coordinates != nil {
		return validateCoordinates(*u.Coordinates)
	}
	return nil
}

func validateCoordinates(c models.Coordinates) error {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidAddress)
	}
	return nil
}

type Book struct {
	store  Store
	cache  localcache.Cache
	mutex  sync.Mutex
	logger *logrus.Logger
}

func NewBook(store Store, cache localcache.Cache, logger *logrus.Logger) *Book {
	return &Book{store: store, cache: cache, logger: logger}
}

// List returns the user's addresses. A remote failure yields an empty list.
func (b *Book) List(ctx context.Context, userID string) []models.Address {
	addrs, err := b.store.List(ctx, userID)
	if err != nil {
		b.logger.WithError(err).WithField("customer_id", userID).Warn("Failed to fetch addresses")
		return []models.Address{}
	}
	return addrs
}

// Add creates an address. The first address of a user is selected.
func (b *Book) Add(ctx context.Context, userID string, fields Fields) (*models.Address, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}

	existing, listErr := b.store.List(ctx, userID)
	addr, err := b.store.Create(ctx, userID, fields)
	if err != nil {
		return nil, err
	}

	if listErr == nil && len(existing) == 0 {
		if err := b.setSelected(ctx, userID, addr.ID); err != nil {
			b.logger.WithError(err).WithField("customer_id", userID).Warn("Failed to select first address")
		}
	}

	b.logger.WithFields(logrus.Fields{
		"customer_id": userID,
		"address_id":  addr.ID,
		"type":        addr.Type,
	}).Info("Address added")
	return addr, nil
}

func (b *Book) Update(ctx context.Context, userID, addressID string, update Update) (*models.Address, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}
	return b.store.Update(ctx, userID, addressID, update)
}

// Delete removes an address. When it was the selected one, the first
// remaining address becomes selected, or the pointer is cleared.
func (b *Book) Delete(ctx context.Context, userID, addressID string) error {
	if err := b.store.Delete(ctx, userID, addressID); err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	selected, err := b.cache.SelectedAddress(ctx, userID)
	if err != nil || selected != addressID {
		return nil
	}

	var next string
	for _, a := range b.List(ctx, userID) {
		if a.ID != addressID {
			next = a.ID
			break
		}
	}
	if next == "" {
		return b.cache.ClearSelectedAddress(ctx, userID)
	}
	return b.cache.SetSelectedAddress(ctx, userID, next)
}

// Select stores addressID as the selected address. It must be one of the
// user's addresses.
func (b *Book) Select(ctx context.Context, userID, addressID string) error {
	addrs, err := b.store.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if a.ID == addressID {
			return b.setSelected(ctx, userID, addressID)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, addressID)
}

// Selected resolves the selected pointer against the current list. A stale
// or missing pointer resolves to the first address; nil when there is none.
func (b *Book) Selected(ctx context.Context, userID string) *models.Address {
	addrs := b.List(ctx, userID)
	if len(addrs) == 0 {
		return nil
	}

	selected, err := b.cache.SelectedAddress(ctx, userID)
	if err != nil {
		b.logger.WithError(err).WithField("customer_id", userID).Warn("Failed to read selected address")
	}
	for i := range addrs {
		if addrs[i].ID == selected {
			return &addrs[i]
		}
	}
	return &addrs[0]
}

func (b *Book) setSelected(ctx context.Context, userID, addressID string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.cache.SetSelectedAddress(ctx, userID, addressID)
}
