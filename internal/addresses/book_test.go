package addresses

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jogardn/fooddash/internal/localcache"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	addrs map[string][]models.Address
	seq   int
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{addrs: make(map[string][]models.Address)}
}

func (s *memoryStore) List(ctx context.Context, phone string) ([]models.Address, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Address(nil), s.addrs[phone]...), nil
}

func (s *memoryStore) Create(ctx context.Context, phone string, f Fields) (*models.Address, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.seq++
	a := models.Address{
		ID:          fmt.Sprintf("addr-%d", s.seq),
		Type:        f.Type,
		Nickname:    f.Nickname,
		Address:     f.Address,
		Landmark:    f.Landmark,
		Coordinates: f.Coordinates,
	}
	s.addrs[phone] = append(s.addrs[phone], a)
	return &a, nil
}

func (s *memoryStore) Update(ctx context.Context, phone, id string, u Update) (*models.Address, error) {
	for i, a := range s.addrs[phone] {
		if a.ID == id {
			if u.Address != nil {
				a.Address = *u.Address
			}
			if u.Nickname != nil {
				a.Nickname = *u.Nickname
			}
			s.addrs[phone][i] = a
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) Delete(ctx context.Context, phone, id string) error {
	list := s.addrs[phone]
	for i, a := range list {
		if a.ID == id {
			s.addrs[phone] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func newTestBook() (*Book, *memoryStore, *localcache.Memory) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	store := newMemoryStore()
	cache := localcache.NewMemory()
	return NewBook(store, cache, logger), store, cache
}

func homeFields(text string) Fields {
	return Fields{Type: models.AddressHome, Address: text, Coordinates: models.Coordinates{Lat: 12.97, Lng: 77.59}}
}

func TestAddSelectsFirstAddress(t *testing.T) {
	book, _, cache := newTestBook()
	ctx := context.Background()

	first, err := book.Add(ctx, "u1", homeFields("12 MG Road"))
	require.NoError(t, err)
	second, err := book.Add(ctx, "u1", Fields{Type: "work", Address: "Tech Park"})
	require.NoError(t, err)
	assert.Equal(t, models.AddressWork, second.Type)

	id, _ := cache.SelectedAddress(ctx, "u1")
	assert.Equal(t, first.ID, id)
	assert.Equal(t, first.ID, book.Selected(ctx, "u1").ID)
}

func TestAddValidation(t *testing.T) {
	book, store, _ := newTestBook()

	tests := []struct {
		name   string
		fields Fields
	}{
		{"blank_address", Fields{Type: models.AddressHome, Address: "  "}},
		{"unknown_type", Fields{Type: "Beach", Address: "Somewhere"}},
		{"bad_latitude", Fields{Type: models.AddressOther, Address: "North", Coordinates: models.Coordinates{Lat: 91}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book.Add(context.Background(), "u1", tt.fields)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
	assert.Empty(t, store.addrs["u1"])
}

func TestDeleteSelectedReselectsFirstRemaining(t *testing.T) {
	book, _, cache := newTestBook()
	ctx := context.Background()

	a, _ := book.Add(ctx, "u1", homeFields("one"))
	b, _ := book.Add(ctx, "u1", homeFields("two"))
	c, _ := book.Add(ctx, "u1", homeFields("three"))
	require.NoError(t, book.Select(ctx, "u1", b.ID))

	require.NoError(t, book.Delete(ctx, "u1", b.ID))
	id, _ := cache.SelectedAddress(ctx, "u1")
	assert.Equal(t, a.ID, id)

	require.NoError(t, book.Delete(ctx, "u1", a.ID))
	id, _ = cache.SelectedAddress(ctx, "u1")
	assert.Equal(t, c.ID, id)

	require.NoError(t, book.Delete(ctx, "u1", c.ID))
	id, _ = cache.SelectedAddress(ctx, "u1")
	assert.Empty(t, id)
	assert.Nil(t, book.Selected(ctx, "u1"))
}

func TestDeleteUnselectedKeepsPointer(t *testing.T) {
	book, _, cache := newTestBook()
	ctx := context.Background()

	a, _ := book.Add(ctx, "u1", homeFields("one"))
	b, _ := book.Add(ctx, "u1", homeFields("two"))
	require.NoError(t, book.Delete(ctx, "u1", b.ID))

	id, _ := cache.SelectedAddress(ctx, "u1")
	assert.Equal(t, a.ID, id)
}

func TestSelectUnknownAddress(t *testing.T) {
	book, _, _ := newTestBook()
	ctx := context.Background()
	_, _ = book.Add(ctx, "u1", homeFields("one"))

	assert.ErrorIs(t, book.Select(ctx, "u1", "nope"), ErrNotFound)
}

func TestSelectedFallsBackToFirst(t *testing.T) {
	book, _, cache := newTestBook()
	ctx := context.Background()

	a, _ := book.Add(ctx, "u1", homeFields("one"))
	_, _ = book.Add(ctx, "u1", homeFields("two"))
	require.NoError(t, cache.SetSelectedAddress(ctx, "u1", "stale-id"))

	assert.Equal(t, a.ID, book.Selected(ctx, "u1").ID)
}

func TestListDegradesToEmpty(t *testing.T) {
	book, store, _ := newTestBook()
	store.err = errors.New("connection refused")

	addrs := book.List(context.Background(), "u1")
	assert.NotNil(t, addrs)
	assert.Empty(t, addrs)
	assert.Nil(t, book.Selected(context.Background(), "u1"))
}

func TestUpdateValidation(t *testing.T) {
	book, _, _ := newTestBook()
	ctx := context.Background()
	a, _ := book.Add(ctx, "u1", homeFields("one"))

	blank := ""
	_, err := book.Update(ctx, "u1", a.ID, Update{Address: &blank})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	text := "updated"
	updated, err := book.Update(ctx, "u1", a.ID, Update{Address: &text})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Address)

	_, err = book.Update(ctx, "u1", "missing", Update{Address: &text})
	assert.ErrorIs(t, err, ErrNotFound)
}
