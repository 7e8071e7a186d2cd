package addresses

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/sirupsen/logrus"
)

// Store is the remote address REST API.
type Store interface {
	List(ctx context.Context, phone string) ([]models.Address, error)
	Create(ctx context.Context, phone string, fields Fields) (*models.Address, error)
	Update(ctx context.Context, phone, addressID string, update Update) (*models.Address, error)
	Delete(ctx context.Context, phone, addressID string) error
}

type Client struct {
	api    *restapi.Client
	logger *logrus.Logger
}

var _ Store = (*Client)(nil)

func NewClient(api *restapi.Client, logger *logrus.Logger) *Client {
	return &Client{api: api, logger: logger}
}

func basePath(phone string) string {
	return "/api/v1/users/" + url.PathEscape(phone) + "/addresses"
}

func (c *Client) List(ctx context.Context, phone string) ([]models.Address, error) {
	var list models.APIAddressList
	if _, err := c.api.Do(ctx, http.MethodGet, basePath(phone), nil, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", mapError(err))
	}

	out := make([]models.Address, 0, len(list.Addresses))
	for _, a := range list.Addresses {
		out = append(out, fromAPI(a))
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, phone string, fields Fields) (*models.Address, error) {
	body := models.APIAddress{
		Label:    labelFor(fields.Type, fields.Nickname),
		Address:  fields.Address,
		Landmark: fields.Landmark,
		Lat:      fields.Coordinates.Lat,
		Lng:      fields.Coordinates.Lng,
	}

	var created models.APIAddress
	if _, err := c.api.Do(ctx, http.MethodPost, basePath(phone), nil, body, &created); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", mapError(err))
	}

	addr := fromAPI(created)
	addr.Type = fields.Type
	if created.Landmark == "" {
		addr.Landmark = fields.Landmark
	}
	return &addr, nil
}

func (c *Client) Update(ctx context.Context, phone, addressID string, update Update) (*models.Address, error) {
	body := models.APIAddressUpdate{
		Address:  update.Address,
		Landmark: update.Landmark,
	}
	switch {
	case update.Nickname != nil && *update.Nickname != "":
		body.Label = update.Nickname
	case update.Type != nil:
		label := string(*update.Type)
		body.Label = &label
	}
	if update.Coordinates != nil {
		body.Lat = &update.Coordinates.Lat
		body.Lng = &update.Coordinates.Lng
	}

	var updated models.APIAddress
	path := basePath(phone) + "/" + url.PathEscape(addressID)
	if _, err := c.api.Do(ctx, http.MethodPut, path, nil, body, &updated); err != nil {
		return nil, fmt.Errorf("failed to update address %s: %w", addressID, mapError(err))
	}

	addr := fromAPI(updated)
	return &addr, nil
}

func (c *Client) Delete(ctx context.Context, phone, addressID string) error {
	path := basePath(phone) + "/" + url.PathEscape(addressID)
	if _, err := c.api.Do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete address %s: %w", addressID, mapError(err))
	}
	return nil
}

// fromAPI maps the single remote label onto type and nickname: a label that
// names a type sets the type, anything else is a nickname of an Other address.
func fromAPI(a models.APIAddress) models.Address {
	addr := models.Address{
		ID:          a.AddressID,
		Address:     a.Address,
		Landmark:    a.Landmark,
		Coordinates: models.Coordinates{Lat: a.Lat, Lng: a.Lng},
	}
	if t, ok := models.ParseAddressType(a.Label); ok {
		addr.Type = t
	} else {
		addr.Type = models.AddressOther
		addr.Nickname = a.Label
	}
	return addr
}

func labelFor(t models.AddressType, nickname string) string {
	if nickname != "" {
		return nickname
	}
	return string(t)
}

func mapError(err error) error {
	if restapi.HasStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
