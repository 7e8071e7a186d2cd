// Package catalog reads restaurants and menus from the external REST API
// and converts them into the domain model.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jogardn/fooddash/internal/restapi"
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("catalog entry not found")

type Defaults struct {
	DeliveryFee decimal.Decimal
	MinOrder    decimal.Decimal
}

type Client struct {
	api      *restapi.Client
	defaults Defaults
	logger   *logrus.Logger
}

func NewClient(api *restapi.Client, defaults Defaults, logger *logrus.Logger) *Client {
	return &Client{api: api, defaults: defaults, logger: logger}
}

func (c *Client) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	var list models.APIRestaurantList
	if _, err := c.api.Do(ctx, http.MethodGet, "/api/v1/restaurants", nil, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	restaurants := make([]models.Restaurant, 0, len(list.Restaurants))
	for _, r := range list.Restaurants {
		restaurants = append(restaurants, c.toRestaurant(r))
	}
	return restaurants, nil
}

func (c *Client) GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error) {
	var r models.APIRestaurant
	path := "/api/v1/restaurants/" + url.PathEscape(restaurantID)
	if _, err := c.api.Do(ctx, http.MethodGet, path, nil, nil, &r); err != nil {
		return nil, fmt.Errorf("failed to fetch restaurant %s: %w", restaurantID, mapError(err))
	}

	restaurant := c.toRestaurant(r)
	return &restaurant, nil
}

func (c *Client) GetMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var list models.APIMenuList
	path := "/api/v1/restaurants/" + url.PathEscape(restaurantID) + "/menu"
	if _, err := c.api.Do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch menu of %s: %w", restaurantID, mapError(err))
	}

	items := make([]models.MenuItem, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, toMenuItem(restaurantID, item))
	}
	return items, nil
}

func (c *Client) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*models.MenuItem, error) {
	var item models.APIMenuItem
	path := "/api/v1/restaurants/" + url.PathEscape(restaurantID) + "/menu/" + url.PathEscape(itemID)
	if _, err := c.api.Do(ctx, http.MethodGet, path, nil, nil, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch menu item %s: %w", itemID, mapError(err))
	}

	menuItem := toMenuItem(restaurantID, item)
	return &menuItem, nil
}

func (c *Client) toRestaurant(r models.APIRestaurant) models.Restaurant {
	restaurant := models.Restaurant{
		ID:           r.RestaurantID,
		Name:         r.Name,
		Image:        r.RestaurantImage,
		Cuisine:      append([]string(nil), r.Cuisine...),
		DeliveryTime: r.DeliveryTime,
		DeliveryFee:  c.defaults.DeliveryFee,
		MinOrder:     c.defaults.MinOrder,
		Distance:     r.Distance,
		IsPureVeg:    r.IsPureVeg,
		Offers:       append([]string(nil), r.Offers...),
	}
	if r.Rating != nil {
		restaurant.Rating = *r.Rating
	}
	if r.TotalRatings != nil {
		restaurant.TotalRatings = *r.TotalRatings
	}
	if r.DeliveryFee != nil {
		restaurant.DeliveryFee = models.Money(*r.DeliveryFee)
	}
	if r.MinOrder != nil {
		restaurant.MinOrder = models.Money(*r.MinOrder)
	}
	if restaurant.DeliveryTime == "" && r.PrepTimeMin > 0 {
		restaurant.DeliveryTime = fmt.Sprintf("%d-%d mins", r.PrepTimeMin, r.PrepTimeMin+10)
	}
	if restaurant.Cuisine == nil {
		restaurant.Cuisine = []string{}
	}
	return restaurant
}

func toMenuItem(restaurantID string, item models.APIMenuItem) models.MenuItem {
	m := models.MenuItem{
		ID:           item.ItemID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        models.Money(item.Price),
		Image:        item.Image,
		Category:     item.Category,
		IsVeg:        item.IsVeg,
		IsAvailable:  item.IsAvailable,
	}
	if m.RestaurantID == "" {
		m.RestaurantID = restaurantID
	}
	if item.Rating != nil {
		r := *item.Rating
		m.Rating = &r
	}
	return m
}

func mapError(err error) error {
	if restapi.HasStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// FilterRestaurants keeps restaurants whose name or any cuisine contains
// search, case-insensitively, ordered by rating, best first. An empty search
// keeps every restaurant.
func FilterRestaurants(restaurants []models.Restaurant, search string) []models.Restaurant {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		if needle == "" || matches(r, needle) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}

func matches(r models.Restaurant, needle string) bool {
	if strings.Contains(strings.ToLower(r.Name), needle) {
		return true
	}
	for _, c := range r.Cuisine {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	return false
}
