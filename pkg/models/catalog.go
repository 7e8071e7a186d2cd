package models

import "github.com/shopspring/decimal"

type Restaurant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Cuisine      []string        `json:"cuisine"`
	Rating       float64         `json:"rating"`
	TotalRatings int             `json:"total_ratings"`
	DeliveryTime string          `json:"delivery_time"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	MinOrder     decimal.Decimal `json:"min_order"`
	Distance     string          `json:"distance"`
	IsPureVeg    bool            `json:"is_pure_veg"`
	Offers       []string        `json:"offers,omitempty"`
}

type MenuItem struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	Category     string          `json:"category"`
	IsVeg        bool            `json:"is_veg"`
	Rating       *float64        `json:"rating,omitempty"`
	IsAvailable  bool            `json:"is_available"`
}

// Clone returns a deep copy that shares no memory with m.
func (m MenuItem) Clone() MenuItem {
	if m.Rating != nil {
		r := *m.Rating
		m.Rating = &r
	}
	return m
}

// Clone returns a deep copy that shares no memory with r.
func (r Restaurant) Clone() Restaurant {
	r.Cuisine = append([]string(nil), r.Cuisine...)
	if r.Offers != nil {
		r.Offers = append([]string(nil), r.Offers...)
	}
	return r
}
