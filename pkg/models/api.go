package models

// Records exchanged with the external REST API and the order store.

type APIRestaurant struct {
	RestaurantID    string   `json:"restaurantId"`
	Name            string   `json:"name"`
	RestaurantImage string   `json:"restaurantImage,omitempty"`
	Cuisine         []string `json:"cuisine"`
	IsOpen          bool     `json:"isOpen"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Rating          *float64 `json:"rating,omitempty"`
	TotalRatings    *int     `json:"totalRatings,omitempty"`
	DeliveryTime    string   `json:"deliveryTime,omitempty"`
	DeliveryFee     *float64 `json:"deliveryFee,omitempty"`
	MinOrder        *float64 `json:"minOrder,omitempty"`
	Distance        string   `json:"distance,omitempty"`
	IsPureVeg       bool     `json:"isPureVeg"`
	Offers          []string `json:"offers,omitempty"`
	PrepTimeMin     int      `json:"prepTimeMin,omitempty"`
}

type APIRestaurantList struct {
	Restaurants []APIRestaurant `json:"restaurants"`
	Total       int             `json:"total"`
}

type APIMenuItem struct {
	RestaurantID string   `json:"restaurantId"`
	ItemID       string   `json:"itemId"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Category     string   `json:"category,omitempty"`
	IsVeg        bool     `json:"isVeg"`
	IsAvailable  bool     `json:"isAvailable"`
	Description  string   `json:"description,omitempty"`
	Image        string   `json:"image,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
}

type APIMenuList struct {
	RestaurantID string        `json:"restaurantId"`
	Items        []APIMenuItem `json:"items"`
	Total        int           `json:"total"`
}

type APIAddress struct {
	Phone     string  `json:"phone"`
	AddressID string  `json:"addressId"`
	Label     string  `json:"label"`
	Address   string  `json:"address"`
	Landmark  string  `json:"landmark,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type APIAddressList struct {
	Phone     string       `json:"phone"`
	Addresses []APIAddress `json:"addresses"`
	Total     int          `json:"total"`
}

// APIAddressUpdate carries only the fields being changed.
type APIAddressUpdate struct {
	Label    *string  `json:"label,omitempty"`
	Address  *string  `json:"address,omitempty"`
	Landmark *string  `json:"landmark,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

type APIOrderItem struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type APIOrder struct {
	OrderID             string         `json:"orderId"`
	CustomerPhone       string         `json:"customerPhone"`
	RestaurantID        string         `json:"restaurantId"`
	RestaurantName      string         `json:"restaurantName,omitempty"`
	RestaurantImage     string         `json:"restaurantImage,omitempty"`
	Items               []APIOrderItem `json:"items"`
	FoodTotal           float64        `json:"foodTotal"`
	DeliveryFee         float64        `json:"deliveryFee"`
	PlatformFee         float64        `json:"platformFee"`
	GrandTotal          float64        `json:"grandTotal"`
	Status              string         `json:"status"`
	RiderID             *string        `json:"riderId,omitempty"`
	DeliveryAddress     *Address       `json:"deliveryAddress,omitempty"`
	CreatedAt           int64          `json:"createdAt"`
	EstimatedDeliveryAt int64          `json:"estimatedDeliveryAt,omitempty"`
}

type APIOrderList struct {
	Orders []APIOrder `json:"orders"`
	Total  int        `json:"total"`
}

type CreateOrderRequest struct {
	CustomerPhone   string         `json:"customerPhone"`
	RestaurantID    string         `json:"restaurantId"`
	RestaurantName  string         `json:"restaurantName,omitempty"`
	RestaurantImage string         `json:"restaurantImage,omitempty"`
	Items           []APIOrderItem `json:"items"`
	FoodTotal       float64        `json:"foodTotal"`
	DeliveryFee     float64        `json:"deliveryFee"`
	PlatformFee     float64        `json:"platformFee"`
	RiderID         *string        `json:"riderId,omitempty"`
	DeliveryAddress *Address       `json:"deliveryAddress,omitempty"`
}

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	RiderID string `json:"riderId,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
