// Package cart aggregates selected menu items for a single restaurant and
// derives bill totals from them.
package cart

import (
	"github.com/jogardn/fooddash/pkg/models"
	"github.com/shopspring/decimal"
)

type Mutation int

const (
	MutationAdd Mutation = iota
	MutationRemove
	MutationClear
	MutationReplace
	MutationSwitchRestaurant
)

func (m Mutation) String() string {
	switch m {
	case MutationAdd:
		return "add"
	case MutationRemove:
		return "remove"
	case MutationClear:
		return "clear"
	case MutationReplace:
		return "replace"
	case MutationSwitchRestaurant:
		return "switch_restaurant"
	default:
		return "unknown"
	}
}

type Line struct {
	MenuItem   models.MenuItem   `json:"menu_item"`
	Quantity   int               `json:"quantity"`
	Restaurant models.Restaurant `json:"-"`
}

func (l Line) clone() Line {
	return Line{
		MenuItem:   l.MenuItem.Clone(),
		Quantity:   l.Quantity,
		Restaurant: l.Restaurant.Clone(),
	}
}

// Cart holds the lines of one session. Every line references the same
// restaurant. A Cart is not safe for concurrent use; callers serialize
// access (see session.Session).
type Cart struct {
	lines    []Line
	version  uint64
	onChange func(Mutation)
}

func New() *Cart {
	return &Cart{}
}

// OnChange registers a hook called after every call that changes the cart.
func (c *Cart) OnChange(fn func(Mutation)) {
	c.onChange = fn
}

func (c *Cart) notify(m Mutation) {
	if c.onChange != nil {
		c.onChange(m)
	}
}

// AddItem adds one unit of item. Adding an item from a different
// restaurant discards the current cart.
func (c *Cart) AddItem(item models.MenuItem, restaurant models.Restaurant) {
	c.version++

	if len(c.lines) > 0 && c.lines[0].Restaurant.ID != restaurant.ID {
		c.lines = []Line{{MenuItem: item.Clone(), Quantity: 1, Restaurant: restaurant.Clone()}}
		c.notify(MutationSwitchRestaurant)
		return
	}

	if i := c.indexOf(item.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, Line{MenuItem: item.Clone(), Quantity: 1, Restaurant: restaurant.Clone()})
	}
	c.notify(MutationAdd)
}

// RemoveItem removes one unit of the item, dropping the line at zero.
// Unknown ids are ignored.
func (c *Cart) RemoveItem(menuItemID string) {
	i := c.indexOf(menuItemID)
	if i < 0 {
		return
	}
	c.version++
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
	} else {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	c.notify(MutationRemove)
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (c *Cart) Clear() {
	if len(c.lines) == 0 {
		return
	}
	c.version++
	c.lines = nil
	c.notify(MutationClear)
}

// Replace swaps the whole cart for the given lines of one restaurant in a
// single mutation. Lines with a non-positive quantity are dropped.
func (c *Cart) Replace(restaurant models.Restaurant, lines []models.OrderLine) {
	c.version++
	c.lines = nil
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i := c.indexOf(l.MenuItem.ID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, Line{MenuItem: l.MenuItem.Clone(), Quantity: l.Quantity, Restaurant: restaurant.Clone()})
	}
	c.notify(MutationReplace)
}

// Quantity returns the quantity of an item, or 0 when it is not in the cart.
func (c *Cart) Quantity(menuItemID string) int {
	if i := c.indexOf(menuItemID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) indexOf(menuItemID string) int {
	for i := range c.lines {
		if c.lines[i].MenuItem.ID == menuItemID {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Version increases on every state-changing mutation.
func (c *Cart) Version() uint64 {
	return c.version
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.MenuItem.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func (c *Cart) DeliveryFee() decimal.Decimal {
	if len(c.lines) == 0 {
		return decimal.Zero
	}
	return c.lines[0].Restaurant.DeliveryFee
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.DeliveryFee())
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Restaurant returns the restaurant backing the cart, or nil when empty.
func (c *Cart) Restaurant() *models.Restaurant {
	if len(c.lines) == 0 {
		return nil
	}
	r := c.lines[0].Restaurant.Clone()
	return &r
}

// MeetsMinimum reports whether the subtotal reaches the restaurant's
// minimum order amount. An empty cart never does.
func (c *Cart) MeetsMinimum() bool {
	if len(c.lines) == 0 {
		return false
	}
	return c.Subtotal().GreaterThanOrEqual(c.lines[0].Restaurant.MinOrder)
}

// Snapshot is a by-value copy of a cart at one point in time.
type Snapshot struct {
	Restaurant  *models.Restaurant `json:"restaurant"`
	Lines       []Line             `json:"lines"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	DeliveryFee decimal.Decimal    `json:"delivery_fee"`
	Total       decimal.Decimal    `json:"total"`
	ItemCount   int                `json:"item_count"`
	Version     uint64             `json:"-"`
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Restaurant:  c.Restaurant(),
		Lines:       c.Lines(),
		Subtotal:    c.Subtotal(),
		DeliveryFee: c.DeliveryFee(),
		Total:       c.Total(),
		ItemCount:   c.ItemCount(),
		Version:     c.version,
	}
}
