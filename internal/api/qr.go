package api

import (
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(orderID string) ([]byte, error)
}

// TrackingQR encodes the customer-facing tracking link of an order as a PNG.
type TrackingQR struct {
	BaseURL string
	Size    int
}

func (g TrackingQR) Link(orderID string) string {
	return strings.TrimRight(g.BaseURL, "/") + "/orders/" + url.PathEscape(orderID)
}

func (g TrackingQR) Generate(orderID string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(g.Link(orderID), qrcode.Medium, size)
}
