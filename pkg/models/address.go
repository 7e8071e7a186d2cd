package models

import "strings"

type AddressType string

const (
	AddressHome  AddressType = "Home"
	AddressWork  AddressType = "Work"
	AddressOther AddressType = "Other"
)

// ParseAddressType matches a type name case-insensitively.
func ParseAddressType(s string) (AddressType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return AddressHome, true
	case "work":
		return AddressWork, true
	case "other":
		return AddressOther, true
	default:
		return "", false
	}
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Address struct {
	ID          string      `json:"id"`
	Type        AddressType `json:"type"`
	Nickname    string      `json:"nickname,omitempty"`
	Address     string      `json:"address"`
	Landmark    string      `json:"landmark,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}
