package order

import (
	"strings"
	"unicode/utf8"
)

const maxShippingFieldLength = 255

type ShippingDetails struct {
	Address string
	City    string
	State   string
	Phone   string
}

func (s ShippingDetails) Normalize() ShippingDetails {
	return ShippingDetails{
		Address: strings.TrimSpace(s.Address),
		City:    strings.TrimSpace(s.City),
		State:   strings.TrimSpace(s.State),
		Phone:   strings.TrimSpace(s.Phone),
	}
}

// Validate reports the first missing or oversized field.
func (s ShippingDetails) Validate() error {
	n := s.Normalize()
	fields := []struct {
		name  string
		value string
	}{
		{"shippingAddress", n.Address},
		{"shippingCity", n.City},
		{"shippingState", n.State},
		{"shippingPhone", n.Phone},
	}

	for _, f := range fields {
		if f.value == "" {
			return &ValidationError{Field: f.name, Message: "is required"}
		}
		if utf8.RuneCountInString(f.value) > maxShippingFieldLength {
			return &ValidationError{Field: f.name, Message: "must be at most 255 characters"}
		}
	}
	return nil
}
