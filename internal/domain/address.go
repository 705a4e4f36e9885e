package domain

import (
	"fmt"
	"strings"
)

// ShippingAddressParams carries the raw input for a shipping address.
type ShippingAddressParams struct {
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// ShippingAddress is an immutable postal destination. Every field except the
// second address line is required.
type ShippingAddress struct {
	fullName     string
	addressLine1 string
	addressLine2 string
	city         string
	state        string
	postalCode   string
	country      string
}

// NewShippingAddress validates the required fields and trims all input.
func NewShippingAddress(params ShippingAddressParams) (ShippingAddress, error) {
	addr := ShippingAddress{
		fullName:     strings.TrimSpace(params.FullName),
		addressLine1: strings.TrimSpace(params.AddressLine1),
		addressLine2: strings.TrimSpace(params.AddressLine2),
		city:         strings.TrimSpace(params.City),
		state:        strings.TrimSpace(params.State),
		postalCode:   strings.TrimSpace(params.PostalCode),
		country:      strings.TrimSpace(params.Country),
	}

	required := []struct {
		name  string
		value string
	}{
		{"fullName", addr.fullName},
		{"addressLine1", addr.addressLine1},
		{"city", addr.city},
		{"state", addr.state},
		{"postalCode", addr.postalCode},
		{"country", addr.country},
	}
	for _, field := range required {
		if field.value == "" {
			return ShippingAddress{}, fmt.Errorf("%w: shipping address field %s is required", ErrValidation, field.name)
		}
	}
	return addr, nil
}

// ShippingAddressFromStorage rehydrates a stored address without re-running
// validation, mirroring OrderFromSnapshot.
func ShippingAddressFromStorage(params ShippingAddressParams) ShippingAddress {
	return ShippingAddress{
		fullName:     params.FullName,
		addressLine1: params.AddressLine1,
		addressLine2: params.AddressLine2,
		city:         params.City,
		state:        params.State,
		postalCode:   params.PostalCode,
		country:      params.Country,
	}
}

func (a ShippingAddress) FullName() string     { return a.fullName }
func (a ShippingAddress) AddressLine1() string { return a.addressLine1 }
func (a ShippingAddress) AddressLine2() string { return a.addressLine2 }
func (a ShippingAddress) City() string         { return a.city }
func (a ShippingAddress) State() string        { return a.state }
func (a ShippingAddress) PostalCode() string   { return a.postalCode }
func (a ShippingAddress) Country() string      { return a.country }

// IsZero reports whether the address was never constructed.
func (a ShippingAddress) IsZero() bool { return a == ShippingAddress{} }

// String renders the canonical multi-line postal form, omitting the optional
// second address line when blank.
func (a ShippingAddress) String() string {
	lines := []string{a.fullName, a.addressLine1}
	if a.addressLine2 != "" {
		lines = append(lines, a.addressLine2)
	}
	lines = append(lines,
		fmt.Sprintf("%s, %s %s", a.city, a.state, a.postalCode),
		a.country,
	)
	return strings.Join(lines, "\n")
}
