package domain

import (
	"errors"
	"testing"
)

func testAddressParams() ShippingAddressParams {
	return ShippingAddressParams{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 Analytical Way",
		AddressLine2: "Apt 3",
		City:         "Cambridge",
		State:        "MA",
		PostalCode:   "02139",
		Country:      "USA",
	}
}

func TestNewShippingAddressRequiresFields(t *testing.T) {
	mutations := []func(*ShippingAddressParams){
		func(p *ShippingAddressParams) { p.FullName = "  " },
		func(p *ShippingAddressParams) { p.AddressLine1 = "" },
		func(p *ShippingAddressParams) { p.City = "" },
		func(p *ShippingAddressParams) { p.State = "" },
		func(p *ShippingAddressParams) { p.PostalCode = "" },
		func(p *ShippingAddressParams) { p.Country = "" },
	}
	for i, mutate := range mutations {
		params := testAddressParams()
		mutate(&params)
		if _, err := NewShippingAddress(params); !errors.Is(err, ErrValidation) {
			t.Fatalf("mutation %d: expected validation error got %v", i, err)
		}
	}
}

func TestShippingAddressStringIncludesOptionalLine(t *testing.T) {
	addr, err := NewShippingAddress(testAddressParams())
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	want := "Ada Lovelace\n12 Analytical Way\nApt 3\nCambridge, MA 02139\nUSA"
	if addr.String() != want {
		t.Fatalf("unexpected rendering:\n%s", addr.String())
	}
}

func TestShippingAddressStringOmitsBlankLine(t *testing.T) {
	params := testAddressParams()
	params.AddressLine2 = ""
	addr, err := NewShippingAddress(params)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	want := "Ada Lovelace\n12 Analytical Way\nCambridge, MA 02139\nUSA"
	if addr.String() != want {
		t.Fatalf("unexpected rendering:\n%s", addr.String())
	}
}
