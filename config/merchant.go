package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidMerchant is returned when the merchant configuration misses a required value.
var ErrInvalidMerchant = errors.New("invalid merchant configuration")

// Environment selects the wallet provider environment.
type Environment string

const (
	EnvironmentTest       Environment = "TEST"
	EnvironmentProduction Environment = "PRODUCTION"
)

// Merchant is the wallet request configuration shared by the request builder
// and the payment gateway. Build it with NewMerchant and pass it by value; it
// is never mutated after construction.
type Merchant struct {
	Environment     Environment `validate:"oneof=TEST PRODUCTION"`
	APIVersion      int         `validate:"gt=0"`
	APIVersionMinor int         `validate:"gte=0"`

	MerchantName        string   `validate:"required"`
	AllowedAuthMethods  []string `validate:"required,min=1,dive,required"`
	AllowedCardNetworks []string `validate:"required,min=1,dive,required"`
	CurrencyCode        string   `validate:"required"`
	CountryCode         string   `validate:"required"`
	Gateway             string   `validate:"required"`
	GatewayMerchantID   string   `validate:"required"`

	BillingAddressRequired   bool
	ShippingAddressRequired  bool
	PhoneNumberRequired      bool
	AllowedShippingCountries []string `validate:"required_if=ShippingAddressRequired true,dive,required"`
}

var validate = validator.New()

// DefaultMerchant returns the demo merchant used against the TEST environment.
func DefaultMerchant() Merchant {
	return Merchant{
		Environment:              EnvironmentTest,
		APIVersion:               2,
		APIVersionMinor:          0,
		MerchantName:             "Example Merchant",
		AllowedAuthMethods:       []string{"PAN_ONLY", "CRYPTOGRAM_3DS"},
		AllowedCardNetworks:      []string{"AMEX", "DISCOVER", "JCB", "MASTERCARD", "VISA"},
		CurrencyCode:             "USD",
		CountryCode:              "US",
		Gateway:                  "example",
		GatewayMerchantID:        "exampleGatewayMerchantId",
		BillingAddressRequired:   true,
		ShippingAddressRequired:  false,
		PhoneNumberRequired:      false,
		AllowedShippingCountries: []string{"US", "GB"},
	}
}

// NewMerchant returns a copy of m that shares no slices with the caller.
func NewMerchant(m Merchant) Merchant {
	m.AllowedAuthMethods = slices.Clone(m.AllowedAuthMethods)
	m.AllowedCardNetworks = slices.Clone(m.AllowedCardNetworks)
	m.AllowedShippingCountries = slices.Clone(m.AllowedShippingCountries)
	return m
}

// Validate reports whether every required value is present.
func (m Merchant) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMerchant, err)
	}
	return nil
}
