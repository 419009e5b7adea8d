// Package walletrequest builds the request documents accepted by the wallet
// provider from a merchant configuration.
package walletrequest

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"checkout-service/config"
)

// ErrInvalidConfig is returned when the merchant configuration cannot produce a valid document.
var ErrInvalidConfig = errors.New("walletrequest: invalid merchant configuration")

// BuildReadinessQuery returns the readiness document for cfg. The result does
// not depend on any payment attempt.
func BuildReadinessQuery(cfg config.Merchant) (*IsReadyToPayRequest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &IsReadyToPayRequest{
		APIVersion:      cfg.APIVersion,
		APIVersionMinor: cfg.APIVersionMinor,
		AllowedPaymentMethods: []ReadinessPaymentMethod{{
			Type:       PaymentMethodCard,
			Parameters: baseCardParameters(cfg),
		}},
	}, nil
}

// BuildPaymentDataRequest returns the payment data document for one attempt.
// price is embedded verbatim; it is neither parsed nor reformatted here.
func BuildPaymentDataRequest(cfg config.Merchant, price string) (*PaymentDataRequest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	params := baseCardParameters(cfg)
	billing := cfg.BillingAddressRequired
	params.BillingAddressRequired = &billing

	req := &PaymentDataRequest{
		APIVersion:      cfg.APIVersion,
		APIVersionMinor: cfg.APIVersionMinor,
		MerchantInfo:    MerchantInfo{MerchantName: cfg.MerchantName},
		AllowedPaymentMethods: []CardPaymentMethod{{
			Type:       PaymentMethodCard,
			Parameters: params,
			TokenizationSpecification: TokenizationSpecification{
				Type: TokenizationPaymentGateway,
				Parameters: TokenizationParameters{
					Gateway:           cfg.Gateway,
					GatewayMerchantID: cfg.GatewayMerchantID,
				},
			},
		}},
		TransactionInfo: TransactionInfo{
			TotalPrice:       price,
			TotalPriceStatus: TotalPriceStatusFinal,
			CountryCode:      cfg.CountryCode,
			CurrencyCode:     cfg.CurrencyCode,
		},
	}

	if cfg.ShippingAddressRequired {
		req.ShippingAddressRequired = true
		req.ShippingAddressParameters = &ShippingAddressParameters{
			PhoneNumberRequired: cfg.PhoneNumberRequired,
			AllowedCountryCodes: slices.Clone(cfg.AllowedShippingCountries),
		}
	}

	return req, nil
}

// Marshal encodes a built document into the bytes handed to the wallet client.
func Marshal(doc any) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("walletrequest: marshal: %w", err)
	}
	return b, nil
}

func baseCardParameters(cfg config.Merchant) CardParameters {
	return CardParameters{
		AllowedAuthMethods:  slices.Clone(cfg.AllowedAuthMethods),
		AllowedCardNetworks: slices.Clone(cfg.AllowedCardNetworks),
	}
}
