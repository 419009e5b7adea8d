package walletrequest

// Key names and nesting below are the wallet provider's request schema.

const (
	PaymentMethodCard          = "CARD"
	TokenizationPaymentGateway = "PAYMENT_GATEWAY"
	TotalPriceStatusFinal      = "FINAL"
)

// IsReadyToPayRequest is the readiness query document.
type IsReadyToPayRequest struct {
	APIVersion            int                      `json:"apiVersion"`
	APIVersionMinor       int                      `json:"apiVersionMinor"`
	AllowedPaymentMethods []ReadinessPaymentMethod `json:"allowedPaymentMethods"`
}

type ReadinessPaymentMethod struct {
	Type       string         `json:"type"`
	Parameters CardParameters `json:"parameters"`
}

type CardParameters struct {
	AllowedAuthMethods     []string `json:"allowedAuthMethods"`
	AllowedCardNetworks    []string `json:"allowedCardNetworks"`
	BillingAddressRequired *bool    `json:"billingAddressRequired,omitempty"`
}

// PaymentDataRequest is the document submitted to load payment data for one attempt.
type PaymentDataRequest struct {
	APIVersion                int                        `json:"apiVersion"`
	APIVersionMinor           int                        `json:"apiVersionMinor"`
	MerchantInfo              MerchantInfo               `json:"merchantInfo"`
	AllowedPaymentMethods     []CardPaymentMethod        `json:"allowedPaymentMethods"`
	TransactionInfo           TransactionInfo            `json:"transactionInfo"`
	ShippingAddressRequired   bool                       `json:"shippingAddressRequired,omitempty"`
	ShippingAddressParameters *ShippingAddressParameters `json:"shippingAddressParameters,omitempty"`
}

type MerchantInfo struct {
	MerchantName string `json:"merchantName"`
}

type CardPaymentMethod struct {
	Type                      string                    `json:"type"`
	Parameters                CardParameters            `json:"parameters"`
	TokenizationSpecification TokenizationSpecification `json:"tokenizationSpecification"`
}

type TokenizationSpecification struct {
	Type       string                 `json:"type"`
	Parameters TokenizationParameters `json:"parameters"`
}

type TokenizationParameters struct {
	Gateway           string `json:"gateway"`
	GatewayMerchantID string `json:"gatewayMerchantId"`
}

type TransactionInfo struct {
	TotalPrice       string `json:"totalPrice"`
	TotalPriceStatus string `json:"totalPriceStatus"`
	CountryCode      string `json:"countryCode"`
	CurrencyCode     string `json:"currencyCode"`
}

type ShippingAddressParameters struct {
	PhoneNumberRequired bool     `json:"phoneNumberRequired"`
	AllowedCountryCodes []string `json:"allowedCountryCodes"`
}
