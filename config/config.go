package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServiceName       string
	OTELEndpoint      string
	WalletProviderURL string
	WalletTimeout     time.Duration
	Port              string
	Merchant          Merchant
}

// Load loads configuration from an optional .env file and environment variables
func Load() *Config {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	return &Config{
		ServiceName:       getEnv("SERVICE_NAME", "checkout-service"),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		WalletProviderURL: getEnv("WALLET_PROVIDER_URL", "http://localhost:3001"),
		WalletTimeout:     getEnvDuration("WALLET_TIMEOUT", 10*time.Second),
		Port:              getEnv("PORT", "8081"),
		Merchant:          LoadMerchant(),
	}
}

// LoadMerchant builds the merchant configuration from environment variables,
// falling back to DefaultMerchant for anything unset.
func LoadMerchant() Merchant {
	d := DefaultMerchant()
	return NewMerchant(Merchant{
		Environment:              Environment(getEnv("WALLET_ENVIRONMENT", string(d.Environment))),
		APIVersion:               getEnvInt("WALLET_API_VERSION", d.APIVersion),
		APIVersionMinor:          getEnvInt("WALLET_API_VERSION_MINOR", d.APIVersionMinor),
		MerchantName:             getEnv("MERCHANT_NAME", d.MerchantName),
		AllowedAuthMethods:       getEnvList("ALLOWED_AUTH_METHODS", d.AllowedAuthMethods),
		AllowedCardNetworks:      getEnvList("ALLOWED_CARD_NETWORKS", d.AllowedCardNetworks),
		CurrencyCode:             getEnv("CURRENCY_CODE", d.CurrencyCode),
		CountryCode:              getEnv("COUNTRY_CODE", d.CountryCode),
		Gateway:                  getEnv("GATEWAY", d.Gateway),
		GatewayMerchantID:        getEnv("GATEWAY_MERCHANT_ID", d.GatewayMerchantID),
		BillingAddressRequired:   getEnvBool("BILLING_ADDRESS_REQUIRED", d.BillingAddressRequired),
		ShippingAddressRequired:  getEnvBool("SHIPPING_ADDRESS_REQUIRED", d.ShippingAddressRequired),
		PhoneNumberRequired:      getEnvBool("PHONE_NUMBER_REQUIRED", d.PhoneNumberRequired),
		AllowedShippingCountries: getEnvList("ALLOWED_SHIPPING_COUNTRIES", d.AllowedShippingCountries),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
