package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StripeConfig mirrors the provider settings a store admin configures:
// URLs back into the storefront, key pairs for both modes and the
// checkout behavior toggles.
type StripeConfig struct {
	ContinueURL string `mapstructure:"continue_url"`
	CancelURL   string `mapstructure:"cancel_url"`
	ErrorURL    string `mapstructure:"error_url"`

	BillingAddressLine1PropertyAlias   string `mapstructure:"billing_address_line1_property_alias"`
	BillingAddressLine2PropertyAlias   string `mapstructure:"billing_address_line2_property_alias"`
	BillingAddressCityPropertyAlias    string `mapstructure:"billing_address_city_property_alias"`
	BillingAddressStatePropertyAlias   string `mapstructure:"billing_address_state_property_alias"`
	BillingAddressZipCodePropertyAlias string `mapstructure:"billing_address_zipcode_property_alias"`

	TestSecretKey            string `mapstructure:"test_secret_key"`
	TestPublicKey            string `mapstructure:"test_public_key"`
	TestWebhookSigningSecret string `mapstructure:"test_webhook_signing_secret"`
	LiveSecretKey            string `mapstructure:"live_secret_key"`
	LivePublicKey            string `mapstructure:"live_public_key"`
	LiveWebhookSigningSecret string `mapstructure:"live_webhook_signing_secret"`

	TestMode bool `mapstructure:"test_mode"`

	Capture            bool   `mapstructure:"capture"`
	SendReceipt        bool   `mapstructure:"send_receipt"`
	PaymentMethodTypes string `mapstructure:"payment_method_types"`
	OrderProperties    string `mapstructure:"order_properties"`

	OrderHeading        string `mapstructure:"order_heading"`
	OrderImage          string `mapstructure:"order_image"`
	OneTimeItemsHeading string `mapstructure:"one_time_items_heading"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
}

// CheckoutSettings converts the static configuration into the per-request
// settings value handed to the provider.
func (c Config) CheckoutSettings() domain.CheckoutSettings {
	s := c.Stripe
	return domain.CheckoutSettings{
		ContinueURL: s.ContinueURL,
		CancelURL:   s.CancelURL,
		ErrorURL:    s.ErrorURL,

		BillingAddressLine1PropertyAlias:   s.BillingAddressLine1PropertyAlias,
		BillingAddressLine2PropertyAlias:   s.BillingAddressLine2PropertyAlias,
		BillingAddressCityPropertyAlias:    s.BillingAddressCityPropertyAlias,
		BillingAddressStatePropertyAlias:   s.BillingAddressStatePropertyAlias,
		BillingAddressZipCodePropertyAlias: s.BillingAddressZipCodePropertyAlias,

		TestSecretKey:            s.TestSecretKey,
		TestPublicKey:            s.TestPublicKey,
		TestWebhookSigningSecret: s.TestWebhookSigningSecret,
		LiveSecretKey:            s.LiveSecretKey,
		LivePublicKey:            s.LivePublicKey,
		LiveWebhookSigningSecret: s.LiveWebhookSigningSecret,

		TestMode: s.TestMode,

		Capture:            s.Capture,
		SendReceipt:        s.SendReceipt,
		PaymentMethodTypes: s.PaymentMethodTypes,
		OrderProperties:    s.OrderProperties,

		OrderHeading:        s.OrderHeading,
		OrderImage:          s.OrderImage,
		OneTimeItemsHeading: s.OneTimeItemsHeading,
	}
}

// Load reads configuration from config.yaml (optional) and the
// environment. Environment variables win; nested keys use underscores,
// e.g. STRIPE_TEST_SECRET_KEY.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stripe-gateway")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("stripe.test_mode", true)
	v.SetDefault("stripe.capture", true)
	v.SetDefault("stripe.send_receipt", false)
	v.SetDefault("stripe.payment_method_types", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
