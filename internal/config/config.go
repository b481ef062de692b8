package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds every setting the server needs. It is loaded once at startup
// and handed to constructors explicitly.
type Config struct {
	AppPort     string `validate:"required"`
	DBDriver    string `validate:"oneof=postgres sqlite memory"`
	DatabaseDSN string `validate:"required_unless=DBDriver memory"`

	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`

	RabbitMQURL    string
	EventsExchange string `validate:"required"`

	PayPalClientID  string
	PayPalSecret    string
	PayPalMode      string `validate:"oneof=sandbox live"`
	PayPalReturnURL string `validate:"required,url"`
	PayPalCancelURL string `validate:"required,url"`
	PremiumPrice    decimal.Decimal
	Currency        string        `validate:"len=3"`
	GatewayTimeout  time.Duration `validate:"gt=0"`

	SendGridAPIKey string
	MailFrom       string `validate:"required,email"`

	PinTTL         time.Duration `validate:"gt=0"`
	SKUMaxAttempts int           `validate:"min=1,max=20"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storemaster.db")
	v.SetDefault("JWT_SECRET", "change-me-in-production-please")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "storemaster.events")
	v.SetDefault("PAYPAL_CLIENT_ID", "")
	v.SetDefault("PAYPAL_SECRET", "")
	v.SetDefault("PAYPAL_MODE", "sandbox")
	v.SetDefault("PAYPAL_RETURN_URL", "http://localhost:8080/api/v1/auth/paypal/return")
	v.SetDefault("PAYPAL_CANCEL_URL", "http://localhost:8080/api/v1/auth/paypal/cancel")
	v.SetDefault("PREMIUM_PLAN_PRICE", "99.99")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("GATEWAY_TIMEOUT", "15s")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "no-reply@storemaster.local")
	v.SetDefault("PIN_TTL", "10m")
	v.SetDefault("SKU_MAX_ATTEMPTS", 5)
}

// Load reads a .env file when present, then environment variables over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	price, err := decimal.NewFromString(v.GetString("PREMIUM_PLAN_PRICE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREMIUM_PLAN_PRICE: %w", err)
	}

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		EventsExchange:  v.GetString("EVENTS_EXCHANGE"),
		PayPalClientID:  v.GetString("PAYPAL_CLIENT_ID"),
		PayPalSecret:    v.GetString("PAYPAL_SECRET"),
		PayPalMode:      v.GetString("PAYPAL_MODE"),
		PayPalReturnURL: v.GetString("PAYPAL_RETURN_URL"),
		PayPalCancelURL: v.GetString("PAYPAL_CANCEL_URL"),
		PremiumPrice:    price,
		Currency:        v.GetString("CURRENCY"),
		GatewayTimeout:  v.GetDuration("GATEWAY_TIMEOUT"),
		SendGridAPIKey:  v.GetString("SENDGRID_API_KEY"),
		MailFrom:        v.GetString("MAIL_FROM"),
		PinTTL:          v.GetDuration("PIN_TTL"),
		SKUMaxAttempts:  v.GetInt("SKU_MAX_ATTEMPTS"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and the plan price.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.PremiumPrice.IsPositive() {
		return fmt.Errorf("invalid configuration: premium plan price must be positive")
	}
	return nil
}

// Defaults returns the configuration used when no environment is set.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := FromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
