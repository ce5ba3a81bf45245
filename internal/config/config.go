// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// App holds every setting the service reads at startup.
type App struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	// Postgres. DATABASE_URL wins over the discrete DB_* settings.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName      string `envconfig:"DB_NAME" default:"tourbooking"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	// Mongo
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"tourbooking"`

	// Stripe
	StripeSecretKey  string `envconfig:"STRIPE_SECRET_KEY"`
	CheckoutCurrency string `envconfig:"CHECKOUT_CURRENCY" default:"usd"`
	ClientURL        string `envconfig:"CLIENT_URL" default:"http://localhost:5173"`

	// Identity
	JWTSecret string `envconfig:"JWT_SECRET"`
	JWTIssuer string `envconfig:"JWT_ISSUER"`

	// Events. Publishing is disabled when no brokers are configured.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"payments"`
}

// Load reads an optional .env file and then the process environment.
func Load() (App, error) {
	_ = godotenv.Load()

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("process env: %w", err)
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.CheckoutCurrency = strings.ToLower(c.CheckoutCurrency)
	c.ClientURL = strings.TrimRight(c.ClientURL, "/")
	return c, c.validate()
}

func (c App) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.CheckoutCurrency == "" {
		return fmt.Errorf("CHECKOUT_CURRENCY must not be empty")
	}
	return nil
}

// PostgresDSN returns the connection string for pgx.
func (c App) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
