package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for TTLs.
type Config struct {
	Env                string        // application environment (e.g. "dev", "prod")
	Port               string        // HTTP port to listen on
	DBUser             string        // database username
	DBPass             string        // database password (optional)
	DBHost             string        // database host address
	DBPort             string        // database port number
	DBName             string        // database name
	JWTSecret          string        // secret used to verify storefront JWTs
	ReservationTTL     time.Duration // lifetime of a stock reservation before it self-expires
	CheckoutSessionTTL time.Duration // lifetime of a checkout session record
	CartServiceURL     string        // base URL of the cart collaborator
	PaymentServiceURL  string        // base URL of the payment collaborator
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The two TTLs default
// to 15 minutes for reservations and one hour for checkout sessions and only
// need to be set to override those windows.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),      // environment (dev/test/prod)
		Port:               must("APP_PORT"),     // port to bind the HTTP server
		DBUser:             must("DB_USER"),      // database user
		DBPass:             os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:             must("DB_HOST"),      // database host
		DBPort:             must("DB_PORT"),      // database port
		DBName:             must("DB_NAME"),      // database name
		JWTSecret:          must("JWT_SECRET"),   // secret used to verify JWTs
		ReservationTTL:     envDur("RESERVATION_TTL", 15*time.Minute),
		CheckoutSessionTTL: envDur("CHECKOUT_SESSION_TTL", time.Hour),
		CartServiceURL:     envStr("CART_SERVICE_URL", "http://localhost:8081"),
		PaymentServiceURL:  envStr("PAYMENT_SERVICE_URL", "http://localhost:8082"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
