package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time expresses durations derived from numeric settings
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required settings use
// must()/mustInt() and abort startup when missing; the box-office
// knobs carry the documented defaults so a bare deployment prices
// and expires tickets sensibly.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	BookingTimeout   time.Duration // reservation expiry window (BOOKING_TIMEOUT_MIN, default 30)
	SurchargeRate    float64       // extra fraction charged on confirmation (BOOKING_SURCHARGE_RATE, default 0.15)
	GuestCoefficient float64       // price coefficient for walk-in guests (GUEST_PRICE_COEFFICIENT, default 1.0)
	SweepInterval    time.Duration // sweeper tick interval (SWEEP_INTERVAL_SEC, default 60)

	AdminEmail    string // bootstrap manager account email (optional)
	AdminPassword string // bootstrap manager account password (optional)
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		BookingTimeout:   time.Duration(envIntDefault("BOOKING_TIMEOUT_MIN", 30)) * time.Minute,
		SurchargeRate:    envFloatDefault("BOOKING_SURCHARGE_RATE", 0.15),
		GuestCoefficient: envFloatDefault("GUEST_PRICE_COEFFICIENT", 1.0),
		SweepInterval:    time.Duration(envIntDefault("SWEEP_INTERVAL_SEC", 60)) * time.Second,

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

// must retrieves the value of a required environment variable.  If
// the variable is unset or empty, the application logs a fatal
// error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.  If conversion fails, the application logs a fatal error
// and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envIntDefault reads an optional integer variable, falling back to
// def when unset.  An unparsable value aborts startup rather than
// silently running with a wrong timeout.
func envIntDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envFloatDefault reads an optional float variable, falling back to
// def when unset.
func envFloatDefault(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Fatalf("invalid float for %s: %q", key, s)
	}
	return f
}
