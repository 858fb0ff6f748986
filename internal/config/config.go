package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	DBMaxConns      int    // connection pool bound (open and idle)
	JWTSecret       string // secret used to sign session tokens
	SessionTTLHours int    // session token time‑to‑live in hours
	BcryptCost      int    // bcrypt cost for password hashing
	ModelAPIURL     string // base URL of the external model inference service
	ModelTimeoutSec int    // timeout in seconds for model service calls
	UploadDir       string // directory where uploaded crop images are stored
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values
// fall back to sensible defaults.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),      // environment (dev/test/prod)
		Port:            must("APP_PORT"),     // port to bind the HTTP server
		DBUser:          must("DB_USER"),      // database user
		DBPass:          os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:          must("DB_HOST"),      // database host
		DBPort:          must("DB_PORT"),      // database port
		DBName:          must("DB_NAME"),      // database name
		DBMaxConns:      optInt("DB_MAX_CONNS", 25),
		JWTSecret:       must("JWT_SECRET"),   // secret used for signing session tokens
		SessionTTLHours: optInt("SESSION_TTL_HOURS", 24),
		BcryptCost:      mustInt("BCRYPT_COST"), // bcrypt cost factor
		ModelAPIURL:     optStr("MODEL_API_URL", "http://localhost:5001"),
		ModelTimeoutSec: optInt("MODEL_TIMEOUT_SEC", 10),
		UploadDir:       optStr("UPLOAD_DIR", "uploads"),
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// optStr returns the environment value for key, or def when unset.
func optStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optInt returns the integer environment value for key, or def when
// unset or unparsable.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
