package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// MinJWTSecretLength is the shortest accepted signing secret.
const MinJWTSecretLength = 32

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	DatabaseURL string
	DataBackend string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
	// TrustedProxies lists CIDRs or IPs whose forwarded headers name the client.
	TrustedProxies []string

	LogLevel  string
	LogFormat string

	// Location resolves naive timestamps and calendar buckets.
	Location       *time.Location
	FuelCategoryID int64

	DBConnectAttempts int
	DBConnectBackoff  time.Duration

	AuthRateLimitPerMinute int

	FirstSuperuserEmail    string
	FirstSuperuserPassword string
	FirstSuperuserFullName string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DataBackend: strings.ToLower(fallback(os.Getenv("DATA_BACKEND"), BackendPostgres)),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "rideledger"),
		JWTTTL:      time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 60*24*8)) * time.Minute,
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		TrustedProxies: splitCSV(os.Getenv("TRUSTED_PROXIES")),

		LogLevel:  fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat: fallback(os.Getenv("LOG_FORMAT"), "text"),

		FuelCategoryID: int64(positiveInt(os.Getenv("FUEL_CATEGORY_ID"), 1)),

		DBConnectAttempts: positiveInt(os.Getenv("DB_CONNECT_ATTEMPTS"), 10),
		DBConnectBackoff:  duration(os.Getenv("DB_CONNECT_BACKOFF"), 2*time.Second),

		AuthRateLimitPerMinute: positiveInt(os.Getenv("AUTH_RATE_LIMIT_PER_MINUTE"), 20),

		FirstSuperuserEmail:    strings.TrimSpace(os.Getenv("FIRST_SUPERUSER_EMAIL")),
		FirstSuperuserPassword: os.Getenv("FIRST_SUPERUSER_PASSWORD"),
		FirstSuperuserFullName: strings.TrimSpace(os.Getenv("FIRST_SUPERUSER_FULL_NAME")),
	}

	tz := fallback(os.Getenv("TIMEZONE"), "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid PORT %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid DATA_BACKEND %q: must be postgres or memory", c.DataBackend))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < MinJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be text or json", c.LogFormat))
	}

	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			problems = append(problems, fmt.Sprintf("invalid TRUSTED_PROXIES entry %q: must be an IP or CIDR", proxy))
		}
	}

	if (c.FirstSuperuserEmail == "") != (c.FirstSuperuserPassword == "") {
		problems = append(problems, "FIRST_SUPERUSER_EMAIL and FIRST_SUPERUSER_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// HasFirstSuperuser reports whether a bootstrap superuser is configured.
func (c Config) HasFirstSuperuser() bool {
	return c.FirstSuperuserEmail != "" && c.FirstSuperuserPassword != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(raw string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
		return n
	}
	return def
}

// duration accepts Go duration syntax or a bare number of seconds.
func duration(raw string, def time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func parseCSV(input string) []string {
	if out := splitCSV(input); len(out) > 0 {
		return out
	}
	return []string{"*"}
}

func splitCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validProxy(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}
