package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=comedor port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort    string
	DBDriver    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogFormat   string

	// Timezone names the IANA zone meal dates are computed in.
	Timezone string
	Location *time.Location

	ScanDebounceWindow time.Duration
	StoreTimeout       time.Duration
	AuditRetryInterval time.Duration
	AuditMaxAttempts   int
	CatalogCacheTTL    time.Duration
	StationIdleTTL     time.Duration

	// StrictQuota serialises quota check and insert per worker.
	StrictQuota bool
	// ConflateStoreErrors reports store failures as a reached limit, the way
	// the mobile app did.
	ConflateStoreErrors bool
}

// Load reads the environment and exits on invalid or insecure settings.
func Load() *Config {
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN usa el valor por defecto, define tu propia conexion para produccion.")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS usa el valor por defecto, define tu dominio para produccion.")
	}
	return cfg
}

// FromEnv parses settings through lookup (os.Getenv in production).
func FromEnv(lookup func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPPort:    get("HTTP_PORT", "8080"),
		DBDriver:    strings.ToLower(get("DB_DRIVER", "postgres")),
		DatabaseDSN: get("DATABASE_DSN", defaultDSN),
		JWTSecret:   get("JWT_SECRET", ""),
		CORSOrigins: get("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "text")),
		Timezone:    get("TIMEZONE", "America/Lima"),
	}

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(get(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	boolean := func(key string) bool {
		b, err := strconv.ParseBool(get(key, "false"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return b
	}

	cfg.ScanDebounceWindow = duration("SCAN_DEBOUNCE_WINDOW", "3s")
	cfg.StoreTimeout = duration("STORE_TIMEOUT", "5s")
	cfg.AuditRetryInterval = duration("AUDIT_RETRY_INTERVAL", "10s")
	cfg.CatalogCacheTTL = duration("CATALOG_CACHE_TTL", "1m")
	cfg.StationIdleTTL = duration("STATION_IDLE_TTL", "12h")
	cfg.StrictQuota = boolean("STRICT_QUOTA")
	cfg.ConflateStoreErrors = boolean("CONFLATE_STORE_ERRORS")

	attempts, err := strconv.Atoi(get("AUDIT_MAX_ATTEMPTS", "5"))
	if err != nil {
		errs = append(errs, fmt.Errorf("AUDIT_MAX_ATTEMPTS: %w", err))
	}
	cfg.AuditMaxAttempts = attempts

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	cfg.Location = loc

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET no esta definido"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET debe tener al menos 32 caracteres"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q no soportado (postgres|sqlite)", c.DBDriver))
	}
	if c.ScanDebounceWindow <= 0 {
		errs = append(errs, errors.New("SCAN_DEBOUNCE_WINDOW debe ser positivo"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT debe ser positivo"))
	}
	if c.AuditRetryInterval <= 0 {
		errs = append(errs, errors.New("AUDIT_RETRY_INTERVAL debe ser positivo"))
	}
	if c.AuditMaxAttempts <= 0 {
		errs = append(errs, errors.New("AUDIT_MAX_ATTEMPTS debe ser positivo"))
	}
	if c.StationIdleTTL <= 0 {
		errs = append(errs, errors.New("STATION_IDLE_TTL debe ser positivo"))
	}
	if c.CatalogCacheTTL < 0 {
		errs = append(errs, errors.New("CATALOG_CACHE_TTL no puede ser negativo"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into trimmed entries.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
