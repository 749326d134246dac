package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const adminEnv = "ADMIN_WALLET_ADDRESSES"

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	JWTSecret     string
	JWTExpiresIn  time.Duration
	AdminWallets  []string
	FrontendURL   string
	Environment   string
	NonceTTL      time.Duration
	AuthRateLimit float64
	SentryDSN     string

	// adminsPinned is set when the admin list came from the command line.
	adminsPinned bool
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// AdminSource returns the function the access policy calls on every admin
// check. A list given with -admins is fixed; otherwise the environment is
// re-read each call so edits take effect without a restart.
func (c Config) AdminSource() func() []string {
	if c.adminsPinned {
		wallets := c.AdminWallets
		return func() []string { return wallets }
	}
	fallback := c.AdminWallets
	return func() []string {
		if v, ok := os.LookupEnv(adminEnv); ok {
			return ParseAdminWallets(v)
		}
		return fallback
	}
}

// ParseAdminWallets splits a comma-separated address list.
func ParseAdminWallets(s string) []string {
	var out []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile, admins, jwtExpires, nonceTTL, authRate string

	fs := flag.NewFlagSet("votechain", flag.ContinueOnError)

	fs.StringVar(&envFile, "env-file", ".env", "Dotenv file to load (missing file is ignored)")

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.FrontendURL, "frontend-url", "", "Allowed CORS origin")
	fs.StringVar(&cfg.Environment, "env", "", "Environment (development or production)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Token signing secret (prefer env)")
	fs.StringVar(&jwtExpires, "jwt-expires-in", "", "Token lifetime, e.g. 24h or 30d")
	fs.StringVar(&admins, "admins", "", "Comma-separated admin wallet addresses")

	fs.StringVar(&nonceTTL, "nonce-ttl", "", "How long an issued nonce stays valid")
	fs.StringVar(&authRate, "auth-rate", "", "Requests per second per IP on /auth (0 disables)")
	fs.StringVar(&cfg.SentryDSN, "sentry-dsn", "", "Sentry DSN for error reporting")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = firstNonEmpty(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	cfg.FrontendURL = firstNonEmpty(cfg.FrontendURL, os.Getenv("FRONTEND_URL"), "http://localhost:3000")
	cfg.Environment = firstNonEmpty(cfg.Environment, os.Getenv("APP_ENV"), "development")

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	var err error
	if cfg.JWTExpiresIn, err = parseDuration(firstNonEmpty(jwtExpires, os.Getenv("JWT_EXPIRES_IN"), "24h")); err != nil {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	if cfg.NonceTTL, err = parseDuration(firstNonEmpty(nonceTTL, os.Getenv("NONCE_TTL"), "5m")); err != nil {
		return Config{}, fmt.Errorf("invalid NONCE_TTL: %w", err)
	}

	rate := firstNonEmpty(authRate, os.Getenv("AUTH_RATE_LIMIT"), "5")
	if cfg.AuthRateLimit, err = strconv.ParseFloat(rate, 64); err != nil || cfg.AuthRateLimit < 0 {
		return Config{}, errors.New("invalid AUTH_RATE_LIMIT")
	}

	if admins != "" {
		cfg.AdminWallets = ParseAdminWallets(admins)
		cfg.adminsPinned = true
	} else {
		cfg.AdminWallets = ParseAdminWallets(os.Getenv(adminEnv))
	}

	if cfg.SentryDSN == "" {
		cfg.SentryDSN = os.Getenv("SENTRY_DSN")
	}

	return cfg, nil
}

// parseDuration accepts Go durations plus a whole-day suffix ("30d").
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("bad day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// WithAdmins returns a copy of c with a fixed admin list.
func (c Config) WithAdmins(wallets ...string) Config {
	c.AdminWallets = wallets
	c.adminsPinned = true
	return c
}
