package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	ListenAddr      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (ex: 10s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Record store
	StoreBackend      string        // "postgres" | "memory"
	DatabaseDSN       string        // required when StoreBackend is postgres
	DBMaxOpenConns    int           // pool size (default: 25)
	DBMaxIdleConns    int           // idle connections kept (default: 5)
	DBConnMaxLifetime time.Duration // recycle connections after (default: 5m)
	DBConnectTimeout  time.Duration // Total time to retry connecting (ex: 30s)
	DBRetryInterval   time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	DBMaxWait         time.Duration // max wait between retries (ex: 10s)
	DBPingTimeout     time.Duration // timeout for each ping attempt (ex: 5s)
	DBWarnThreshold   int           // warn after this many attempts
	AutoMigrate       bool          // apply pending migrations on serve

	// Redis read cache (optional, empty addr = disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	CacheTTL              time.Duration // lifetime of a cached bookmark (default: 1h)

	// YAML import (optional, empty = disabled)
	ImportFile     string        // path to a bookmarks.yaml file
	ImportInterval time.Duration // interval to re-import the file (default: 24h)

	// Listing
	// Page size when the client sends no count. Defaults to domain.DefaultMaxResults (500);
	// ANANSI_DEFAULT_PAGE_SIZE overrides it.
	DefaultPageSize int

	// Write rate limiting
	RateLimitBurst     int // requests allowed in a burst per client IP
	RateLimitPerMinute int // tokens refilled per client IP per minute

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Load reads the configuration from the environment, after loading an
// optional .env file. It panics on invalid or missing required values.
func Load() *Config {
	if err := loadEnvFile(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("ANANSI_LISTEN_ADDR", ":8080"),
		ShutdownTimeout: mustDuration("ANANSI_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ANANSI_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("ANANSI_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ANANSI_PRETTY_LOG", true),

		// Record store
		StoreBackend:      strings.ToLower(getenv("ANANSI_STORE", StorePostgres)),
		DatabaseDSN:       getenv("ANANSI_DATABASE_DSN", ""),
		DBMaxOpenConns:    getenvInt("ANANSI_DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getenvInt("ANANSI_DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: mustDuration("ANANSI_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnectTimeout:  mustDuration("ANANSI_DB_CONNECT_TIMEOUT", 30*time.Second),
		DBRetryInterval:   mustDuration("ANANSI_DB_RETRY_INTERVAL", 2*time.Second),
		DBMaxWait:         mustDuration("ANANSI_DB_MAX_WAIT", 10*time.Second),
		DBPingTimeout:     mustDuration("ANANSI_DB_PING_TIMEOUT", 5*time.Second),
		DBWarnThreshold:   getenvInt("ANANSI_DB_WARN_THRESHOLD", 3),
		AutoMigrate:       mustBool("ANANSI_AUTO_MIGRATE", true),

		// Redis settings
		RedisAddr:             getenv("ANANSI_REDIS_ADDR", ""),
		RedisUser:             getenv("ANANSI_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("ANANSI_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("ANANSI_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("ANANSI_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("ANANSI_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("ANANSI_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("ANANSI_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("ANANSI_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("ANANSI_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("ANANSI_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("ANANSI_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("ANANSI_REDIS_WARN_THRESHOLD", 3),
		CacheTTL:              mustDuration("ANANSI_CACHE_TTL", time.Hour),

		// Import
		ImportFile:     getenv("ANANSI_IMPORT_FILE", ""),
		ImportInterval: mustDuration("ANANSI_IMPORT_INTERVAL", 24*time.Hour),

		DefaultPageSize: getenvInt("ANANSI_DEFAULT_PAGE_SIZE", domain.DefaultMaxResults),

		RateLimitBurst:     getenvInt("ANANSI_RATE_LIMIT_BURST", 20),
		RateLimitPerMinute: getenvInt("ANANSI_RATE_LIMIT_PER_MINUTE", 60),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("ANANSI_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("ANANSI_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("ANANSI_TRUST_PROXY", false),
	}

	switch cfg.StoreBackend {
	case StorePostgres:
		cfg.DatabaseDSN = requireEnv("ANANSI_DATABASE_DSN")
	case StoreMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: ANANSI_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.StoreBackend))
	}

	if cfg.RedisAddr != "" {
		cfg.RedisDB = requireEnvInt("ANANSI_REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: ANANSI_REDIS_PASSWORD is required when ANANSI_REDIS_PASSWORD_REQUIRED=true")
		}
	}

	if cfg.DefaultPageSize < 1 {
		panic(fmt.Sprintf("❌ FATAL: ANANSI_DEFAULT_PAGE_SIZE must be >= 1, got %d", cfg.DefaultPageSize))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.DatabaseDSN != "" {
		cp.DatabaseDSN = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// loadEnvFile loads ANANSI_ENV_FILE when set, else ./.env. A missing file is not an error.
func loadEnvFile() error {
	file := getenv("ANANSI_ENV_FILE", ".env")
	if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", file, err)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
