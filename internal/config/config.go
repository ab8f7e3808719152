package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Store
	StoreBackend string // "memory" | "postgres" | "redis"
	PostgresDSN  string // required when StoreBackend=postgres
	SeedFile     string // optional campaigns YAML, loaded into the memory backend

	// Probing
	ProbeTimeout     time.Duration // per-request timeout (default: 5s)
	AllowedStatuses  []int         // HTTP statuses considered healthy (default: 200, 302)
	FailureThreshold int           // consecutive failures before deactivation (default: 3)
	RulesFile        string        // optional classifier rules YAML (empty = built-in rules)
	AllowPrivate     bool          // allow probing loopback/private hosts (dev only)

	// Auto-checker
	AutoCheckEnabled bool          // false => no background checking
	AutoCheckPoll    time.Duration // global tick period (default: 15s)

	// Telegram notifications (empty token = notifications disabled)
	TelegramToken   string
	TelegramChatID  string
	TelegramAPIBase string

	// Redis settings (used when StoreBackend=redis)
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

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SMARTLINK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SMARTLINK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SMARTLINK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SMARTLINK_PRETTY_LOG", true),

		// Store
		StoreBackend: getenv("SMARTLINK_STORE_BACKEND", BackendMemory),
		PostgresDSN:  getenv("SMARTLINK_POSTGRES_DSN", ""),
		SeedFile:     getenv("SMARTLINK_SEED_FILE", ""),

		// Probing
		ProbeTimeout:     mustDuration("SMARTLINK_PROBE_TIMEOUT", 5*time.Second),
		AllowedStatuses:  getenvInts("SMARTLINK_ALLOWED_STATUSES", []int{200, 302}),
		FailureThreshold: getenvInt("SMARTLINK_FAILURE_THRESHOLD", 3),
		RulesFile:        getenv("SMARTLINK_RULES_FILE", ""),
		AllowPrivate:     mustBool("SMARTLINK_PROBE_ALLOW_PRIVATE", false),

		// Auto-checker
		AutoCheckEnabled: mustBool("SMARTLINK_AUTOCHECK_ENABLED", true),
		AutoCheckPoll:    mustDuration("SMARTLINK_AUTOCHECK_POLL", 15*time.Second),

		// Telegram
		TelegramToken:   getenv("SMARTLINK_TELEGRAM_TOKEN", ""),
		TelegramChatID:  getenv("SMARTLINK_TELEGRAM_CHAT_ID", ""),
		TelegramAPIBase: getenv("SMARTLINK_TELEGRAM_API_BASE", ""),

		// Redis settings
		RedisAddr:             getenv("SMARTLINK_REDIS_ADDR", ""),
		RedisUser:             getenv("SMARTLINK_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("SMARTLINK_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("SMARTLINK_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("SMARTLINK_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("SMARTLINK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("SMARTLINK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("SMARTLINK_TRUST_PROXY", true),
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			panic("❌ FATAL: SMARTLINK_POSTGRES_DSN is required when SMARTLINK_STORE_BACKEND=postgres")
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			panic("❌ FATAL: SMARTLINK_REDIS_ADDR is required when SMARTLINK_STORE_BACKEND=redis")
		}
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: SMARTLINK_REDIS_PASSWORD is required when SMARTLINK_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown SMARTLINK_STORE_BACKEND %q (want memory, postgres or redis)", cfg.StoreBackend))
	}

	if cfg.FailureThreshold <= 0 {
		panic("❌ FATAL: SMARTLINK_FAILURE_THRESHOLD must be positive")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.TelegramToken = "***REDACTED***"
		cfgCopy.PostgresDSN = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getenvInts parses a comma-separated list of integers. Any unparseable
// entry falls back to the default list.
func getenvInts(key string, def []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := splitAndTrim(v)
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		i, err := strconv.Atoi(part)
		if err != nil {
			return def
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return def
	}
	return out
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
