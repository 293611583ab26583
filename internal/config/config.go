// Package config loads the diagnostic node's configuration from
// environment variables, validates it at startup, and hands the result to
// the server as an explicit value so tests can construct their own.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// InsecureDefaultAPIKey is the well-known fallback token used when
// ET_API_KEY is unset. Operationally dangerous; the serve command warns
// loudly when it is active.
const InsecureDefaultAPIKey = "CHANGE_ME_IN_PROD"

// Config holds every runtime setting for the diagnostic node.
type Config struct {
	// Addr is the listen address, e.g. ":5000".
	Addr string
	// APIKey is the shared secret expected in the X-ET-AUTH-TOKEN header.
	APIKey string
	// UploadDir is the storage root for received reports.
	UploadDir string
	// ServerID is the identifier reported by the status endpoint.
	ServerID string
	// MaxUploadBytes caps the request body before the handler runs.
	MaxUploadBytes int64
	// AllowedExtensions is the upload allow-list (lowercase, no dot).
	AllowedExtensions []string
	// TLSCert and TLSKey point at PEM material. HTTPS is served iff
	// both files exist at startup.
	TLSCert string
	TLSKey  string
	// RateLimit is the number of upload requests allowed per IP per
	// RateWindow. Zero disables the limiter.
	RateLimit  int
	RateWindow time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults and
// failing fast on values that cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:              getenvDefault("ET_ADDR", ":5000"),
		APIKey:            getenvDefault("ET_API_KEY", InsecureDefaultAPIKey),
		UploadDir:         getenvDefault("ET_UPLOAD_DIR", "received_reports"),
		ServerID:          getenvDefault("ET_SERVER_ID", "ET-Diagnostic-Node-v9"),
		AllowedExtensions: []string{"zip", "csv"},
		TLSCert:           getenvDefault("ET_TLS_CERT", "cert.pem"),
		TLSKey:            getenvDefault("ET_TLS_KEY", "key.pem"),
	}

	var err error

	cfg.MaxUploadBytes, err = getenvInt64("ET_MAX_UPLOAD_BYTES", 16<<20)
	if err != nil {
		return nil, fmt.Errorf("ET_MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("ET_MAX_UPLOAD_BYTES: must be positive, got %d", cfg.MaxUploadBytes)
	}

	cfg.RateLimit, err = getenvInt("ET_RATE_LIMIT", 0)
	if err != nil {
		return nil, fmt.Errorf("ET_RATE_LIMIT: %w", err)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("ET_RATE_LIMIT: must not be negative, got %d", cfg.RateLimit)
	}

	cfg.RateWindow, err = getenvDuration("ET_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ET_RATE_WINDOW: %w", err)
	}

	cfg.ShutdownTimeout, err = getenvDuration("ET_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ET_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// InsecureAPIKey reports whether the node is still running with the
// fallback token.
func (c *Config) InsecureAPIKey() bool {
	return c.APIKey == InsecureDefaultAPIKey
}

// TLSAvailable reports whether both TLS files exist on disk. This is a
// boot-time branch: the caller decides once between HTTPS and plain HTTP.
func (c *Config) TLSAvailable() bool {
	if _, err := os.Stat(c.TLSCert); err != nil {
		return false
	}
	if _, err := os.Stat(c.TLSKey); err != nil {
		return false
	}
	return true
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("not a valid integer: %q", v)
	}
	return n, nil
}

func getenvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a valid integer: %q", v)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("not a valid duration: %q (use Go syntax: 30s, 1m)", v)
	}
	return d, nil
}
