package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"ytclip-server/internal/proxy"
)

// Config holds all server settings in correct types
type Config struct {
	Port        string
	Environment string

	DownloadDir string
	TempDir     string

	MaxConcurrentJobs int
	CleanupAfter      time.Duration

	MaxDownloadAttempts int
	RetryBaseDelay      time.Duration
	ProxyOverride       string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	SessionSecret      string
	SessionTTL         time.Duration
	CookieDomain       string
	CookieSecure       bool
}

// Load: The only way to get config in the app
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", ":3001"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DownloadDir: getEnv("DOWNLOAD_DIR", "downloads"),
		TempDir:     getEnv("TEMP_DIR", "temp"),

		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 3),
		CleanupAfter:      time.Duration(getEnvAsInt("CLEAN_UP_AFTER_MINUTES", 15)) * time.Minute,

		MaxDownloadAttempts: getEnvAsInt("MAX_DOWNLOAD_ATTEMPTS", 3),
		RetryBaseDelay:      time.Duration(getEnvAsInt("RETRY_BASE_DELAY_MS", 2000)) * time.Millisecond,
		ProxyOverride:       getEnv("YTDLP_PROXY", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3001/auth/google/callback"),
		SessionSecret:      getEnv("SESSION_SECRET", "your-secret-key"),
		SessionTTL:         time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		CookieDomain:       getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:       getEnvAsBool("COOKIE_SECURE", false),
	}

	// 🛡️ Post-load Validation
	validate(cfg)

	return cfg
}

// OAuthConfigured reports whether the Google credentials are present.
func (c *Config) OAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := getEnv(key, "")
	if val, err := strconv.Atoi(str); err == nil {
		return val
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	str := getEnv(key, "")
	if val, err := strconv.ParseBool(str); err == nil {
		return val
	}
	return fallback
}

// validate ensures the server won't crash due to misconfiguration
func validate(cfg *Config) {
	if cfg.MaxConcurrentJobs < 1 {
		log.Println("⚠️ Warning: MAX_CONCURRENT_JOBS must be at least 1. Resetting to 3.")
		cfg.MaxConcurrentJobs = 3
	}
	if cfg.MaxDownloadAttempts < 1 {
		log.Println("⚠️ Warning: MAX_DOWNLOAD_ATTEMPTS must be at least 1. Resetting to 3.")
		cfg.MaxDownloadAttempts = 3
	}
	if cfg.Environment == "production" && cfg.SessionSecret == "your-secret-key" {
		log.Println("⚠️ Warning: SESSION_SECRET is the development default in production.")
	}
	if cfg.ProxyOverride != "" && !proxy.ValidateURL(cfg.ProxyOverride) {
		log.Printf("⚠️ Warning: YTDLP_PROXY %q is not a usable http(s) proxy URL. Ignoring it.", cfg.ProxyOverride)
		cfg.ProxyOverride = ""
	}
	if _, err := os.Stat(cfg.DownloadDir); os.IsNotExist(err) {
		log.Printf("📂 Notice: Creating missing download directory: %s\n", cfg.DownloadDir)
		os.MkdirAll(cfg.DownloadDir, 0755)
	}
}
