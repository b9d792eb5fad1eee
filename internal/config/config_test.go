package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOWNLOAD_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))

	cfg := Load()

	if cfg.Port != ":3001" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxConcurrentJobs != 3 {
		t.Errorf("MaxConcurrentJobs = %d", cfg.MaxConcurrentJobs)
	}
	if cfg.MaxDownloadAttempts != 3 {
		t.Errorf("MaxDownloadAttempts = %d", cfg.MaxDownloadAttempts)
	}
	if cfg.RetryBaseDelay != 2*time.Second {
		t.Errorf("RetryBaseDelay = %v", cfg.RetryBaseDelay)
	}
	if cfg.CleanupAfter != 15*time.Minute {
		t.Errorf("CleanupAfter = %v", cfg.CleanupAfter)
	}
	if cfg.OAuthConfigured() {
		t.Error("OAuthConfigured must be false without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOWNLOAD_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("PORT", ":9999")
	t.Setenv("MAX_DOWNLOAD_ATTEMPTS", "5")
	t.Setenv("RETRY_BASE_DELAY_MS", "500")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	if cfg.Port != ":9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxDownloadAttempts != 5 {
		t.Errorf("MaxDownloadAttempts = %d", cfg.MaxDownloadAttempts)
	}
	if cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("RetryBaseDelay = %v", cfg.RetryBaseDelay)
	}
	if !cfg.OAuthConfigured() {
		t.Error("OAuthConfigured must be true with credentials")
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure not parsed")
	}
}

func TestLoadDropsInvalidProxyOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOWNLOAD_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("YTDLP_PROXY", "not a proxy url")

	if cfg := Load(); cfg.ProxyOverride != "" {
		t.Errorf("ProxyOverride = %q, want it dropped", cfg.ProxyOverride)
	}
}

func TestValidateResetsBadValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOWNLOAD_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("TEMP_DIR", filepath.Join(dir, "temp"))
	t.Setenv("MAX_CONCURRENT_JOBS", "0")
	t.Setenv("MAX_DOWNLOAD_ATTEMPTS", "-2")

	cfg := Load()

	if cfg.MaxConcurrentJobs != 3 {
		t.Errorf("MaxConcurrentJobs = %d, want reset to 3", cfg.MaxConcurrentJobs)
	}
	if cfg.MaxDownloadAttempts != 3 {
		t.Errorf("MaxDownloadAttempts = %d, want reset to 3", cfg.MaxDownloadAttempts)
	}
}
