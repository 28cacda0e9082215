package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want fallback of 7 days", cfg.TokenTTL)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL = %v, want 5m", cfg.OTPTTL)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure = true, want false")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if AppConfig != cfg {
		t.Error("Load did not set AppConfig")
	}
}
