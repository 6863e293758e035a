// Package config holds runtime settings for the pennywise API, resolved from
// defaults overlaid with PENNYWISE_* environment variables. The resulting
// Config is passed explicitly into every constructor that needs it.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the process needs at startup.
//
// AuthSecret signs access tokens (HS256) and must be set outside of tests.
// AccessTokenTTL is minutes-scale, RefreshTokenTTL days-scale and
// ActivationTTL bounds how long an emailed activation link stays valid.
type Config struct {
	Addr           string
	DatabaseDSN    string
	AuthSecret     string
	Issuer         string
	AccessTokenTTL time.Duration
	RefreshTokenTTL time.Duration
	ActivationTTL  time.Duration
	BaseURL        string
	MailEndpoint   string
	MailToken      string
	MailFrom       string
	RateBurst      int
	RatePerSecond  int
}

func defaults() Config {
	return Config{
		Addr:            ":8080",
		Issuer:          "pennywise",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		ActivationTTL:   24 * time.Hour,
		BaseURL:         "http://localhost:8080",
		MailFrom:        "no-reply@pennywise.org",
		RateBurst:       20,
		RatePerSecond:   10,
	}
}

// Load resolves the configuration from defaults and environment variables.
// It fails if the token signing secret is missing, since every session
// credential depends on it.
func Load() (Config, error) {
	cfg := defaults()

	overlayString(&cfg.Addr, "PENNYWISE_ADDR")
	overlayString(&cfg.DatabaseDSN, "PENNYWISE_PG_DSN")
	overlayString(&cfg.AuthSecret, "PENNYWISE_AUTH_SECRET")
	overlayString(&cfg.Issuer, "PENNYWISE_ISSUER")
	overlayString(&cfg.BaseURL, "PENNYWISE_BASE_URL")
	overlayString(&cfg.MailEndpoint, "PENNYWISE_MAIL_ENDPOINT")
	overlayString(&cfg.MailToken, "PENNYWISE_MAIL_TOKEN")
	overlayString(&cfg.MailFrom, "PENNYWISE_MAIL_FROM")
	overlayDuration(&cfg.AccessTokenTTL, "PENNYWISE_ACCESS_TTL")
	overlayDuration(&cfg.RefreshTokenTTL, "PENNYWISE_REFRESH_TTL")
	overlayDuration(&cfg.ActivationTTL, "PENNYWISE_ACTIVATION_TTL")
	overlayInt(&cfg.RateBurst, "PENNYWISE_RATE_BURST")
	overlayInt(&cfg.RatePerSecond, "PENNYWISE_RATE_PER_SECOND")

	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return Config{}, errors.New("config: PENNYWISE_AUTH_SECRET is required")
	}
	return cfg, nil
}

func overlayString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}

func overlayInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}
