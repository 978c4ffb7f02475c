// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// Default values mirror the config file written on first run.
const (
	DefaultMediaRoot       = "./videos"
	DefaultPort            = 3000
	DefaultTokenSecret     = "your-secret-key-for-token-generation"
	DefaultTokenExpireSecs = 3600
	DefaultAdminUsername   = "admin"
	DefaultRateLimitPerMin = 600
)

// DefaultExtensions returns the built-in playable extension allow-list.
func DefaultExtensions() []string {
	return []string{".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm"}
}

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader for the given file path.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load loads configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err == nil {
			fileCfg, err := l.loadFile(l.configPath)
			if err != nil {
				return cfg, fmt.Errorf("load config file: %w", err)
			}
			mergeFileConfig(&cfg, fileCfg)
		}
	}

	applyEnv(&cfg)

	cfg.ListenAddr = ParseString("VODEE_LISTEN", fmt.Sprintf(":%d", cfg.Port))

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		MediaRoot:          DefaultMediaRoot,
		Port:               DefaultPort,
		AllowedExtensions:  DefaultExtensions(),
		AntiLeech:          true,
		AllowedDomains:     []string{"localhost", "127.0.0.1"},
		TokenSecret:        DefaultTokenSecret,
		TokenTTL:           DefaultTokenExpireSecs * time.Second,
		RequireToken:       false,
		AdminUsername:      DefaultAdminUsername,
		AdminPassword:      "123456",
		JWTSecret:          "your-jwt-secret-key",
		AllowedOrigins:     []string{"*"},
		LogLevel:           "info",
		RateLimitPerMinute: DefaultRateLimitPerMin,
	}
}

// loadFile parses the JSON config file. Unknown fields are rejected so typos
// surface at startup instead of silently falling back to defaults.
func (l *Loader) loadFile(path string) (FileConfig, error) {
	var fileCfg FileConfig
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fileCfg, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fileCfg); err != nil {
		return fileCfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, file FileConfig) {
	if strings.TrimSpace(file.VideoDirectory) != "" {
		cfg.MediaRoot = file.VideoDirectory
	}
	if file.Port != 0 {
		cfg.Port = file.Port
	}
	if len(file.AllowedExtensions) > 0 {
		cfg.AllowedExtensions = file.AllowedExtensions
	}
	if file.EnableAntiLeech != nil {
		cfg.AntiLeech = *file.EnableAntiLeech
	}
	if len(file.AllowedDomains) > 0 {
		cfg.AllowedDomains = file.AllowedDomains
	}
	if strings.TrimSpace(file.LeechTokenSecret) != "" {
		cfg.TokenSecret = file.LeechTokenSecret
	}
	if file.TokenExpireTime > 0 {
		cfg.TokenTTL = time.Duration(file.TokenExpireTime) * time.Second
	}
	if file.RequireToken != nil {
		cfg.RequireToken = *file.RequireToken
	}
	if file.AdminUsername != "" {
		cfg.AdminUsername = file.AdminUsername
	}
	if file.AdminPassword != "" {
		cfg.AdminPassword = file.AdminPassword
	}
	if file.JWTSecret != "" {
		cfg.JWTSecret = file.JWTSecret
	}
	if len(file.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = file.AllowedOrigins
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.RateLimitPerMinute > 0 {
		cfg.RateLimitPerMinute = file.RateLimitPerMinute
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.MediaRoot = ParseString("VODEE_MEDIA_ROOT", cfg.MediaRoot)
	cfg.Port = ParseInt("VODEE_PORT", cfg.Port)
	cfg.AntiLeech = ParseBool("VODEE_ANTI_LEECH", cfg.AntiLeech)
	cfg.TokenSecret = ParseString("VODEE_TOKEN_SECRET", cfg.TokenSecret)
	cfg.TokenTTL = time.Duration(ParseInt("VODEE_TOKEN_TTL", int(cfg.TokenTTL/time.Second))) * time.Second
	cfg.RequireToken = ParseBool("VODEE_REQUIRE_TOKEN", cfg.RequireToken)
	cfg.AdminUsername = ParseString("VODEE_ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPassword = ParseString("VODEE_ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.JWTSecret = ParseString("VODEE_JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = ParseString("VODEE_LOG_LEVEL", cfg.LogLevel)

	if domains := ParseString("VODEE_ALLOWED_DOMAINS", ""); domains != "" {
		cfg.AllowedDomains = splitCSVNonEmpty(domains)
	}
	if origins := ParseString("VODEE_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitCSVNonEmpty(origins)
	}
	if exts := ParseString("VODEE_ALLOWED_EXTENSIONS", ""); exts != "" {
		cfg.AllowedExtensions = splitCSVNonEmpty(exts)
	}
}

func splitCSVNonEmpty(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// EnsureFile writes a config file with default values if none exists yet and
// creates the default media root alongside it. The write is atomic so a
// crashed first run never leaves a truncated file behind.
func EnsureFile(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	antiLeech := true
	fileCfg := FileConfig{
		VideoDirectory:    DefaultMediaRoot,
		Port:              DefaultPort,
		AllowedExtensions: DefaultExtensions(),
		EnableAntiLeech:   &antiLeech,
		AllowedDomains:    []string{"localhost", "127.0.0.1"},
		LeechTokenSecret:  DefaultTokenSecret,
		TokenExpireTime:   DefaultTokenExpireSecs,
	}
	raw, err := json.MarshalIndent(fileCfg, "", "  ")
	if err != nil {
		return false, err
	}
	if err := renameio.WriteFile(path, append(raw, '\n'), 0o600); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	if err := os.MkdirAll(DefaultMediaRoot, 0o750); err != nil {
		return true, fmt.Errorf("create media root: %w", err)
	}
	return true, nil
}
