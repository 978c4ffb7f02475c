// SPDX-License-Identifier: MIT

// Package config provides configuration management for vodee.
package config

import "time"

// FileConfig represents the JSON configuration file structure. Field names
// mirror the persisted config.json layout.
type FileConfig struct {
	VideoDirectory    string   `json:"videoDirectory"`
	Port              int      `json:"port"`
	AllowedExtensions []string `json:"allowedExtensions"`
	EnableAntiLeech   *bool    `json:"enableAntiLeech,omitempty"`
	AllowedDomains    []string `json:"allowedDomains"`
	LeechTokenSecret  string   `json:"leechTokenSecret"`
	TokenExpireTime   int      `json:"tokenExpireTime"` // seconds
	RequireToken      *bool    `json:"requireToken,omitempty"`

	AdminUsername string `json:"adminUsername,omitempty"`
	AdminPassword string `json:"adminPassword,omitempty"`
	JWTSecret     string `json:"jwtSecret,omitempty"`

	AllowedOrigins     []string `json:"allowedOrigins,omitempty"`
	LogLevel           string   `json:"logLevel,omitempty"`
	RateLimitPerMinute int      `json:"rateLimitPerMinute,omitempty"`
}

// AppConfig is the runtime configuration. It is built once at startup and
// treated as immutable afterwards; components receive it by value and hold no
// setters.
type AppConfig struct {
	MediaRoot         string
	ListenAddr        string
	Port              int
	AllowedExtensions []string
	AntiLeech         bool
	AllowedDomains    []string
	TokenSecret       string
	TokenTTL          time.Duration
	RequireToken      bool

	AdminUsername string
	AdminPassword string
	JWTSecret     string

	AllowedOrigins     []string
	LogLevel           string
	RateLimitPerMinute int
}
