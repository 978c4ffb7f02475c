// SPDX-License-Identifier: MIT

package config

import (
	"github.com/vodee/vodee/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("MediaRoot", cfg.MediaRoot, false)
	v.Port("Port", cfg.Port)
	v.Extensions("AllowedExtensions", cfg.AllowedExtensions)
	v.NonEmpty("TokenSecret", cfg.TokenSecret)
	v.Range("TokenTTL", int(cfg.TokenTTL.Seconds()), 1, 7*24*3600)

	if cfg.AntiLeech && len(cfg.AllowedDomains) == 0 {
		v.AddError("AllowedDomains", "anti-leech is enabled but no domains are allowed", cfg.AllowedDomains)
	}
	if cfg.AdminUsername != "" {
		v.NonEmpty("AdminPassword", cfg.AdminPassword)
		v.NonEmpty("JWTSecret", cfg.JWTSecret)
	}
	if cfg.RateLimitPerMinute > 0 {
		v.Range("RateLimitPerMinute", cfg.RateLimitPerMinute, 1, 100000)
	}

	return v.Err()
}
