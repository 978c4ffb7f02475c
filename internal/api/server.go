// SPDX-License-Identifier: MIT

// Package api provides the HTTP server for vodee.
package api

import (
	"github.com/vodee/vodee/internal/auth"
	"github.com/vodee/vodee/internal/config"
	"github.com/vodee/vodee/internal/fsutil"
	"github.com/vodee/vodee/internal/media"
)

// Server wires the media core and the access controls behind the HTTP
// routes. It holds no per-request mutable state; the config is immutable
// after construction, so concurrent requests need no synchronization.
type Server struct {
	cfg      config.AppConfig
	lister   *media.Lister
	streamer *media.Streamer
	tokens   *auth.TokenService
	sessions *auth.SessionService
	referer  *auth.RefererGuard
}

// New builds a server from the loaded configuration. The media root must
// exist; path resolution is anchored to its canonical form for the process
// lifetime.
func New(cfg config.AppConfig) (*Server, error) {
	resolver, err := fsutil.NewResolver(cfg.MediaRoot)
	if err != nil {
		return nil, err
	}
	policy := media.NewPolicy(cfg.AllowedExtensions)

	return &Server{
		cfg:      cfg,
		lister:   media.NewLister(resolver, policy),
		streamer: media.NewStreamer(resolver, policy),
		tokens:   auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL),
		sessions: auth.NewSessionService(cfg.JWTSecret, cfg.AdminUsername, cfg.AdminPassword, cfg.TokenTTL),
		referer:  auth.NewRefererGuard(cfg.AntiLeech, cfg.AllowedDomains),
	}, nil
}
