// SPDX-License-Identifier: MIT

// Command vodee serves a directory tree of video files over HTTP, guarded by
// a referer allow-list and short-lived HMAC access tokens.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vodee/vodee/internal/api"
	"github.com/vodee/vodee/internal/config"
	vdlog "github.com/vodee/vodee/internal/log"
	"github.com/vodee/vodee/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "config.json", "path to config file (JSON)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		logger := vdlog.WithComponent("main")
		logger.Fatal().Err(err).Msg("vodee exited with error")
	}
}

func run(configPath string) error {
	logger := vdlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	created, err := config.EnsureFile(configPath)
	if err != nil {
		return fmt.Errorf("ensure config file: %w", err)
	}
	if created {
		logger.Info().
			Str("event", "config.created").
			Str("path", configPath).
			Msg("wrote default config file, review the token secret before exposing the server")
	}

	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	vdlog.Configure(vdlog.Config{Level: cfg.LogLevel, Service: "vodee"})

	srv, err := api.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: streams legitimately outlive any fixed deadline.
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("addr", cfg.ListenAddr).
		Str("media_root", cfg.MediaRoot).
		Bool("anti_leech", cfg.AntiLeech).
		Bool("require_token", cfg.RequireToken).
		Msg("starting vodee")
	if cfg.AntiLeech {
		logger.Info().Strs("allowed_domains", cfg.AllowedDomains).Msg("anti-leech enabled")
	}
	if cfg.TokenSecret == config.DefaultTokenSecret {
		logger.Warn().
			Str("security", "weak").
			Msg("token secret is the built-in default, set VODEE_TOKEN_SECRET")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Str("event", "shutdown").Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
