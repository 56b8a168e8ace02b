// Copyright 2024-2026 Aiku AI

// Command globalchat runs the global chat relay bot. Every message posted
// in a channel named globalchat-rs is re-posted, via per-channel webhooks
// impersonating the original author, into every other guild's channel of
// the same name, and each delivery is recorded for future edit/delete
// propagation.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/globalchat/pkg/bot"
	"github.com/aiku/globalchat/pkg/config"
	"github.com/aiku/globalchat/pkg/directory"
	"github.com/aiku/globalchat/pkg/metrics"
	"github.com/aiku/globalchat/pkg/relay"
	"github.com/aiku/globalchat/pkg/store"
)

// These are filled at build time with -ldflags.
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	log.Info().Str("version", Version).Str("commit", Commit).Msg("Now booting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, keeping default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open relay mapping store")
	}
	defer st.Close()

	session, err := bot.NewSession(cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gateway session")
	}

	dir := directory.New()
	engine := relay.NewEngine(dir, session, st, cfg.ChannelName, cfg.AttachmentTimeout(), log)
	b := bot.New(session, dir, engine, Version, log)

	if cfg.AdminAddr != "" {
		startAdminServer(cfg.AdminAddr, log)
	}

	if err := b.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Gateway terminated")
	}
}

// startAdminServer exposes /metrics and /healthz on the admin address.
func startAdminServer(addr string, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("Starting admin API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Admin API error")
		}
	}()
}
