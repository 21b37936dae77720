package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coindelisi66/token-hunger-arena/internal/auth"
	"github.com/coindelisi66/token-hunger-arena/internal/config"
	"github.com/coindelisi66/token-hunger-arena/internal/game"
	srv "github.com/coindelisi66/token-hunger-arena/internal/server"
	"github.com/coindelisi66/token-hunger-arena/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to config file")
		httpPort   = flag.String("http-port", "", "HTTP port (overrides config and PORT)")
		certFile   = flag.String("cert", "", "Path to certificate file")
		keyFile    = flag.String("key", "", "Path to private key file")
		verbose    = flag.Bool("verbose", false, "set log level to debug")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *httpPort != "" {
		cfg.Server.HTTPPort = *httpPort
	}
	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := game.Deps{Logger: slog.Default().With("component", "game")}
	var history srv.History
	if cfg.Storage.DSN != "" {
		journal, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer journal.Close()
		deps.Recorder = journal
		history = journal
	}

	hub := srv.NewHub(slog.Default().With("component", "hub"))
	deps.Broadcaster = hub
	g := game.New(cfg.Game(), deps)
	go g.Run(ctx)

	gs := srv.NewGameServer(g, hub, srv.Options{
		SwapsPerSecond: cfg.Limits.SwapsPerSecond,
		SwapBurst:      cfg.Limits.SwapBurst,
		History:        history,
		Logger:         slog.Default().With("component", "server"),
	})

	authCfg := auth.NewConfig(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if !authCfg.Enabled() {
		slog.Warn("ADMIN_JWT_SECRET not set, operator routes disabled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           gs.Router(authCfg, cfg.Server.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	useTLS := *certFile != "" && *keyFile != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Token Hunger Arena backend listening",
			"addr", server.Addr,
			"tls", useTLS,
			"journal", cfg.Storage.DSN != "",
			"trade_seconds", cfg.Arena.TradeSeconds,
			"burn_seconds", cfg.Arena.BurnSeconds,
		)
		if useTLS {
			errc <- server.ListenAndServeTLS(*certFile, *keyFile)
			return
		}
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "err", err)
		}
	}
	// let pending outcome writes land before the journal closes
	stop()
	<-g.Done()
	slog.Info("server stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
