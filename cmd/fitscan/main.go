package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"tailscale.com/tsnet"

	"github.com/claude/fitscan/internal/app"
	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/imagestore"
	"github.com/claude/fitscan/internal/localstore"
	"github.com/claude/fitscan/internal/logging"
	"github.com/claude/fitscan/internal/mcp"
	"github.com/claude/fitscan/internal/metrics"
	"github.com/claude/fitscan/internal/persist"
	"github.com/claude/fitscan/internal/recognition"
	"github.com/claude/fitscan/internal/server"
	"github.com/claude/fitscan/internal/sessioncache"
	"github.com/claude/fitscan/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)
	log.Info("FitScan starting", "version", Version)

	ctx := context.Background()

	// Remote store: optional
	var remote persist.Store
	if cfg.Database.Configured() {
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		remote = db
		log.Info("database connected")
	} else {
		if *migrateOnly {
			log.Error("migrate-only requires a database")
			os.Exit(1)
		}
		log.Warn("no database configured, running on local state only")
	}

	// Device-local store
	var local persist.Store
	if !cfg.Local.Disabled {
		ldb, err := localstore.Open(cfg.Local.StateDir)
		if err != nil {
			log.Error("failed to open local store", "dir", cfg.Local.StateDir, "error", err)
			os.Exit(1)
		}
		defer ldb.Close()
		local = ldb
		log.Info("local store opened", "dir", cfg.Local.StateDir)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("fitscan", "server", reg)

	store := persist.New(remote, local, log)
	store.OnFallback = func(op string) {
		metricsManager.CounterStoreFallbacks.WithLabelValues(op).Inc()
	}

	gateway := recognition.New(cfg.OpenAI, log)
	if !gateway.Configured() {
		log.Warn("OpenAI API key not set, scans will fail until it is configured")
	}

	images, err := imagestore.New(ctx, cfg.Images)
	if err != nil {
		log.Error("failed to set up image store", "error", err)
		os.Exit(1)
	}

	svc := app.New(app.Deps{
		Store:      store,
		Recognizer: gateway,
		Images:     images,
		Cache:      sessioncache.New(cfg.Cache.SizeMB, cfg.Cache.TTL, log),
		Metrics:    metricsManager,
		Log:        log,
	})
	defer svc.Close()

	opts := server.Options{
		AuthMode: cfg.Auth.Mode,
		APIKey:   cfg.Auth.APIKey,
		Gatherer: reg,
	}
	if cfg.RateLimit.ScansPerMinute > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer rdb.Close()
		opts.Limiter = redis_rate.NewLimiter(rdb)
		opts.ScansPerMinute = cfg.RateLimit.ScansPerMinute
		log.Info("scan rate limit enabled", "per_minute", cfg.RateLimit.ScansPerMinute)
	}

	// Create server
	srv := server.New(svc, metricsManager, opts, log)

	mcpSrv := mcp.New(mcp.NewLocal(svc), Version, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUserID(ctx, server.RequestUserID(r))
		}),
	))

	// Serve over tsnet or plain HTTP.
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "auth", cfg.Auth.Mode)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
