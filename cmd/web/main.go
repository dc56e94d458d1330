// cmd/web/main.go
//
// Pursuit – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Start the daily rotating logger (tees to console when in a TTY).
//
//  2. Load config: .env → conf/global.yaml → PURSUIT_ env overrides,
//     with `vault:` references resolved through Vault.
//
//  3. Open the database, run the idempotent schema bootstrap, and log
//     whether an instance is currently registered.
//
//  4. Build the chi router (instance lifecycle + tracker CRUD), wrap it
//     with request-info enrichment, security headers, and the optional
//     ForceHTTPS redirect, and expose Prometheus on /metrics.
//
//  5. Serve with hardened timeouts; SIGINT/SIGTERM drains gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pursuithq/pursuit/internal/api"
	"github.com/pursuithq/pursuit/internal/config"
	"github.com/pursuithq/pursuit/internal/database"
	"github.com/pursuithq/pursuit/internal/instance"
	"github.com/pursuithq/pursuit/internal/logger"
	"github.com/pursuithq/pursuit/internal/middleware"
	"github.com/pursuithq/pursuit/internal/requestinfo"
	"github.com/pursuithq/pursuit/internal/server"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	if cfg.GeoIP.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
			// Geo is a nicety; UA data still flows without it.
			logOut.Warnw("geoip disabled", "err", err)
		}
	}

	//
	// ── 2.  Database ────────────────────────────────────────────────────
	//
	dsn := fmt.Sprintf(cfg.Database.DSN, cfg.Database.Password)
	logOut.Infow("connecting to database")
	db, err := database.Open(dsn)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logOut.Fatalf("migrate schema: %v", err)
	}

	// Early sanity check: is anyone registered yet?
	var registered int
	_ = db.Get(&registered, `SELECT COUNT(*) FROM instance`)
	logOut.Infow("database online", "instance_registered", registered == 1)

	//
	// ── 3.  Router ─────────────────────────────────────────────────────
	//
	svc := instance.NewService(db, logOut)
	a := api.New(svc, db, logOut)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", requestinfo.Enrich(a.Routes()))

	handler := middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, middleware.Security(mux))

	//
	// ── 4.  Serve until signalled ──────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
	logOut.Infow("shutdown complete")
}
