package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storeops.dev/internal/auth"
	"storeops.dev/internal/config"
	"storeops.dev/internal/httpapi"
	"storeops.dev/internal/obs"
	"storeops.dev/internal/store/sqlstore"
	"storeops.dev/internal/track"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.AuthSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	var (
		svc   track.Service
		probe httpapi.ReadyProbe
		db    *sqlstore.Store
	)
	if cfg.DatabaseDSN == "" {
		log.Printf("no database DSN configured, using in-memory store")
		svc = track.NewInMemory()
	} else {
		db, err = sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		svc = db
		probe = httpapi.ReadyProbe{DB: db.DB()}
	}

	api := httpapi.New(svc, issuer, probe, version,
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSec),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting storeops-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
