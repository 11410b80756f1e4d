package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DaffafauzanD/Project-Sismakel/internal/auth"
	"github.com/DaffafauzanD/Project-Sismakel/internal/httpapi"
	"github.com/DaffafauzanD/Project-Sismakel/internal/obs"
	"github.com/DaffafauzanD/Project-Sismakel/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "none"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("SISMAKEL_PG_DSN")
	if dsn == "" {
		log.Fatal("missing SISMAKEL_PG_DSN")
	}
	secret := os.Getenv("SISMAKEL_JWT_SECRET")
	if secret == "" {
		log.Fatal("missing SISMAKEL_JWT_SECRET")
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	var issuerOpts []auth.TokenOption
	if raw := os.Getenv("SISMAKEL_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid SISMAKEL_TOKEN_TTL: %v", err)
		}
		issuerOpts = append(issuerOpts, auth.WithTokenTTL(ttl))
	}
	issuer, err := auth.NewTokenIssuer(secret, issuerOpts...)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	svc, err := auth.NewService(store, issuer)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	env := os.Getenv("SISMAKEL_ENV")
	if env == "" {
		env = "development"
	}
	addr := os.Getenv("SISMAKEL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	api := httpapi.New(svc, httpapi.ReadyProbe{DB: store.DB()}, version, env)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting sismakel-api %s (%s) on %s", version, env, srv.Addr)

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
	log.Println("Stopped")
}
