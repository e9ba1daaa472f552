package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SebastianInformatico/cotraq-api/internal/audit"
	"github.com/SebastianInformatico/cotraq-api/internal/auth"
	"github.com/SebastianInformatico/cotraq-api/internal/httpapi"
	"github.com/SebastianInformatico/cotraq-api/internal/obs"
	"github.com/SebastianInformatico/cotraq-api/internal/store/pg"
)

var (
	version = "0.4.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("COTRAQ_PG_DSN")
	if dsn == "" {
		log.Fatal("COTRAQ_PG_DSN is required")
	}
	// The signing secret is validated here, once, and injected explicitly.
	// A missing or blank secret refuses to start instead of failing later
	// on the first request.
	secret := strings.TrimSpace(os.Getenv("COTRAQ_AUTH_SECRET"))

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		log.Fatalf("auth config: %v", err)
	}
	verifier, err := auth.NewVerifier(tokens, store)
	if err != nil {
		log.Fatalf("auth config: %v", err)
	}
	recorder, err := audit.NewRecorder(store)
	if err != nil {
		log.Fatalf("audit config: %v", err)
	}

	api := httpapi.New(httpapi.Options{
		ReadyProbe: httpapi.ReadyProbe{DB: store.DB()},
		Version:    version,
		Verifier:   verifier,
		Tokens:     tokens,
		Users:      store,
		Recorder:   recorder,
		Fleet:      store,
	})

	addr := os.Getenv("COTRAQ_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting cotraq-api %s on %s", version, srv.Addr)

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
	_ = store.Close()
	log.Println("Stopped")
}
