package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pethealthai/advisor/internal/config"
	"github.com/pethealthai/advisor/internal/handler"
	"github.com/pethealthai/advisor/internal/handler/advice"
	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/internal/service/advicegen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	vetStore := vet.NewMemoryStore(vet.Seed())

	// Model-backed replies are optional; without credentials the backend
	// serves canned advisory text.
	var generator advice.Generator
	if cfg.AI.Enabled() {
		gen, err := advicegen.New(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize advice generator: %v", err)
			log.Println("continuing with canned replies")
		} else {
			generator = gen
			log.Println("advice generator initialized successfully")
		}
	} else {
		log.Println("ark credentials not configured, serving canned replies")
	}

	router := handler.NewRouter(generator, vetStore)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("PetHealth stub backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
