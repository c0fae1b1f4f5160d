package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"personnel/internal/api"
	"personnel/internal/assistant"
	"personnel/internal/auth"
	"personnel/internal/config"
	"personnel/internal/db"
	"personnel/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	conn, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("database close error: %v", err)
		}
	}()

	personnelStore := store.New(conn)
	if err := personnelStore.EnsureDefaultAdmin(ctx); err != nil {
		log.Fatalf("seeding administrator account failed: %v", err)
	}

	sessions := auth.NewManager(cfg.SessionTTL)
	router := api.NewRouter(api.Config{
		Store:     personnelStore,
		Sessions:  sessions,
		Assistant: assistant.NewClient(cfg.OllamaURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
