// Sweeper periodically deletes expired refresh credentials and session rows.
// Expiry is enforced at read time; the sweep only reclaims storage, so the
// interval can be generous. Set DATABASE_URL and optionally SWEEP_INTERVAL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-admin-platform/backend/internal/config"
	credentialrepo "school-admin-platform/backend/internal/credential/repository"
	"school-admin-platform/backend/internal/db"
	sessionrepo "school-admin-platform/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer database.Close()

	credentials := credentialrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("sweeper: shutting down...")
		cancel()
	}()

	interval := cfg.SweepEvery()
	log.Printf("sweeper: deleting expired rows every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sweep(ctx, credentials, sessions)
	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: stopped")
			return
		case <-ticker.C:
			sweep(ctx, credentials, sessions)
		}
	}
}

func sweep(ctx context.Context, credentials *credentialrepo.PostgresRepository, sessions *sessionrepo.PostgresRepository) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	now := time.Now().UTC()
	nCreds, err := credentials.DeleteExpired(sweepCtx, now)
	if err != nil {
		log.Printf("sweeper: credentials: %v", err)
	}
	nSessions, err := sessions.DeleteExpired(sweepCtx, now)
	if err != nil {
		log.Printf("sweeper: sessions: %v", err)
	}
	log.Printf("sweeper: removed %d credentials, %d sessions", nCreds, nSessions)
}
