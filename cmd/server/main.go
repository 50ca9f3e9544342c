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

	"github.com/gin-gonic/gin"

	"school-admin-platform/backend/internal/audit"
	auditrepo "school-admin-platform/backend/internal/audit/repository"
	authservice "school-admin-platform/backend/internal/auth/service"
	"school-admin-platform/backend/internal/cache"
	"school-admin-platform/backend/internal/config"
	credentialrepo "school-admin-platform/backend/internal/credential/repository"
	"school-admin-platform/backend/internal/db"
	"school-admin-platform/backend/internal/events"
	healthhandler "school-admin-platform/backend/internal/health/handler"
	"school-admin-platform/backend/internal/security"
	"school-admin-platform/backend/internal/server"
	sessionrepo "school-admin-platform/backend/internal/session/repository"
	"school-admin-platform/backend/internal/telemetry/otel"
	tokenhandler "school-admin-platform/backend/internal/token/handler"
	tokenservice "school-admin-platform/backend/internal/token/service"
	userrepo "school-admin-platform/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer database.Close()

	var credentialCache *credentialrepo.Cache
	health := healthhandler.NewHandler(database, nil)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		credentialCache = credentialrepo.NewCache(rdb)
		health = healthhandler.NewHandler(database, rdb)
	}

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "school-admin-auth", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	emitter, err := events.NewKafkaEmitter(cfg.KafkaBrokersList(), cfg.SecurityEventsTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	var eventEmitter events.Emitter
	if emitter != nil {
		eventEmitter = emitter
		defer emitter.Close()
	} else {
		eventEmitter = otel.NewEventEmitter(providers.LoggerProvider)
	}

	users := userrepo.NewPostgresRepository(database)
	credentials := credentialrepo.NewStore(credentialrepo.NewPostgresRepository(database), credentialCache)
	sessions := sessionrepo.NewPostgresRepository(database)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(database))

	codec := security.NewTokenCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
	lifecycle := tokenservice.NewLifecycleService(
		codec, credentials, sessions,
		authservice.NewUserClaims(users),
		cfg.AccessTTL(), cfg.RefreshTTL(),
	)
	lifecycle.SetNotifier(tokenhandler.NewSecurityNotifier(auditor, eventEmitter))

	auth := authservice.NewAuthService(users, security.NewHasher(cfg.BcryptCost), lifecycle)
	authHandler := tokenhandler.NewAuthHandler(auth, lifecycle, auditor, eventEmitter)

	router := server.NewRouter(authHandler, health, lifecycle)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("auth server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down auth server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Let in-flight async event emits drain before providers close.
	time.Sleep(events.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("auth server stopped")
}
