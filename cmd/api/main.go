package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GioMjds/savoury-api/internal/config"
	"github.com/GioMjds/savoury-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/GioMjds/savoury-api/internal/infrastructure/jwt"
	"github.com/GioMjds/savoury-api/internal/infrastructure/memstore"
	s3infra "github.com/GioMjds/savoury-api/internal/infrastructure/s3"
	"github.com/GioMjds/savoury-api/internal/infrastructure/smtp"
	transporthttp "github.com/GioMjds/savoury-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap the users table (creates it if it doesn't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoUsersTable)

	// JWT provider. Without a secret the server still serves public routes,
	// but nothing can log in and protected routes fail closed.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// OTP ledger with its background sweeper.
	ledger := memstore.NewLedger()
	stopSweeper := ledger.StartSweeper(cfg.OTPSweepInterval)
	defer stopSweeper()

	// S3 profile image store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoUsersTable),
		Ledger:      ledger,
		S3Store:     s3Store,
		Mailer:      mailer,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
