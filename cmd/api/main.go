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

	"github.com/joho/godotenv"
	"github.com/whisperly-api/internal/application/reaper"
	"github.com/whisperly-api/internal/config"
	"github.com/whisperly-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/whisperly-api/internal/infrastructure/jwt"
	"github.com/whisperly-api/internal/infrastructure/smtp"
	transporthttp "github.com/whisperly-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// The signer backs public verify/login routes, so missing or unreadable
	// keys are a startup failure, not a degraded mode.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("load JWT keys: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	confessionRepo := dynamo.NewConfessionRepo(dynamoClient, cfg.DynamoTables.Confessions)

	// Background reaper for identities that never verified in time.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	reaper.New(userRepo, cfg.ReaperInterval, nil).Start(reaperCtx)

	deps := &transporthttp.Deps{
		UserRepo:       userRepo,
		ConfessionRepo: confessionRepo,
		Mailer:         mailer,
		JWTProvider:    jwtProvider,
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
	stopReaper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
