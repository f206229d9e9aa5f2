package main

import (
	"context"
	"log"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/database"
	"streamhub/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := repository.NewAccountRepository(db).ClearExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		log.Fatalf("cleanup refresh tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: refresh_tokens=%d", n)
}
