package main

import (
	"context"
	"log"

	"streamhub/internal/config"
	"streamhub/internal/database"
	"streamhub/internal/domain"
	"streamhub/internal/pkg/password"
	"streamhub/internal/repository"

	"github.com/joho/godotenv"
)

type seedAccount struct {
	handle, email, displayName, password string
}

var demoAccounts = []seedAccount{
	{"alice", "alice@streamhub.local", "Alice", "alice123"},
	{"bob", "bob@streamhub.local", "Bob", "bob12345"},
	{"carol", "carol@streamhub.local", "Carol", "carol123"},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		log.Fatal("refusing to seed demo accounts in production")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	ctx := context.Background()
	repo := repository.NewAccountRepository(db)
	hasher := password.New(cfg.BcryptCost)

	created := 0
	for _, s := range demoAccounts {
		exists, err := repo.ExistsByHandle(ctx, s.handle)
		if err != nil {
			log.Fatalf("check %s: %v", s.handle, err)
		}
		if exists {
			log.Printf("skip %s: already exists", s.handle)
			continue
		}

		hash, err := hasher.Hash(s.password)
		if err != nil {
			log.Fatalf("hash %s: %v", s.handle, err)
		}

		a := &domain.Account{
			Handle:       s.handle,
			Email:        s.email,
			DisplayName:  s.displayName,
			PasswordHash: hash,
			AvatarURL:    cfg.Media.LocalURLPrefix + "/avatars/default.png",
		}
		if err := repo.Create(ctx, a); err != nil {
			log.Fatalf("create %s: %v", s.handle, err)
		}
		created++
		log.Printf("created account id=%d handle=%s password=%s", a.ID, a.Handle, s.password)
	}

	log.Printf("seed completed: created=%d", created)
}
