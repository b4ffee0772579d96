// seed inserts a development user for local testing.
// Idempotent: skips the insert if the dev user (devuser) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"session-service/internal/config"
	"session-service/internal/db"
	"session-service/internal/security"
	userdomain "session-service/internal/user/domain"
	userrepo "session-service/internal/user/repository"
)

const (
	devUsername = "devuser"
	devEmail    = "dev@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (devuser exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &userdomain.User{
		Username:       devUsername,
		Email:          devEmail,
		HashedPassword: passwordHash,
		IsActive:       true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUsername, devPassword)
}
