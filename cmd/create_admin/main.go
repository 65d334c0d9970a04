package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
	"github.com/fixora/marketplace/infrastructure/adapter/postgres"
	"github.com/fixora/marketplace/infrastructure/config"
	"github.com/fixora/marketplace/infrastructure/service/password"
)

func main() {
	email := flag.String("email", "", "admin email address")
	userPassword := flag.String("password", "", "admin password (min 8 characters)")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	normalized := entity.NormalizeEmail(*email)
	if normalized == "" || len(*userPassword) < 8 {
		log.Fatal("usage: create_admin -email <email> -password <password> [-name <name>]")
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hashedPassword, err := password.NewBcryptPasswordService(10).HashPassword(*userPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := entity.NewAdmin(uuid.NewString(), normalized, *name, hashedPassword)
	if err := postgres.NewUserRepositoryAdapter(db).Create(ctx, admin); err != nil {
		if errors.Is(err, outbound.ErrUserAlreadyExists) {
			log.Fatalf("A user with email %s already exists", normalized)
		}
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user created\n")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("ID:    %s\n", admin.ID)
}
