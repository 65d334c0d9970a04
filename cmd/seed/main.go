package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fixora/marketplace/domain/entity"
	"github.com/fixora/marketplace/infrastructure/adapter/postgres"
)

// sampleRequests are pending applications for local development.
var sampleRequests = []entity.ProviderRequest{
	{Email: "ana.plumbing@example.com", Name: "Ana Costa", Phone: "+351 910 000 001", BusinessName: "Costa Plumbing", Category: "plumbing", City: "Lisbon", Message: "Emergency repairs and bathroom refits."},
	{Email: "bruno@example.com", Name: "Bruno Lima", Category: "electrical", City: "Porto"},
	{Email: "carla.clean@example.com", Name: "Carla Dias", BusinessName: "Spotless", Category: "cleaning", City: "Braga", Message: "Weekly home cleaning."},
	{Email: "", Name: "No Email Applicant", Category: "gardening", City: "Faro"},
}

func main() {
	count := flag.Int("n", len(sampleRequests), "number of sample provider requests to insert")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	const query = `
	INSERT INTO provider_requests
		(id, email, name, phone, business_name, category, city, message, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	if *count > len(sampleRequests) {
		*count = len(sampleRequests)
	}
	for _, req := range sampleRequests[:*count] {
		id := uuid.NewString()
		now := time.Now().UTC()
		_, err := db.ExecContext(ctx, query,
			id, req.Email, req.Name, req.Phone, req.BusinessName, req.Category, req.City, req.Message,
			string(entity.ProviderRequestPending), now,
		)
		if err != nil {
			log.Fatalf("failed to seed provider request %q: %v", req.Name, err)
		}
		fmt.Printf("Seeded provider request: id=%s email=%q name=%q\n", id, req.Email, req.Name)
	}
}
