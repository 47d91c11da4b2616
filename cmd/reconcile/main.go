package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"crm-chat-server/internal/chat"
	"crm-chat-server/internal/config"
	"crm-chat-server/internal/models"
)

// One-shot repair job: recomputes every room's unread counters from the
// unseen message rows. Safe to run at any time; rooms already consistent are
// left untouched.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	store := chat.NewStore(db)
	repaired, err := store.Reconcile(context.Background())
	if err != nil {
		log.Fatalf("Reconciliation failed after %d repairs: %v", repaired, err)
	}
	log.Printf("Reconciliation completed, %d counters repaired", repaired)
}
