package main

import (
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"crm-chat-server/internal/config"
	"crm-chat-server/internal/models"
	"crm-chat-server/internal/utils"
)

// Bootstraps a superadmin, one admin with an active plan and two of the
// admin's users so the chat surface can be exercised on a fresh database.
// Prints a ready-to-use token for each account.
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

	superadmin := seedUser(db, models.User{
		Name:  "Super Admin",
		Email: "superadmin@saascrm.local",
		Role:  models.RoleSuperAdmin,
	}, "superadmin123")

	planRef := "seed-plan"
	admin := seedUser(db, models.User{
		Name:   "Demo Admin",
		Email:  "admin@saascrm.local",
		Role:   models.RoleAdmin,
		PlanID: &planRef,
	}, "admin123")

	for _, account := range []struct{ name, email string }{
		{"Demo User One", "user1@saascrm.local"},
		{"Demo User Two", "user2@saascrm.local"},
	} {
		seedUser(db, models.User{
			Name:        account.name,
			Email:       account.email,
			Role:        models.RoleUser,
			CreatedByID: &admin.ID,
		}, "user123")
	}

	for _, u := range []*models.User{superadmin, admin} {
		token, err := utils.GenerateToken(u, cfg)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", u.Email, err)
		}
		log.Printf("%s (%s): %s", u.Email, u.Role, token)
	}
}

func seedUser(db *gorm.DB, user models.User, password string) *models.User {
	var existing models.User
	if err := db.First(&existing, "email = ?", user.Email).Error; err == nil {
		log.Printf("User %s already exists, skipping", user.Email)
		return &existing
	}

	if err := user.SetPassword(password); err != nil {
		log.Fatalf("Failed to hash password for %s: %v", user.Email, err)
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create %s: %v", user.Email, err)
	}
	log.Printf("Created %s (%s)", user.Email, user.Role)
	return &user
}
