// seed-admin creates the first SUPER_ADMIN user and the reference data
// (system accounts, default currency rates).
//
// Usage (from backend directory):
//
//	ADMIN_USERNAME=... ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
)

const (
	defaultAdminUsername = "travelAdmin"
	adminName            = "Travel Admin"
)

func main() {
	ctx := context.Background()
	config.LoadDotEnv()

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_PASSWORD is required")
		os.Exit(2)
	}

	env, err := config.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	if err := models.MigrateTable(env.DB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate: %v\n", err)
		os.Exit(1)
	}
	if err := models.SeedReferenceData(ctx, env.DB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed reference data: %v\n", err)
		os.Exit(1)
	}

	user, err := models.CreateUser(ctx, env.DB, &models.NewUser{
		Username: username,
		Name:     adminName,
		Password: password,
		Role:     models.UserRoleSuperAdmin,
	})
	if err != nil {
		var conflict *utils.ConflictError
		if errors.As(err, &conflict) {
			fmt.Printf("admin user %q already exists\n", username)
			return
		}
		fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created admin user: username=%q id=%d role=%s\n", user.Username, user.ID, user.Role)
}
