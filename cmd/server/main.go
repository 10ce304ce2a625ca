package main

import (
	"context"
	"log"

	"github.com/campusnet-app/backend/internal/router"
	"github.com/campusnet-app/backend/pkg/config"
	"github.com/campusnet-app/backend/pkg/firebase"
	"github.com/campusnet-app/backend/pkg/metrics"
	"github.com/campusnet-app/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Prometheus endpoint
	go func() {
		if err := metrics.Serve(cfg.MetricsPort); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, firebaseApp.AuthClient)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
