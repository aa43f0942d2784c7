package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/ThiagoRGoveia/building-metadata/internal/config"
	"github.com/ThiagoRGoveia/building-metadata/internal/database"
)

func main() {
	fmt.Println("Starting database setup...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	dbManager := database.NewPostgresDBManager(context.Background(), dbpool)

	fmt.Println("Creating metadata_runs table...")
	if err := dbManager.CreateMetadataRunsTable(); err != nil {
		log.Fatalf("Error creating metadata_runs table: %v", err)
	}
	fmt.Println("metadata_runs table created successfully.")

	fmt.Println("Creating building_records table...")
	if err := dbManager.CreateBuildingRecordsTable(); err != nil {
		log.Fatalf("Error creating building_records table: %v", err)
	}
	fmt.Println("building_records table created successfully.")

	fmt.Println("Database setup finished successfully.")
}
