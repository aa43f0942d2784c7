package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/ThiagoRGoveia/building-metadata/internal/catalog"
	"github.com/ThiagoRGoveia/building-metadata/internal/config"
	"github.com/ThiagoRGoveia/building-metadata/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	index, err := catalog.Open(cfg.MetadataPath)
	if err != nil {
		log.Fatalf("Failed to load building metadata: %v", err)
	}
	log.Printf("Loaded metadata for %d buildings from %s", index.Len(), cfg.MetadataPath)

	router := server.SetupRoutes(server.NewBuildingService(index))

	log.Printf("Server starting on port %s", cfg.APIPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
