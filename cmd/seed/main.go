package main

import (
	"log"

	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/config"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/cityinfra/asset-registry/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	db.Connect(cfg)

	entities.Init()
	catalogue.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
