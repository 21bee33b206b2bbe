package main

import (
	"fmt"
	"net/http"

	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/config"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/devices"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/cityinfra/asset-registry/internal/importexport"
	"github.com/cityinfra/asset-registry/internal/logger"
	"github.com/cityinfra/asset-registry/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	log, err := logger.FromEnv("asset-registry")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	devices.Configure(cfg.SRID, cfg.Bounds)

	db.Connect(cfg)
	entities.Init()
	catalogue.Init()
	devices.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.ActorMiddleware(entities.DBUserFetcher{}))
	r.Get("/", RootHandler)

	r.Mount("/catalogue", catalogue.SetupRoutes())
	r.Mount("/registry", devices.SetupRoutes())
	r.Mount("/organisation", entities.SetupRoutes())
	r.Mount("/files", importexport.SetupRoutes())

	log.Info("Server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
