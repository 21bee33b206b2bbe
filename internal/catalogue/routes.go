package catalogue

import (
	"net/http"

	"github.com/cityinfra/asset-registry/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/device-types", ListTypesHandler)
	r.Get("/device-types/{id}", GetTypeHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/device-types", CreateTypeHandler)
		r.Patch("/device-types/{id}", UpdateTypeHandler)
		r.Delete("/device-types/{id}", DeleteTypeHandler)
	})

	return r
}
