package entities

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the organisational lookups. The actor is bound globally
// in main; CreateEntityHandler rejects requests without one.
func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/responsible-entities", ListEntitiesHandler)
	r.Get("/responsible-entities/{id}", GetEntityHandler)
	r.Get("/responsible-entities/{id}/subtree", GetSubtreeHandler)
	r.Post("/responsible-entities", CreateEntityHandler)
	r.Get("/owners", ListOwnersHandler)
	r.Get("/mount-types", ListMountTypesHandler)

	return r
}
