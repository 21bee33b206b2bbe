package devices

import (
	"net/http"

	"github.com/cityinfra/asset-registry/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/devices/{kind}", ListDevicesHandler)
	r.Get("/devices/{kind}/{id}", GetDeviceHandler)
	r.Get("/devices/{kind}/{id}/history", GetDeviceHistoryHandler)
	r.Get("/traffic-signs/{id}/additional-signs", ListChildSignsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Post("/devices/{kind}", CreateDeviceHandler)
		r.Patch("/devices/{kind}/{id}", UpdateDeviceHandler)
		r.Delete("/devices/{kind}/{id}", DeleteDeviceHandler)
	})

	return r
}
