package importexport

import (
	"net/http"

	"github.com/cityinfra/asset-registry/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/export/devices/{kind}", ExportDevicesHandler)
	r.Get("/export/devices/{kind}/template", ExportTemplateHandler)
	r.Get("/export/device-types", ExportDeviceTypesHandler)
	r.Get("/export/device-types/template", ExportDeviceTypeTemplateHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Use(middleware.ImportRateLimiter(1, 3))
		r.Post("/import/devices/{kind}", ImportDevicesHandler)
		r.Post("/import/device-types", ImportDeviceTypesHandler)
	})

	return r
}
