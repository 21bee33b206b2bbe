package importexport

import (
	"encoding/json"
	"net/http"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/devices"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/go-chi/chi/v5"
)

var contentTypes = map[Format]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatJSON: "application/json",
	FormatYAML: "application/yaml",
}

func formatParam(r *http.Request, fallback Format) (Format, error) {
	hint := r.URL.Query().Get("format")
	if hint == "" {
		return fallback, nil
	}
	format, err := ParseFormat(hint)
	if err != nil {
		return "", apperror.NewValidation("format", err.Error())
	}
	return format, nil
}

func ImportDevicesHandler(w http.ResponseWriter, r *http.Request) {
	kind := devices.Kind(chi.URLParam(r, "kind"))
	variant := devices.Variant(r.URL.Query().Get("variant"))
	if variant == "" {
		variant = devices.VariantReal
	}
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	ds, err := Decode(format, r.Body)
	if err != nil {
		http.Error(w, "Failed to parse import file: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, _ := entities.ActorFromContext(r.Context())
	result, err := ImportDevices(db.DB, user, ds, DeviceImportOptions{
		Kind:    kind,
		Variant: variant,
		DryRun:  r.URL.Query().Get("dry_run") == "true",
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Errors > 0 {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(w).Encode(result)
}

func ImportDeviceTypesHandler(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	ds, err := Decode(format, r.Body)
	if err != nil {
		http.Error(w, "Failed to parse import file: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, _ := entities.ActorFromContext(r.Context())
	result, err := ImportDeviceTypes(db.DB, user, ds, r.URL.Query().Get("dry_run") == "true")
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Errors > 0 {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(w).Encode(result)
}

func ExportDevicesHandler(w http.ResponseWriter, r *http.Request) {
	kind := devices.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		apperror.Write(w, apperror.NewValidation("kind", "unknown device kind "+string(kind)))
		return
	}
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	filter := devices.ListFilter{Kind: kind}
	if v := r.URL.Query().Get("variant"); v != "" {
		variant := devices.Variant(v)
		if !variant.Valid() {
			apperror.Write(w, apperror.NewValidation("variant", "unknown variant "+v))
			return
		}
		filter.Variant = &variant
	}

	user, _ := entities.ActorFromContext(r.Context())
	list, err := devices.ListDevices(db.DB, user, filter, devices.RestrictListing(r.URL.Query(), user))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	ds, err := ExportDevices(db.DB, list)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	writeDataset(w, format, ds)
}

func ExportDeviceTypesHandler(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	types, err := catalogue.ListTypes(db.DB, catalogue.ListFilter{})
	if err != nil {
		apperror.Write(w, err)
		return
	}

	ds, err := ExportDeviceTypes(types, format)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	writeDataset(w, format, ds)
}

// ExportDeviceTypeTemplateHandler returns an empty file with the catalogue
// import header, ready to fill in.
func ExportDeviceTypeTemplateHandler(w http.ResponseWriter, r *http.Request) {
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	writeDataset(w, format, Dataset{Columns: typeColumns})
}

func ExportTemplateHandler(w http.ResponseWriter, r *http.Request) {
	kind := devices.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		apperror.Write(w, apperror.NewValidation("kind", "unknown device kind "+string(kind)))
		return
	}
	format, err := formatParam(r, FormatCSV)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	ds, err := ExportInstallTemplate(db.DB, kind)
	if err != nil {
		apperror.Write(w, err)
		return
	}
	writeDataset(w, format, ds)
}

func writeDataset(w http.ResponseWriter, format Format, ds Dataset) {
	w.Header().Set("Content-Type", contentTypes[format])
	if err := Encode(format, w, ds); err != nil {
		http.Error(w, "Failed to encode export", http.StatusInternalServerError)
	}
}
