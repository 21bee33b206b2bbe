package catalogue

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

func ListTypesHandler(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		TrafficSignTypeLetter: r.URL.Query().Get("traffic_sign_type"),
	}
	if v := r.URL.Query().Get("target_model"); v != "" {
		target := TargetModel(v)
		if !target.Valid() {
			apperror.Write(w, apperror.NewValidation("target_model", "unknown target model "+v))
			return
		}
		filter.TargetModel = &target
	}

	types, err := ListTypes(db.DB, filter)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetTypeHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deviceType, err := GetType(db.DB, id)
	if err != nil {
		// Fall back to an exact code lookup so /device-types/A1 works too.
		var notFound *apperror.NotFound
		if errors.As(err, &notFound) {
			deviceType, err = GetTypeByCode(db.DB, id)
		}
		if err != nil {
			apperror.Write(w, err)
			return
		}
	}

	response := struct {
		*DeviceType
		TrafficSignType string `json:"traffic_sign_type,omitempty"`
	}{deviceType, deviceType.TrafficSignType()}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func CreateTypeHandler(w http.ResponseWriter, r *http.Request) {
	var fields TypeFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	deviceType, err := CreateType(db.DB, fields)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(deviceType)
}

func UpdateTypeHandler(w http.ResponseWriter, r *http.Request) {
	var fields TypeFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var deviceType *DeviceType
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		deviceType, txErr = UpdateType(tx, chi.URLParam(r, "id"), fields)
		return txErr
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(deviceType)
}

func DeleteTypeHandler(w http.ResponseWriter, r *http.Request) {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return DeleteType(tx, chi.URLParam(r, "id"))
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
