package entities

import (
	"encoding/json"
	"net/http"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/go-chi/chi/v5"
)

func ListEntitiesHandler(w http.ResponseWriter, r *http.Request) {
	var nodes []ResponsibleEntity
	if err := db.DB.Order("path").Find(&nodes).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(nodes); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetEntityHandler(w http.ResponseWriter, r *http.Request) {
	entity, err := GetEntity(db.DB, chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	fullPath, err := FullPath(db.DB, entity)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	response := struct {
		*ResponsibleEntity
		FullPath string `json:"full_path"`
	}{entity, fullPath}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetSubtreeHandler(w http.ResponseWriter, r *http.Request) {
	entity, err := GetEntity(db.DB, chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	nodes, err := Subtree(db.DB, entity)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(nodes); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func CreateEntityHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing acting user", http.StatusUnauthorized)
		return
	}
	if !actor.IsSuperuser {
		apperror.Write(w, &apperror.PermissionDenied{Reason: "only superusers may manage the responsible entity tree"})
		return
	}

	var input ResponsibleEntity
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := CreateEntity(db.DB, &input); err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(input)
}

func ListOwnersHandler(w http.ResponseWriter, r *http.Request) {
	var owners []Owner
	if err := db.DB.Order("name_fi").Find(&owners).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(owners); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func ListMountTypesHandler(w http.ResponseWriter, r *http.Request) {
	var mountTypes []MountType
	if err := db.DB.Order("code").Find(&mountTypes).Error; err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mountTypes); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
