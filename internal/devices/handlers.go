package devices

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/audit"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// RestrictListing decides whether a device listing is narrowed to the user's
// effective entity subtrees. "mine=true" always narrows; otherwise a signed-in
// user without bypass sees the narrowed view unless "all=true" asks for the
// full set. Anonymous reads are public and stay unrestricted; bypass users are
// exempted downstream.
func RestrictListing(q url.Values, user *entities.User) bool {
	if q.Get("mine") == "true" {
		return true
	}
	if user == nil {
		return false
	}
	return q.Get("all") != "true"
}

func kindParam(r *http.Request) (Kind, error) {
	kind := Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		return "", apperror.NewValidation("kind", "unknown device kind "+string(kind))
	}
	return kind, nil
}

func ListDevicesHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	filter := ListFilter{Kind: kind}
	if v := r.URL.Query().Get("variant"); v != "" {
		variant := Variant(v)
		if !variant.Valid() {
			apperror.Write(w, apperror.NewValidation("variant", "unknown variant "+v))
			return
		}
		filter.Variant = &variant
	}
	if v := r.URL.Query().Get("lifecycle"); v != "" {
		lifecycle := Lifecycle(v)
		if !lifecycle.Valid() {
			apperror.Write(w, apperror.NewValidation("lifecycle", "unknown lifecycle "+v))
			return
		}
		filter.Lifecycle = &lifecycle
	}
	if v := r.URL.Query().Get("device_type"); v != "" {
		filter.TypeID = &v
	}
	if v := r.URL.Query().Get("responsible_entity"); v != "" {
		filter.EntityIDs = []string{v}
	}

	user, _ := entities.ActorFromContext(r.Context())

	list, err := ListDevices(db.DB, user, filter, RestrictListing(r.URL.Query(), user))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetDeviceHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	device, err := GetDevice(db.DB, kind, chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(device); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func GetDeviceHistoryHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	entries, err := audit.ListForDevice(db.DB, string(kind), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func ListChildSignsHandler(w http.ResponseWriter, r *http.Request) {
	parent, err := GetDevice(db.DB, KindTrafficSign, chi.URLParam(r, "id"))
	if err != nil {
		apperror.Write(w, err)
		return
	}

	children, err := ChildSigns(db.DB, parent.ID)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(children); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func CreateDeviceHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	var device Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	device.Kind = kind
	user, _ := entities.ActorFromContext(r.Context())

	var created *Device
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = CreateDevice(tx, user, &device)
		return txErr
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// DevicePatch carries the optional fields of a partial update. Absent fields
// leave the stored value alone; explicit nulls are not distinguished except
// for the clear flags.
type DevicePatch struct {
	SourceName            *string         `json:"source_name"`
	SourceID              *string         `json:"source_id"`
	Location              *string         `json:"location"`
	Direction             *int            `json:"direction"`
	Height                *int            `json:"height"`
	RoadName              *string         `json:"road_name"`
	Lifecycle             *Lifecycle      `json:"lifecycle"`
	DeviceTypeID          *string         `json:"device_type_id"`
	OwnerID               *string         `json:"owner_id"`
	ResponsibleEntityID   *string         `json:"responsible_entity_id"`
	MountTypeID           *string         `json:"mount_type_id"`
	ValidityPeriodStart   *time.Time      `json:"validity_period_start"`
	ValidityPeriodEnd     *time.Time      `json:"validity_period_end"`
	SeasonalStart         *time.Time      `json:"seasonal_validity_period_start"`
	SeasonalEnd           *time.Time      `json:"seasonal_validity_period_end"`
	AdditionalInformation *string         `json:"additional_information"`
	ParentID              *string         `json:"parent_id"`
	Order                 *int            `json:"order"`
	ContentS              *map[string]any `json:"content_s"`
	MissingContent        *bool           `json:"missing_content"`
	InstallationDate      *time.Time      `json:"installation_date"`
	InstallationStatus    *string         `json:"installation_status"`
	Condition             *string         `json:"condition"`
}

func (p *DevicePatch) applyTo(device *Device) {
	if p.SourceName != nil {
		device.SourceName = *p.SourceName
	}
	if p.SourceID != nil {
		device.SourceID = *p.SourceID
	}
	if p.Location != nil {
		device.Location = *p.Location
	}
	if p.Direction != nil {
		device.Direction = p.Direction
	}
	if p.Height != nil {
		device.Height = p.Height
	}
	if p.RoadName != nil {
		device.RoadName = *p.RoadName
	}
	if p.Lifecycle != nil {
		device.Lifecycle = *p.Lifecycle
	}
	if p.DeviceTypeID != nil {
		device.DeviceTypeID = p.DeviceTypeID
	}
	if p.OwnerID != nil {
		device.OwnerID = p.OwnerID
	}
	if p.ResponsibleEntityID != nil {
		device.ResponsibleEntityID = p.ResponsibleEntityID
	}
	if p.MountTypeID != nil {
		device.MountTypeID = p.MountTypeID
	}
	if p.ValidityPeriodStart != nil {
		device.ValidityPeriodStart = p.ValidityPeriodStart
	}
	if p.ValidityPeriodEnd != nil {
		device.ValidityPeriodEnd = p.ValidityPeriodEnd
	}
	if p.SeasonalStart != nil {
		device.SeasonalValidityPeriodStart = p.SeasonalStart
	}
	if p.SeasonalEnd != nil {
		device.SeasonalValidityPeriodEnd = p.SeasonalEnd
	}
	if p.AdditionalInformation != nil {
		device.AdditionalInformation = *p.AdditionalInformation
	}
	if p.ParentID != nil {
		device.ParentID = p.ParentID
	}
	if p.Order != nil {
		device.Order = *p.Order
	}
	if p.ContentS != nil {
		device.ContentS = *p.ContentS
	}
	if p.MissingContent != nil {
		device.MissingContent = *p.MissingContent
	}
	if p.InstallationDate != nil {
		device.InstallationDate = p.InstallationDate
	}
	if p.InstallationStatus != nil {
		device.InstallationStatus = InstallationStatus(*p.InstallationStatus)
	}
	if p.Condition != nil {
		device.Condition = Condition(*p.Condition)
	}
}

func UpdateDeviceHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	var patch DevicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, _ := entities.ActorFromContext(r.Context())

	var updated *Device
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		updated, txErr = UpdateDevice(tx, user, kind, chi.URLParam(r, "id"), patch.applyTo)
		return txErr
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

func DeleteDeviceHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := kindParam(r)
	if err != nil {
		apperror.Write(w, err)
		return
	}

	user, _ := entities.ActorFromContext(r.Context())
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		return SoftDeleteDevice(tx, user, kind, chi.URLParam(r, "id"))
	})
	if err != nil {
		apperror.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
