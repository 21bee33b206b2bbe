package catalogue

import (
	"time"

	"github.com/cityinfra/asset-registry/internal/db"
)

// TargetModel constrains which device kind may reference a device type. A
// type without one is generic and attaches to any kind.
type TargetModel string

const (
	TargetBarrier           TargetModel = "barrier"
	TargetRoadMarking       TargetModel = "road_marking"
	TargetSignpost          TargetModel = "signpost"
	TargetTrafficLight      TargetModel = "traffic_light"
	TargetTrafficSign       TargetModel = "traffic_sign"
	TargetAdditionalSign    TargetModel = "additional_sign"
	TargetFurnitureSignpost TargetModel = "furniture_signpost"
	TargetOther             TargetModel = "other"
)

var allTargets = map[TargetModel]bool{
	TargetBarrier:           true,
	TargetRoadMarking:       true,
	TargetSignpost:          true,
	TargetTrafficLight:      true,
	TargetTrafficSign:       true,
	TargetAdditionalSign:    true,
	TargetFurnitureSignpost: true,
	TargetOther:             true,
}

// Only these targets may carry a content schema.
var schemaBearingTargets = map[TargetModel]bool{
	TargetAdditionalSign:    true,
	TargetFurnitureSignpost: true,
}

func (t TargetModel) Valid() bool       { return allTargets[t] }
func (t TargetModel) BearsSchema() bool { return schemaBearingTargets[t] }

type Validity string

const (
	ValidityValid       Validity = "valid"
	ValidityObsolescent Validity = "obsolescent"
	ValidityObsolete    Validity = "obsolete"
)

func (v Validity) Valid() bool {
	switch v {
	case ValidityValid, ValidityObsolescent, ValidityObsolete:
		return true
	}
	return false
}

// TrafficSignTypeMap maps the first letter of a sign code to its category.
var TrafficSignTypeMap = map[string]string{
	"A": "Warning sign",
	"B": "Priority or give-way sign",
	"C": "Prohibitory or restrictive sign",
	"D": "Mandatory sign",
	"E": "Regulatory sign",
	"F": "Information sign",
	"G": "Service sign",
	"H": "Additional sign",
	"I": "Other road sign",
}

// DeviceType is one catalogue entry: a standardised class of physical device,
// optionally constrained to a target kind and optionally carrying a JSON
// schema for the structured content of its devices.
type DeviceType struct {
	ID                string       `gorm:"type:uuid;primaryKey" json:"id"`
	Code              string       `gorm:"uniqueIndex" json:"code"`
	Icon              string       `json:"icon"`
	Description       string       `json:"description"`
	Value             string       `json:"value"`
	Unit              string       `json:"unit"`
	Size              string       `json:"size"`
	LegacyCode        string       `json:"legacy_code"`
	LegacyDescription string       `json:"legacy_description"`
	TargetModel       *TargetModel `json:"target_model"`
	Type              string       `json:"type"`
	ContentSchema     db.JSONMap   `json:"content_schema"`
	Validity          Validity     `gorm:"default:valid" json:"validity"`
	ReplacementTypeID *string      `gorm:"type:uuid" json:"replacement_type_id"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (DeviceType) TableName() string { return "device_type" }

// TrafficSignType returns the sign category derived from the code's first
// letter, or "" for codes outside the A..I map.
func (t *DeviceType) TrafficSignType() string {
	if t.Code == "" {
		return ""
	}
	return TrafficSignTypeMap[t.Code[:1]]
}

// AllowsTarget reports whether a device of the given kind may reference this
// type: the type is either generic or targets that kind exactly.
func (t *DeviceType) AllowsTarget(target TargetModel) bool {
	return t.TargetModel == nil || *t.TargetModel == target
}

// HasContentSchema reports whether devices of this type carry structured
// content.
func (t *DeviceType) HasContentSchema() bool {
	return t.ContentSchema != nil
}

// SchemaCacheKey keys the process-wide compiled-schema cache; it changes
// whenever the catalogue row is updated.
func (t *DeviceType) SchemaCacheKey() string {
	return t.ID + "@" + t.UpdatedAt.UTC().Format(time.RFC3339Nano)
}
