package devices

import (
	"time"

	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/entities"
)

// Kind discriminates the device families sharing the device table.
type Kind string

const (
	KindBarrier           Kind = "barrier"
	KindRoadMarking       Kind = "road_marking"
	KindSignpost          Kind = "signpost"
	KindTrafficLight      Kind = "traffic_light"
	KindTrafficSign       Kind = "traffic_sign"
	KindAdditionalSign    Kind = "additional_sign"
	KindMount             Kind = "mount"
	KindFurnitureSignpost Kind = "furniture_signpost"
)

// Kinds lists every device kind, in catalogue sweep order.
func Kinds() []Kind {
	return []Kind{
		KindBarrier, KindRoadMarking, KindSignpost, KindTrafficLight,
		KindTrafficSign, KindAdditionalSign, KindMount, KindFurnitureSignpost,
	}
}

func (k Kind) Valid() bool {
	for _, kind := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Target returns the catalogue target model a device of this kind must be
// compatible with.
func (k Kind) Target() catalogue.TargetModel {
	return catalogue.TargetModel(k)
}

// BearsContent reports whether devices of this kind carry structured content.
func (k Kind) BearsContent() bool {
	return k == KindAdditionalSign || k == KindFurnitureSignpost
}

// Variant separates designed devices from installed ones.
type Variant string

const (
	VariantPlan Variant = "plan"
	VariantReal Variant = "real"
)

func (v Variant) Valid() bool { return v == VariantPlan || v == VariantReal }

type Lifecycle string

const (
	LifecycleActive              Lifecycle = "active"
	LifecycleTemporarilyActive   Lifecycle = "temporarily_active"
	LifecycleTemporarilyInactive Lifecycle = "temporarily_inactive"
	LifecycleInactive            Lifecycle = "inactive"
)

func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleActive, LifecycleTemporarilyActive, LifecycleTemporarilyInactive, LifecycleInactive:
		return true
	}
	return false
}

type InstallationStatus string

const (
	InstallationInUse   InstallationStatus = "IN_USE"
	InstallationCovered InstallationStatus = "COVERED"
	InstallationFallen  InstallationStatus = "FALLEN"
	InstallationMissing InstallationStatus = "MISSING"
	InstallationOther   InstallationStatus = "OTHER"
)

type Condition string

const (
	ConditionVeryBad  Condition = "very_bad"
	ConditionBad      Condition = "bad"
	ConditionAverage  Condition = "average"
	ConditionGood     Condition = "good"
	ConditionVeryGood Condition = "very_good"
)

// Device is one row of the registry: a planned or installed traffic control
// or city-furniture device. Kind-specific columns are nullable and unused for
// other kinds.
type Device struct {
	ID      string  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind    Kind    `gorm:"index:idx_device_kind_variant" json:"kind"`
	Variant Variant `gorm:"index:idx_device_kind_variant" json:"variant"`

	// Natural external key; unique among active rows of a kind and variant.
	SourceName string `gorm:"index:idx_device_source" json:"source_name"`
	SourceID   string `gorm:"index:idx_device_source" json:"source_id"`

	// Location is stored as EWKT in the configured projected CRS.
	Location  string `json:"location"`
	Direction *int   `json:"direction"`
	Height    *int   `json:"height"`
	RoadName  string `json:"road_name"`

	Lifecycle Lifecycle `gorm:"default:active" json:"lifecycle"`

	DeviceTypeID        *string `gorm:"type:uuid;index" json:"device_type_id"`
	OwnerID             *string `gorm:"type:uuid" json:"owner_id"`
	ResponsibleEntityID *string `gorm:"type:uuid;index" json:"responsible_entity_id"`
	MountTypeID         *string `gorm:"type:uuid" json:"mount_type_id"`

	ValidityPeriodStart         *time.Time `json:"validity_period_start"`
	ValidityPeriodEnd           *time.Time `json:"validity_period_end"`
	SeasonalValidityPeriodStart *time.Time `json:"seasonal_validity_period_start"`
	SeasonalValidityPeriodEnd   *time.Time `json:"seasonal_validity_period_end"`

	AdditionalInformation string `json:"additional_information"`

	// Additional-sign devices hang below a parent traffic sign; Order
	// disambiguates siblings top-to-bottom, left-to-right from 1.
	ParentID       *string    `gorm:"type:uuid;index" json:"parent_id"`
	Order          int        `gorm:"column:sign_order;default:1" json:"order"`
	ContentS       db.JSONMap `json:"content_s"`
	MissingContent bool       `json:"missing_content"`

	// Plan variant only.
	PlanID     *string `gorm:"type:uuid" json:"plan_id"`
	DecisionID string  `json:"decision_id"`

	// Real variant only.
	PlanDeviceID       *string            `gorm:"type:uuid" json:"plan_device_id"`
	InstallationDate   *time.Time         `json:"installation_date"`
	InstallationStatus InstallationStatus `json:"installation_status"`
	Condition          Condition          `json:"condition"`

	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy *string    `gorm:"type:uuid" json:"deleted_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy *string   `gorm:"type:uuid" json:"created_by"`
	UpdatedBy *string   `gorm:"type:uuid" json:"updated_by"`

	DeviceType        *catalogue.DeviceType       `gorm:"foreignKey:DeviceTypeID" json:"device_type,omitempty"`
	Owner             *entities.Owner             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ResponsibleEntity *entities.ResponsibleEntity `gorm:"foreignKey:ResponsibleEntityID" json:"responsible_entity,omitempty"`
	MountType         *entities.MountType         `gorm:"foreignKey:MountTypeID" json:"mount_type,omitempty"`
}

func (Device) TableName() string { return "device" }

// Plan is the aggregate a plan-variant device may belong to.
type Plan struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	PlanNumber string    `gorm:"uniqueIndex" json:"plan_number"`
	DecisionID string    `json:"decision_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Plan) TableName() string { return "plan" }
