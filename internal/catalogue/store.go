package catalogue

import (
	"errors"
	"strings"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/schema"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TypeFields is the writable surface of a catalogue entry. Pointer fields
// distinguish "unset" from zero values on partial updates.
type TypeFields struct {
	Code              *string        `json:"code"`
	Icon              *string        `json:"icon"`
	Description       *string        `json:"description"`
	Value             *string        `json:"value"`
	Unit              *string        `json:"unit"`
	Size              *string        `json:"size"`
	LegacyCode        *string        `json:"legacy_code"`
	LegacyDescription *string        `json:"legacy_description"`
	TargetModel       *TargetModel   `json:"target_model"`
	ClearTargetModel  bool           `json:"clear_target_model"`
	Type              *string        `json:"type"`
	ContentSchema     map[string]any `json:"content_schema"`
	ClearSchema       bool           `json:"clear_content_schema"`
	Validity          *Validity      `json:"validity"`
	ReplacementTypeID *string        `json:"replacement_type_id"`
}

func CreateType(d *gorm.DB, fields TypeFields) (*DeviceType, error) {
	if fields.Code == nil || *fields.Code == "" {
		return nil, apperror.NewValidation("code", "code is required")
	}

	deviceType := &DeviceType{
		ID:       uuid.NewString(),
		Code:     *fields.Code,
		Validity: ValidityValid,
	}
	applyFields(deviceType, fields)

	if err := validateType(deviceType); err != nil {
		return nil, err
	}

	var existing DeviceType
	if err := d.First(&existing, "code = ?", deviceType.Code).Error; err == nil {
		return nil, &apperror.Conflict{Kind: "device_type", Key: deviceType.Code}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperror.IntegrityError{Err: err}
	}

	if err := d.Create(deviceType).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return nil, &apperror.Conflict{Kind: "device_type", Key: deviceType.Code}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return deviceType, nil
}

// UpdateType applies fields to an existing entry. Changing the target model
// runs the dependency sweep (guard.go) inside the caller's transaction.
func UpdateType(d *gorm.DB, id string, fields TypeFields) (*DeviceType, error) {
	deviceType, err := GetType(d, id)
	if err != nil {
		return nil, err
	}

	oldTarget := deviceType.TargetModel
	applyFields(deviceType, fields)

	if err := validateType(deviceType); err != nil {
		return nil, err
	}

	if targetChanged(oldTarget, deviceType.TargetModel) {
		if err := validateTargetChange(d, deviceType.ID, deviceType.TargetModel); err != nil {
			return nil, err
		}
	}

	if fields.Code != nil && *fields.Code != "" {
		var existing DeviceType
		err := d.First(&existing, "code = ? AND id <> ?", deviceType.Code, deviceType.ID).Error
		if err == nil {
			return nil, &apperror.Conflict{Kind: "device_type", Key: deviceType.Code}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.IntegrityError{Err: err}
		}
	}

	if err := d.Save(deviceType).Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return deviceType, nil
}

func GetType(d *gorm.DB, id string) (*DeviceType, error) {
	var deviceType DeviceType
	if err := d.First(&deviceType, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "device_type", ID: id}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &deviceType, nil
}

// GetTypeByCode resolves the import-file natural key. The match is exact.
func GetTypeByCode(d *gorm.DB, code string) (*DeviceType, error) {
	var deviceType DeviceType
	if err := d.First(&deviceType, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "device_type", ID: code}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &deviceType, nil
}

// ListFilter narrows ListTypes. TrafficSignTypeLetter matches codes whose
// first letter equals the given A..I category letter.
type ListFilter struct {
	TargetModel           *TargetModel
	TrafficSignTypeLetter string
}

// ListTypes returns entries matching the filter. A target-model filter also
// includes generic types, which are valid for every kind.
func ListTypes(d *gorm.DB, filter ListFilter) ([]DeviceType, error) {
	query := d.Model(&DeviceType{}).Order("code")
	if filter.TargetModel != nil {
		query = query.Where("target_model IS NULL OR target_model = ?", string(*filter.TargetModel))
	}
	if filter.TrafficSignTypeLetter != "" {
		letter := strings.ToUpper(filter.TrafficSignTypeLetter)
		if _, ok := TrafficSignTypeMap[letter]; !ok {
			return nil, apperror.NewValidation("traffic_sign_type", "unknown traffic sign type letter "+letter)
		}
		query = query.Where("code LIKE ?", letter+"%")
	}

	var types []DeviceType
	if err := query.Find(&types).Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return types, nil
}

// DeleteType removes a catalogue entry. Forbidden while any device, active or
// soft-deleted, still references it.
func DeleteType(d *gorm.DB, id string) error {
	deviceType, err := GetType(d, id)
	if err != nil {
		return err
	}

	var count int64
	if err := d.Table(deviceTableName).Where("device_type_id = ?", id).Count(&count).Error; err != nil {
		return &apperror.IntegrityError{Err: err}
	}
	if count > 0 {
		return &apperror.Conflict{Kind: "device_type", Key: deviceType.Code}
	}

	if err := d.Delete(deviceType).Error; err != nil {
		return &apperror.IntegrityError{Err: err}
	}
	return nil
}

func applyFields(deviceType *DeviceType, fields TypeFields) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&deviceType.Code, fields.Code)
	setString(&deviceType.Icon, fields.Icon)
	setString(&deviceType.Description, fields.Description)
	setString(&deviceType.Value, fields.Value)
	setString(&deviceType.Unit, fields.Unit)
	setString(&deviceType.Size, fields.Size)
	setString(&deviceType.LegacyCode, fields.LegacyCode)
	setString(&deviceType.LegacyDescription, fields.LegacyDescription)
	setString(&deviceType.Type, fields.Type)

	if fields.ClearTargetModel {
		deviceType.TargetModel = nil
	} else if fields.TargetModel != nil {
		target := *fields.TargetModel
		deviceType.TargetModel = &target
	}

	if fields.ClearSchema {
		deviceType.ContentSchema = nil
	} else if fields.ContentSchema != nil {
		deviceType.ContentSchema = fields.ContentSchema
	}

	if fields.Validity != nil {
		deviceType.Validity = *fields.Validity
	}
	if fields.ReplacementTypeID != nil {
		deviceType.ReplacementTypeID = fields.ReplacementTypeID
	}
}

func validateType(deviceType *DeviceType) error {
	if deviceType.TargetModel != nil && !deviceType.TargetModel.Valid() {
		return apperror.NewValidation("target_model", "unknown target model "+string(*deviceType.TargetModel))
	}
	if !deviceType.Validity.Valid() {
		return apperror.NewValidation("validity", "unknown validity "+string(deviceType.Validity))
	}

	if deviceType.ContentSchema != nil {
		if err := schema.ValidateSchema(deviceType.ContentSchema); err != nil {
			return err
		}
		if deviceType.TargetModel == nil {
			return apperror.NewValidation("content_schema",
				"a content schema requires a schema-bearing target model")
		}
		if !deviceType.TargetModel.BearsSchema() {
			return apperror.NewValidation("content_schema",
				"target model '"+string(*deviceType.TargetModel)+"' does not support content schema")
		}
	}
	return nil
}

func targetChanged(old, new *TargetModel) bool {
	switch {
	case old == nil && new == nil:
		return false
	case old == nil || new == nil:
		return true
	default:
		return *old != *new
	}
}
