package devices

import (
	"errors"
	"fmt"
	"time"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/audit"
	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/cityinfra/asset-registry/internal/geometry"
	"github.com/cityinfra/asset-registry/internal/schema"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Package-level geometry gate, set once at startup from config.
var (
	srid   = 3879
	bounds = geometry.BoundingBox{}
)

// Configure sets the CRS and the permitted area for all device writes.
func Configure(configuredSRID int, box geometry.BoundingBox) {
	srid = configuredSRID
	bounds = box
}

// CreateDevice runs the full write pipeline and inserts the device in the
// given transaction. The checks run in a fixed order so a payload with several
// problems always reports the same first one: geometry, type compatibility,
// content, source uniqueness, parent link, then permission.
func CreateDevice(tx *gorm.DB, user *entities.User, device *Device) (*Device, error) {
	if err := validateDiscriminators(device); err != nil {
		return nil, err
	}
	if device.ID == "" {
		device.ID = uuid.NewString()
	}

	if _, err := validatePipeline(tx, device); err != nil {
		return nil, err
	}

	payloadEntity, err := loadEntity(tx, device.ResponsibleEntityID)
	if err != nil {
		return nil, err
	}
	if !entities.CanCreate(user, payloadEntity) {
		return nil, &apperror.PermissionDenied{Reason: "no permission to create devices under this responsible entity"}
	}

	if user != nil {
		device.CreatedBy = &user.ID
		device.UpdatedBy = &user.ID
	}
	device.IsActive = true

	if err := tx.Create(device).Error; err != nil {
		return nil, wrapWriteError(err)
	}
	if err := audit.Record(tx, actorID(user), string(device.Kind), device.ID, audit.ActionCreate, nil, device); err != nil {
		return nil, err
	}
	return device, nil
}

// UpdateDevice applies the payload to an existing active device. Permission is
// checked against both the device's current entity and the payload's, so a
// device cannot be moved out of or into a subtree the user does not hold.
func UpdateDevice(tx *gorm.DB, user *entities.User, kind Kind, id string, apply func(*Device)) (*Device, error) {
	device, err := getForUpdate(tx, kind, id)
	if err != nil {
		return nil, err
	}

	currentEntity, err := loadEntity(tx, device.ResponsibleEntityID)
	if err != nil {
		return nil, err
	}
	if !entities.CanWrite(user, currentEntity) {
		return nil, &apperror.PermissionDenied{Reason: "no permission to modify this device"}
	}

	before := *device
	apply(device)
	device.ID = before.ID
	device.Kind = before.Kind
	device.Variant = before.Variant

	if _, err := validatePipeline(tx, device); err != nil {
		return nil, err
	}

	if !sameID(before.ResponsibleEntityID, device.ResponsibleEntityID) {
		newEntity, err := loadEntity(tx, device.ResponsibleEntityID)
		if err != nil {
			return nil, err
		}
		if !entities.CanWrite(user, newEntity) {
			return nil, &apperror.PermissionDenied{Reason: "no permission to assign this responsible entity"}
		}
	}

	if user != nil {
		device.UpdatedBy = &user.ID
	}

	if err := tx.Save(device).Error; err != nil {
		return nil, wrapWriteError(err)
	}
	if err := audit.Record(tx, actorID(user), string(device.Kind), device.ID, audit.ActionUpdate, &before, device); err != nil {
		return nil, err
	}
	return device, nil
}

// SoftDeleteDevice deactivates a device without removing the row. Deleted
// devices stay out of default reads and unique-source checks but remain
// visible to the catalogue's target-change sweep.
func SoftDeleteDevice(tx *gorm.DB, user *entities.User, kind Kind, id string) error {
	device, err := getForUpdate(tx, kind, id)
	if err != nil {
		return err
	}

	deviceEntity, err := loadEntity(tx, device.ResponsibleEntityID)
	if err != nil {
		return err
	}
	if !entities.CanWrite(user, deviceEntity) {
		return &apperror.PermissionDenied{Reason: "no permission to delete this device"}
	}

	before := *device
	now := time.Now().UTC()
	device.IsActive = false
	device.DeletedAt = &now
	device.DeletedBy = actorID(user)

	if err := tx.Save(device).Error; err != nil {
		return wrapWriteError(err)
	}
	return audit.Record(tx, actorID(user), string(device.Kind), device.ID, audit.ActionDelete, &before, device)
}

// validatePipeline runs the order-sensitive checks shared by create and
// update. It returns the loaded device type so callers need not re-fetch it.
func validatePipeline(tx *gorm.DB, device *Device) (*catalogue.DeviceType, error) {
	if err := checkLocation(device); err != nil {
		return nil, err
	}
	deviceType, err := checkType(tx, device)
	if err != nil {
		return nil, err
	}
	if err := checkContent(device, deviceType); err != nil {
		return nil, err
	}
	if err := checkUniqueSource(tx, device); err != nil {
		return nil, err
	}
	if err := checkOrder(device); err != nil {
		return nil, err
	}
	if err := checkParent(tx, device); err != nil {
		return nil, err
	}
	return deviceType, nil
}

func validateDiscriminators(device *Device) error {
	fields := apperror.FieldErrors{}
	if !device.Kind.Valid() {
		fields.Add("kind", fmt.Sprintf("unknown device kind %q", device.Kind))
	}
	if !device.Variant.Valid() {
		fields.Add("variant", fmt.Sprintf("unknown variant %q", device.Variant))
	}
	if device.Lifecycle == "" {
		device.Lifecycle = LifecycleActive
	}
	if !device.Lifecycle.Valid() {
		fields.Add("lifecycle", fmt.Sprintf("unknown lifecycle %q", device.Lifecycle))
	}
	if len(fields) > 0 {
		return &apperror.ValidationError{Fields: fields}
	}
	return nil
}

func checkLocation(device *Device) error {
	if device.Location == "" {
		return apperror.NewValidation("location", "location is required")
	}
	point, pointSRID, err := geometry.ParseEWKT(device.Location)
	if err != nil {
		return apperror.NewValidation("location", err.Error())
	}
	if pointSRID != 0 && pointSRID != srid {
		return apperror.NewValidation("location", fmt.Sprintf("SRID must be %d, got %d", srid, pointSRID))
	}
	if err := bounds.Check(point); err != nil {
		return err
	}
	// Store canonically with the SRID prefix.
	device.Location = point.EWKT(srid)
	return nil
}

func checkType(tx *gorm.DB, device *Device) (*catalogue.DeviceType, error) {
	if device.DeviceTypeID == nil {
		return nil, nil
	}
	deviceType, err := catalogue.GetType(tx, *device.DeviceTypeID)
	if err != nil {
		return nil, err
	}
	if !deviceType.AllowsTarget(device.Kind.Target()) {
		return nil, &apperror.TypeTargetMismatch{DeviceKind: string(device.Kind), TypeID: deviceType.ID}
	}
	return deviceType, nil
}

func checkContent(device *Device, deviceType *catalogue.DeviceType) error {
	if !device.Kind.BearsContent() {
		if len(device.ContentS) > 0 {
			return apperror.NewValidation("content_s", fmt.Sprintf("%s devices do not carry structured content", device.Kind))
		}
		if device.MissingContent {
			return apperror.NewValidation("missing_content", fmt.Sprintf("%s devices do not carry structured content", device.Kind))
		}
		return nil
	}

	if deviceType == nil || !deviceType.HasContentSchema() {
		typeCode := ""
		if deviceType != nil {
			typeCode = deviceType.Code
		}
		if len(device.ContentS) > 0 {
			return &apperror.ContentNotAllowed{TypeCode: typeCode}
		}
		if device.MissingContent {
			return &apperror.ContentNotAllowed{TypeCode: typeCode}
		}
		return nil
	}

	hasContent := len(device.ContentS) > 0
	switch {
	case hasContent && device.MissingContent:
		return &apperror.ContentAmbiguous{}
	case !hasContent && !device.MissingContent:
		return &apperror.ContentRequired{TypeCode: deviceType.Code}
	case !hasContent:
		return nil
	}

	compiled, err := schema.CompileCached(deviceType.SchemaCacheKey(), deviceType.ContentSchema)
	if err != nil {
		return err
	}
	return schema.ValidateContent(compiled, map[string]any(device.ContentS))
}

// checkUniqueSource enforces the (source_name, source_id) natural key among
// active rows of the same kind and variant. Rows without a full key pass.
func checkUniqueSource(tx *gorm.DB, device *Device) error {
	if device.SourceName == "" || device.SourceID == "" {
		return nil
	}
	var count int64
	err := tx.Model(&Device{}).
		Where("kind = ? AND variant = ? AND source_name = ? AND source_id = ? AND is_active AND id <> ?",
			device.Kind, device.Variant, device.SourceName, device.SourceID, device.ID).
		Count(&count).Error
	if err != nil {
		return &apperror.IntegrityError{Err: err}
	}
	if count > 0 {
		return &apperror.Conflict{
			Kind: string(device.Kind),
			Key:  fmt.Sprintf("source_name=%s source_id=%s", device.SourceName, device.SourceID),
		}
	}
	return nil
}

// checkParent verifies the parent link of an additional sign when one is set:
// the parent must be an active traffic sign of the same variant. The link is
// optional, a free-standing additional sign is valid. Other kinds never carry
// a parent, which also rules out reference cycles.
func checkParent(tx *gorm.DB, device *Device) error {
	if device.ParentID == nil {
		return nil
	}
	if device.Kind != KindAdditionalSign {
		return apperror.NewValidation("parent_id", fmt.Sprintf("%s devices cannot have a parent", device.Kind))
	}
	if *device.ParentID == device.ID {
		return apperror.NewValidation("parent_id", "a device cannot be its own parent")
	}

	parent, err := GetDevice(tx, KindTrafficSign, *device.ParentID)
	if err != nil {
		var notFound *apperror.NotFound
		if errors.As(err, &notFound) {
			return apperror.NewValidation("parent_id", "parent traffic sign not found")
		}
		return err
	}
	if parent.Variant != device.Variant {
		return apperror.NewValidation("parent_id", fmt.Sprintf(
			"parent must be a %s traffic sign, got %s", device.Variant, parent.Variant))
	}
	return nil
}

// checkOrder defaults an unset sibling order to 1, matching the column
// default, so payloads and import rows without one pass validation.
func checkOrder(device *Device) error {
	if device.Order == 0 {
		device.Order = 1
	}
	if device.Order < 1 {
		return apperror.NewValidation("order", "order starts at 1")
	}
	return nil
}

// GetDevice returns an active device of the given kind. Soft-deleted rows are
// invisible here; use GetDeviceAny when deleted rows matter.
func GetDevice(d *gorm.DB, kind Kind, id string) (*Device, error) {
	device, err := GetDeviceAny(d, kind, id)
	if err != nil {
		return nil, err
	}
	if !device.IsActive {
		return nil, &apperror.NotFound{Kind: string(kind), ID: id}
	}
	return device, nil
}

// GetDeviceAny returns a device regardless of its soft-delete state.
func GetDeviceAny(d *gorm.DB, kind Kind, id string) (*Device, error) {
	var device Device
	err := d.Where("kind = ? AND id = ?", kind, id).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperror.NotFound{Kind: string(kind), ID: id}
	}
	if err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &device, nil
}

func getForUpdate(tx *gorm.DB, kind Kind, id string) (*Device, error) {
	return GetDevice(tx, kind, id)
}

// ListFilter narrows device listings. EntityIDs, when non-nil, restricts rows
// to the given responsible entities.
type ListFilter struct {
	Kind      Kind
	Variant   *Variant
	Lifecycle *Lifecycle
	TypeID    *string
	EntityIDs []string
}

// ListDevices returns active devices matching the filter. When the user lacks
// the bypass flag and restrict is set, rows are limited to the user's
// effective entity subtrees.
func ListDevices(d *gorm.DB, user *entities.User, filter ListFilter, restrict bool) ([]Device, error) {
	query := d.Model(&Device{}).Where("kind = ? AND is_active", filter.Kind)
	if filter.Variant != nil {
		query = query.Where("variant = ?", *filter.Variant)
	}
	if filter.Lifecycle != nil {
		query = query.Where("lifecycle = ?", *filter.Lifecycle)
	}
	if filter.TypeID != nil {
		query = query.Where("device_type_id = ?", *filter.TypeID)
	}
	if filter.EntityIDs != nil {
		query = query.Where("responsible_entity_id IN ?", filter.EntityIDs)
	}

	if restrict && !entities.HasBypass(user) {
		ids, err := entities.EffectiveEntityIDs(d, user)
		if err != nil {
			return nil, &apperror.IntegrityError{Err: err}
		}
		if len(ids) == 0 {
			return []Device{}, nil
		}
		query = query.Where("responsible_entity_id IN ?", ids)
	}

	var devices []Device
	if err := query.Order("created_at").Find(&devices).Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return devices, nil
}

// ChildSigns returns the active additional signs under a traffic sign, in
// display order.
func ChildSigns(d *gorm.DB, parentID string) ([]Device, error) {
	var children []Device
	err := d.Where("kind = ? AND parent_id = ? AND is_active", KindAdditionalSign, parentID).
		Order("sign_order").
		Find(&children).Error
	if err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return children, nil
}

func loadEntity(tx *gorm.DB, id *string) (*entities.ResponsibleEntity, error) {
	if id == nil {
		return nil, nil
	}
	return entities.GetEntity(tx, *id)
}

func actorID(user *entities.User) *string {
	if user == nil {
		return nil
	}
	return &user.ID
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func wrapWriteError(err error) error {
	return &apperror.IntegrityError{Err: err}
}
