package importexport

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/devices"
	"github.com/cityinfra/asset-registry/internal/entities"
	"gorm.io/gorm"
)

// deviceColumns is the fixed part of a device export header; content_s.*
// columns are appended per file from the encountered schemas.
var deviceColumns = []string{
	"id", "source_name", "source_id", "location",
	"device_type__code", "owner__name_fi", "responsible_entity__name", "mount_type__code",
	"lifecycle", "direction", "height", "road_name",
	"parent__id", "order",
	"validity_period_start", "validity_period_end",
	"seasonal_validity_period_start", "seasonal_validity_period_end",
	"additional_information",
	"installation_date", "installation_status", "condition",
	"missing_content",
}

var typeColumns = []string{
	"code", "icon", "description", "value", "unit", "size",
	"legacy_code", "legacy_description", "target_model", "type",
	"content_schema", "validity",
}

// ExportDevices serialises the given devices into a dataset. Foreign keys are
// rendered by natural key; enumerations by name; the location keeps its EWKT
// form with the SRID. Content columns are the union over the schemas of the
// encountered device types, each schema's properties in propertyOrder.
func ExportDevices(d *gorm.DB, list []devices.Device) (Dataset, error) {
	refs, err := loadReferences(d, list)
	if err != nil {
		return Dataset{}, err
	}

	columns := append([]string{}, deviceColumns...)
	seen := map[string]bool{}
	for _, device := range list {
		deviceType := refs.typeOf(&device)
		if deviceType == nil || !deviceType.HasContentSchema() {
			continue
		}
		for _, column := range ContentColumns(deviceType.ContentSchema) {
			if !seen[column] {
				seen[column] = true
				columns = append(columns, column)
			}
		}
	}

	ds := Dataset{Columns: columns}
	for i := range list {
		ds.Rows = append(ds.Rows, deviceRow(&list[i], refs))
	}
	return ds, nil
}

func deviceRow(device *devices.Device, refs *references) Row {
	row := Row{
		"id":        device.ID,
		"location":  device.Location,
		"lifecycle": string(device.Lifecycle),
	}
	setString := func(column, value string) {
		if value != "" {
			row[column] = value
		}
	}
	setString("source_name", device.SourceName)
	setString("source_id", device.SourceID)
	setString("road_name", device.RoadName)
	setString("additional_information", device.AdditionalInformation)
	setString("installation_status", string(device.InstallationStatus))
	setString("condition", string(device.Condition))

	if device.Direction != nil {
		row["direction"] = strconv.Itoa(*device.Direction)
	}
	if device.Height != nil {
		row["height"] = strconv.Itoa(*device.Height)
	}
	if deviceType := refs.typeOf(device); deviceType != nil {
		row["device_type__code"] = deviceType.Code
	}
	if device.OwnerID != nil {
		if owner, ok := refs.owners[*device.OwnerID]; ok {
			row["owner__name_fi"] = owner.NameFi
		}
	}
	if device.ResponsibleEntityID != nil {
		if entity, ok := refs.entities[*device.ResponsibleEntityID]; ok {
			row["responsible_entity__name"] = entity.Name
		}
	}
	if device.MountTypeID != nil {
		if mountType, ok := refs.mountTypes[*device.MountTypeID]; ok {
			row["mount_type__code"] = mountType.Code
		}
	}
	if device.ParentID != nil {
		row["parent__id"] = *device.ParentID
	}
	if device.Kind == devices.KindAdditionalSign {
		row["order"] = strconv.Itoa(device.Order)
	}

	setDate := func(column string, t *time.Time) {
		if t != nil {
			row[column] = t.Format("2006-01-02")
		}
	}
	setDate("validity_period_start", device.ValidityPeriodStart)
	setDate("validity_period_end", device.ValidityPeriodEnd)
	setDate("seasonal_validity_period_start", device.SeasonalValidityPeriodStart)
	setDate("seasonal_validity_period_end", device.SeasonalValidityPeriodEnd)
	setDate("installation_date", device.InstallationDate)

	if device.Kind.BearsContent() {
		row["missing_content"] = strconv.FormatBool(device.MissingContent)
		if len(device.ContentS) > 0 {
			FlattenContent(row, device.ContentS)
		}
	}
	return row
}

// ExportDeviceTypes serialises catalogue entries; the content_schema cell is
// the schema document itself, which the document formats keep nested and the
// cell formats render as JSON text.
func ExportDeviceTypes(types []catalogue.DeviceType, format Format) (Dataset, error) {
	ds := Dataset{Columns: typeColumns}
	for _, deviceType := range types {
		row := Row{"code": deviceType.Code, "validity": string(deviceType.Validity)}
		setString := func(column, value string) {
			if value != "" {
				row[column] = value
			}
		}
		setString("icon", deviceType.Icon)
		setString("description", deviceType.Description)
		setString("value", deviceType.Value)
		setString("unit", deviceType.Unit)
		setString("size", deviceType.Size)
		setString("legacy_code", deviceType.LegacyCode)
		setString("legacy_description", deviceType.LegacyDescription)
		setString("type", deviceType.Type)
		if deviceType.TargetModel != nil {
			row["target_model"] = string(*deviceType.TargetModel)
		}
		if deviceType.ContentSchema != nil {
			if format == FormatJSON || format == FormatYAML {
				row["content_schema"] = map[string]any(deviceType.ContentSchema)
			} else {
				raw, err := marshalCompact(deviceType.ContentSchema)
				if err != nil {
					return Dataset{}, err
				}
				row["content_schema"] = raw
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// references caches the natural-key targets of an export in one query per
// table.
type references struct {
	types      map[string]catalogue.DeviceType
	owners     map[string]entities.Owner
	entities   map[string]entities.ResponsibleEntity
	mountTypes map[string]entities.MountType
}

func (r *references) typeOf(device *devices.Device) *catalogue.DeviceType {
	if device.DeviceTypeID == nil {
		return nil
	}
	if deviceType, ok := r.types[*device.DeviceTypeID]; ok {
		return &deviceType
	}
	return nil
}

func loadReferences(d *gorm.DB, list []devices.Device) (*references, error) {
	typeIDs := map[string]bool{}
	ownerIDs := map[string]bool{}
	entityIDs := map[string]bool{}
	mountTypeIDs := map[string]bool{}
	for i := range list {
		collect(typeIDs, list[i].DeviceTypeID)
		collect(ownerIDs, list[i].OwnerID)
		collect(entityIDs, list[i].ResponsibleEntityID)
		collect(mountTypeIDs, list[i].MountTypeID)
	}

	refs := &references{
		types:      map[string]catalogue.DeviceType{},
		owners:     map[string]entities.Owner{},
		entities:   map[string]entities.ResponsibleEntity{},
		mountTypes: map[string]entities.MountType{},
	}

	if len(typeIDs) > 0 {
		var types []catalogue.DeviceType
		if err := d.Where("id IN ?", keys(typeIDs)).Find(&types).Error; err != nil {
			return nil, &apperror.IntegrityError{Err: err}
		}
		for _, t := range types {
			refs.types[t.ID] = t
		}
	}
	if len(ownerIDs) > 0 {
		var owners []entities.Owner
		if err := d.Where("id IN ?", keys(ownerIDs)).Find(&owners).Error; err != nil {
			return nil, &apperror.IntegrityError{Err: err}
		}
		for _, o := range owners {
			refs.owners[o.ID] = o
		}
	}
	if len(entityIDs) > 0 {
		var nodes []entities.ResponsibleEntity
		if err := d.Where("id IN ?", keys(entityIDs)).Find(&nodes).Error; err != nil {
			return nil, &apperror.IntegrityError{Err: err}
		}
		for _, n := range nodes {
			refs.entities[n.ID] = n
		}
	}
	if len(mountTypeIDs) > 0 {
		var mountTypes []entities.MountType
		if err := d.Where("id IN ?", keys(mountTypeIDs)).Find(&mountTypes).Error; err != nil {
			return nil, &apperror.IntegrityError{Err: err}
		}
		for _, m := range mountTypes {
			refs.mountTypes[m.ID] = m
		}
	}
	return refs, nil
}

func collect(set map[string]bool, id *string) {
	if id != nil {
		set[*id] = true
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func marshalCompact(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
