package importexport

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/devices"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/cityinfra/asset-registry/internal/schema"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Disposition is the per-row outcome of an import. Index is the zero-based
// data row (the header does not count). Column is set when the error can be
// pinned to one input column.
type Disposition struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
	Column string `json:"column,omitempty"`
}

// Result summarises a whole import run. Committed is false for dry runs and
// for strict runs that hit any row error.
type Result struct {
	Dispositions []Disposition `json:"rows"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	Committed    bool          `json:"committed"`
}

func (r *Result) add(d Disposition) {
	r.Dispositions = append(r.Dispositions, d)
	switch d.Status {
	case StatusCreated:
		r.Created++
	case StatusUpdated:
		r.Updated++
	case StatusSkipped:
		r.Skipped++
	case StatusError:
		r.Errors++
	}
}

// DeviceImportOptions selects the table slice an import targets and whether
// the run commits.
type DeviceImportOptions struct {
	Kind    devices.Kind
	Variant devices.Variant
	DryRun  bool
}

// ImportDevices runs a device import under a single transaction. Every row is
// validated even after the first failure, so the caller gets the full error
// report in one pass; any error rolls the whole file back.
func ImportDevices(d *gorm.DB, user *entities.User, ds Dataset, opts DeviceImportOptions) (*Result, error) {
	if !opts.Kind.Valid() {
		return nil, apperror.NewValidation("kind", "unknown device kind "+string(opts.Kind))
	}
	if !opts.Variant.Valid() {
		return nil, apperror.NewValidation("variant", "unknown variant "+string(opts.Variant))
	}
	if !entities.CanImport(user) {
		return nil, &apperror.PermissionDenied{Reason: "user has no responsible entities and no bypass"}
	}

	tx := d.Begin()
	if tx.Error != nil {
		return nil, &apperror.IntegrityError{Err: tx.Error}
	}
	defer tx.Rollback()

	result := &Result{}
	// Non-identifier ids in the file are placeholders: they name a row so a
	// later row's parent__id can reference it before either exists.
	placeholders := map[string]string{}

	for i, row := range ds.Rows {
		disposition := importDeviceRow(tx, user, row, opts, placeholders)
		disposition.Index = i
		result.add(disposition)
	}

	if opts.DryRun || result.Errors > 0 {
		return result, nil
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	result.Committed = true
	return result, nil
}

func importDeviceRow(tx *gorm.DB, user *entities.User, row Row, opts DeviceImportOptions, placeholders map[string]string) Disposition {
	rowID := row.String("id")
	isUpdate := false
	var assignedID string

	switch {
	case rowID == "":
		assignedID = uuid.NewString()
	case isUUID(rowID):
		isUpdate = true
		assignedID = rowID
	default:
		// Placeholder id: always a create, remembered for parent references.
		assignedID = uuid.NewString()
		placeholders[rowID] = assignedID
	}

	if isUpdate {
		existing, err := devices.GetDevice(tx, opts.Kind, rowID)
		if err != nil {
			return errorDisposition(err, "id")
		}

		before, err := json.Marshal(existing)
		if err != nil {
			return errorDisposition(err, "")
		}
		patched := *existing
		if disposition, ok := applyRow(tx, &patched, row, opts, placeholders); !ok {
			return disposition
		}
		after, err := json.Marshal(&patched)
		if err != nil {
			return errorDisposition(err, "")
		}
		if string(before) == string(after) {
			return Disposition{Status: StatusSkipped, ID: existing.ID}
		}

		updated, err := devices.UpdateDevice(tx, user, opts.Kind, rowID, func(device *devices.Device) {
			*device = patched
		})
		if err != nil {
			return errorDisposition(err, "")
		}
		return Disposition{Status: StatusUpdated, ID: updated.ID}
	}

	device := &devices.Device{
		ID:      assignedID,
		Kind:    opts.Kind,
		Variant: opts.Variant,
	}
	if disposition, ok := applyRow(tx, device, row, opts, placeholders); !ok {
		return disposition
	}

	created, err := devices.CreateDevice(tx, user, device)
	if err != nil {
		return errorDisposition(err, "")
	}
	return Disposition{Status: StatusCreated, ID: created.ID}
}

// applyRow copies present columns onto the device, resolving foreign keys by
// their natural keys. Absent columns leave the device untouched, so updates
// only change what the file mentions.
func applyRow(tx *gorm.DB, device *devices.Device, row Row, opts DeviceImportOptions, placeholders map[string]string) (Disposition, bool) {
	if row.Has("source_name") {
		device.SourceName = row.String("source_name")
	}
	if row.Has("source_id") {
		device.SourceID = row.String("source_id")
	}
	if row.Has("location") {
		device.Location = row.String("location")
	}
	if row.Has("road_name") {
		device.RoadName = row.String("road_name")
	}
	if row.Has("lifecycle") {
		device.Lifecycle = devices.Lifecycle(row.String("lifecycle"))
	}
	if row.Has("additional_information") {
		device.AdditionalInformation = row.String("additional_information")
	}
	if row.Has("decision_id") {
		device.DecisionID = row.String("decision_id")
	}
	if row.Has("condition") {
		device.Condition = devices.Condition(row.String("condition"))
	}
	if row.Has("installation_status") {
		device.InstallationStatus = devices.InstallationStatus(row.String("installation_status"))
	}

	intColumns := map[string]**int{}
	if row.Has("direction") {
		intColumns["direction"] = &device.Direction
	}
	if row.Has("height") {
		intColumns["height"] = &device.Height
	}
	for column, dst := range intColumns {
		n, err := strconv.Atoi(row.String(column))
		if err != nil {
			return errorDisposition(apperror.NewValidation(column, "not an integer: "+row.String(column)), column), false
		}
		*dst = &n
	}
	if row.Has("order") {
		n, err := strconv.Atoi(row.String("order"))
		if err != nil {
			return errorDisposition(apperror.NewValidation("order", "not an integer: "+row.String("order")), "order"), false
		}
		device.Order = n
	}

	dateColumns := map[string]**time.Time{
		"validity_period_start":          &device.ValidityPeriodStart,
		"validity_period_end":            &device.ValidityPeriodEnd,
		"seasonal_validity_period_start": &device.SeasonalValidityPeriodStart,
		"seasonal_validity_period_end":   &device.SeasonalValidityPeriodEnd,
		"installation_date":              &device.InstallationDate,
	}
	for column, dst := range dateColumns {
		if !row.Has(column) {
			continue
		}
		t, err := time.Parse("2006-01-02", row.String(column))
		if err != nil {
			return errorDisposition(apperror.NewValidation(column, "not a date (want YYYY-MM-DD): "+row.String(column)), column), false
		}
		*dst = &t
	}

	if row.Has("missing_content") {
		v, err := parseBool(row.String("missing_content"))
		if err != nil {
			return errorDisposition(apperror.NewValidation("missing_content", err.Error()), "missing_content"), false
		}
		device.MissingContent = v
	}

	var deviceType *catalogue.DeviceType
	if row.Has("device_type__code") {
		dt, err := catalogue.GetTypeByCode(tx, row.String("device_type__code"))
		if err != nil {
			return errorDisposition(err, "device_type__code"), false
		}
		deviceType = dt
		device.DeviceTypeID = &dt.ID
	} else if device.DeviceTypeID != nil {
		dt, err := catalogue.GetType(tx, *device.DeviceTypeID)
		if err != nil {
			return errorDisposition(err, "device_type__code"), false
		}
		deviceType = dt
	}
	if row.Has("owner__name_fi") {
		owner, err := entities.GetOwnerByNameFi(tx, row.String("owner__name_fi"))
		if err != nil {
			return errorDisposition(err, "owner__name_fi"), false
		}
		device.OwnerID = &owner.ID
	}
	if row.Has("responsible_entity__name") {
		entity, err := entities.GetEntityByName(tx, row.String("responsible_entity__name"))
		if err != nil {
			return errorDisposition(err, "responsible_entity__name"), false
		}
		device.ResponsibleEntityID = &entity.ID
	}
	if row.Has("mount_type__code") {
		mountType, err := entities.GetMountTypeByCode(tx, row.String("mount_type__code"))
		if err != nil {
			return errorDisposition(err, "mount_type__code"), false
		}
		device.MountTypeID = &mountType.ID
	}
	if row.Has("parent__id") {
		parentID := row.String("parent__id")
		if mapped, ok := placeholders[parentID]; ok {
			parentID = mapped
		}
		device.ParentID = &parentID
	}

	content := UnflattenContent(row)
	if content != nil {
		if deviceType != nil && deviceType.HasContentSchema() {
			coerced, ok := schema.Coerce(deviceType.ContentSchema, content).(map[string]any)
			if ok {
				content = coerced
			}
		}
		device.ContentS = content
	}

	return Disposition{}, true
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true", "True", "1":
		return true, nil
	case "false", "False", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// errorDisposition flattens a pipeline error into a row disposition. When the
// error carries field paths and no column was pinned yet, the first field
// becomes the column.
func errorDisposition(err error, column string) Disposition {
	disposition := Disposition{Status: StatusError, Reason: err.Error(), Column: column}
	var verr *apperror.ValidationError
	if column == "" && errors.As(err, &verr) && len(verr.Fields) > 0 {
		fields := make([]string, 0, len(verr.Fields))
		for field := range verr.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		disposition.Column = fields[0]
	}
	return disposition
}

// ImportDeviceTypes imports catalogue rows, matching existing entries by
// code. The content_schema cell holds a JSON document.
func ImportDeviceTypes(d *gorm.DB, user *entities.User, ds Dataset, dryRun bool) (*Result, error) {
	if !entities.HasBypass(user) {
		return nil, &apperror.PermissionDenied{Reason: "catalogue import requires the bypass role"}
	}

	tx := d.Begin()
	if tx.Error != nil {
		return nil, &apperror.IntegrityError{Err: tx.Error}
	}
	defer tx.Rollback()

	result := &Result{}
	for i, row := range ds.Rows {
		disposition := importTypeRow(tx, row)
		disposition.Index = i
		result.add(disposition)
	}

	if dryRun || result.Errors > 0 {
		return result, nil
	}
	if err := tx.Commit().Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	result.Committed = true
	return result, nil
}

func importTypeRow(tx *gorm.DB, row Row) Disposition {
	code := row.String("code")
	if code == "" {
		return errorDisposition(apperror.NewValidation("code", "code is required"), "code")
	}

	fields := catalogue.TypeFields{Code: &code}
	setIfPresent := func(column string, dst **string) {
		if row.Has(column) {
			v := row.String(column)
			*dst = &v
		}
	}
	setIfPresent("icon", &fields.Icon)
	setIfPresent("description", &fields.Description)
	setIfPresent("value", &fields.Value)
	setIfPresent("unit", &fields.Unit)
	setIfPresent("size", &fields.Size)
	setIfPresent("legacy_code", &fields.LegacyCode)
	setIfPresent("legacy_description", &fields.LegacyDescription)
	setIfPresent("type", &fields.Type)

	if row.Has("target_model") {
		target := catalogue.TargetModel(row.String("target_model"))
		fields.TargetModel = &target
	}
	if row.Has("validity") {
		validity := catalogue.Validity(row.String("validity"))
		fields.Validity = &validity
	}
	if row.Has("content_schema") {
		switch v := row["content_schema"].(type) {
		case string:
			var doc map[string]any
			if err := json.Unmarshal([]byte(v), &doc); err != nil {
				return errorDisposition(apperror.NewValidation("content_schema", "not a JSON object: "+err.Error()), "content_schema")
			}
			fields.ContentSchema = doc
		case map[string]any:
			fields.ContentSchema = v
		}
	}

	existing, err := catalogue.GetTypeByCode(tx, code)
	var notFound *apperror.NotFound
	switch {
	case err == nil:
		updated, err := catalogue.UpdateType(tx, existing.ID, fields)
		if err != nil {
			return errorDisposition(err, "")
		}
		return Disposition{Status: StatusUpdated, ID: updated.ID}
	case errors.As(err, &notFound):
		created, err := catalogue.CreateType(tx, fields)
		if err != nil {
			return errorDisposition(err, "")
		}
		return Disposition{Status: StatusCreated, ID: created.ID}
	default:
		return errorDisposition(err, "code")
	}
}
