package importexport

import (
	"errors"
	"time"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/devices"
	"gorm.io/gorm"
)

// ExportInstallTemplate emits, for each active plan device of the kind, the
// row its real counterpart would have if installed today. Rows for plans that
// already have a real device carry that device's id, so re-importing the file
// updates in place; the rest have a blank id and create.
func ExportInstallTemplate(d *gorm.DB, kind devices.Kind) (Dataset, error) {
	variant := devices.VariantPlan
	plans, err := devices.ListDevices(d, nil, devices.ListFilter{Kind: kind, Variant: &variant}, false)
	if err != nil {
		return Dataset{}, err
	}

	// Parents come first so the real traffic signs exist before the rows that
	// reference them.
	ordered := make([]devices.Device, 0, len(plans))
	for i := range plans {
		if plans[i].ParentID == nil {
			ordered = append(ordered, plans[i])
		}
	}
	for i := range plans {
		if plans[i].ParentID != nil {
			ordered = append(ordered, plans[i])
		}
	}

	realised := make([]devices.Device, 0, len(ordered))
	realIDs := map[string]string{}
	for i := range ordered {
		plan := ordered[i]
		real, err := realForPlan(d, kind, plan.ID)
		if err != nil {
			return Dataset{}, err
		}

		row := plan
		row.Variant = devices.VariantReal
		row.PlanDeviceID = &plan.ID
		if real != nil {
			row.ID = real.ID
			row.InstallationDate = real.InstallationDate
			realIDs[plan.ID] = real.ID
		} else {
			row.ID = ""
			now := time.Now().UTC()
			row.InstallationDate = &now
		}
		realised = append(realised, row)
	}

	// Parent pointers still name plan rows; remap them to the real side where
	// it exists.
	for i := range realised {
		if realised[i].ParentID == nil {
			continue
		}
		if realID, ok := realIDs[*realised[i].ParentID]; ok {
			id := realID
			realised[i].ParentID = &id
		}
	}

	return ExportDevices(d, realised)
}

func realForPlan(d *gorm.DB, kind devices.Kind, planID string) (*devices.Device, error) {
	var real devices.Device
	err := d.Where("kind = ? AND variant = ? AND plan_device_id = ? AND is_active",
		kind, devices.VariantReal, planID).First(&real).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &real, nil
}
