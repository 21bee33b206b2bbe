package catalogue

import (
	"strings"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"gorm.io/gorm"
)

// The guard is the one place where the catalogue reaches down into device
// storage: before a type's target model changes, every device kind that the
// new target does not cover is swept for rows still referencing the type.

const deviceTableName = "device"

// deviceKinds mirrors the kinds stored in the device table.
var deviceKinds = []string{
	"barrier",
	"road_marking",
	"signpost",
	"traffic_light",
	"traffic_sign",
	"additional_sign",
	"mount",
	"furniture_signpost",
}

// validateTargetChange accepts a nil target unconditionally; a type made
// generic is valid for every kind. The sweep runs inside the caller's
// transaction so a concurrent device insert cannot slip past it.
func validateTargetChange(d *gorm.DB, typeID string, newTarget *TargetModel) error {
	if newTarget == nil {
		return nil
	}

	keepPrefix := strings.ReplaceAll(string(*newTarget), "_", "")
	var offending []apperror.OffendingKind

	for _, kind := range deviceKinds {
		if strings.HasPrefix(strings.ReplaceAll(kind, "_", ""), keepPrefix) {
			continue
		}

		var ids []string
		err := d.Table(deviceTableName).
			Where("device_type_id = ? AND kind = ?", typeID, kind).
			Pluck("id", &ids).Error
		if err != nil {
			return &apperror.IntegrityError{Err: err}
		}
		if len(ids) > 0 {
			offending = append(offending, apperror.OffendingKind{Kind: kind, IDs: ids})
		}
	}

	if len(offending) > 0 {
		return &apperror.TargetChangeUnsafe{NewTarget: string(*newTarget), Offending: offending}
	}
	return nil
}
