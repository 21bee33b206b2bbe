package entities

import (
	"gorm.io/gorm"
)

// The resolver answers the read/write/create/import questions for a user over
// devices, based on the user's assigned tree nodes and their descendants.
// Users with the bypass flag or superuser status pass every check. All checks
// operate on preloaded structs so the hot path never recurses into the tree.

// HasBypass reports whether per-entity checks are disabled for the user.
func HasBypass(user *User) bool {
	return user != nil && (user.IsSuperuser || user.BypassResponsibleEntity)
}

// HasEntityPermission reports whether the target entity is one of the user's
// assigned entities or any of their descendants.
func HasEntityPermission(user *User, target *ResponsibleEntity) bool {
	if HasBypass(user) {
		return true
	}
	if user == nil || target == nil {
		return false
	}
	for i := range user.ResponsibleEntities {
		if target.IsSelfOrDescendantOf(&user.ResponsibleEntities[i]) {
			return true
		}
	}
	return false
}

// CanRead gates restricted views. Safe queries are public; when consulted,
// the answer mirrors the write-side entity check.
func CanRead(user *User, deviceEntity *ResponsibleEntity) bool {
	return HasEntityPermission(user, deviceEntity)
}

// CanWrite gates mutations of an existing device. A device without a
// responsible entity is unwritable except under bypass.
func CanWrite(user *User, deviceEntity *ResponsibleEntity) bool {
	if HasBypass(user) {
		return true
	}
	if deviceEntity == nil {
		return false
	}
	return HasEntityPermission(user, deviceEntity)
}

// CanCreate gates creation of a device under the payload's entity.
func CanCreate(user *User, payloadEntity *ResponsibleEntity) bool {
	if HasBypass(user) {
		return true
	}
	if user == nil || len(user.ResponsibleEntities) == 0 {
		return false
	}
	if payloadEntity == nil {
		return false
	}
	return HasEntityPermission(user, payloadEntity)
}

// CanImport mirrors the create precondition: bypass, or at least one assigned
// entity.
func CanImport(user *User) bool {
	if HasBypass(user) {
		return true
	}
	return user != nil && len(user.ResponsibleEntities) > 0
}

// EffectiveEntityIDs returns the ids of every entity assigned to the user
// plus all their descendants, self-inclusive. Used by listing endpoints in
// filter mode.
func EffectiveEntityIDs(d *gorm.DB, user *User) ([]string, error) {
	if user == nil || len(user.ResponsibleEntities) == 0 {
		return nil, nil
	}

	query := d.Model(&ResponsibleEntity{})
	for i, assigned := range user.ResponsibleEntities {
		like := assigned.Path + "%"
		if i == 0 {
			query = query.Where("path LIKE ?", like)
		} else {
			query = query.Or("path LIKE ?", like)
		}
	}

	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
