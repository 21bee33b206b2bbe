package entities

import (
	"errors"
	"strings"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateEntity inserts a tree node, validating the level ordering against its
// parent and materialising the path.
func CreateEntity(d *gorm.DB, entity *ResponsibleEntity) error {
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if entity.OrganizationLevel == "" {
		entity.OrganizationLevel = LevelProject
	}
	if !entity.OrganizationLevel.Valid() {
		return apperror.NewValidation("organization_level", "unknown organization level "+string(entity.OrganizationLevel))
	}

	parentPath := "/"
	if entity.ParentID != nil {
		parent, err := GetEntity(d, *entity.ParentID)
		if err != nil {
			return err
		}
		if parent.OrganizationLevel.Rank() > entity.OrganizationLevel.Rank() {
			return apperror.NewValidation("parent", "parent's organization level can't be below this object's level")
		}
		parentPath = parent.Path
	}
	entity.Path = parentPath + entity.ID + "/"

	if err := d.Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return &apperror.Conflict{Kind: "responsible_entity", Key: entity.Name}
		}
		return &apperror.IntegrityError{Err: err}
	}
	return nil
}

func GetEntity(d *gorm.DB, id string) (*ResponsibleEntity, error) {
	var entity ResponsibleEntity
	if err := d.First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "responsible_entity", ID: id}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &entity, nil
}

// GetEntityByName resolves the import-file natural key.
func GetEntityByName(d *gorm.DB, name string) (*ResponsibleEntity, error) {
	var entity ResponsibleEntity
	if err := d.First(&entity, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "responsible_entity", ID: name}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &entity, nil
}

// Ancestors returns the chain from the root down to the entity itself.
func Ancestors(d *gorm.DB, entity *ResponsibleEntity) ([]ResponsibleEntity, error) {
	ids := strings.Split(strings.Trim(entity.Path, "/"), "/")
	var nodes []ResponsibleEntity
	if err := d.Where("id IN ?", ids).Find(&nodes).Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	// Order by depth, which equals position in the path.
	byID := make(map[string]ResponsibleEntity, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	ordered := make([]ResponsibleEntity, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			ordered = append(ordered, n)
		}
	}
	return ordered, nil
}

// Subtree returns the entity and every descendant.
func Subtree(d *gorm.DB, entity *ResponsibleEntity) ([]ResponsibleEntity, error) {
	var nodes []ResponsibleEntity
	if err := d.Where("path LIKE ?", entity.Path+"%").Order("path").Find(&nodes).Error; err != nil {
		return nil, &apperror.IntegrityError{Err: err}
	}
	return nodes, nil
}

// FullPath renders the ancestor names joined with " > ".
func FullPath(d *gorm.DB, entity *ResponsibleEntity) (string, error) {
	chain, err := Ancestors(d, entity)
	if err != nil {
		return "", err
	}
	names := make([]string, len(chain))
	for i, n := range chain {
		names[i] = n.Name
	}
	return strings.Join(names, " > "), nil
}

// GetUser loads a user with assigned entities, ready for the resolver.
func GetUser(d *gorm.DB, id string) (*User, error) {
	var user User
	if err := d.Preload("ResponsibleEntities").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "user", ID: id}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &user, nil
}

func GetOwnerByNameFi(d *gorm.DB, nameFi string) (*Owner, error) {
	var owner Owner
	if err := d.First(&owner, "name_fi = ?", nameFi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "owner", ID: nameFi}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &owner, nil
}

func GetMountTypeByCode(d *gorm.DB, code string) (*MountType, error) {
	var mountType MountType
	if err := d.First(&mountType, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.NotFound{Kind: "mount_type", ID: code}
		}
		return nil, &apperror.IntegrityError{Err: err}
	}
	return &mountType, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
