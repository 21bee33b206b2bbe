package seeds

import (
	"errors"
	"fmt"
	"log"

	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/db"
	"github.com/cityinfra/asset-registry/internal/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SeedAll() error {
	if err := SeedOwners(); err != nil {
		return err
	}
	if err := SeedMountTypes(); err != nil {
		return err
	}
	if err := SeedResponsibleEntities(); err != nil {
		return err
	}
	if err := SeedDeviceTypes(); err != nil {
		return err
	}
	return nil
}

func SeedOwners() error {
	owners := []entities.Owner{
		{NameFi: "Helsingin kaupunki", NameEn: "City of Helsinki"},
		{NameFi: "Väylävirasto", NameEn: "Finnish Transport Infrastructure Agency"},
		{NameFi: "Yksityinen", NameEn: "Private"},
	}

	for _, owner := range owners {
		var existing entities.Owner
		err := db.DB.First(&existing, "name_fi = ?", owner.NameFi).Error
		if err == nil {
			log.Printf("Owner exists, skipping: %s", owner.NameFi)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("DB error on owner %s: %w", owner.NameFi, err)
		}

		owner.ID = uuid.NewString()
		if err := db.DB.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to seed owner %s: %w", owner.NameFi, err)
		}
	}
	return nil
}

func SeedMountTypes() error {
	mountTypes := []entities.MountType{
		{Code: "POST", Description: "Post"},
		{Code: "WALL", Description: "Wall"},
		{Code: "PORTAL", Description: "Portal"},
		{Code: "LIGHTPOLE", Description: "Light pole"},
	}

	for _, mountType := range mountTypes {
		var existing entities.MountType
		err := db.DB.First(&existing, "code = ?", mountType.Code).Error
		if err == nil {
			log.Printf("Mount type exists, skipping: %s", mountType.Code)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("DB error on mount type %s: %w", mountType.Code, err)
		}

		mountType.ID = uuid.NewString()
		if err := db.DB.Create(&mountType).Error; err != nil {
			return fmt.Errorf("failed to seed mount type %s: %w", mountType.Code, err)
		}
	}
	return nil
}

// SeedResponsibleEntities creates a small starting tree: one division with a
// service and two units under it.
func SeedResponsibleEntities() error {
	type node struct {
		name   string
		level  entities.OrganizationLevel
		parent string
	}
	tree := []node{
		{"Kaupunkiympäristö", entities.LevelDivision, ""},
		{"Liikenteenohjaus", entities.LevelService, "Kaupunkiympäristö"},
		{"Liikennemerkit", entities.LevelUnit, "Liikenteenohjaus"},
		{"Liikennevalot", entities.LevelUnit, "Liikenteenohjaus"},
	}

	for _, n := range tree {
		if _, err := entities.GetEntityByName(db.DB, n.name); err == nil {
			log.Printf("Responsible entity exists, skipping: %s", n.name)
			continue
		}

		entity := &entities.ResponsibleEntity{Name: n.name, OrganizationLevel: n.level}
		if n.parent != "" {
			parent, err := entities.GetEntityByName(db.DB, n.parent)
			if err != nil {
				return fmt.Errorf("parent %s not found for %s: %w", n.parent, n.name, err)
			}
			entity.ParentID = &parent.ID
		}
		if err := entities.CreateEntity(db.DB, entity); err != nil {
			return fmt.Errorf("failed to seed responsible entity %s: %w", n.name, err)
		}
	}
	return nil
}

// SeedDeviceTypes loads a handful of catalogue entries, including one
// additional-sign type with a content schema.
func SeedDeviceTypes() error {
	additionalSign := catalogue.TargetAdditionalSign
	trafficSign := catalogue.TargetTrafficSign

	str := func(s string) *string { return &s }
	types := []catalogue.TypeFields{
		{Code: str("A11"), Description: str("Road work"), TargetModel: &trafficSign},
		{Code: str("C32"), Description: str("Speed limit"), TargetModel: &trafficSign},
		{Code: str("H17.1"), Description: str("Time limit"), TargetModel: &additionalSign,
			ContentSchema: map[string]any{
				"type":                 "object",
				"required":             []any{"limit", "unit"},
				"additionalProperties": false,
				"properties": map[string]any{
					"limit": map[string]any{"type": "integer", "propertyOrder": 1},
					"unit":  map[string]any{"type": "string", "propertyOrder": 2},
				},
			}},
	}

	for _, fields := range types {
		if _, err := catalogue.GetTypeByCode(db.DB, *fields.Code); err == nil {
			log.Printf("Device type exists, skipping: %s", *fields.Code)
			continue
		}
		if _, err := catalogue.CreateType(db.DB, fields); err != nil {
			return fmt.Errorf("failed to seed device type %s: %w", *fields.Code, err)
		}
	}
	return nil
}
