package entities

import (
	"strings"
	"time"
)

// OrganizationLevel orders the responsible-entity tree: a parent's level must
// not be below its child's.
type OrganizationLevel string

const (
	LevelDivision OrganizationLevel = "division"
	LevelService  OrganizationLevel = "service"
	LevelUnit     OrganizationLevel = "unit"
	LevelPerson   OrganizationLevel = "person"
	LevelProject  OrganizationLevel = "project"
)

var levelRank = map[OrganizationLevel]int{
	LevelDivision: 1,
	LevelService:  2,
	LevelUnit:     3,
	LevelPerson:   4,
	LevelProject:  5,
}

func (l OrganizationLevel) Rank() int { return levelRank[l] }

func (l OrganizationLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// ResponsibleEntity is one node of the organisational tree. Path is the
// materialised chain of ancestor ids ("/rootID/childID/"), self-inclusive, so
// descendant checks are prefix matches instead of recursive traversals.
type ResponsibleEntity struct {
	ID                string            `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string            `gorm:"uniqueIndex" json:"name"`
	ExternalID        string            `json:"external_id"`
	OrganizationLevel OrganizationLevel `gorm:"default:project" json:"organization_level"`
	ParentID          *string           `gorm:"type:uuid;index" json:"parent_id"`
	Path              string            `gorm:"index" json:"-"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (ResponsibleEntity) TableName() string { return "responsible_entity" }

// IsSelfOrDescendantOf reports whether e is other or sits anywhere below it.
func (e *ResponsibleEntity) IsSelfOrDescendantOf(other *ResponsibleEntity) bool {
	return strings.HasPrefix(e.Path, other.Path)
}

type Owner struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	NameFi string `gorm:"uniqueIndex" json:"name_fi"`
	NameEn string `json:"name_en"`
}

func (Owner) TableName() string { return "owner" }

type MountType struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex" json:"code"`
	Description string `json:"description"`
}

func (MountType) TableName() string { return "mount_type" }

// User references the tree nodes it is allowed to act on. Authentication is
// an external concern; users arrive here already resolved.
type User struct {
	ID                       string              `gorm:"type:uuid;primaryKey" json:"id"`
	Username                 string              `gorm:"uniqueIndex" json:"username"`
	IsSuperuser              bool                `json:"is_superuser"`
	BypassResponsibleEntity  bool                `json:"bypass_responsible_entity"`
	ResponsibleEntities      []ResponsibleEntity `gorm:"many2many:user_responsible_entities;" json:"responsible_entities"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
