package entities

import (
	"log"

	"github.com/cityinfra/asset-registry/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&ResponsibleEntity{}, &Owner{}, &MountType{}, &User{}); err != nil {
		log.Fatal("Failed to auto-migrate entity tables: ", err)
	}
}

// DBUserFetcher resolves acting users from the shared database connection.
type DBUserFetcher struct{}

func (DBUserFetcher) FindUserByID(id string) (*User, error) {
	return GetUser(db.DB, id)
}
