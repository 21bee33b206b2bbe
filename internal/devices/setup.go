package devices

import (
	"log"

	"github.com/cityinfra/asset-registry/internal/audit"
	"github.com/cityinfra/asset-registry/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&Device{}, &Plan{}); err != nil {
		log.Fatal("Failed to auto-migrate device tables: ", err)
	}
	if err := audit.Init(db.DB); err != nil {
		log.Fatal("Failed to auto-migrate audit tables: ", err)
	}
}
