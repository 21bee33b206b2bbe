package catalogue

import (
	"log"

	"github.com/cityinfra/asset-registry/internal/db"
)

func Init() {
	if err := db.DB.AutoMigrate(&DeviceType{}); err != nil {
		log.Fatal("Failed to auto-migrate catalogue tables: ", err)
	}
}
