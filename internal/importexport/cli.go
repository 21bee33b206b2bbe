package importexport

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cityinfra/asset-registry/internal/config"
	"github.com/cityinfra/asset-registry/internal/devices"
	"github.com/cityinfra/asset-registry/internal/entities"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// CLIConfig drives a one-shot import run outside the server process.
type CLIConfig struct {
	FilePath    string
	DatabaseURL string
	Format      string
	Kind        string
	Variant     string
	UserID      string
	DryRun      bool
}

// Run executes a device import from a file against the given database. The
// format defaults to the file extension.
func Run(cfg CLIConfig) (*Result, error) {
	hint := cfg.Format
	if hint == "" {
		hint = filepath.Ext(cfg.FilePath)
	}
	format, err := ParseFormat(hint)
	if err != nil {
		return nil, err
	}

	appCfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	devices.Configure(appCfg.SRID, appCfg.Bounds)

	f, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.FilePath, err)
	}

	d, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	var user *entities.User
	if cfg.UserID != "" {
		user, err = entities.GetUser(d, cfg.UserID)
		if err != nil {
			return nil, err
		}
	}

	return ImportDevices(d, user, ds, DeviceImportOptions{
		Kind:    devices.Kind(cfg.Kind),
		Variant: devices.Variant(cfg.Variant),
		DryRun:  cfg.DryRun,
	})
}
