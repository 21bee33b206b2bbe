package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cityinfra/asset-registry/internal/geometry"
)

// Config carries process-wide settings read from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	SRID        int
	Bounds      geometry.BoundingBox
	Language    string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
}

// Helsinki defaults: GK25FIN projected CRS and the city's rough extent.
const (
	DefaultSRID = 3879

	defaultXMin = 25440000
	defaultYMin = 6630000
	defaultXMax = 25571000
	defaultYMax = 6740000
)

func Load() (*Config, error) {
	cfg := &Config{
		Port:        envOr("PORT", "5050"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SRID:        DefaultSRID,
		Language:    envOr("LANGUAGE", "fi"),
		Bounds: geometry.BoundingBox{
			XMin: defaultXMin,
			YMin: defaultYMin,
			XMax: defaultXMax,
			YMax: defaultYMax,
		},
		DBMaxOpenConns:    20,
		DBMaxIdleConns:    20,
		DBConnMaxLifetime: 30 * time.Minute,
	}

	if v := os.Getenv("SRID"); v != "" {
		srid, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SRID %q: %w", v, err)
		}
		cfg.SRID = srid
	}

	for _, b := range []struct {
		env string
		dst *float64
	}{
		{"BBOX_X_MIN", &cfg.Bounds.XMin},
		{"BBOX_Y_MIN", &cfg.Bounds.YMin},
		{"BBOX_X_MAX", &cfg.Bounds.XMax},
		{"BBOX_Y_MAX", &cfg.Bounds.YMax},
	} {
		if v := os.Getenv(b.env); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", b.env, v, err)
			}
			*b.dst = f
		}
	}

	for _, n := range []struct {
		env string
		dst *int
	}{
		{"DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns},
		{"DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns},
	} {
		if v := os.Getenv(n.env); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", n.env, v, err)
			}
			*n.dst = i
		}
	}
	if v := os.Getenv("DB_CONN_MAX_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", v, err)
		}
		cfg.DBConnMaxLifetime = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
