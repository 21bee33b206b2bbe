package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cityinfra/asset-registry/internal/apperror"
)

// Point is a 3-D point in the configured projected CRS.
type Point struct {
	X float64
	Y float64
	Z float64
}

// EWKT renders the point as extended well-known text with the SRID prefix,
// e.g. "SRID=3879;POINT Z (25496751 6673129 1.5)".
func (p Point) EWKT(srid int) string {
	return fmt.Sprintf("SRID=%d;POINT Z (%s %s %s)",
		srid, formatCoord(p.X), formatCoord(p.Y), formatCoord(p.Z))
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseEWKT parses "SRID=n;POINT Z (x y z)". The SRID prefix and the Z
// dimension are both optional; a 2-D point gets Z=0.
func ParseEWKT(s string) (Point, int, error) {
	var srid int
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "SRID="); ok {
		semi := strings.Index(rest, ";")
		if semi < 0 {
			return Point{}, 0, fmt.Errorf("malformed EWKT %q", s)
		}
		n, err := strconv.Atoi(rest[:semi])
		if err != nil {
			return Point{}, 0, fmt.Errorf("malformed SRID in %q", s)
		}
		srid = n
		s = strings.TrimSpace(rest[semi+1:])
	}

	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "POINT") {
		return Point{}, 0, fmt.Errorf("unsupported geometry %q", s)
	}
	open := strings.Index(s, "(")
	close := strings.LastIndex(s, ")")
	if open < 0 || close < open {
		return Point{}, 0, fmt.Errorf("malformed point %q", s)
	}

	fields := strings.Fields(s[open+1 : close])
	if len(fields) != 2 && len(fields) != 3 {
		return Point{}, 0, fmt.Errorf("point %q must have 2 or 3 coordinates", s)
	}

	coords := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Point{}, 0, fmt.Errorf("invalid coordinate %q in %q", f, s)
		}
		coords[i] = v
	}

	p := Point{X: coords[0], Y: coords[1]}
	if len(coords) == 3 {
		p.Z = coords[2]
	}
	return p, srid, nil
}

// BoundingBox is the rectangle gating all device geometries.
type BoundingBox struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Contains reports whether the point lies inside the box. Edges are inclusive.
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.XMin && p.X <= b.XMax && p.Y >= b.YMin && p.Y <= b.YMax
}

// Check returns a field-level validation error when the point falls outside
// the box.
func (b BoundingBox) Check(p Point) error {
	if b.Contains(p) {
		return nil
	}
	return apperror.NewValidation("location", fmt.Sprintf(
		"point (%s %s) is outside the permitted area [%s %s, %s %s]",
		formatCoord(p.X), formatCoord(p.Y),
		formatCoord(b.XMin), formatCoord(b.YMin), formatCoord(b.XMax), formatCoord(b.YMax)))
}
