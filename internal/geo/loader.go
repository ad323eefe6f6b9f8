package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

var ErrMissingGeoID = errors.New("feature has no GEOID")

// ProcessRow turns one TIGER/Line shapefile record into a Geo. The kind of
// geography is inferred from which FIPS columns the file carries: tract
// files have TRACTCE, county files COUNTYFP, metro/micro files CBSAFP and
// state files only STATEFP.
func ProcessRow(props map[string]any, g geom.T) (*Geo, error) {
	geoid := propString(props, "GEOID")
	if geoid == "" {
		return nil, ErrMissingGeoID
	}

	shape, err := NewGeometry(g)
	if err != nil {
		return nil, fmt.Errorf("geo %s: %w", geoid, err)
	}

	out := &Geo{
		GeoID: geoid,
		Name:  propString(props, "NAME"),
		Geom:  shape,
	}
	if out.CentLat, err = propFloat(props, "INTPTLAT"); err != nil {
		return nil, fmt.Errorf("geo %s: %w", geoid, err)
	}
	if out.CentLon, err = propFloat(props, "INTPTLON"); err != nil {
		return nil, fmt.Errorf("geo %s: %w", geoid, err)
	}

	switch {
	case hasProp(props, "TRACTCE"):
		out.GeoType = TractType
		out.State = optional(propString(props, "STATEFP"))
		out.County = optional(propString(props, "COUNTYFP"))
		out.Tract = optional(propString(props, "TRACTCE"))
	case hasProp(props, "COUNTYFP"):
		out.GeoType = CountyType
		out.State = optional(propString(props, "STATEFP"))
		out.County = optional(propString(props, "COUNTYFP"))
	case hasProp(props, "CBSAFP"):
		switch lsad := propString(props, "LSAD"); lsad {
		case "M1":
			out.GeoType = MetroType
		case "M2":
			out.GeoType = MicroType
		default:
			return nil, fmt.Errorf("geo %s: unknown LSAD %q", geoid, lsad)
		}
		out.CSA = optional(propString(props, "CSAFP"))
		out.CBSA = optional(propString(props, "CBSAFP"))
	case hasProp(props, "STATEFP"):
		out.GeoType = StateType
		out.State = optional(propString(props, "STATEFP"))
	default:
		return nil, fmt.Errorf("geo %s: cannot infer geography type", geoid)
	}

	if err := out.SetDerived(); err != nil {
		return nil, err
	}
	return out, nil
}

func hasProp(props map[string]any, key string) bool {
	_, ok := props[key]
	return ok
}

func propString(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func propFloat(props map[string]any, key string) (float64, error) {
	switch v := props[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	}
	s := propString(props, key)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
