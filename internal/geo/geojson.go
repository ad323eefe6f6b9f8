package geo

import "encoding/json"

// Properties are the attributes attached to every boundary feature.
type Properties struct {
	GeoID       string  `json:"geoid"`
	GeoType     int     `json:"geoType"`
	GeoTypeName string  `json:"geoTypeName"`
	Name        string  `json:"name"`
	State       *string `json:"state"`
	County      *string `json:"county"`
	Tract       *string `json:"tract"`
	CSA         *string `json:"csa"`
	CBSA        *string `json:"cbsa"`
	MinLat      float64 `json:"minlat"`
	MaxLat      float64 `json:"maxlat"`
	MinLon      float64 `json:"minlon"`
	MaxLon      float64 `json:"maxlon"`
	CentLat     float64 `json:"centlat"`
	CentLon     float64 `json:"centlon"`
}

// Feature is a GeoJSON feature whose geometry was serialized by PostGIS and
// is passed through untouched.
type Feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties Properties      `json:"properties"`
}

// FeatureCollection is the tiles endpoint's response body.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection never encodes features as null.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// FeatureRow is one geo as read for serialization: the scalar columns plus
// the simplified geometry already rendered as GeoJSON.
type FeatureRow struct {
	GeoID    string  `gorm:"column:geoid"`
	GeoType  int     `gorm:"column:geo_type"`
	Name     string  `gorm:"column:name"`
	State    *string `gorm:"column:state"`
	County   *string `gorm:"column:county"`
	Tract    *string `gorm:"column:tract"`
	CSA      *string `gorm:"column:csa"`
	CBSA     *string `gorm:"column:cbsa"`
	MinLat   float64 `gorm:"column:minlat"`
	MaxLat   float64 `gorm:"column:maxlat"`
	MinLon   float64 `gorm:"column:minlon"`
	MaxLon   float64 `gorm:"column:maxlon"`
	CentLat  float64 `gorm:"column:centlat"`
	CentLon  float64 `gorm:"column:centlon"`
	Geometry *string `gorm:"column:geometry"`
}

// Feature converts the row. A missing geometry is encoded as null.
func (r FeatureRow) Feature() Feature {
	geometry := json.RawMessage("null")
	if r.Geometry != nil && *r.Geometry != "" {
		geometry = json.RawMessage(*r.Geometry)
	}
	return Feature{
		Type:     "Feature",
		Geometry: geometry,
		Properties: Properties{
			GeoID:       r.GeoID,
			GeoType:     r.GeoType,
			GeoTypeName: TypeName(r.GeoType),
			Name:        r.Name,
			State:       r.State,
			County:      r.County,
			Tract:       r.Tract,
			CSA:         r.CSA,
			CBSA:        r.CBSA,
			MinLat:      r.MinLat,
			MaxLat:      r.MaxLat,
			MinLon:      r.MinLon,
			MaxLon:      r.MaxLon,
			CentLat:     r.CentLat,
			CentLon:     r.CentLon,
		},
	}
}
