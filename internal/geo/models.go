package geo

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/EmpoweredVote/fairlending-api/internal/textfold"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/xy"
	"gorm.io/gorm"
)

// SRID of the TIGER/Line shapefiles (NAD83).
const SRID = 4269

// Geography levels. Values are stored in geo_type and accepted by the
// tiles endpoint's geo_types parameter.
const (
	StateType  = 1
	CountyType = 2
	TractType  = 3
	MetroType  = 4
	MicroType  = 5
)

var typeNames = map[int]string{
	StateType:  "State",
	CountyType: "County",
	TractType:  "Census Tract",
	MetroType:  "Metropolitan",
	MicroType:  "Micropolitan",
}

// TypeName returns the display name for a geo_type, "" if unknown.
func TypeName(t int) string { return typeNames[t] }

// ValidType reports whether t is a known geography level.
func ValidType(t int) bool {
	_, ok := typeNames[t]
	return ok
}

var ErrEmptyGeometry = errors.New("geometry has no coordinates")

// Geo is a boundary shape (state, county, tract, metro or micro area) with a
// precomputed bounding box and centroid used for tile lookups.
type Geo struct {
	GeoID      string  `gorm:"column:geoid;primaryKey;size:20" json:"geoid"`
	GeoType    int     `gorm:"index" json:"geo_type"`
	Name       string  `gorm:"size:50" json:"name"`
	SearchName string  `gorm:"size:50;index" json:"-"`
	State      *string `gorm:"size:2;index:idx_geo_state_county" json:"state"`
	County     *string `gorm:"size:3;index:idx_geo_state_county" json:"county"`
	Tract      *string `gorm:"size:6" json:"tract"`
	CSA        *string `gorm:"column:csa;size:3" json:"csa"`
	CBSA       *string `gorm:"column:cbsa;size:5" json:"cbsa"`

	Geom Geometry `gorm:"type:geometry(MultiPolygon,4269)" json:"-"`

	MinLat  float64 `gorm:"column:minlat;index:idx_geo_min" json:"minlat"`
	MaxLat  float64 `gorm:"column:maxlat;index:idx_geo_max" json:"maxlat"`
	MinLon  float64 `gorm:"column:minlon;index:idx_geo_min" json:"minlon"`
	MaxLon  float64 `gorm:"column:maxlon;index:idx_geo_max" json:"maxlon"`
	CentLat float64 `gorm:"column:centlat;index:idx_geo_cent" json:"centlat"`
	CentLon float64 `gorm:"column:centlon;index:idx_geo_cent" json:"centlon"`
}

func (Geo) TableName() string {
	return "geo.geos"
}

func (g Geo) String() string {
	return fmt.Sprintf("%s (%s %s)", g.Name, TypeName(g.GeoType), g.GeoID)
}

// BeforeSave keeps the derived columns in step with the polygon so the
// bounding box always encloses it.
func (g *Geo) BeforeSave(tx *gorm.DB) error {
	return g.SetDerived()
}

// SetDerived recomputes the bounding box and search name. A zero centroid
// falls back to the center of the bounding box.
func (g *Geo) SetDerived() error {
	mp := g.Geom.MultiPolygon
	if mp == nil || mp.Empty() {
		return fmt.Errorf("geo %s: %w", g.GeoID, ErrEmptyGeometry)
	}

	b := mp.Bounds()
	g.MinLon, g.MinLat = b.Min(0), b.Min(1)
	g.MaxLon, g.MaxLat = b.Max(0), b.Max(1)

	if g.CentLat == 0 && g.CentLon == 0 {
		g.CentLat = (g.MinLat + g.MaxLat) / 2
		g.CentLon = (g.MinLon + g.MaxLon) / 2
	}

	g.SearchName = textfold.Fold(g.Name)
	return nil
}

// Bounds is the stored bounding box.
func (g *Geo) Bounds() BBox {
	return BBox{MinLat: g.MinLat, MaxLat: g.MaxLat, MinLon: g.MinLon, MaxLon: g.MaxLon}
}

// ContainsPoint reports whether (lat, lon) falls inside an outer ring of the
// shape. Holes are ignored. Call it after SetDerived.
func (g *Geo) ContainsPoint(lat, lon float64) bool {
	mp := g.Geom.MultiPolygon
	if mp == nil || !g.Bounds().Contains(lat, lon) {
		return false
	}
	pt := geom.Coord{lon, lat}
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 {
			continue
		}
		ring := p.LinearRing(0)
		if xy.IsPointInRing(ring.Layout(), pt, ring.FlatCoords()) {
			return true
		}
	}
	return false
}

// Geometry stores a MultiPolygon in a PostGIS geometry column as hex EWKB.
type Geometry struct {
	*geom.MultiPolygon
}

// NewGeometry promotes polygons to multipolygons and stamps the SRID.
func NewGeometry(t geom.T) (Geometry, error) {
	switch g := t.(type) {
	case *geom.MultiPolygon:
		return Geometry{g.SetSRID(SRID)}, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(g.Layout())
		if err := mp.Push(g); err != nil {
			return Geometry{}, err
		}
		return Geometry{mp.SetSRID(SRID)}, nil
	case nil:
		return Geometry{}, ErrEmptyGeometry
	default:
		return Geometry{}, fmt.Errorf("unsupported geometry %T", t)
	}
}

// Value encodes the geometry as hex EWKB, which PostGIS accepts as text input.
func (g Geometry) Value() (driver.Value, error) {
	if g.MultiPolygon == nil {
		return nil, nil
	}
	b, err := ewkb.Marshal(g.MultiPolygon, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode ewkb: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Scan accepts binary EWKB or its hex text form.
func (g *Geometry) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		g.MultiPolygon = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Geometry", src)
	}

	// binary EWKB starts with a 0x00/0x01 byte-order mark, hex with '0'
	if len(b) > 0 && b[0] == '0' {
		decoded := make([]byte, hex.DecodedLen(len(b)))
		if _, err := hex.Decode(decoded, b); err != nil {
			return fmt.Errorf("decode hex ewkb: %w", err)
		}
		b = decoded
	}

	t, err := ewkb.Unmarshal(b)
	if err != nil {
		return fmt.Errorf("decode ewkb: %w", err)
	}
	ng, err := NewGeometry(t)
	if err != nil {
		return err
	}
	*g = ng
	return nil
}
