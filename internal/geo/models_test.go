package geo

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func square(minLon, minLat, maxLon, maxLat float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minLon, minLat}, {minLon, maxLat}, {maxLon, maxLat}, {maxLon, minLat}, {minLon, minLat},
	}})
}

func mustGeometry(t *testing.T, g geom.T) Geometry {
	t.Helper()
	out, err := NewGeometry(g)
	require.NoError(t, err)
	return out
}

func TestNewGeometryPromotesPolygon(t *testing.T) {
	g := mustGeometry(t, square(0, 0, 1, 1))
	require.NotNil(t, g.MultiPolygon)
	assert.Equal(t, 1, g.NumPolygons())
	assert.Equal(t, SRID, g.SRID())

	_, err := NewGeometry(nil)
	assert.ErrorIs(t, err, ErrEmptyGeometry)

	_, err = NewGeometry(geom.NewPointFlat(geom.XY, []float64{1, 2}))
	assert.Error(t, err)
}

func TestGeometryValueScan(t *testing.T) {
	in := mustGeometry(t, square(-1, 0, 0, 2))

	v, err := in.Value()
	require.NoError(t, err)
	hexText, ok := v.(string)
	require.True(t, ok, "expected hex text, got %T", v)

	var fromHex Geometry
	require.NoError(t, fromHex.Scan(hexText))
	assert.Equal(t, in.FlatCoords(), fromHex.FlatCoords())
	assert.Equal(t, SRID, fromHex.SRID())

	raw, err := ewkb.Marshal(in.MultiPolygon, binary.BigEndian)
	require.NoError(t, err)
	var fromBinary Geometry
	require.NoError(t, fromBinary.Scan(raw))
	assert.Equal(t, in.FlatCoords(), fromBinary.FlatCoords())

	var empty Geometry
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty.MultiPolygon)
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, empty.Scan(42))
}

func TestSetDerived(t *testing.T) {
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(square(-1, 0, 0, 2)))
	require.NoError(t, mp.Push(square(-6, -2, -2, -1)))

	g := &Geo{GeoID: "11222", Name: "Doña Ana  County", Geom: mustGeometry(t, mp)}
	require.NoError(t, g.SetDerived())

	assert.Equal(t, -6.0, g.MinLon)
	assert.Equal(t, 0.0, g.MaxLon)
	assert.Equal(t, -2.0, g.MinLat)
	assert.Equal(t, 2.0, g.MaxLat)
	// no centroid given, so the bbox center is used
	assert.Equal(t, 0.0, g.CentLat)
	assert.Equal(t, -3.0, g.CentLon)
	assert.Equal(t, "dona ana county", g.SearchName)
}

func TestSetDerivedKeepsCentroid(t *testing.T) {
	g := &Geo{GeoID: "1", Geom: mustGeometry(t, square(0, 0, 1, 1)), CentLat: -45, CentLon: 45}
	require.NoError(t, g.SetDerived())
	assert.Equal(t, -45.0, g.CentLat)
	assert.Equal(t, 45.0, g.CentLon)
}

func TestSetDerivedEmpty(t *testing.T) {
	g := &Geo{GeoID: "1"}
	assert.ErrorIs(t, g.SetDerived(), ErrEmptyGeometry)
}

func TestContainsPoint(t *testing.T) {
	g := &Geo{Geom: mustGeometry(t, square(0, 0, 2, 2))}
	require.NoError(t, g.SetDerived())
	assert.True(t, g.ContainsPoint(1, 1))
	assert.False(t, g.ContainsPoint(3, 1))
	assert.False(t, (&Geo{}).ContainsPoint(1, 1))

	// inside the bounding box but outside the triangle
	tri := &Geo{Geom: mustGeometry(t, geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
		{{{0, 0}, {0, 2}, {2, 2}, {0, 0}}},
	}))}
	require.NoError(t, tri.SetDerived())
	assert.Equal(t, BBox{MinLat: 0, MaxLat: 2, MinLon: 0, MaxLon: 2}, tri.Bounds())
	assert.True(t, tri.ContainsPoint(1.5, 0.5))
	assert.False(t, tri.ContainsPoint(0.5, 1.5))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Census Tract", TypeName(TractType))
	assert.Equal(t, "", TypeName(99))
	assert.True(t, ValidType(MicroType))
	assert.False(t, ValidType(0))
}
