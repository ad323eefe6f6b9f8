package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTileToLatLon(t *testing.T) {
	lat, lon := TileToLatLon(11, 1024, 1024)
	assert.InDelta(t, 0, lat, 1e-9)
	assert.InDelta(t, 0, lon, 1e-9)

	lat, lon = TileToLatLon(0, 0, 0)
	assert.InDelta(t, maxMercatorLat, lat, 1e-9)
	assert.InDelta(t, -180, lon, 1e-9)
}

func TestTileBounds(t *testing.T) {
	// lat/lon roughly 0 to 0.17
	b := TileBounds(11, 1024, 1024)
	assert.InDelta(t, -0.1758, b.MinLat, 1e-3)
	assert.InDelta(t, 0, b.MaxLat, 1e-9)
	assert.InDelta(t, 0, b.MinLon, 1e-9)
	assert.InDelta(t, 0.1758, b.MaxLon, 1e-3)

	// lat/lon roughly -4 to -3.8
	b = TileBounds(11, 1001, 1046)
	assert.InDelta(t, -4.04, b.MinLat, 1e-2)
	assert.InDelta(t, -3.86, b.MaxLat, 1e-2)
	assert.InDelta(t, -4.04, b.MinLon, 1e-2)
	assert.InDelta(t, -3.87, b.MaxLon, 1e-2)
}

func TestValidateTile(t *testing.T) {
	require.NoError(t, ValidateTile(0, 0, 0))
	require.NoError(t, ValidateTile(11, 2047, 2047))

	assert.ErrorIs(t, ValidateTile(-1, 0, 0), ErrInvalidTile)
	assert.ErrorIs(t, ValidateTile(MaxZoom+1, 0, 0), ErrInvalidTile)
	assert.ErrorIs(t, ValidateTile(11, 2048, 0), ErrInvalidTile)
	assert.ErrorIs(t, ValidateTile(11, 0, -1), ErrInvalidTile)
}

func TestBBox(t *testing.T) {
	b := BBox{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}
	assert.True(t, b.Contains(0, 0))
	assert.True(t, b.Contains(0.5, 1))
	assert.False(t, b.Contains(1.1, 0.5))

	assert.True(t, b.Overlaps(BBox{MinLat: 1, MaxLat: 2, MinLon: 1, MaxLon: 2}), "touching corners overlap")
	assert.False(t, b.Overlaps(BBox{MinLat: 1.5, MaxLat: 2, MinLon: 0, MaxLon: 1}))
}

func TestTilesCovering(t *testing.T) {
	tiles := TilesCovering(TileBounds(11, 1024, 1024), 11)
	// edges are shared with neighbours, so the tile itself plus its east,
	// south and south-east neighbours' shared edges resolve to at most 4
	assert.Contains(t, tiles, Tile{Zoom: 11, X: 1024, Y: 1024})
	assert.LessOrEqual(t, len(tiles), 4)

	tiles = TilesCovering(BBox{MinLat: 24.5, MaxLat: 49.4, MinLon: -124.8, MaxLon: -66.9}, 4)
	for _, tile := range tiles {
		require.NoError(t, ValidateTile(tile.Zoom, tile.X, tile.Y))
	}
	assert.Contains(t, tiles, Tile{Zoom: 4, X: 2, Y: 5})
	assert.Equal(t, "4/2/5", Tile{Zoom: 4, X: 2, Y: 5}.String())
}

func TestLatLonToTileContainsPoint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		zoom := rapid.IntRange(0, 18).Draw(t, "zoom")
		lat := rapid.Float64Range(-85, 85).Draw(t, "lat")
		lon := rapid.Float64Range(-180, 179.999).Draw(t, "lon")

		x, y := LatLonToTile(lat, lon, zoom)
		if err := ValidateTile(zoom, x, y); err != nil {
			t.Fatalf("tile out of range: %v", err)
		}

		b := TileBounds(zoom, x, y)
		const eps = 1e-9
		if lat < b.MinLat-eps || lat > b.MaxLat+eps || lon < b.MinLon-eps || lon > b.MaxLon+eps {
			t.Fatalf("(%f, %f) not inside tile %d/%d/%d %+v", lat, lon, zoom, x, y, b)
		}
	})
}

func TestTileBoundsOrdered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		zoom := rapid.IntRange(0, MaxZoom).Draw(t, "zoom")
		n := 1 << uint(zoom)
		x := rapid.IntRange(0, n-1).Draw(t, "x")
		y := rapid.IntRange(0, n-1).Draw(t, "y")

		b := TileBounds(zoom, x, y)
		if !(b.MinLat < b.MaxLat && b.MinLon < b.MaxLon) {
			t.Fatalf("degenerate bounds for %d/%d/%d: %+v", zoom, x, y, b)
		}
	})
}
