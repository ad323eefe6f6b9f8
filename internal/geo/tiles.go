package geo

import (
	"errors"
	"fmt"
	"math"
)

// MaxZoom is the deepest slippy-map zoom level served.
const MaxZoom = 22

// MinFeatureZoom is the first zoom at which tracts are returned by default;
// shallower tiles cover too much ground to ship tract polygons.
const MinFeatureZoom = 9

// maxMercatorLat is the latitude limit of the web mercator projection.
const maxMercatorLat = 85.0511287798066

var ErrInvalidTile = errors.New("invalid tile coordinates")

// BBox is a latitude/longitude bounding box in degrees.
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Overlaps reports whether two boxes share any point.
func (b BBox) Overlaps(o BBox) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat &&
		b.MinLon <= o.MaxLon && b.MaxLon >= o.MinLon
}

// TileToLatLon returns the north-west corner of a slippy-map tile.
func TileToLatLon(zoom, xtile, ytile int) (lat, lon float64) {
	n := math.Exp2(float64(zoom))
	lon = float64(xtile)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(ytile)/n)))
	lat = latRad * 180.0 / math.Pi
	return lat, lon
}

// TileBounds returns the area covered by a tile.
func TileBounds(zoom, xtile, ytile int) BBox {
	nwLat, nwLon := TileToLatLon(zoom, xtile, ytile)
	seLat, seLon := TileToLatLon(zoom, xtile+1, ytile+1)
	return BBox{MinLat: seLat, MaxLat: nwLat, MinLon: nwLon, MaxLon: seLon}
}

// LatLonToTile returns the tile containing a point. Latitudes beyond the
// mercator limit are clamped to the edge rows.
func LatLonToTile(lat, lon float64, zoom int) (xtile, ytile int) {
	n := math.Exp2(float64(zoom))
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	latRad := lat * math.Pi / 180.0

	x := math.Floor((lon + 180.0) / 360.0 * n)
	y := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)

	last := n - 1
	return int(math.Max(0, math.Min(last, x))), int(math.Max(0, math.Min(last, y)))
}

// ValidateTile checks zoom and tile indexes are in range.
func ValidateTile(zoom, xtile, ytile int) error {
	if zoom < 0 || zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d", ErrInvalidTile, zoom)
	}
	n := 1 << uint(zoom)
	if xtile < 0 || xtile >= n || ytile < 0 || ytile >= n {
		return fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, zoom, xtile, ytile)
	}
	return nil
}

// Tile addresses one slippy-map tile.
type Tile struct {
	Zoom, X, Y int
}

func (t Tile) String() string { return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y) }

// TilesCovering lists, row by row, every tile at zoom that intersects box.
func TilesCovering(box BBox, zoom int) []Tile {
	minX, minY := LatLonToTile(box.MaxLat, box.MinLon, zoom)
	maxX, maxY := LatLonToTile(box.MinLat, box.MaxLon, zoom)

	tiles := make([]Tile, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, Tile{Zoom: zoom, X: x, Y: y})
		}
	}
	return tiles
}
