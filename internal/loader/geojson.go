package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/EmpoweredVote/fairlending-api/internal/geo"
	"github.com/twpayne/go-geom/encoding/geojson"
)

var errNotFeatureCollection = errors.New("input is not a GeoJSON FeatureCollection")

// ParseGeoJSON streams the features of a FeatureCollection (as written by
// ogr2ogr from a TIGER/Line shapefile), calling fn with each processed geo.
// Features are decoded one at a time so large state files are not held in
// memory.
func ParseGeoJSON(in io.Reader, fn func(*geo.Geo) error) (int, error) {
	dec := json.NewDecoder(in)

	if err := expectDelim(dec, '{'); err != nil {
		return 0, err
	}

	count := 0
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return count, err
		}
		key, _ := tok.(string)
		if key != "features" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return count, err
			}
			continue
		}

		if err := expectDelim(dec, '['); err != nil {
			return count, err
		}
		for dec.More() {
			var f geojson.Feature
			if err := dec.Decode(&f); err != nil {
				return count, fmt.Errorf("feature %d: %w", count+1, err)
			}
			g, err := geo.ProcessRow(f.Properties, f.Geometry)
			if err != nil {
				return count, fmt.Errorf("feature %d: %w", count+1, err)
			}
			if err := fn(g); err != nil {
				return count, err
			}
			count++
		}
		if err := expectDelim(dec, ']'); err != nil {
			return count, err
		}
	}
	return count, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errNotFeatureCollection
	}
	return nil
}
