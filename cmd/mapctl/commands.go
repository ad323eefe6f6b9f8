package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/fairlending-api/internal/app"
	"github.com/EmpoweredVote/fairlending-api/internal/geo"
	"github.com/EmpoweredVote/fairlending-api/internal/loader"
	"github.com/EmpoweredVote/fairlending-api/internal/logging"
	"github.com/EmpoweredVote/fairlending-api/internal/precache"
	"github.com/EmpoweredVote/fairlending-api/internal/source"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create schemas, the PostGIS extension and all tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.database()
			if err != nil {
				return err
			}
			return app.Migrate(d, e.log)
		},
	}
}

// newLoader connects to the database and, when configured, the object
// store.
func (e *env) newLoader(ctx context.Context) (*loader.Loader, error) {
	d, err := e.database()
	if err != nil {
		return nil, err
	}
	var objects source.ObjectStore
	m, err := e.objects(ctx)
	if err != nil {
		return nil, err
	}
	if m != nil {
		objects = m
	}
	return loader.New(d, objects, logging.Module(e.log, "loader")), nil
}

func newLoadGeosCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load-geos FILE",
		Short: "Load boundary shapes from a GeoJSON FeatureCollection",
		Long: `Load states, counties, tracts, metro or micro areas from a GeoJSON
FeatureCollection converted from a TIGER/Line shapefile, e.g.

  ogr2ogr -f GeoJSON tl_2013_11_tract.geojson tl_2013_11_tract.shp
  mapctl load-geos tl_2013_11_tract.geojson

FILE may be a local path or s3://bucket/key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := e.newLoader(cmd.Context())
			if err != nil {
				return err
			}
			n, err := l.LoadGeos(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d geos\n", n)
			return nil
		},
	}
}

func newLoadCensusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "load-census race|households FILE",
		Short:     "Load census race counts or household totals from CSV",
		Args:      cobra.MatchAll(cobra.ExactArgs(2), validCensusKind),
		ValidArgs: []string{"race", "households"},
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := e.newLoader(cmd.Context())
			if err != nil {
				return err
			}

			var n int
			switch args[0] {
			case "race":
				n, err = l.LoadRaceStats(cmd.Context(), args[1])
			case "households":
				n, err = l.LoadHouseholds(cmd.Context(), args[1])
			}
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d %s rows\n", n, args[0])
			return nil
		},
	}
}

func validCensusKind(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "race", "households":
		return nil
	}
	return fmt.Errorf("unknown census table %q (want race or households)", args[0])
}

func newLoadHMDACmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load-hmda FILE",
		Short: "Load a headerless HMDA LAR file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := e.newLoader(cmd.Context())
			if err != nil {
				return err
			}
			n, err := l.LoadHMDA(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d HMDA records\n", n)
			return nil
		},
	}
}

func newLoadInstitutionsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load-institutions FILE",
		Short: "Load the lender list from CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := e.newLoader(cmd.Context())
			if err != nil {
				return err
			}
			n, err := l.LoadInstitutions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("loaded %d institutions\n", n)
			return nil
		},
	}
}

func newPrecacheCmd(e *env) *cobra.Command {
	var (
		baseURL  string
		bbox     string
		geoTypes string
		rps      float64
		workers  int
		upload   bool
	)

	cmd := &cobra.Command{
		Use:   "precache [MIN_ZOOM [MAX_ZOOM]]",
		Short: "Request every tile over an area so caches are warm",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minZoom, maxZoom, err := zoomRange(args)
			if err != nil {
				return err
			}
			box, err := parseBBox(bbox)
			if err != nil {
				return err
			}

			opts := precache.Options{
				BaseURL:  baseURL,
				Box:      box,
				MinZoom:  minZoom,
				MaxZoom:  maxZoom,
				GeoTypes: geoTypes,
				RPS:      rps,
				Workers:  workers,
			}
			if upload {
				m, err := e.objects(cmd.Context())
				if err != nil {
					return err
				}
				if m == nil {
					return fmt.Errorf("--upload needs MINIO_ENDPOINT")
				}
				opts.Objects, opts.Bucket = m, m.Bucket
			}

			p, err := precache.New(opts, nil, logging.Module(e.log, "precache"))
			if err != nil {
				return err
			}
			res, err := p.Run(cmd.Context())
			cmd.Printf("requested %d tiles, %d failed\n", res.Requested, res.Failed)
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5050", "API to request tiles from")
	cmd.Flags().StringVar(&bbox, "bbox", "", "minlat,minlon,maxlat,maxlon (default: continental US)")
	cmd.Flags().StringVar(&geoTypes, "geo-types", "", "geo_types parameter passed to the tiles endpoint")
	cmd.Flags().Float64Var(&rps, "rps", 10, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent requests")
	cmd.Flags().BoolVar(&upload, "upload", false, "Also store tiles in the object store under tiles/z/x/y.json")
	return cmd
}

// zoomRange reads the optional MIN_ZOOM and MAX_ZOOM arguments. A single
// argument precaches just that zoom.
func zoomRange(args []string) (int, int, error) {
	minZoom, maxZoom := precache.DefaultMinZoom, precache.DefaultMaxZoom
	if len(args) > 0 {
		z, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid MIN_ZOOM %q", args[0])
		}
		minZoom, maxZoom = z, z
	}
	if len(args) > 1 {
		z, err := strconv.Atoi(args[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid MAX_ZOOM %q", args[1])
		}
		maxZoom = z
	}
	return minZoom, maxZoom, nil
}

func parseBBox(s string) (geo.BBox, error) {
	if strings.TrimSpace(s) == "" {
		return precache.ContinentalUS, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BBox{}, fmt.Errorf("invalid --bbox %q: want minlat,minlon,maxlat,maxlon", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BBox{}, fmt.Errorf("invalid --bbox %q: %w", s, err)
		}
		v[i] = f
	}
	box := geo.BBox{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	if box.MinLat > box.MaxLat || box.MinLon > box.MaxLon {
		return geo.BBox{}, fmt.Errorf("invalid --bbox %q: min greater than max", s)
	}
	return box, nil
}
