// Package precache walks every map tile over an area so a caching proxy (or
// the object store) holds them before users ask.
package precache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EmpoweredVote/fairlending-api/internal/geo"
	"github.com/EmpoweredVote/fairlending-api/internal/source"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ContinentalUS is the default area to precache.
var ContinentalUS = geo.BBox{MinLat: 24.4, MaxLat: 49.4, MinLon: -124.8, MaxLon: -66.9}

const (
	DefaultMinZoom = geo.MinFeatureZoom
	DefaultMaxZoom = 12
)

type Options struct {
	BaseURL  string
	Box      geo.BBox
	MinZoom  int
	MaxZoom  int
	GeoTypes string

	// RPS caps requests per second; 0 means unlimited.
	RPS     float64
	Workers int

	// Objects, when set, receives every tile body under tiles/z/x/y.json.
	Objects source.ObjectStore
	Bucket  string
}

// Result counts the tiles requested and how many of them failed.
type Result struct {
	Requested int
	Failed    int
}

type Precacher struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func New(opts Options, client *http.Client, log *zap.Logger) (*Precacher, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("precache: base url is required")
	}
	if opts.MinZoom < 0 || opts.MaxZoom > geo.MaxZoom || opts.MinZoom > opts.MaxZoom {
		return nil, fmt.Errorf("precache: invalid zoom range %d..%d", opts.MinZoom, opts.MaxZoom)
	}
	if opts.Box == (geo.BBox{}) {
		opts.Box = ContinentalUS
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Objects != nil && opts.Bucket == "" {
		return nil, fmt.Errorf("precache: object store given without a bucket")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	return &Precacher{
		opts:    opts,
		client:  client,
		limiter: rate.NewLimiter(limit, opts.Workers),
		log:     log,
	}, nil
}

// Tiles lists every tile to fetch, zoom by zoom.
func (p *Precacher) Tiles() []geo.Tile {
	var tiles []geo.Tile
	for z := p.opts.MinZoom; z <= p.opts.MaxZoom; z++ {
		tiles = append(tiles, geo.TilesCovering(p.opts.Box, z)...)
	}
	return tiles
}

// TileURL is the tiles endpoint for t.
func (p *Precacher) TileURL(t geo.Tile) string {
	u := fmt.Sprintf("%s/shapes/tiles/%d/%d/%d", strings.TrimRight(p.opts.BaseURL, "/"), t.Zoom, t.X, t.Y)
	if p.opts.GeoTypes != "" {
		u += "?geo_types=" + url.QueryEscape(p.opts.GeoTypes)
	}
	return u
}

// Run fetches every tile. Individual failures are counted, not returned;
// the error is only set when ctx is cancelled.
func (p *Precacher) Run(ctx context.Context) (Result, error) {
	tiles := p.Tiles()
	p.log.Info("precache starting",
		zap.Int("tiles", len(tiles)),
		zap.Int("min_zoom", p.opts.MinZoom),
		zap.Int("max_zoom", p.opts.MaxZoom))

	jobs := make(chan geo.Tile)
	var requested, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if err := p.limiter.Wait(ctx); err != nil {
					return
				}
				requested.Add(1)
				if err := p.fetch(ctx, t); err != nil {
					failed.Add(1)
					p.log.Warn("tile failed", zap.String("tile", t.String()), zap.Error(err))
				}
			}
		}()
	}

feed:
	for _, t := range tiles {
		select {
		case jobs <- t:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	res := Result{Requested: int(requested.Load()), Failed: int(failed.Load())}
	p.log.Info("precache finished", zap.Int("requested", res.Requested), zap.Int("failed", res.Failed))
	return res, ctx.Err()
}

func (p *Precacher) fetch(ctx context.Context, t geo.Tile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TileURL(t), nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if p.opts.Objects == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("tiles/%d/%d/%d.json", t.Zoom, t.X, t.Y)
	return p.opts.Objects.Put(ctx, p.opts.Bucket, key, bytes.NewReader(body), int64(len(body)), "application/json")
}
