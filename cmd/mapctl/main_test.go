package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/EmpoweredVote/fairlending-api/internal/precache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "load-geos", "load-census", "load-hmda", "load-institutions", "precache"} {
		assert.Contains(t, names, want)
	}
}

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"load-geos needs a file", []string{"load-geos"}},
		{"load-census needs two args", []string{"load-census", "race"}},
		{"load-census unknown table", []string{"load-census", "income", "x.csv"}},
		{"migrate takes no args", []string{"migrate", "extra"}},
		{"precache too many args", []string{"precache", "9", "10", "11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseCommandsNeedURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := execute(t, "load-hmda", "lar.csv")
	assert.Error(t, err)
}

func TestZoomRange(t *testing.T) {
	lo, hi, err := zoomRange(nil)
	require.NoError(t, err)
	assert.Equal(t, precache.DefaultMinZoom, lo)
	assert.Equal(t, precache.DefaultMaxZoom, hi)

	lo, hi, err = zoomRange([]string{"10"})
	require.NoError(t, err)
	assert.Equal(t, 10, lo)
	assert.Equal(t, 10, hi)

	lo, hi, err = zoomRange([]string{"9", "11"})
	require.NoError(t, err)
	assert.Equal(t, 9, lo)
	assert.Equal(t, 11, hi)

	_, _, err = zoomRange([]string{"nine"})
	assert.Error(t, err)
}

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("")
	require.NoError(t, err)
	assert.Equal(t, precache.ContinentalUS, box)

	box, err = parseBBox("38.8, -77.1, 39.0, -76.9")
	require.NoError(t, err)
	assert.Equal(t, 38.8, box.MinLat)
	assert.Equal(t, -76.9, box.MaxLon)

	for _, bad := range []string{"1,2,3", "a,b,c,d", "39,-77,38,-76"} {
		_, err := parseBBox(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrecacheCommand(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/shapes/tiles/9/"))
		assert.Equal(t, "tract", r.URL.Query().Get("geo_types"))
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "precache", "9",
		"--base-url", srv.URL,
		"--bbox", "38.9,-77.04,38.9,-77.04",
		"--geo-types", "tract",
		"--rps", "0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
	assert.Contains(t, out, "requested 1 tiles, 0 failed")
}

func TestPrecacheUploadNeedsObjectStore(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	_, err := execute(t, "precache", "9", "--upload", "--bbox", "38.9,-77.04,38.9,-77.04")
	assert.Error(t, err)
}
