package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/EmpoweredVote/fairlending-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	b, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStore) Put(_ context.Context, bucket, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = b
	return nil
}

func TestParseS3(t *testing.T) {
	bucket, key, ok := ParseS3("s3://census/2010/race.csv")
	require.True(t, ok)
	assert.Equal(t, "census", bucket)
	assert.Equal(t, "2010/race.csv", key)

	for _, ref := range []string{"census/race.csv", "s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, ok := ParseS3(ref)
		assert.False(t, ok, ref)
	}
}

func TestOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "households.csv")
	require.NoError(t, os.WriteFile(path, []byte("geoid,total\n"), 0o644))

	rc, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "geoid,total\n", string(b))

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenObjectStore(t *testing.T) {
	store := &memStore{objects: map[string][]byte{"census/race.csv": []byte("a,b")}}

	rc, err := Open(context.Background(), "s3://census/race.csv", store)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "a,b", string(b))

	_, err = Open(context.Background(), "s3://census/missing.csv", store)
	assert.Error(t, err)

	_, err = Open(context.Background(), "s3://census/race.csv", nil)
	assert.ErrorIs(t, err, ErrNoObjectStore)

	_, err = Open(context.Background(), "s3://census", store)
	assert.Error(t, err)
}

func TestNewMinIOValidation(t *testing.T) {
	_, err := NewMinIO(context.Background(), config.MinIOConfig{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewMinIO(context.Background(), config.MinIOConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "credentials are required")

	// no bucket means no network round trip
	m, err := NewMinIO(context.Background(), config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Empty(t, m.Bucket)
}
