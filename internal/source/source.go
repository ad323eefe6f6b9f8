// Package source opens loader inputs from local disk or an S3-compatible
// object store, and writes artifacts back to the store.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrNoObjectStore = errors.New("s3:// input given but no object store is configured")

// ObjectStore reads and writes objects in an S3-compatible backend.
type ObjectStore interface {
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// ParseS3 splits "s3://bucket/key/path" into bucket and key.
func ParseS3(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Open returns a reader for a local path or an s3://bucket/key reference.
// store may be nil when only local files are used.
func Open(ctx context.Context, ref string, store ObjectStore) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, "s3://") {
		bucket, key, ok := ParseS3(ref)
		if !ok {
			return nil, fmt.Errorf("invalid object reference %q", ref)
		}
		if store == nil {
			return nil, ErrNoObjectStore
		}
		rc, err := store.Get(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", ref, err)
		}
		return rc, nil
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	return f, nil
}
