// Package storage reads objects (email templates, static reference data)
// from S3, MinIO or Google Cloud Storage behind one interface.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the bucket has no object under the key.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage reads objects from a bucket.
type Storage interface {
	io.Closer

	// GetObject streams the object; the caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}

// ReadAll fetches a whole object, refusing anything larger than limit bytes.
func ReadAll(ctx context.Context, s Storage, bucket, key string, limit int64) ([]byte, ObjectInfo, error) {
	rc, info, err := s.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if int64(len(data)) > limit {
		return nil, ObjectInfo{}, errors.New("storage: object exceeds size limit")
	}

	return data, info, nil
}
