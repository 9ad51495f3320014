// Package storage keeps uploaded images in Google Cloud Storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gallery-api/internal/domain/media"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*gcs.Client, error) {
	if credsPath == "" {
		return gcs.NewClient(ctx)
	}
	return gcs.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

func NewGCSStore(client *gcs.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Store uploads data under a fresh object name derived from name and
// returns the public URL and object path.
func (s *GCSStore) Store(ctx context.Context, name, contentType string, data []byte) (media.ImageRef, error) {
	objectPath := s.objectPath(name)
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // small files, single request
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return media.ImageRef{}, err
	}
	if err := wc.Close(); err != nil {
		return media.ImageRef{}, err
	}
	return media.ImageRef{URL: PublicURL(s.bucket, objectPath), PublicID: objectPath}, nil
}

func (s *GCSStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) objectPath(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(path.Base(name), ext)
	file := uuid.NewString() + ext
	if base != "" && base != "." && base != "/" {
		file = base + "-" + file
	}
	if s.prefix == "" {
		return file
	}
	return s.prefix + "/" + file
}

// PublicURL builds a public URL for an object (assuming public read access)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
