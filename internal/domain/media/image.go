package media

import (
	"context"
	"strings"

	"gallery-api/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
)

// ImageRef is the stored reference to an uploaded image, embedded in the
// rows that carry one (artwork image, user picture, featured images).
type ImageRef struct {
	URL      string `gorm:"column:url;size:2048" json:"url,omitempty"`
	PublicID string `gorm:"column:public_id;size:512" json:"public_id,omitempty"`
}

func (r ImageRef) IsZero() bool {
	return r.URL == "" && r.PublicID == ""
}

// ImageStore persists image bytes and returns where they can be fetched.
type ImageStore interface {
	Store(ctx context.Context, name, contentType string, data []byte) (ImageRef, error)
	Delete(ctx context.Context, publicID string) error
}

const MaxImageBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

// DetectImage sniffs data and returns its content type and file extension.
// Anything that is not a supported raster image is rejected.
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", apperr.New(apperr.InvalidInput, "image is empty")
	}
	if len(data) > MaxImageBytes {
		return "", "", apperr.New(apperr.InvalidInput, "image is too large")
	}
	mt := mimetype.Detect(data)
	ct := strings.SplitN(mt.String(), ";", 2)[0]
	if !allowedImageTypes[ct] {
		return "", "", apperr.Newf(apperr.InvalidInput, "unsupported image type %s", ct)
	}
	return ct, mt.Extension(), nil
}
