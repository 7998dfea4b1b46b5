// Package media stores complaint evidence images and hands back an opaque
// reference that is persisted on the complaint.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("media not found")
	ErrInvalidReference = errors.New("invalid media reference")
)

const AfterImagePrefix = "after_"

// Store persists image bytes. Save returns the reference that Open accepts.
type Store interface {
	Save(ctx context.Context, prefix string, data []byte, ext string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Upload is an image received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// Ext is the sanitized extension of the uploaded filename, dot included.
func (u *Upload) Ext() string {
	if u == nil {
		return ""
	}
	return SanitizeExt(filepath.Ext(u.Filename))
}

// SanitizeExt keeps a short alphanumeric extension and drops anything else.
func SanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}

func newName(prefix, ext string) string {
	return prefix + uuid.NewString() + SanitizeExt(ext)
}
