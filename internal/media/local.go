package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore writes files into a single flat directory of an afero filesystem.
// References are bare file names.
type LocalStore struct {
	fs  afero.Fs
	dir string
}

func NewLocalStore(fsys afero.Fs, dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{fs: fsys, dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, prefix string, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := newName(prefix, ext)
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validLocalRef(ref) {
		return nil, ErrInvalidReference
	}
	f, err := s.fs.Open(filepath.Join(s.dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func validLocalRef(ref string) bool {
	if ref == "" || ref == "." || ref == ".." {
		return false
	}
	return !strings.ContainsAny(ref, `/\`) && !strings.Contains(ref, "..")
}
