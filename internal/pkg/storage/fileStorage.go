package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
	"github.com/sirupsen/logrus"
)

// FileStorage keeps conversion outputs under a base directory. Names are
// relative and may not escape it.
type FileStorage interface {
	Save(name string, data io.Reader) (string, error)
	Delete(name string) error
	Exists(name string) bool
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) resolve(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("storage: invalid name %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

// Save writes through a temp file so readers never see a partial PNG.
func (s *fileStorage) Save(name string, data io.Reader) (string, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}

func (s *fileStorage) Delete(name string) error {
	fullPath, err := s.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(fullPath)
}

func (s *fileStorage) Exists(name string) bool {
	fullPath, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// SaveFiles stores every packaged file under its own name and returns the
// written paths in order. On failure the files already written are removed
// again so a run leaves either all outputs or none.
func SaveFiles(s FileStorage, files []packager.File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for i, f := range files {
		p, err := s.Save(f.Name, bytes.NewReader(f.Data))
		if err != nil {
			for _, done := range files[:i] {
				if derr := s.Delete(done.Name); derr != nil {
					logrus.WithError(derr).WithField("file", done.Name).Warn("Failed to remove partial output")
				}
			}
			return nil, fmt.Errorf("save %s: %w", f.Name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
