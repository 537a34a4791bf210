package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"climblog/internal/shared/fname"
)

var (
	ErrNoFile      = errors.New("no file selected")
	ErrInvalidType = errors.New("invalid file type")
	ErrNotFound    = errors.New("file not found")
)

var allowedExt = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true}

// PhotoSetter records an uploaded filename on one of the user's logs.
type PhotoSetter interface {
	SetPhoto(ctx context.Context, userID, reviewID, filename string) error
}

type Service struct {
	dir  string
	logs PhotoSetter
}

func NewService(dir string, logs PhotoSetter) *Service {
	return &Service{dir: dir, logs: logs}
}

// Accept validates an uploaded file name and returns the name it is stored under.
func (s *Service) Accept(name string) (string, error) {
	if fname.Base(name) == "" {
		return "", ErrNoFile
	}
	safe := fname.Secure(name)
	if safe == "" || !allowedExt[fname.Ext(safe)] {
		return "", ErrInvalidType
	}
	return safe, nil
}

// Destination returns where a stored file lives, creating the upload dir on first use.
func (s *Service) Destination(filename string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filename), nil
}

// Lookup resolves a stored file for download. Names that would leave the
// upload dir are reported as missing.
func (s *Service) Lookup(filename string) (string, error) {
	if filename == "" || fname.Secure(filename) != filename {
		return "", ErrNotFound
	}
	p := filepath.Join(s.dir, filename)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}

func (s *Service) Attach(ctx context.Context, userID, reviewID, filename string) error {
	return s.logs.SetPhoto(ctx, userID, reviewID, filename)
}
