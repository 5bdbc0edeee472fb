// Package uploads stages profile picture files on local disk. A staged file
// becomes permanent only when the enclosing profile update commits; on any
// failure the handler removes it as compensation.
package uploads

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	dErrors "profiled/pkg/domain-errors"
)

// allowedTypes maps accepted sniffed content types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Staged is a file written to disk but not yet referenced by any profile.
type Staged struct {
	// Path is the absolute location on disk, used for cleanup.
	Path string
	// Ref is the public URL path stored on the profile.
	Ref string
}

type Manager struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

// NewManager ensures the profiles directory exists under dir.
func NewManager(dir string, maxBytes int64, logger *slog.Logger) (*Manager, error) {
	profilesDir := filepath.Join(dir, "profiles")
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Manager{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Dir returns the root uploads directory for static serving.
func (m *Manager) Dir() string { return m.dir }

// Stage validates and writes one uploaded image to disk. The content type is
// sniffed from the file bytes, not trusted from the request.
func (m *Manager) Stage(fh *multipart.FileHeader) (*Staged, error) {
	if fh.Size > m.maxBytes {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "file too large, maximum size is %dMB", m.maxBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ext, ok := allowedTypes[http.DetectContentType(head[:n])]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "only jpeg, png and webp images are allowed")
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(m.dir, "profiles", name)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, m.maxBytes+1)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &Staged{Path: path, Ref: "/uploads/profiles/" + name}, nil
}

// Remove deletes a staged file. Compensation only: a removal failure is
// logged and swallowed so it never masks the error that triggered it.
func (m *Manager) Remove(s *Staged) {
	if s == nil {
		return
	}
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("staged upload cleanup failed", "path", s.Path, "error", err)
	}
}
