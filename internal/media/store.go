// Package media stores uploaded recipe images under the media root.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/models"
)

const (
	// RecipeImageDir is the directory, relative to the media root, that
	// holds recipe images.
	RecipeImageDir = "uploads/recipe"

	// URLPrefix is where the media root is served.
	URLPrefix = "/media/"

	// DirMode is the permission applied to created volume directories.
	DirMode os.FileMode = 0o755

	fileMode os.FileMode = 0o644
)

// allowedTypes maps sniffed content types to stored file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Store writes and removes files below a media root.
type Store struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
}

// NewStore creates a Store rooted at root that accepts uploads of at most
// maxBytes.
func NewStore(root string, maxBytes int64, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		root:     root,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// MaxBytes returns the upload size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// SaveRecipeImage validates r as a JPEG, PNG or GIF and writes it under
// RecipeImageDir with a random name. It returns the path relative to the
// media root.
func (s *Store) SaveRecipeImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", models.ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return "", models.ErrInvalidImage
	}

	ext, ok := allowedTypes[mimetype.Detect(data).String()]
	if !ok {
		return "", models.ErrInvalidImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", models.ErrInvalidImage
	}

	dir := filepath.Join(s.root, filepath.FromSlash(RecipeImageDir))
	if err := EnsureDirs(dir); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
		return "", err
	}

	return path.Join(RecipeImageDir, name), nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", rel, err)
	}
	return nil
}

// RemoveQuietly removes rel and logs, rather than returns, any failure.
func (s *Store) RemoveQuietly(rel string) {
	if err := s.Remove(rel); err != nil {
		s.logger.Warn("failed to remove media file", zap.String(logging.FieldImagePath, rel), zap.Error(err))
	}
}

// URL returns the public URL of a stored file, or "" for no file.
func URL(rel string) string {
	if rel == "" {
		return ""
	}
	return URLPrefix + strings.TrimPrefix(rel, "/")
}

// resolve maps a relative media path to a filesystem path inside root.
func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	root := filepath.Clean(s.root)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("media path %q escapes root", rel)
	}
	return full, nil
}

// EnsureDirs creates each directory, with parents, and sets it to DirMode.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		// MkdirAll is subject to the umask.
		if err := os.Chmod(dir, DirMode); err != nil {
			return fmt.Errorf("chmod %s: %w", dir, err)
		}
	}
	return nil
}

func writeFileAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod upload: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}
