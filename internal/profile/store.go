package profile

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("profile photo exceeds the size limit")
	ErrUnsupportedType = errors.New("profile photo must be a JPEG, PNG or WebP image")
	ErrNotFound        = errors.New("profile photo not found")
)

// extByType maps the sniffed content type to the stored extension. One file
// per user: saving a new photo replaces any previous one regardless of type.
var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store keeps profile photos on the local filesystem, one file per user
// named by user id. The URL prefix is served statically by the HTTP layer.
type Store struct {
	dir      string
	urlBase  string
	maxBytes int64
}

func NewStore(dir, urlBase string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, urlBase: urlBase, maxBytes: maxBytes}, nil
}

// Save validates and persists a photo. The content type is sniffed from the
// file body, never trusted from the client.
func (s *Store) Save(userID string, r io.Reader) error {
	// Read one byte past the limit so oversized uploads are detectable
	// without buffering the whole stream.
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return ErrTooLarge
	}

	ext, ok := extByType[http.DetectContentType(data)]
	if !ok {
		return ErrUnsupportedType
	}

	s.removeAll(userID)

	path := filepath.Join(s.dir, userID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

// PhotoURL returns the public URL of a user's photo, or "" when none exists.
// Satisfies the router's photo resolver.
func (s *Store) PhotoURL(userID string) string {
	for _, ext := range extByType {
		if _, err := os.Stat(filepath.Join(s.dir, userID+ext)); err == nil {
			return s.urlBase + "/" + userID + ext
		}
	}
	return ""
}

// Path returns the filesystem path of a user's photo. The id comes straight
// from a public route parameter, so it is held to UUID syntax before it goes
// anywhere near the filesystem.
func (s *Store) Path(userID string) (string, error) {
	if uuid.Validate(userID) != nil {
		return "", ErrNotFound
	}
	for _, ext := range extByType {
		p := filepath.Join(s.dir, userID+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Delete removes a user's photo. Deleting a missing photo is not an error.
func (s *Store) Delete(userID string) error {
	return s.removeAll(userID)
}

func (s *Store) removeAll(userID string) error {
	var firstErr error
	for _, ext := range extByType {
		err := os.Remove(filepath.Join(s.dir, userID+ext))
		if err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
