package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Minimal valid PNG header; enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func jpegBytes() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0}, 16)...)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "/uploads/profiles", 1024)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestSaveAndResolve(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("user-1", bytes.NewReader(pngBytes)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := s.PhotoURL("user-1"); got != "/uploads/profiles/user-1.png" {
		t.Fatalf("url = %q", got)
	}
	if got := s.PhotoURL("user-2"); got != "" {
		t.Fatalf("expected empty url for unknown user, got %q", got)
	}
}

func TestSave_ReplacesPreviousType(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("user-1", bytes.NewReader(pngBytes)); err != nil {
		t.Fatalf("save png: %v", err)
	}
	if err := s.Save("user-1", bytes.NewReader(jpegBytes())); err != nil {
		t.Fatalf("save jpeg: %v", err)
	}

	if got := s.PhotoURL("user-1"); got != "/uploads/profiles/user-1.jpg" {
		t.Fatalf("url = %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.dir, "user-1.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("old photo should be removed, stat err = %v", err)
	}
}

func TestSave_RejectsUnsupportedType(t *testing.T) {
	s := newTestStore(t)

	err := s.Save("user-1", bytes.NewReader([]byte("GIF89a not allowed here")))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v", err)
	}
}

func TestSave_RejectsOversized(t *testing.T) {
	s := newTestStore(t)

	big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 2048)...)
	if err := s.Save("user-1", bytes.NewReader(big)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v", err)
	}
}

func TestPath_RequiresUUIDIdentifier(t *testing.T) {
	s := newTestStore(t)
	const id = "66666666-6666-4666-8666-666666666666"

	if err := s.Save(id, bytes.NewReader(pngBytes)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Path(id); err != nil {
		t.Fatalf("path: %v", err)
	}

	for _, bad := range []string{"../../etc/passwd", "user-1", ""} {
		if _, err := s.Path(bad); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Path(%q) err = %v", bad, err)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("user-1", bytes.NewReader(pngBytes)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete("user-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.PhotoURL("user-1"); got != "" {
		t.Fatalf("expected photo gone, got %q", got)
	}
	if err := s.Delete("user-1"); err != nil {
		t.Fatalf("double delete should be a no-op, got %v", err)
	}
}
