package avatar

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedType = errors.New("unsupported avatar file type")

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// Store stages uploads in a temporary directory and moves them into the public avatars directory.
type Store struct {
	dir    string
	tmpDir string
	// URLPrefix is the public path the avatars directory is served under.
	URLPrefix string
}

func NewStore(dir, tmpDir string) (*Store, error) {
	for _, d := range []string{dir, tmpDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	return &Store{dir: dir, tmpDir: tmpDir, URLPrefix: "/avatars"}, nil
}

func (s *Store) Dir() string { return s.dir }

// AllowedFile reports whether filename carries one of the accepted image extensions.
func AllowedFile(filename string) bool {
	_, ok := allowedExt[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Stage copies an upload into the temp directory and returns the temp path.
func (s *Store) Stage(src io.Reader, filename string) (string, error) {
	if !AllowedFile(filename) {
		return "", ErrUnsupportedType
	}

	f, err := os.CreateTemp(s.tmpDir, "upload-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// Placed describes an avatar that now lives in the public directory.
type Placed struct {
	Path string
	URL  string
}

// Place moves a staged file to <dir>/<userID>_<basename>. On failure the staged file is removed.
// The returned URL is path-escaped; Path is the raw file name.
func (s *Store) Place(tmpPath, userID, originalName string) (Placed, error) {
	name := userID + "_" + filepath.Base(originalName)
	dst := filepath.Join(s.dir, name)

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return Placed{}, fmt.Errorf("move avatar: %w", err)
	}

	return Placed{
		Path: dst,
		URL:  s.URLPrefix + "/" + url.PathEscape(name),
	}, nil
}

// Discard removes a staged or placed file, ignoring a missing one.
func (s *Store) Discard(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
