// Package report implements the on-disk store for received diagnostic
// reports: a date-partitioned directory tree under a single root, with
// timestamped filenames and optional sibling description notes.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Store writes reports under Root as {Root}/{YYYY-MM-DD}/{HHMMSS}_{name}.
// Now is the clock used for bucketing and stamps; tests fix it to assert
// exact paths.
type Store struct {
	Root string
	Now  func() time.Time
}

// NewStore returns a Store rooted at dir using the wall clock.
func NewStore(dir string) *Store {
	return &Store{Root: dir, Now: time.Now}
}

// Saved describes one stored report. Stamp is the HHMMSS prefix shared
// with the report's optional description file.
type Saved struct {
	// Path is the final location of the report file.
	Path string
	// Dir is the date bucket the report landed in.
	Dir string
	// Stamp is the HHMMSS portion of the filename.
	Stamp string
	// Name is the sanitized filename, without the stamp prefix.
	Name string
	// Size is the number of bytes written.
	Size int64
}

// Save persists the full content of r under today's date bucket. The
// filename is sanitized before use. The clock is read exactly once, so a
// report and its description always share one stamp.
//
// Content is buffered to a temporary file in the destination directory
// and renamed into place, so a partially received body never becomes
// visible at the final path. Two same-named saves within the same second
// target the same path and the rename makes the last writer win; callers
// accept that race.
func (s *Store) Save(filename string, r io.Reader) (*Saved, error) {
	now := s.Now()

	dir := filepath.Join(s.Root, now.Format("2006-01-02"))
	// MkdirAll treats "already exists" as success, which keeps concurrent
	// first-uploads of the day from racing each other.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create date bucket: %w", err)
	}

	saved := &Saved{
		Dir:   dir,
		Stamp: now.Format("150405"),
		Name:  SanitizeFilename(filename),
	}
	saved.Path = filepath.Join(dir, saved.Stamp+"_"+saved.Name)

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	saved.Size, err = io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), saved.Path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("finalize report: %w", err)
	}

	return saved, nil
}

// SaveDescription writes text verbatim as UTF-8 to the report's sibling
// {HHMMSS}_desc.txt and returns the path written.
func (s *Store) SaveDescription(saved *Saved, text string) (string, error) {
	path := filepath.Join(saved.Dir, saved.Stamp+"_desc.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write description: %w", err)
	}
	return path, nil
}
