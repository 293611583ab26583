package report

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidArchive means the file could not be opened as a zip at all.
	ErrInvalidArchive = errors.New("invalid zip archive")
	// ErrCorruptArchive means the archive opened but a member failed its
	// integrity check.
	ErrCorruptArchive = errors.New("corrupted zip archive")
)

// VerifyArchive opens path as a zip archive and reads every member to
// completion, which forces the per-member CRC32 check. It returns
// ErrInvalidArchive if the file is not a readable zip and
// ErrCorruptArchive if any member fails. The file is left on disk either
// way; rejected uploads are not cleaned up.
func VerifyArchive(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptArchive, f.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptArchive, f.Name, err)
		}
	}

	return nil
}
