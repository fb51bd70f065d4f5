package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic streams into a temp file next to path and renames it into place.
// Readers never observe a partially written file.
func WriteAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	fs := API()
	dir := filepath.Dir(path)

	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := fs.TempFile(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err = write(tmp); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return err
	}

	if err = tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = fs.Chmod(tmpName, perm); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err = fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
