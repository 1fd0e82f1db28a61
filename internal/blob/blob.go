// Package blob manages the per-job and per-payload working directories
// both roles use to hold uploaded inputs and produced result archives.
package blob

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ResultArchiveName is the fixed filename of the result archive written
// into a job/payload's working directory, so repeated retrieval overwrites
// cleanly (spec §4.3 edge cases).
const ResultArchiveName = "result.zip"

// NewDir creates a fresh UUID-named directory under base and returns its
// absolute path (spec §6.4: "DATA_PATH/{uuid}/...").
func NewDir(base string) (string, error) {
	dir, err := filepath.Abs(filepath.Join(base, uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("blob: resolve dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob: create dir: %w", err)
	}
	return dir, nil
}

// SanitizeFilename strips directory components and traversal sequences,
// returning a bare basename safe to join under a working directory.
func SanitizeFilename(name string) string {
	base := filepath.Base(filepath.Clean(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "file"
	}
	return base
}

// WriteFile writes src to a sanitized path under dir, using an all-or-
// nothing discipline: callers are expected to remove dir on any error to
// avoid leaving a partially written directory (spec §4.1, §4.6).
func WriteFile(dir, filename string, src io.Reader) error {
	clean := SanitizeFilename(filename)
	dst, err := os.Create(filepath.Join(dir, clean))
	if err != nil {
		return fmt.Errorf("blob: create file %q: %w", clean, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("blob: write file %q: %w", clean, err)
	}
	return dst.Sync()
}

// HasFile reports whether filename exists directly under dir.
func HasFile(dir, filename string) bool {
	_, err := os.Stat(filepath.Join(dir, filename))
	return err == nil
}

// Remove deletes dir and everything under it.
func Remove(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// Zip packs every file under dir (excluding the result archive itself, so
// a completed directory can be re-zipped idempotently) into a single
// archive at ResultArchiveName inside dir, writing to a temp file first so
// a failure partway never leaves a truncated archive in place.
func Zip(dir string) (string, error) {
	dest := filepath.Join(dir, ResultArchiveName)
	tmp := dest + ".tmp"

	if err := zipDirectory(dir, tmp, ResultArchiveName); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("blob: finalize archive: %w", err)
	}
	return dest, nil
}

func zipDirectory(srcDir, dstFile, exclude string) error {
	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("blob: create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." || rel == exclude || filepath.Base(path) == exclude+".tmp" {
			return nil
		}
		if info.IsDir() {
			return nil
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		return walkErr
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("blob: finish archive: %w", err)
	}
	return out.Close()
}

// WriteStream saves r to a file under dir with a fixed name, overwriting
// cleanly, removing any partial write on failure (spec §4.3 edge cases).
func WriteStream(dir, filename string, r io.Reader) (string, error) {
	dst := filepath.Join(dir, filename)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("blob: create %q: %w", filename, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("blob: write %q: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("blob: close %q: %w", filename, err)
	}
	return dst, nil
}
