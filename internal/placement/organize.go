package placement

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Organize copies src to dst, creating dst's directory. The source is left in place.
func Organize(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// O_EXCL: a placed path is never overwritten
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return out.Close()
}

// Relabel renames a placed file.
func Relabel(path, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(path, newPath); err != nil {
		return fmt.Errorf("relabel %s: %w", filepath.Base(path), err)
	}
	return nil
}
