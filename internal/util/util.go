package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates path (and parents) unless it is already a directory.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", path)
	}
	return os.MkdirAll(path, 0o755)
}
