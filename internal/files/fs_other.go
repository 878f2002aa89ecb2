//go:build !windows

package files

import "os"

func replaceFile(from, to string) error {
	return os.Rename(from, to)
}

// Symlinks are caught by Lstat; there are no other link kinds to check.
func isReparsePoint(string) (bool, error) {
	return false, nil
}
