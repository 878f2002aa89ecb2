package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrLinkedPath is returned when a path we would open for writing, or one
// of its existing ancestors, is a symlink or reparse point.
var ErrLinkedPath = errors.New("path goes through a link")

// CheckPath refuses paths that are empty, name a directory, or pass through
// a link. Components that do not exist yet are fine.
func CheckPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if info, err := os.Lstat(abs); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	for dir := abs; ; dir = filepath.Dir(dir) {
		if err := checkComponent(dir); err != nil {
			return fmt.Errorf("%w: %s (at %s)", err, path, dir)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil
		}
	}
}

func checkComponent(p string) error {
	info, err := os.Lstat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to access path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return ErrLinkedPath
	}
	linked, err := isReparsePoint(p)
	if err != nil {
		return fmt.Errorf("failed to check reparse point: %w", err)
	}
	if linked {
		return ErrLinkedPath
	}
	return nil
}

// maxNumbered bounds the _1, _2, ... suffixes FreePath tries before it
// falls back to a random one.
const maxNumbered = 9

// FreePath returns path when nothing exists there, otherwise the first free
// "<name>_<n><ext>" and finally "<name>_<uuid><ext>".
func FreePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is empty")
	}
	free, err := isFree(path)
	if err != nil || free {
		return path, err
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; n <= maxNumbered; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s_%s%s", stem, uuid.NewString(), ext), nil
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, os.ErrNotExist):
		return true, nil
	default:
		return false, err
	}
}
