package scaffold

import (
	"errors"
	"fmt"
	"os"
)

// ErrExists is returned by CheckExisting when the configuration is already there.
var ErrExists = errors.New("configuration already exists")

// CheckExisting returns ErrExists, wrapped with the path, if path exists.
func CheckExisting(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	return nil
}
