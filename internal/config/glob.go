package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// validateGlob rejects malformed patterns at config-load time rather than
// at scan time, per spec §7 ("Invalid globs" is a Config error, not an IO
// error surfaced mid-walk).
func validateGlob(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob pattern")
	}
	return nil
}
