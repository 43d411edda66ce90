package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName rejects empty or traversal-shaped names.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName normalizes a client-supplied document filename:
// path separators become underscores, traversal patterns are rejected
// outright. The result is only ever stored as metadata, never used as
// a filesystem path.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
