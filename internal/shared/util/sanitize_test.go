package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" uploads/q3 contract.pdf ")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "uploads_q3 contract.pdf" {
		t.Fatalf("unexpected result %q", got)
	}

	for _, bad := range []string{"", "   ", "../etc/passwd", "a/../b"} {
		if _, err := SanitizeFileName(bad); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected ErrInvalidFileName for %q, got %v", bad, err)
		}
	}
}
