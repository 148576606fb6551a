package infra

import (
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	query := `--sql 3c8f41d2-7a6e-4b19-9c5d-2e8f0a1b4c6d
select 1;
`
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extract marker: %v", err)
	}
	if marker != "3c8f41d2-7a6e-4b19-9c5d-2e8f0a1b4c6d" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.TrimSpace(trimmed) != "select 1;" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedSQL(t *testing.T) {
	if _, _, err := extractMarker("select 1;"); err == nil {
		t.Fatalf("expected error for unmarked query")
	}
	if _, _, err := extractMarker("--sql not-a-uuid\nselect 1;"); err == nil {
		t.Fatalf("expected error for malformed marker")
	}
	if _, _, err := extractMarker(""); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
