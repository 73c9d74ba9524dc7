package stringset

import (
	"strings"
	"testing"
)

func TestStringFilterDuplicateCaseInsensitive(t *testing.T) {
	filter := NewStringFilter()
	first := "https://example.com/piUtils.js?ver=1"
	if filter.Duplicate(first) {
		t.Fatalf("first insert should not be duplicate")
	}
	if !filter.Duplicate(first) {
		t.Fatalf("identical string should be duplicate")
	}
	lower := strings.ToLower(first)
	if !filter.Duplicate(lower) {
		t.Fatalf("case-insensitive match should be duplicate")
	}
}

func TestStringFilterContainsDoesNotRecord(t *testing.T) {
	filter := NewStringFilter()
	if filter.Contains("https://example.com/a") {
		t.Fatalf("empty filter should not contain anything")
	}
	if filter.Duplicate("https://example.com/a") {
		t.Fatalf("Contains must not record the value")
	}
	if !filter.Contains("HTTPS://EXAMPLE.COM/A") {
		t.Fatalf("Contains should match case-insensitively after insert")
	}
	if filter.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", filter.Len())
	}
}
