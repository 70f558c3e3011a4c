package handler

import (
	"strings"
	"testing"
)

func TestNewEnrollID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := NewEnrollID()
		if err != nil {
			t.Fatalf("NewEnrollID: %v", err)
		}
		if !strings.HasPrefix(id, idPrefixEnroll) {
			t.Errorf("id = %q, want %q prefix", id, idPrefixEnroll)
		}
		if len(id) != len(idPrefixEnroll)+16 {
			t.Errorf("len(%q) = %d", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
