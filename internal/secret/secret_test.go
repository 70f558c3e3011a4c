package secret

import (
	"encoding/base32"
	"testing"
)

func TestGenerate(t *testing.T) {
	s, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		t.Fatalf("Generate returned non-Base32 %q: %v", s, err)
	}
	if len(raw) != Length {
		t.Errorf("decoded length = %d, want %d", len(raw), Length)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[s] {
			t.Fatalf("duplicate secret %q", s)
		}
		seen[s] = true
	}
}
