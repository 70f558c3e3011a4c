package secret

import (
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef" // 32 bytes

func TestEncryptDecrypt(t *testing.T) {
	key, err := KeyBytes(testKey)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	plain := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	enc, err := Encrypt(key, plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if enc == plain || enc == "" {
		t.Errorf("ciphertext should differ from plaintext")
	}
	dec, err := Decrypt(key, enc)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if dec != plain {
		t.Errorf("Decrypt = %q, want %q", dec, plain)
	}
}

func TestEncrypt_Empty(t *testing.T) {
	key, _ := KeyBytes(testKey)
	enc, err := Encrypt(key, "")
	if err != nil || enc != "" {
		t.Errorf("Encrypt(\"\") = (%q, %v), want (\"\", nil)", enc, err)
	}
	dec, err := Decrypt(key, "")
	if err != nil || dec != "" {
		t.Errorf("Decrypt(\"\") = (%q, %v), want (\"\", nil)", dec, err)
	}
}

func TestEncrypt_NonceVaries(t *testing.T) {
	key, _ := KeyBytes(testKey)
	a, _ := Encrypt(key, "same plaintext")
	b, _ := Encrypt(key, "same plaintext")
	if a == b {
		t.Error("two encryptions of the same plaintext should not match")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	key1, _ := KeyBytes(testKey)
	key2, _ := KeyBytes(strings.Repeat("x", 32))
	enc, _ := Encrypt(key1, "secret value")
	if _, err := Decrypt(key2, enc); err == nil {
		t.Error("Decrypt with wrong key should fail")
	}
}

func TestDecrypt_Garbage(t *testing.T) {
	key, _ := KeyBytes(testKey)
	if _, err := Decrypt(key, "not base64 at all !!!"); err == nil {
		t.Error("Decrypt of invalid base64 should fail")
	}
	if _, err := Decrypt(key, "QQ=="); err == nil {
		t.Error("Decrypt of too-short ciphertext should fail")
	}
}

func TestKeyBytes(t *testing.T) {
	cases := []struct {
		in      string
		wantLen int
		wantErr bool
	}{
		{"", 0, true},
		{strings.Repeat("a", 16), 16, false},
		{strings.Repeat("a", 24), 24, false},
		{strings.Repeat("a", 32), 32, false},
		{strings.Repeat("a", 10), 32, false}, // zero-padded
		{strings.Repeat("a", 40), 32, false}, // truncated
	}
	for _, tc := range cases {
		got, err := KeyBytes(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("KeyBytes(len=%d): want error", len(tc.in))
			}
			continue
		}
		if err != nil {
			t.Errorf("KeyBytes(len=%d): %v", len(tc.in), err)
			continue
		}
		if len(got) != tc.wantLen {
			t.Errorf("KeyBytes(len=%d) -> len %d, want %d", len(tc.in), len(got), tc.wantLen)
		}
	}
}
