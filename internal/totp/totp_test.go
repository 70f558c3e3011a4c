package totp

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

// rfcSecret is the RFC 4226 / RFC 6238 reference secret "12345678901234567890".
var rfcSecret = base32.StdEncoding.WithPadding(base32.NoPadding).
	EncodeToString([]byte("12345678901234567890"))

func TestCurrentCode_RFCVectors(t *testing.T) {
	// RFC 6238 Appendix B, SHA-1 column, truncated to 6 digits.
	vectors := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}
	cfg := DefaultConfig("Test")
	for _, v := range vectors {
		got, err := CurrentCode(rfcSecret, time.Unix(v.unix, 0), cfg)
		if err != nil {
			t.Fatalf("CurrentCode(t=%d): %v", v.unix, err)
		}
		if got != v.want {
			t.Errorf("CurrentCode(t=%d) = %q, want %q", v.unix, got, v.want)
		}
	}
}

func TestCurrentCode_EightDigits(t *testing.T) {
	cfg := DefaultConfig("Test")
	cfg.Digits = 8
	got, err := CurrentCode(rfcSecret, time.Unix(59, 0), cfg)
	if err != nil {
		t.Fatalf("CurrentCode: %v", err)
	}
	if got != "94287082" {
		t.Errorf("CurrentCode(t=59, digits=8) = %q, want 94287082", got)
	}
}

func TestCurrentCode_Deterministic(t *testing.T) {
	cfg := DefaultConfig("Test")
	at := time.Unix(1700000000, 0)
	first, err := CurrentCode(rfcSecret, at, cfg)
	if err != nil {
		t.Fatalf("CurrentCode: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, _ := CurrentCode(rfcSecret, at, cfg)
		if got != first {
			t.Fatalf("CurrentCode not deterministic: %q vs %q", got, first)
		}
	}
}

func TestCurrentCode_InvalidSecret(t *testing.T) {
	cfg := DefaultConfig("Test")
	for _, s := range []string{"", "   ", "not base32 at all!!", "189"} {
		if _, err := CurrentCode(s, time.Now(), cfg); err != ErrInvalidSecret {
			t.Errorf("CurrentCode(%q) err = %v, want ErrInvalidSecret", s, err)
		}
	}
}

func TestCurrentCode_SecretNormalization(t *testing.T) {
	cfg := DefaultConfig("Test")
	at := time.Unix(59, 0)
	want, _ := CurrentCode(rfcSecret, at, cfg)
	// lowercase, padded, and spaced forms all decode to the same key
	variants := []string{
		strings.ToLower(rfcSecret),
		rfcSecret + "====",
		rfcSecret[:8] + " " + rfcSecret[8:],
	}
	for _, v := range variants {
		got, err := CurrentCode(v, at, cfg)
		if err != nil {
			t.Fatalf("CurrentCode(%q): %v", v, err)
		}
		if got != want {
			t.Errorf("CurrentCode(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestVerify_Window(t *testing.T) {
	cfg := DefaultConfig("Test")
	at := time.Unix(1700000000, 0)
	code, err := CurrentCode(rfcSecret, at, cfg)
	if err != nil {
		t.Fatalf("CurrentCode: %v", err)
	}

	cases := []struct {
		name string
		when time.Time
		want bool
	}{
		{"same window", at, true},
		{"adjacent window", at.Add(31 * time.Second), true},
		{"previous window", at.Add(-29 * time.Second), true},
		{"two windows away", at.Add(61 * time.Second), false},
		{"two windows back", at.Add(-61 * time.Second), false},
	}
	for _, tc := range cases {
		ok, err := Verify(rfcSecret, code, tc.when, cfg)
		if err != nil {
			t.Fatalf("%s: Verify: %v", tc.name, err)
		}
		if ok != tc.want {
			t.Errorf("%s: Verify = %v, want %v", tc.name, ok, tc.want)
		}
	}
}

func TestVerify_MalformedCode(t *testing.T) {
	cfg := DefaultConfig("Test")
	at := time.Now()
	for _, code := range []string{"", "12a45", "12345", "1234567", "123456789", "banana"} {
		ok, err := Verify(rfcSecret, code, at, cfg)
		if err != nil {
			t.Errorf("Verify(%q) err = %v, want nil (malformed code is false, not an error)", code, err)
		}
		if ok {
			t.Errorf("Verify(%q) = true, want false", code)
		}
	}
}

func TestVerify_InvalidSecret(t *testing.T) {
	cfg := DefaultConfig("Test")
	if _, err := Verify("@@@", "123456", time.Now(), cfg); err != ErrInvalidSecret {
		t.Errorf("Verify with bad secret err = %v, want ErrInvalidSecret", err)
	}
}

func TestVerify_ZeroWindow(t *testing.T) {
	cfg := DefaultConfig("Test")
	cfg.Skew = 0
	at := time.Unix(1700000000, 0)
	code, _ := CurrentCode(rfcSecret, at, cfg)
	if ok, _ := Verify(rfcSecret, code, at, cfg); !ok {
		t.Error("Verify(skew=0, same window) = false, want true")
	}
	if ok, _ := Verify(rfcSecret, code, at.Add(31*time.Second), cfg); ok {
		t.Error("Verify(skew=0, next window) = true, want false")
	}
}

func TestCurrentCode_WidthAndPadding(t *testing.T) {
	cfg := DefaultConfig("Test")
	sawLeadingZero := false
	for i := 0; i < 1000; i++ {
		raw := make([]byte, 20)
		if _, err := rand.Read(raw); err != nil {
			t.Fatalf("rand: %v", err)
		}
		s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		at := time.Unix(int64(1000000000+i*977), 0)
		code, err := CurrentCode(s, at, cfg)
		if err != nil {
			t.Fatalf("CurrentCode: %v", err)
		}
		if len(code) != DefaultDigits {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), DefaultDigits)
		}
		for j := 0; j < len(code); j++ {
			if code[j] < '0' || code[j] > '9' {
				t.Fatalf("non-numeric code %q", code)
			}
		}
		if code[0] == '0' {
			sawLeadingZero = true
		}
	}
	if !sawLeadingZero {
		t.Error("no leading-zero code in 1000 trials; padding looks broken")
	}
}

func TestCurrentCode_AgainstReferenceLibrary(t *testing.T) {
	cfg := DefaultConfig("Test")
	for i := 0; i < 50; i++ {
		raw := make([]byte, 20)
		if _, err := rand.Read(raw); err != nil {
			t.Fatalf("rand: %v", err)
		}
		s := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		at := time.Unix(int64(1500000000+i*3571), 0)
		want, err := pqtotp.GenerateCodeCustom(s, at, pqtotp.ValidateOpts{
			Period: 30, Skew: 1, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			t.Fatalf("reference GenerateCodeCustom: %v", err)
		}
		got, err := CurrentCode(s, at, cfg)
		if err != nil {
			t.Fatalf("CurrentCode: %v", err)
		}
		if got != want {
			t.Errorf("CurrentCode = %q, reference = %q (secret %s, t=%d)", got, want, s, at.Unix())
		}
	}
}

func TestMatchedStep(t *testing.T) {
	cfg := DefaultConfig("Test")
	at := time.Unix(1700000000, 0)
	code, _ := CurrentCode(rfcSecret, at, cfg)

	ok, step, err := MatchedStep(rfcSecret, code, at, cfg)
	if err != nil || !ok {
		t.Fatalf("MatchedStep = (%v, %v), want (true, nil)", ok, err)
	}
	if want := TimeStep(at, cfg.Period); step != want {
		t.Errorf("step = %d, want %d", step, want)
	}

	// the same code presented one window later matches the earlier step
	ok, step, err = MatchedStep(rfcSecret, code, at.Add(31*time.Second), cfg)
	if err != nil || !ok {
		t.Fatalf("MatchedStep(+31s) = (%v, %v), want (true, nil)", ok, err)
	}
	if want := TimeStep(at, cfg.Period); step != want {
		t.Errorf("step(+31s) = %d, want %d", step, want)
	}
}

func TestTimeStep(t *testing.T) {
	if got := TimeStep(time.Unix(59, 0), 30); got != 1 {
		t.Errorf("TimeStep(59, 30) = %d, want 1", got)
	}
	if got := TimeStep(time.Unix(60, 0), 30); got != 2 {
		t.Errorf("TimeStep(60, 30) = %d, want 2", got)
	}
	if got := TimeStep(time.Unix(90, 0), 0); got != 3 {
		t.Errorf("TimeStep(90, 0) = %d, want 3 (default period)", got)
	}
}
