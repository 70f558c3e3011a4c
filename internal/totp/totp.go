package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSecret is returned when the secret is not valid Base32 or is empty.
// A malformed secret is a caller bug, not a failed verification.
var ErrInvalidSecret = errors.New("totp: invalid secret")

const (
	// DefaultPeriod is the standard time-step width in seconds.
	DefaultPeriod = 30
	// DefaultDigits is the standard code width.
	DefaultDigits = 6
	// DefaultSkew is the standard drift tolerance (one step either side).
	DefaultSkew = 1
)

// Config holds TOTP generation and validation options.
type Config struct {
	Issuer string
	Period uint
	Digits int
	Skew   uint
}

// DefaultConfig returns a config with period=30, digits=6, skew=1.
func DefaultConfig(issuer string) Config {
	return Config{
		Issuer: issuer,
		Period: DefaultPeriod,
		Digits: DefaultDigits,
		Skew:   DefaultSkew,
	}
}

func (c Config) period() uint {
	if c.Period == 0 {
		return DefaultPeriod
	}
	return c.Period
}

func (c Config) digits() int {
	if c.Digits == 0 {
		return DefaultDigits
	}
	return c.Digits
}

// decodeSecret decodes a Base32 secret, tolerating lowercase, spaces, and
// missing padding (all seen in the wild when secrets are transcribed).
func decodeSecret(secretBase32 string) ([]byte, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secretBase32), " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

// hotp computes the RFC 4226 code for a counter value: HMAC-SHA1 over the
// 8-byte big-endian counter, dynamic truncation, zero-padded to digits width.
func hotp(key []byte, counter uint64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, code%mod)
}

// TimeStep returns the time step (Unix / period) at the given time.
func TimeStep(now time.Time, period uint) int64 {
	if period == 0 {
		period = DefaultPeriod
	}
	return now.Unix() / int64(period)
}

// CurrentCode derives the code for the time step containing at.
func CurrentCode(secretBase32 string, at time.Time, cfg Config) (string, error) {
	key, err := decodeSecret(secretBase32)
	if err != nil {
		return "", err
	}
	step := TimeStep(at, cfg.period())
	return hotp(key, uint64(step), cfg.digits()), nil
}

// isCodeShaped reports whether presented is exactly digits decimal characters.
func isCodeShaped(presented string, digits int) bool {
	if len(presented) != digits {
		return false
	}
	for i := 0; i < len(presented); i++ {
		if presented[i] < '0' || presented[i] > '9' {
			return false
		}
	}
	return true
}

// Verify checks presented against the secret at the given time, accepting
// codes from cfg.Skew steps either side of the current one to tolerate clock
// drift. A wrong or malformed code is an ordinary false, never an error;
// only a malformed secret is an error. Comparisons are constant-time.
func Verify(secretBase32, presented string, at time.Time, cfg Config) (bool, error) {
	ok, _, err := MatchedStep(secretBase32, presented, at, cfg)
	return ok, err
}

// MatchedStep is Verify plus the step the code matched, for replay tracking.
// step is only meaningful when ok is true. The current step is tried first,
// then each drift offset out to cfg.Skew; every candidate is compared so a
// mismatch costs the same as a match.
func MatchedStep(secretBase32, presented string, at time.Time, cfg Config) (ok bool, step int64, err error) {
	key, err := decodeSecret(secretBase32)
	if err != nil {
		return false, 0, err
	}
	presented = strings.TrimSpace(presented)
	if !isCodeShaped(presented, cfg.digits()) {
		return false, 0, nil
	}

	current := TimeStep(at, cfg.period())
	offsets := []int64{0}
	for d := int64(1); d <= int64(cfg.Skew); d++ {
		offsets = append(offsets, -d, d)
	}
	for _, d := range offsets {
		expected := hotp(key, uint64(current+d), cfg.digits())
		if subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1 && !ok {
			ok = true
			step = current + d
		}
	}
	return ok, step, nil
}
