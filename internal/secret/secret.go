package secret

import (
	"crypto/rand"
	"encoding/base32"
)

// Length is the raw secret size in bytes (160 bits, RFC 4226 recommendation).
const Length = 20

// Generate produces a new shared secret from the system CSPRNG and returns
// it Base32-encoded without padding, ready for transcription or provisioning.
// The only failure mode is the entropy source itself.
func Generate() (string, error) {
	raw := make([]byte, Length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}
