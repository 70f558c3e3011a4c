package identity

import "golang.org/x/crypto/bcrypt"

// BcryptVerifier implements Verifier with bcrypt at the default cost.
type BcryptVerifier struct{}

// Verify reports whether password matches the stored bcrypt hash.
func (BcryptVerifier) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Hash derives a bcrypt hash for storage.
func (BcryptVerifier) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
