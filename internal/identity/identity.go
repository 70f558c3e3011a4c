// Package identity holds the principal records the MFA gate authenticates:
// a stable name, an externally-managed password hash, and at most one
// encrypted TOTP shared secret. Rotating the secret (revoke + re-enroll)
// invalidates every previously provisioned authenticator.
package identity

import "context"

// Identity is a principal with a password credential and an optional
// enrolled TOTP secret. SecretEnc holds the AES-GCM encrypted Base32 secret;
// it is empty until enrollment confirms.
type Identity struct {
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
	SecretEnc    string `json:"secret_enc,omitempty"`
	TOTPEnabled  bool   `json:"totp_enabled"`
	LastUsedStep int64  `json:"last_used_step"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Store is the identity persistence capability the gate is injected with.
// Get returns (nil, nil) when the identity does not exist.
type Store interface {
	Get(ctx context.Context, name string) (*Identity, error)
	Put(ctx context.Context, id *Identity) error
	Delete(ctx context.Context, name string) error
}

// Verifier checks a presented password against an identity's stored
// credential. Password storage and comparison live behind this interface so
// the gate never sees plaintext policy.
type Verifier interface {
	Verify(hash, password string) bool
	Hash(password string) (string, error)
}
