// Package session tracks per-principal authentication progress through the
// two-step gate: password first, then a TOTP code. Only a fully
// authenticated session grants access to protected operations.
package session

import "context"

// State is how far a principal has progressed through authentication.
type State string

const (
	// Anonymous means no step has succeeded (or the session is gone).
	Anonymous State = "anonymous"
	// PasswordVerified means the password step succeeded; TOTP is pending.
	PasswordVerified State = "password_verified"
	// FullyAuthenticated means both steps succeeded.
	FullyAuthenticated State = "fully_authenticated"
)

// Session is the per-principal gate state. Sessions are created on the first
// successful password check and destroyed on logout or expiry.
type Session struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	State     State  `json:"state"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Store is the session persistence capability. Get returns (nil, nil) when
// the session does not exist or has expired.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
