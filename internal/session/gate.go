package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soulteary/warden-mfa/internal/identity"
	"github.com/soulteary/warden-mfa/internal/secret"
	"github.com/soulteary/warden-mfa/internal/totp"
)

var (
	// ErrInvalidCredentials is the generic failure for the password step.
	// It deliberately does not say whether the subject or the password was
	// wrong.
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	// ErrNoSession is returned when a TOTP or logout call references a
	// session that does not exist or has expired.
	ErrNoSession = errors.New("session: no such session")
	// ErrReplayedCode is returned when a correct code's time step was
	// already consumed for this identity.
	ErrReplayedCode = errors.New("session: code already used in this window")
)

// Gate advances principals through the authentication state machine:
// Anonymous -> PasswordVerified -> FullyAuthenticated, with logout returning
// to Anonymous. Transitions for one subject are serialized; distinct
// subjects proceed in parallel.
type Gate struct {
	identities identity.Store
	sessions   Store
	verifier   identity.Verifier
	encKey     []byte
	totpCfg    totp.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGate wires the gate with its identity store, session store, credential
// verifier, secret encryption key, and TOTP parameters.
func NewGate(ids identity.Store, sessions Store, verifier identity.Verifier, encKey []byte, cfg totp.Config) *Gate {
	return &Gate{
		identities: ids,
		sessions:   sessions,
		verifier:   verifier,
		encKey:     encKey,
		totpCfg:    cfg,
		locks:      make(map[string]*sync.Mutex),
	}
}

// subjectLock returns the mutex serializing transitions for one subject.
// Locks are small and never released from the map; the set of subjects a
// process sees between restarts is bounded.
func (g *Gate) subjectLock(subject string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[subject]
	if !ok {
		l = &sync.Mutex{}
		g.locks[subject] = l
	}
	return l
}

// SubmitPassword runs the first authentication step. On success a new
// session in PasswordVerified state is created and returned; on any failure
// ErrInvalidCredentials comes back with no hint about which field was wrong.
func (g *Gate) SubmitPassword(ctx context.Context, subject, password string) (*Session, error) {
	l := g.subjectLock(subject)
	l.Lock()
	defer l.Unlock()

	id, err := g.identities.Get(ctx, subject)
	if err != nil {
		return nil, err
	}
	if id == nil || !g.verifier.Verify(id.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().Unix()
	sess := &Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		State:     PasswordVerified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := g.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SubmitTOTP runs the second step on an existing session. A wrong code is an
// ordinary (session, false, nil) outcome and leaves the session in
// PasswordVerified so the caller may retry; reuse of an already-consumed
// time step returns ErrReplayedCode. On success the session is promoted to
// FullyAuthenticated and the matched step is recorded against the identity.
func (g *Gate) SubmitTOTP(ctx context.Context, sessionID, code string) (*Session, bool, error) {
	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if sess == nil {
		return nil, false, ErrNoSession
	}

	l := g.subjectLock(sess.Subject)
	l.Lock()
	defer l.Unlock()

	id, err := g.identities.Get(ctx, sess.Subject)
	if err != nil {
		return nil, false, err
	}
	if id == nil || !id.TOTPEnabled {
		return nil, false, ErrInvalidCredentials
	}

	secretBase32, err := secret.Decrypt(g.encKey, id.SecretEnc)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	ok, step, err := totp.MatchedStep(secretBase32, code, now, g.totpCfg)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return sess, false, nil
	}
	if step <= id.LastUsedStep {
		return sess, false, ErrReplayedCode
	}

	id.LastUsedStep = step
	id.UpdatedAt = now.Unix()
	if err := g.identities.Put(ctx, id); err != nil {
		return nil, false, err
	}

	sess.State = FullyAuthenticated
	sess.UpdatedAt = now.Unix()
	if err := g.sessions.Put(ctx, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// PromoteRecovered promotes a PasswordVerified session to FullyAuthenticated
// without a code, for callers that accepted a single-use backup code instead
// (lost-device recovery). The caller must have consumed the backup code first.
func (g *Gate) PromoteRecovered(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}

	l := g.subjectLock(sess.Subject)
	l.Lock()
	defer l.Unlock()

	sess.State = FullyAuthenticated
	sess.UpdatedAt = time.Now().Unix()
	if err := g.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Current returns the session for id, or nil when there is none; callers
// treat nil as Anonymous.
func (g *Gate) Current(ctx context.Context, sessionID string) (*Session, error) {
	return g.sessions.Get(ctx, sessionID)
}

// Logout destroys the session, returning the principal to Anonymous.
// Logging out a session that is already gone succeeds.
func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	return g.sessions.Delete(ctx, sessionID)
}
