package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/warden-mfa/internal/config"
	"github.com/soulteary/warden-mfa/internal/metrics"
	"github.com/soulteary/warden-mfa/internal/session"
	"github.com/soulteary/warden-mfa/internal/store"
)

const sessionCookie = "warden_session"

// LoginRequest is the request body for POST /v1/login.
type LoginRequest struct {
	Subject  string `json:"subject"`
	Password string `json:"password"`
}

// SessionResponse reports the gate state for a session.
type SessionResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
	State     string `json:"state"`
}

// MFARequest is the request body for POST /v1/mfa.
type MFARequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// LogoutRequest is the request body for POST /v1/logout.
type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

// sessionID picks the session from the body value or the cookie.
func sessionID(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.Cookies(sessionCookie)
}

func setSessionCookie(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(config.SessionTTL),
	})
}

// Login handles POST /v1/login: the password step. Success yields a session
// in password_verified state; the TOTP step follows on /v1/mfa.
func Login(gate *session.Gate, st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" || req.Password == "" {
			return respondBadRequest(c, "invalid_request", "subject and password are required")
		}

		subjectCount, _ := st.IncrRateSubject(c.Context(), req.Subject)
		if subjectCount > int64(config.RateLimitPerSubject) {
			return respondRateLimited(c)
		}
		ipCount, _ := st.IncrRateIP(c.Context(), c.IP())
		if ipCount > int64(config.RateLimitPerIP) {
			return respondRateLimited(c)
		}

		sess, err := gate.SubmitPassword(c.Context(), req.Subject, req.Password)
		if err != nil {
			if errors.Is(err, session.ErrInvalidCredentials) {
				metrics.RecordLogin("failure")
				return respondInvalidCredentials(c)
			}
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("login: gate failed")
			return respondInternalError(c)
		}

		metrics.RecordLogin("success")
		setSessionCookie(c, sess.ID)
		return c.JSON(SessionResponse{
			OK:        true,
			SessionID: sess.ID,
			Subject:   sess.Subject,
			State:     string(sess.State),
		})
	}
}

// MFA handles POST /v1/mfa: the TOTP step on an existing session. A correct
// current code promotes the session to fully_authenticated; a single-use
// backup code is accepted as lost-device fallback. The response for a wrong
// code is the same generic invalid_credentials as a wrong password.
func MFA(gate *session.Gate, st *store.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req MFARequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		sid := sessionID(c, req.SessionID)
		if sid == "" || req.Code == "" {
			return respondBadRequest(c, "invalid_request", "session_id and code are required")
		}

		ipCount, _ := st.IncrRateIP(c.Context(), c.IP())
		if ipCount > int64(config.RateLimitPerIP) {
			return respondRateLimited(c)
		}

		sess, ok, err := gate.SubmitTOTP(c.Context(), sid, req.Code)
		switch {
		case err == nil && ok:
			metrics.RecordVerify("success", "totp")
			return c.JSON(SessionResponse{
				OK:        true,
				SessionID: sess.ID,
				Subject:   sess.Subject,
				State:     string(sess.State),
			})
		case errors.Is(err, session.ErrNoSession):
			return respondBadRequest(c, "no_session", "session not found or expired")
		case errors.Is(err, session.ErrReplayedCode):
			metrics.RecordVerify("failure", "replay")
			return respondInvalidCredentials(c)
		case errors.Is(err, session.ErrInvalidCredentials):
			metrics.RecordVerify("failure", "not_enrolled")
			return respondInvalidCredentials(c)
		case err != nil:
			log.Warn().Err(err).Msg("mfa: gate failed")
			return respondInternalError(c)
		}

		// Wrong code; try a backup code before giving up.
		codeHash := secure.GetSHA256Hash(normalizeBackupCode(req.Code))
		consumed, _ := st.ConsumeBackupCode(c.Context(), sess.Subject, codeHash)
		if consumed {
			promoted, err := gate.PromoteRecovered(c.Context(), sid)
			if err != nil {
				log.Warn().Err(err).Msg("mfa: promote after backup code failed")
				return respondInternalError(c)
			}
			metrics.RecordVerify("success", "backup_code")
			return c.JSON(SessionResponse{
				OK:        true,
				SessionID: promoted.ID,
				Subject:   promoted.Subject,
				State:     string(promoted.State),
			})
		}

		metrics.RecordVerify("failure", "invalid")
		return respondInvalidCredentials(c)
	}
}

// Logout handles POST /v1/logout: destroy the session from any state.
func Logout(gate *session.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LogoutRequest
		_ = c.BodyParser(&req)
		sid := sessionID(c, req.SessionID)
		if sid == "" {
			return respondBadRequest(c, "invalid_request", "session_id is required")
		}
		if err := gate.Logout(c.Context(), sid); err != nil {
			return respondInternalError(c)
		}
		c.ClearCookie(sessionCookie)
		return c.JSON(SessionResponse{OK: true, State: string(session.Anonymous)})
	}
}

// SessionStatus handles GET /v1/session: report the gate state. A missing
// or expired session reads as anonymous.
func SessionStatus(gate *session.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := sessionID(c, c.Query("session_id"))
		if sid == "" {
			return c.JSON(SessionResponse{OK: true, State: string(session.Anonymous)})
		}
		sess, err := gate.Current(c.Context(), sid)
		if err != nil {
			return respondInternalError(c)
		}
		if sess == nil {
			return c.JSON(SessionResponse{OK: true, State: string(session.Anonymous)})
		}
		return c.JSON(SessionResponse{
			OK:        true,
			SessionID: sess.ID,
			Subject:   sess.Subject,
			State:     string(sess.State),
		})
	}
}
