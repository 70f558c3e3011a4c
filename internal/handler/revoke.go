package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soulteary/warden-mfa/internal/config"
	"github.com/soulteary/warden-mfa/internal/identity"
	"github.com/soulteary/warden-mfa/internal/store"
)

// RevokeRequest is the request body for POST /v1/revoke.
type RevokeRequest struct {
	Subject string `json:"subject"`
}

// RevokeResponse is the response for POST /v1/revoke.
type RevokeResponse struct {
	OK      bool   `json:"ok"`
	Subject string `json:"subject"`
}

// Revoke handles POST /v1/revoke: drop the subject's TOTP secret and backup
// codes. Every previously provisioned authenticator stops working; the
// identity and its password credential stay.
func Revoke(st *store.Store, ids identity.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RevokeRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}

		subjectCount, _ := st.IncrRateSubject(c.Context(), req.Subject)
		if subjectCount > int64(config.RateLimitPerSubject) {
			return respondRateLimited(c)
		}
		ipCount, _ := st.IncrRateIP(c.Context(), c.IP())
		if ipCount > int64(config.RateLimitPerIP) {
			return respondRateLimited(c)
		}

		id, err := ids.Get(c.Context(), req.Subject)
		if err != nil {
			return respondInternalError(c)
		}
		if id != nil {
			id.SecretEnc = ""
			id.TOTPEnabled = false
			id.LastUsedStep = 0
			id.UpdatedAt = time.Now().Unix()
			if err := ids.Put(c.Context(), id); err != nil {
				return respondInternalError(c)
			}
		}
		_ = st.DeleteBackupCodes(c.Context(), req.Subject)
		return c.JSON(RevokeResponse{OK: true, Subject: req.Subject})
	}
}
