package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soulteary/warden-mfa/internal/identity"
)

// StatusResponse is the response for GET /v1/status.
type StatusResponse struct {
	Subject     string `json:"subject"`
	TotpEnabled bool   `json:"totp_enabled"`
}

// Status handles GET /v1/status?subject=xxx.
func Status(ids identity.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := c.Query("subject")
		if subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}
		id, err := ids.Get(c.Context(), subject)
		if err != nil {
			return respondInternalError(c)
		}
		return c.JSON(StatusResponse{
			Subject:     subject,
			TotpEnabled: id != nil && id.TOTPEnabled,
		})
	}
}
