package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/warden-mfa/internal/identity"
)

// RegisterRequest is the request body for POST /v1/identity.
type RegisterRequest struct {
	Subject  string `json:"subject"`
	Password string `json:"password"`
}

// RegisterResponse is the response for POST /v1/identity.
type RegisterResponse struct {
	OK      bool   `json:"ok"`
	Subject string `json:"subject"`
}

// Register handles POST /v1/identity: create or update an identity with a
// freshly hashed password. An existing TOTP enrollment survives a password
// change.
func Register(ids identity.Store, verifier identity.Verifier, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" || req.Password == "" {
			return respondBadRequest(c, "invalid_request", "subject and password are required")
		}

		hash, err := verifier.Hash(req.Password)
		if err != nil {
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("register: hash failed")
			return respondInternalError(c)
		}

		now := time.Now().Unix()
		id, err := ids.Get(c.Context(), req.Subject)
		if err != nil {
			return respondInternalError(c)
		}
		if id == nil {
			id = &identity.Identity{Name: req.Subject, CreatedAt: now}
		}
		id.PasswordHash = hash
		id.UpdatedAt = now
		if err := ids.Put(c.Context(), id); err != nil {
			log.Warn().Err(err).Msg("register: save failed")
			return respondInternalError(c)
		}
		return c.JSON(RegisterResponse{OK: true, Subject: req.Subject})
	}
}
