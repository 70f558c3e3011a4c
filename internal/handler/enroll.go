package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	logger "github.com/soulteary/logger-kit"
	secure "github.com/soulteary/secure-kit"

	"github.com/soulteary/warden-mfa/internal/config"
	"github.com/soulteary/warden-mfa/internal/identity"
	"github.com/soulteary/warden-mfa/internal/metrics"
	"github.com/soulteary/warden-mfa/internal/provision"
	"github.com/soulteary/warden-mfa/internal/secret"
	"github.com/soulteary/warden-mfa/internal/store"
	"github.com/soulteary/warden-mfa/internal/totp"
)

// EnrollStartRequest is the request body for POST /v1/enroll/start.
type EnrollStartRequest struct {
	Subject string `json:"subject"`
	Label   string `json:"label"`
}

// EnrollStartResponse is the response for POST /v1/enroll/start.
type EnrollStartResponse struct {
	EnrollID     string `json:"enroll_id"`
	SecretBase32 string `json:"secret_base32,omitempty"`
	OtpauthURI   string `json:"otpauth_uri"`
	QRDataURI    string `json:"qr_data_uri"`
}

// EnrollConfirmRequest is the request body for POST /v1/enroll/confirm.
type EnrollConfirmRequest struct {
	EnrollID string `json:"enroll_id"`
	Code     string `json:"code"`
}

// EnrollConfirmResponse is the response for POST /v1/enroll/confirm.
type EnrollConfirmResponse struct {
	Subject     string   `json:"subject"`
	TotpEnabled bool     `json:"totp_enabled"`
	BackupCodes []string `json:"backup_codes,omitempty"`
}

// EnrollStart handles POST /v1/enroll/start: generate a fresh shared secret
// for the subject, park it as a pending enrollment, and return the otpauth
// URI plus its QR rendering for the authenticator to scan.
func EnrollStart(st *store.Store, ids identity.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req EnrollStartRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.Subject == "" {
			return respondBadRequest(c, "invalid_request", "subject is required")
		}
		if req.Label == "" {
			req.Label = req.Subject
		}

		keyBytes, err := secret.KeyBytes(config.EncryptionKey)
		if err != nil || len(config.EncryptionKey) < 32 {
			log.Warn().Msg("WARDEN_MFA_ENCRYPTION_KEY not set or invalid (need 32 bytes)")
			return respondConfigError(c, "encryption not configured")
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
		if id == nil {
			return respondBadRequest(c, "unknown_subject", "register the identity first")
		}

		metrics.RecordEnrollStart()

		secretBase32, err := secret.Generate()
		if err != nil {
			log.Warn().Err(err).Str("subject", secure.MaskString(req.Subject, 4)).Msg("enroll start: secret generation failed")
			return respondInternalError(c)
		}

		cfg := totpConfigFromConfig()
		otpauthURI := provision.URI(req.Label, cfg.Issuer, secretBase32, cfg)
		qrDataURI, err := provision.QRDataURI(otpauthURI, config.QRSize)
		if err != nil {
			log.Warn().Err(err).Msg("enroll start: QR rendering failed")
			return respondInternalError(c)
		}

		enrollID, err := NewEnrollID()
		if err != nil {
			return respondInternalError(c)
		}

		secretEnc, err := secret.Encrypt(keyBytes, secretBase32)
		if err != nil {
			log.Warn().Err(err).Msg("enroll start: encrypt failed")
			return respondInternalError(c)
		}

		now := time.Now()
		e := &store.Enrollment{
			EnrollID:  enrollID,
			Subject:   req.Subject,
			SecretEnc: secretEnc,
			Issuer:    cfg.Issuer,
			Label:     req.Label,
			Period:    cfg.Period,
			Digits:    cfg.Digits,
			ExpiresAt: now.Add(config.EnrollTTL).Unix(),
			CreatedAt: now.Unix(),
		}
		if err := st.SaveEnrollment(c.Context(), e); err != nil {
			log.Warn().Err(err).Msg("enroll start: save failed")
			return respondInternalError(c)
		}

		resp := EnrollStartResponse{EnrollID: enrollID, OtpauthURI: otpauthURI, QRDataURI: qrDataURI}
		if config.ExposeSecretInEnroll {
			resp.SecretBase32 = secretBase32
		}
		return c.JSON(resp)
	}
}

// EnrollConfirm handles POST /v1/enroll/confirm: the subject proves
// possession with a current code, the secret is bound to the identity, and
// single-use backup codes are issued. The pending enrollment is discarded.
func EnrollConfirm(st *store.Store, ids identity.Store, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req EnrollConfirmRequest
		if err := c.BodyParser(&req); err != nil {
			return respondBadRequest(c, "invalid_request", err.Error())
		}
		if req.EnrollID == "" || req.Code == "" {
			return respondBadRequest(c, "invalid_request", "enroll_id and code are required")
		}

		keyBytes, err := secret.KeyBytes(config.EncryptionKey)
		if err != nil || len(config.EncryptionKey) < 32 {
			return respondConfigError(c, "")
		}

		e, err := st.GetEnrollment(c.Context(), req.EnrollID)
		if err != nil {
			return respondInternalError(c)
		}
		if e == nil {
			metrics.RecordEnrollConfirm("failure")
			return respondBadRequest(c, "expired", "enrollment not found or expired")
		}

		secretPlain, err := secret.Decrypt(keyBytes, e.SecretEnc)
		if err != nil {
			log.Warn().Err(err).Msg("enroll confirm: decrypt failed")
			return respondInternalError(c)
		}

		cfg := totpConfigFromConfig()
		cfg.Period = e.Period
		cfg.Digits = e.Digits
		valid, err := totp.Verify(secretPlain, req.Code, time.Now(), cfg)
		if err != nil {
			log.Warn().Err(err).Msg("enroll confirm: stored secret unusable")
			return respondInternalError(c)
		}
		if !valid {
			metrics.RecordEnrollConfirm("failure")
			return respondBadRequest(c, "invalid", "code verification failed")
		}

		id, err := ids.Get(c.Context(), e.Subject)
		if err != nil {
			return respondInternalError(c)
		}
		if id == nil {
			return respondBadRequest(c, "unknown_subject", "identity no longer exists")
		}

		now := time.Now()
		id.SecretEnc = e.SecretEnc
		id.TOTPEnabled = true
		id.LastUsedStep = 0
		id.UpdatedAt = now.Unix()
		if err := ids.Put(c.Context(), id); err != nil {
			log.Warn().Err(err).Msg("enroll confirm: save identity failed")
			return respondInternalError(c)
		}
		_ = st.DeleteEnrollment(c.Context(), req.EnrollID)

		// 10 single-use recovery codes, hashes only persisted
		backupCodes := generateBackupCodes(10)
		entries := make([]store.BackupCodeEntry, len(backupCodes))
		for i, code := range backupCodes {
			entries[i] = store.BackupCodeEntry{CodeHash: secure.GetSHA256Hash(normalizeBackupCode(code)), UsedAt: 0}
		}
		if err := st.SaveBackupCodes(c.Context(), e.Subject, entries); err != nil {
			log.Warn().Err(err).Msg("enroll confirm: save backup codes failed")
		}

		metrics.RecordEnrollConfirm("success")
		return c.JSON(EnrollConfirmResponse{
			Subject:     e.Subject,
			TotpEnabled: true,
			BackupCodes: backupCodes,
		})
	}
}

// normalizeBackupCode uppercases and removes dash (ABCD-EFGH -> ABCDEFGH).
func normalizeBackupCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// generateBackupCodes returns n human-readable backup codes (e.g. ABCD-EFGH).
func generateBackupCodes(n int) []string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const partLen = 4
	out := make([]string, n)
	for i := 0; i < n; i++ {
		p1, _ := secure.RandomString(partLen, chars)
		p2, _ := secure.RandomString(partLen, chars)
		out[i] = p1 + "-" + p2
	}
	return out
}
