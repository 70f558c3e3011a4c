package handler

import (
	"github.com/soulteary/warden-mfa/internal/config"
	"github.com/soulteary/warden-mfa/internal/totp"
)

// totpConfigFromConfig returns TOTP parameters from global config.
func totpConfigFromConfig() totp.Config {
	return totp.Config{
		Issuer: config.TOTPIssuer,
		Period: uint(config.TOTPPeriod),
		Digits: config.TOTPDigits,
		Skew:   config.TOTPSkew,
	}
}
