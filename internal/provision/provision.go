// Package provision formats enrollment payloads for authenticator apps:
// the otpauth:// key URI and its QR rendering. The URI layout follows the
// Key Uri Format all deployed authenticator apps parse:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
package provision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/soulteary/warden-mfa/internal/totp"
)

var (
	// ErrEmptyContent is returned when there is nothing to encode.
	ErrEmptyContent = errors.New("provision: content cannot be empty")
	// ErrEncodingFailed is returned when the QR encoder cannot render the URI.
	ErrEncodingFailed = errors.New("provision: failed to render QR code")
)

// DefaultQRSize is the QR image edge in pixels when no size is given.
const DefaultQRSize = 256

// URI builds the otpauth:// enrollment URI for a secret and account metadata.
// Both the label and the issuer query parameter carry the issuer; that
// duplication is what authenticator apps expect.
func URI(accountName, issuer, secretBase32 string, cfg totp.Config) string {
	if cfg.Period == 0 {
		cfg.Period = totp.DefaultPeriod
	}
	if cfg.Digits == 0 {
		cfg.Digits = totp.DefaultDigits
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", secretBase32)
	query.Set("issuer", issuer)
	query.Set("digits", fmt.Sprintf("%d", cfg.Digits))
	query.Set("period", fmt.Sprintf("%d", cfg.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())
}

// QRPNG renders the URI as a PNG QR code of the given edge size.
func QRPNG(uri string, size int) ([]byte, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncodingFailed, err)
	}
	return png, nil
}

// QRDataURI renders the URI as a data:image/png;base64 string that can be
// dropped straight into an <img> tag on an enrollment page.
func QRDataURI(uri string, size int) (string, error) {
	png, err := QRPNG(uri, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
