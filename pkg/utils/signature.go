package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the webhook signature header value for a payload:
// "sha256=" followed by the hex HMAC-SHA256 of the payload under the secret.
func ComputeSignature(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature header in constant time. An
// empty secret disables verification and accepts everything.
func VerifySignature(secret string, payload []byte, header string) bool {
	if secret == "" {
		return true
	}
	expected := ComputeSignature(secret, payload)
	return hmac.Equal([]byte(expected), []byte(header))
}
