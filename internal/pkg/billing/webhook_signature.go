package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	ReasonMissingSignature       = "missing_signature"
	ReasonInvalidSignature       = "invalid_signature"
	ReasonInvalidSignatureFormat = "invalid_signature_format"
)

// SignatureHeaders are the request headers a provider may carry the HMAC in,
// checked in order.
var SignatureHeaders = []string{"X-Hub-Signature", "X-Hub-Signature-256", "X-Signature"}

// Verification is the result of checking a webhook signature.
type Verification struct {
	Authentic bool
	// Skipped is set when no secret is configured and every payload is accepted.
	Skipped bool
	Reason  string
}

// VerifyWebhookSignature checks signatureHeader against HMAC-SHA256(secret, payload).
// payload must be the raw request body as received.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) Verification {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return Verification{Authentic: true, Skipped: true}
	}

	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return Verification{Reason: ReasonMissingSignature}
	}
	if len(sig) >= len("sha256=") && strings.EqualFold(sig[:len("sha256=")], "sha256=") {
		sig = sig[len("sha256="):]
	}

	decodedSig, err := hex.DecodeString(sig)
	if err != nil || len(decodedSig) == 0 {
		return Verification{Reason: ReasonInvalidSignatureFormat}
	}
	if !hmac.Equal(Sign(payload, secret), decodedSig) {
		return Verification{Reason: ReasonInvalidSignature}
	}
	return Verification{Authentic: true}
}

// Sign returns HMAC-SHA256(secret, payload).
func Sign(payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeaderValue formats a signature the way providers send it.
func SignatureHeaderValue(payload []byte, secret string) string {
	return "sha256=" + hex.EncodeToString(Sign(payload, secret))
}
