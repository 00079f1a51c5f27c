package pagarme

import (
	"fmt"
	"regexp"
	"strings"
)

// LinkIDPattern matches provider-issued payment link identifiers.
var LinkIDPattern = regexp.MustCompile(`pl_[A-Za-z0-9]+`)

var exactLinkID = regexp.MustCompile(`^pl_[A-Za-z0-9]+$`)

const StatusActive = "active"

// PaymentLink is the subset of the provider's payment link resource the
// checkout flow relies on.
type PaymentLink struct {
	ID     string
	URL    string
	Name   string
	Status string
	Amount int64
}

func (l *PaymentLink) IsActive() bool {
	return l != nil && strings.EqualFold(strings.TrimSpace(l.Status), StatusActive)
}

// IsLinkID reports whether s is exactly a provider link identifier.
func IsLinkID(s string) bool {
	return exactLinkID.MatchString(strings.TrimSpace(s))
}

// ExtractLinkID returns the link identifier from an id or a hosted URL.
func ExtractLinkID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := LinkIDPattern.FindString(raw); m != "" {
		return m
	}
	if strings.HasPrefix(raw, "http") {
		parts := strings.Split(strings.TrimRight(raw, "/"), "/")
		return parts[len(parts)-1]
	}
	return raw
}

// APIError is returned for non-2xx provider responses.
type APIError struct {
	StatusCode int
	Body       []byte
	Message    string
	// Errors holds validation messages keyed by field name, e.g. "PaymentSettings".
	Errors map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pagarme request failed: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pagarme request failed: status=%d body=%s", e.StatusCode, string(e.Body))
}

// HasFieldError reports whether a validation error references any of fields.
func (e *APIError) HasFieldError(fields ...string) bool {
	if e == nil {
		return false
	}
	for key := range e.Errors {
		for _, f := range fields {
			if strings.EqualFold(key, f) || strings.HasPrefix(strings.ToLower(key), strings.ToLower(f)+".") {
				return true
			}
		}
	}
	return false
}

// LinkItem is one cart line of a payment link.
type LinkItem struct {
	ID     string
	Name   string
	Amount int64
}

// CreateLinkRequest carries the semantic configuration of a new payment link;
// the client renders it into one of the provider's payload shapes.
type CreateLinkRequest struct {
	Name            string
	OrderCode       string
	Item            LinkItem
	MaxInstallments int
	Metadata        map[string]string
}
