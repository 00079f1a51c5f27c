package billing

import (
	"time"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/conversion"
)

// EventUnknown names notifications that carry no event or type field.
const EventUnknown = "unknown"

// WebhookInput is one inbound notification as received on the wire.
type WebhookInput struct {
	Provider  string
	RawBody   []byte
	Signature string
}

// WebhookResult describes how a notification was processed.
type WebhookResult struct {
	Event           string
	ProviderEventID string
	Verification    Verification
	Parsed          bool
	Reportable      bool
	Correlation     *Correlation
	Outcome         conversion.Outcome
}

// WebhookEventRecord is one entry of the webhook audit log.
type WebhookEventRecord struct {
	ID                string      `json:"id"`
	TS                time.Time   `json:"ts"`
	Event             string      `json:"event"`
	Provider          string      `json:"provider"`
	SignatureVerified bool        `json:"signature_verified"`
	Payload           interface{} `json:"payload"`
}
