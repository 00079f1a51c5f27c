// Package conversion turns correlated purchase notifications into
// ad-attribution conversion events.
package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonwalk"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
)

const (
	EventPurchase = "Purchase"
	EventOther    = "Other"

	actionSource = "website"
)

var purchaseEvents = map[string]bool{
	"order.paid":  true,
	"charge.paid": true,
}

// Input is a notification handed over for reporting.
type Input struct {
	SourceEvent     string
	ProviderEventID string
	// OrderCode is the order code read from the payload, used when no
	// record was correlated.
	OrderCode string
	Payload   interface{}
	RawBody   []byte
	Record    *linkstore.Record
}

type UserData struct {
	Em         []string `json:"em,omitempty"`
	Ph         []string `json:"ph,omitempty"`
	ExternalID []string `json:"external_id,omitempty"`
	Fbc        string   `json:"fbc,omitempty"`
	Fbp        string   `json:"fbp,omitempty"`
}

type CustomData struct {
	Currency      string            `json:"currency"`
	Value         float64           `json:"value"`
	OrderID       string            `json:"order_id,omitempty"`
	PaymentLinkID string            `json:"payment_link_id,omitempty"`
	UTM           map[string]string `json:"utm,omitempty"`
}

// Event is one conversion in the ad-attribution API's wire format. RawPayload
// is kept for the local log and never transmitted.
type Event struct {
	EventName      string      `json:"event_name"`
	EventTime      int64       `json:"event_time"`
	EventID        string      `json:"event_id"`
	ActionSource   string      `json:"action_source"`
	EventSourceURL string      `json:"event_source_url,omitempty"`
	UserData       UserData    `json:"user_data"`
	CustomData     CustomData  `json:"custom_data"`
	RawPayload     interface{} `json:"raw_payload,omitempty"`
}

// BuildEvent derives the conversion event for in. It is deterministic apart
// from EventTime.
func BuildEvent(in Input, currency string, now time.Time) Event {
	ev := Event{
		EventName:    EventOther,
		EventTime:    now.Unix(),
		ActionSource: actionSource,
		RawPayload:   in.Payload,
		CustomData: CustomData{
			Currency: currency,
			OrderID:  in.OrderCode,
		},
	}
	if purchaseEvents[in.SourceEvent] {
		ev.EventName = EventPurchase
	}
	if v, ok := ExtractAmount(in.Payload); ok {
		ev.CustomData.Value = v
	}

	var tracking *linkstore.Tracking
	if rec := in.Record; rec != nil {
		tracking = rec.Tracking
		if rec.OrderCode != "" {
			ev.CustomData.OrderID = rec.OrderCode
		}
		ev.CustomData.PaymentLinkID = rec.PaymentLinkID
		ev.EventSourceURL = rec.URL
	}

	email, phone := extractContact(in.Payload)
	if tracking != nil {
		if tracking.Email != "" {
			email = tracking.Email
		}
		if tracking.Phone != "" {
			phone = tracking.Phone
		}
		if tracking.LeadID != "" {
			ev.UserData.ExternalID = []string{HashIdentity(tracking.LeadID)}
		}
		ev.UserData.Fbp = tracking.Fbp
		ev.UserData.Fbc = tracking.Fbc
		if ev.UserData.Fbc == "" && tracking.Fbclid != "" {
			created := now
			if !in.Record.CreatedAt.IsZero() {
				created = in.Record.CreatedAt
			}
			ev.UserData.Fbc = fmt.Sprintf("fb.1.%d.%s", created.UnixMilli(), tracking.Fbclid)
		}
		if len(tracking.UTM) > 0 {
			ev.CustomData.UTM = tracking.UTM
		}
	}
	if h := HashIdentity(email); h != "" {
		ev.UserData.Em = []string{h}
	}
	if h := HashPhone(phone); h != "" {
		ev.UserData.Ph = []string{h}
	}

	ev.EventID = eventID(in, tracking)
	return ev
}

// eventID prefers the browser pixel's deduplication id so both sides of a
// purchase collapse into one conversion.
func eventID(in Input, tracking *linkstore.Tracking) string {
	if tracking != nil && tracking.EventID != "" {
		return tracking.EventID
	}
	if in.ProviderEventID != "" {
		return in.ProviderEventID
	}
	if in.Record != nil && in.Record.OrderCode != "" {
		return in.Record.OrderCode
	}
	if in.OrderCode != "" {
		return in.OrderCode
	}
	sum := sha256.Sum256(in.RawBody)
	return "hash:" + hex.EncodeToString(sum[:])
}

// HashIdentity is SHA-256 over the trimmed, lowercased value. Empty input
// stays empty.
func HashIdentity(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// HashPhone hashes the digits of a phone number.
func HashPhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return HashIdentity(b.String())
}

var (
	minorUnitKeys = []string{"amount", "paid_amount", "amount_paid", "unit_price", "amount_cents"}
	majorUnitKeys = []string{"value", "total", "price"}
)

// ExtractAmount finds the shallowest monetary amount in payload, in major
// currency units. Integer values under minor-unit keys are cents; fractional
// ones are already major units.
func ExtractAmount(payload interface{}) (float64, bool) {
	var (
		value float64
		found bool
	)
	jsonwalk.Walk(payload, jsonwalk.Options{}, func(obj map[string]interface{}, _ int) bool {
		for _, k := range minorUnitKeys {
			if n, ok := jsonwalk.Number(obj[k]); ok && n > 0 {
				if jsonwalk.Integral(obj[k]) {
					n /= 100
				}
				value, found = n, true
				return false
			}
		}
		for _, k := range majorUnitKeys {
			if n, ok := jsonwalk.Number(obj[k]); ok && n > 0 {
				value, found = n, true
				return false
			}
		}
		return true
	})
	return value, found
}

// extractContact finds a customer email and phone in payload.
func extractContact(payload interface{}) (email, phone string) {
	jsonwalk.Walk(payload, jsonwalk.Options{}, func(obj map[string]interface{}, _ int) bool {
		if email == "" {
			if s, ok := obj["email"].(string); ok {
				email = s
			}
		}
		if phone == "" {
			if s, ok := obj["phone"].(string); ok {
				phone = s
			} else if p, ok := obj["mobile_phone"].(map[string]interface{}); ok {
				cc, _ := jsonwalk.String(p["country_code"])
				area, _ := jsonwalk.String(p["area_code"])
				num, _ := jsonwalk.String(p["number"])
				phone = cc + area + num
			}
		}
		return email == "" || phone == ""
	})
	return email, phone
}
