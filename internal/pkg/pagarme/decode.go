package pagarme

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// linkResource lists every field name the provider has been observed to use
// for a payment link, across API versions.
type linkResource struct {
	ID            string          `json:"id"`
	PaymentLinkID string          `json:"payment_link_id"`
	URL           string          `json:"url"`
	ShortURL      string          `json:"short_url"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Amount        json.RawMessage `json:"amount"`
	Order         *struct {
		Items []struct {
			UnitPrice json.RawMessage `json:"unit_price"`
			Amount    json.RawMessage `json:"amount"`
		} `json:"items"`
	} `json:"order"`
	CartSettings *struct {
		Items []struct {
			Amount    json.RawMessage `json:"amount"`
			UnitPrice json.RawMessage `json:"unit_price"`
		} `json:"items"`
	} `json:"cart_settings"`
}

// linkEnvelope is the single-resource response: either the resource itself
// or the resource wrapped in "data".
type linkEnvelope struct {
	linkResource
	Data json.RawMessage `json:"data"`
}

var errEmptyLink = errors.New("pagarme response does not describe a payment link")

// decodeLink resolves a single payment link from a response body.
//
// Field priority:
//   - url: url, short_url, data.url, data.short_url
//   - id: id, data.id, payment_link_id, data.payment_link_id, last URL segment
//   - amount: amount, order.items[0].unit_price, cart_settings.items[0].amount
func decodeLink(body []byte) (*PaymentLink, error) {
	var env linkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	var inner linkResource
	if len(env.Data) > 0 && env.Data[0] == '{' {
		if err := json.Unmarshal(env.Data, &inner); err != nil {
			return nil, err
		}
	}

	out := &PaymentLink{
		URL:    firstNonEmpty(env.URL, env.ShortURL, inner.URL, inner.ShortURL),
		ID:     firstNonEmpty(env.ID, inner.ID, env.PaymentLinkID, inner.PaymentLinkID),
		Name:   firstNonEmpty(env.Name, inner.Name),
		Status: firstNonEmpty(env.Status, inner.Status),
		Amount: resourceAmount(&env.linkResource),
	}
	if out.Amount == 0 {
		out.Amount = resourceAmount(&inner)
	}
	if out.ID == "" && out.URL != "" {
		out.ID = ExtractLinkID(out.URL)
	}
	if out.ID == "" && out.URL == "" {
		return nil, errEmptyLink
	}
	return out, nil
}

// decodeLinkList resolves the list response: a bare array or {"data": [...]}.
func decodeLinkList(body []byte) ([]PaymentLink, error) {
	trimmed := strings.TrimSpace(string(body))
	var items []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, err
		}
		items = wrapped.Data
	}

	out := make([]PaymentLink, 0, len(items))
	for _, raw := range items {
		link, err := decodeLink(raw)
		if err != nil {
			continue
		}
		out = append(out, *link)
	}
	return out, nil
}

func resourceAmount(r *linkResource) int64 {
	if v, ok := parseAmount(r.Amount); ok {
		return v
	}
	if r.Order != nil && len(r.Order.Items) > 0 {
		if v, ok := parseAmount(r.Order.Items[0].UnitPrice); ok {
			return v
		}
		if v, ok := parseAmount(r.Order.Items[0].Amount); ok {
			return v
		}
	}
	if r.CartSettings != nil && len(r.CartSettings.Items) > 0 {
		if v, ok := parseAmount(r.CartSettings.Items[0].Amount); ok {
			return v
		}
		if v, ok := parseAmount(r.CartSettings.Items[0].UnitPrice); ok {
			return v
		}
	}
	return 0
}

func parseAmount(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	s := strings.Trim(string(raw), `"`)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
