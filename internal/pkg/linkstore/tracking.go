package linkstore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Tracking is the client-supplied attribution bundle attached to a checkout
// attempt. It is never validated: any field may be absent, null or false.
// The original JSON document is kept so it round-trips unmodified.
type Tracking struct {
	LeadID  string
	Fbclid  string
	Fbp     string
	Fbc     string
	EventID string
	Email   string
	Phone   string
	UTM     map[string]string

	raw map[string]json.RawMessage
}

func (t *Tracking) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.raw = raw
	t.LeadID = looseString(raw, "leadId", "lead_id")
	t.Fbclid = looseString(raw, "fbclid")
	t.Fbp = looseString(raw, "fbp")
	t.Fbc = looseString(raw, "fbc")
	t.EventID = looseString(raw, "eventId", "event_id")
	t.Email = looseString(raw, "email")
	t.Phone = looseString(raw, "phone")
	if u, ok := raw["utm"]; ok {
		var utm map[string]interface{}
		if err := json.Unmarshal(u, &utm); err == nil && len(utm) > 0 {
			t.UTM = make(map[string]string, len(utm))
			for k, v := range utm {
				if s, ok := v.(string); ok && s != "" {
					t.UTM[k] = s
				}
			}
		}
	}
	return nil
}

func (t Tracking) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return json.Marshal(t.raw)
	}
	out := map[string]interface{}{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("leadId", t.LeadID)
	put("fbclid", t.Fbclid)
	put("fbp", t.Fbp)
	put("fbc", t.Fbc)
	put("eventId", t.EventID)
	put("email", t.Email)
	put("phone", t.Phone)
	if len(t.UTM) > 0 {
		out["utm"] = t.UTM
	}
	return json.Marshal(out)
}

// Metadata returns the correlation metadata attached to created payment links.
func (t *Tracking) Metadata() map[string]string {
	if t == nil {
		return nil
	}
	meta := map[string]string{}
	if t.LeadID != "" {
		meta["lead_id"] = t.LeadID
	}
	if t.Fbclid != "" {
		meta["fbclid"] = t.Fbclid
	}
	if t.Fbp != "" {
		meta["fbp"] = t.Fbp
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func looseString(raw map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
				return n.String()
			}
		}
	}
	return ""
}
