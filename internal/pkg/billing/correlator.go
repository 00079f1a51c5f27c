package billing

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonwalk"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
)

const correlationMaxDepth = 8

// containerKeys are the wrapper objects the provider nests resources in.
// Nothing outside them is searched below the top level.
var containerKeys = map[string]bool{
	"data":             true,
	"order":            true,
	"checkout":         true,
	"object":           true,
	"attributes":       true,
	"payment_link":     true,
	"charges":          true,
	"last_transaction": true,
	"metadata":         true,
}

var (
	paymentLinkKeys = []string{"payment_link_id", "paymentLinkId", "payment_link", "paymentLink"}
	orderCodeKeys   = []string{"order_code", "orderCode", "code"}
)

// Correlation is a matched mapping record.
type Correlation struct {
	Key    string
	Record linkstore.Record
}

// Correlator matches webhook payloads to the checkout attempt that produced them.
type Correlator struct {
	store linkstore.Store
}

func NewCorrelator(store linkstore.Store) *Correlator {
	return &Correlator{store: store}
}

type candidates struct {
	linkIDs    []string
	orderCodes []string
	patternIDs []string
}

// Correlate returns the mapping record for payload, or nil when nothing
// matches. A miss is not an error.
func (c *Correlator) Correlate(ctx context.Context, payload interface{}) (*Correlation, error) {
	cands := collectCandidates(payload)

	keys := append(append([]string{}, cands.linkIDs...), cands.orderCodes...)
	keys = append(keys, cands.patternIDs...)
	keys = append(keys, shallowLinkIDs(payload)...)

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		rec, err := c.store.Get(ctx, key)
		if err == nil {
			return &Correlation{Key: key, Record: rec}, nil
		}
		if !errors.Is(err, linkstore.ErrNotFound) {
			return nil, err
		}
	}

	for _, code := range cands.orderCodes {
		key, rec, err := linkstore.FindByOrderCode(ctx, c.store, code)
		if err == nil {
			return &Correlation{Key: key, Record: rec}, nil
		}
		if !errors.Is(err, linkstore.ErrNotFound) {
			return nil, err
		}
	}

	log.Infof("[Webhook] No mapping matched notification link_ids=%v order_codes=%v pattern_ids=%v",
		cands.linkIDs, cands.orderCodes, cands.patternIDs)
	return nil, nil
}

// collectCandidates walks the payload through container keys only and gathers
// identifiers grouped by how they were found, shallowest first.
func collectCandidates(payload interface{}) candidates {
	var out candidates
	opts := jsonwalk.Options{
		MaxDepth: correlationMaxDepth,
		Descend:  func(key string) bool { return containerKeys[key] },
	}
	jsonwalk.Walk(payload, opts, func(obj map[string]interface{}, _ int) bool {
		for _, k := range paymentLinkKeys {
			if s, ok := jsonwalk.String(obj[k]); ok {
				out.linkIDs = append(out.linkIDs, s)
			}
			if nested, ok := obj[k].(map[string]interface{}); ok {
				if s, ok := jsonwalk.String(nested["id"]); ok && pagarme.IsLinkID(s) {
					out.linkIDs = append(out.linkIDs, s)
				}
			}
		}
		for _, k := range orderCodeKeys {
			if s, ok := jsonwalk.String(obj[k]); ok {
				out.orderCodes = append(out.orderCodes, s)
			}
		}
		if s, ok := jsonwalk.String(obj["id"]); ok && pagarme.IsLinkID(s) {
			out.patternIDs = append(out.patternIDs, s)
		}
		return true
	})
	return out
}

// shallowLinkIDs scans the payload's direct string values for link ids.
func shallowLinkIDs(payload interface{}) []string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, k := range jsonwalk.SortedKeys(obj) {
		s, ok := obj[k].(string)
		if !ok {
			continue
		}
		if m := pagarme.LinkIDPattern.FindString(s); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// OrderCode returns the first order code found in payload.
func OrderCode(payload interface{}) string {
	cands := collectCandidates(payload)
	if len(cands.orderCodes) > 0 {
		return cands.orderCodes[0]
	}
	return ""
}
