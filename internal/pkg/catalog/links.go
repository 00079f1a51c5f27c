package catalog

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
)

// LinkRef is an operator-configured, pre-provisioned payment link.
type LinkRef struct {
	ID  string
	URL string
}

// Links is the frozen planID -> pre-provisioned link table.
type Links struct {
	refs map[string]LinkRef
}

// Get returns the pre-provisioned link for a plan.
func (l *Links) Get(planID string) (LinkRef, bool) {
	if l == nil {
		return LinkRef{}, false
	}
	ref, ok := l.refs[planID]
	return ref, ok
}

// All returns a copy of the table.
func (l *Links) All() map[string]LinkRef {
	out := make(map[string]LinkRef, len(l.refs))
	for k, v := range l.refs {
		out[k] = v
	}
	return out
}

// AmountLookup reports the amount (minor units) the provider holds for a link.
type AmountLookup func(ctx context.Context, linkID string) (int64, error)

// NewLinkRef normalises an operator value (bare id or hosted URL).
func NewLinkRef(raw, linkBaseURL string) LinkRef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LinkRef{}
	}
	id := pagarme.ExtractLinkID(raw)
	if strings.HasPrefix(raw, "http") {
		return LinkRef{ID: id, URL: raw}
	}
	return LinkRef{ID: id, URL: strings.TrimRight(linkBaseURL, "/") + "/" + id}
}

// ResolveLinks builds the immutable link table. When lookup is non-nil each
// link's amount is checked against its plan and mismatched links are swapped
// with the plan priced at the link's amount.
func ResolveLinks(ctx context.Context, cat *Catalog, raw map[string]string, linkBaseURL string, lookup AmountLookup) *Links {
	refs := make(map[string]LinkRef, len(raw))
	for _, id := range cat.IDs() {
		if v, ok := raw[id]; ok {
			if ref := NewLinkRef(v, linkBaseURL); ref.ID != "" {
				refs[id] = ref
			}
		}
	}
	if lookup == nil {
		return &Links{refs: refs}
	}

	amounts := make(map[string]int64, len(refs))
	for planID, ref := range refs {
		amount, err := lookup(ctx, ref.ID)
		if err != nil {
			log.Warnf("[Catalog] Could not verify pre-provisioned link plan=%s link=%s: %v", planID, ref.ID, err)
			continue
		}
		amounts[ref.ID] = amount
	}
	return &Links{refs: reconcileLinks(cat, refs, amounts)}
}

// reconcileLinks swaps links whose provider amount belongs to another plan.
// It is deterministic: plans are visited in catalog order and each plan takes
// part in at most one swap.
func reconcileLinks(cat *Catalog, refs map[string]LinkRef, amounts map[string]int64) map[string]LinkRef {
	out := make(map[string]LinkRef, len(refs))
	for k, v := range refs {
		out[k] = v
	}

	settled := make(map[string]bool, len(refs))
	for _, plan := range cat.List() {
		if settled[plan.ID] {
			continue
		}
		ref, ok := out[plan.ID]
		if !ok {
			continue
		}
		amount, known := amounts[ref.ID]
		if !known || amount == 0 || amount == plan.Amount {
			continue
		}
		other, found := cat.FindByAmount(amount)
		if !found || other.ID == plan.ID || settled[other.ID] {
			log.Warnf("[Catalog] Pre-provisioned link amount does not match any plan plan=%s link=%s amount=%d",
				plan.ID, ref.ID, amount)
			continue
		}
		log.Warnf("[Catalog] Pre-provisioned link %s belongs to plan %s by amount, swapping with %s",
			ref.ID, other.ID, plan.ID)
		otherRef, hasOther := out[other.ID]
		out[other.ID] = ref
		if hasOther {
			out[plan.ID] = otherRef
		} else {
			delete(out, plan.ID)
		}
		settled[plan.ID] = true
		settled[other.ID] = true
	}
	return out
}
