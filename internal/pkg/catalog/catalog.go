package catalog

import (
	"errors"
	"strings"
)

// ErrPlanNotFound is returned for unknown plan ids.
var ErrPlanNotFound = errors.New("plan not found")

// Plan is an immutable purchasable offer. Display strings are presentation
// only; Amount (minor currency units) is authoritative.
type Plan struct {
	ID                string
	Name              string
	Subtitle          string
	OriginalPrice     string
	Price             string
	Installments      string
	Features          []string
	Featured          bool
	CTA               string
	Badge             string
	Amount            int64
	StaticFallbackURL string
}

// Catalog is a read-only, ordered plan registry.
type Catalog struct {
	plans []Plan
	index map[string]int
}

// New builds a catalog keeping definition order. Later duplicates are ignored.
func New(plans ...Plan) *Catalog {
	c := &Catalog{index: make(map[string]int, len(plans))}
	for _, p := range plans {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		if _, ok := c.index[id]; ok {
			continue
		}
		p.ID = id
		p.Features = append([]string(nil), p.Features...)
		c.index[id] = len(c.plans)
		c.plans = append(c.plans, p)
	}
	return c
}

// Get returns the plan with the given id.
func (c *Catalog) Get(id string) (Plan, bool) {
	i, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i], true
}

// List returns all plans in definition order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// IDs returns the plan ids in definition order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.ID)
	}
	return out
}

// FindByAmount returns the first plan priced at amount.
func (c *Catalog) FindByAmount(amount int64) (Plan, bool) {
	for _, p := range c.plans {
		if p.Amount == amount {
			return p, true
		}
	}
	return Plan{}, false
}
