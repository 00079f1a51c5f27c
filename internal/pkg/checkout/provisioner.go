// Package checkout resolves a plan to a payable checkout URL.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/metrics"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/pagarme"
)

const (
	SourceEnv     = "env"
	SourceReuse   = "reuse"
	SourceCreated = "created"
	SourceStatic  = "static"

	ErrCodeNotConfigured = "provider_not_configured"
	ErrCodeProvider      = "provider_error"
	ErrCodeInternal      = "internal_error"

	DefaultNamespace       = "sejamais2"
	defaultMaxInstallments = 6
)

// LinkProvider is the payment-link API the provisioner depends on.
type LinkProvider interface {
	Configured() bool
	GetLink(ctx context.Context, id string) (*pagarme.PaymentLink, error)
	FindActiveByName(ctx context.Context, name string) (*pagarme.PaymentLink, error)
	CreateLink(ctx context.Context, req pagarme.CreateLinkRequest) (*pagarme.PaymentLink, error)
}

// Result is the outcome of one provisioning call. URL is never empty for a
// known plan.
type Result struct {
	URL           string
	Reused        bool
	Source        string
	Fallback      bool
	ErrorCode     string
	PaymentLinkID string
	OrderCode     string
	Plan          catalog.Plan
	// Cause is the provider or internal error behind a fallback.
	Cause error
}

type Provisioner struct {
	catalog   *catalog.Catalog
	links     *catalog.Links
	provider  LinkProvider
	store     linkstore.Store
	namespace string
	now       func() time.Time
}

func NewProvisioner(cat *catalog.Catalog, links *catalog.Links, provider LinkProvider, store linkstore.Store, namespace string) *Provisioner {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Provisioner{
		catalog:   cat,
		links:     links,
		provider:  provider,
		store:     store,
		namespace: namespace,
		now:       time.Now,
	}
}

// LinkName is the deterministic provider-side name for a plan at its price.
func (p *Provisioner) LinkName(plan catalog.Plan) string {
	return fmt.Sprintf("%s-%s-%d", p.namespace, plan.ID, plan.Amount)
}

func (p *Provisioner) newOrderCode(plan catalog.Plan) string {
	return p.namespace + "_" + plan.ID + "_" + strconv.FormatInt(p.now().UnixMilli(), 10)
}

// Provision returns a checkout URL for planID. The only error is
// catalog.ErrPlanNotFound; provider trouble degrades to the plan's static
// link with Fallback set.
func (p *Provisioner) Provision(ctx context.Context, planID string, tracking *linkstore.Tracking) (*Result, error) {
	plan, ok := p.catalog.Get(planID)
	if !ok {
		return nil, catalog.ErrPlanNotFound
	}

	res := &Result{Plan: plan, OrderCode: p.newOrderCode(plan)}
	configured := p.provider != nil && p.provider.Configured()

	if ref, ok := p.links.Get(plan.ID); ok {
		if !configured {
			log.Warnf("[Checkout] Using pre-provisioned link %s for plan %s without provider verification", ref.ID, plan.ID)
			return p.succeed(ctx, res, SourceEnv, true, ref.ID, ref.URL, tracking), nil
		}
		link, err := p.provider.GetLink(ctx, ref.ID)
		switch {
		case err != nil:
			log.Warnf("[Checkout] Pre-provisioned link lookup failed plan=%s link=%s: %v", plan.ID, ref.ID, err)
		case !link.IsActive():
			log.Warnf("[Checkout] Pre-provisioned link is not active plan=%s link=%s status=%s", plan.ID, ref.ID, link.Status)
		default:
			url := ref.URL
			if link.URL != "" {
				url = link.URL
			}
			return p.succeed(ctx, res, SourceEnv, true, ref.ID, url, tracking), nil
		}
	}

	if !configured {
		return p.fallback(res, ErrCodeNotConfigured, pagarme.ErrNotConfigured), nil
	}

	name := p.LinkName(plan)
	existing, err := p.provider.FindActiveByName(ctx, name)
	if err != nil {
		log.Warnf("[Checkout] Reuse lookup failed, creating a new link plan=%s name=%s: %v", plan.ID, name, err)
	} else if existing != nil && existing.URL != "" {
		return p.succeed(ctx, res, SourceReuse, true, existing.ID, existing.URL, tracking), nil
	}

	created, err := p.provider.CreateLink(ctx, pagarme.CreateLinkRequest{
		Name:      name,
		OrderCode: res.OrderCode,
		Item: pagarme.LinkItem{
			ID:     plan.ID,
			Name:   plan.Name,
			Amount: plan.Amount,
		},
		MaxInstallments: defaultMaxInstallments,
		Metadata:        tracking.Metadata(),
	})
	if err != nil {
		var apiErr *pagarme.APIError
		if errors.As(err, &apiErr) {
			log.Errorf("[Checkout] Provider rejected link creation plan=%s status=%d: %v", plan.ID, apiErr.StatusCode, err)
			return p.fallback(res, ErrCodeProvider, err), nil
		}
		log.Errorf("[Checkout] Link creation failed plan=%s: %v", plan.ID, err)
		return p.fallback(res, ErrCodeInternal, err), nil
	}

	url := created.URL
	if url == "" {
		url = plan.StaticFallbackURL
	}
	return p.succeed(ctx, res, SourceCreated, false, created.ID, url, tracking), nil
}

func (p *Provisioner) succeed(ctx context.Context, res *Result, source string, reused bool, linkID, url string, tracking *linkstore.Tracking) *Result {
	res.Source = source
	res.Reused = reused
	res.PaymentLinkID = linkID
	res.URL = url
	metrics.CheckoutsTotal.WithLabelValues(source, "false").Inc()
	log.Infof("[Checkout] Checkout link resolved plan=%s source=%s link=%s reused=%t", res.Plan.ID, source, linkID, reused)

	if tracking != nil && p.store != nil {
		key := linkID
		if key == "" {
			key = res.OrderCode
		}
		rec := linkstore.Record{
			OrderCode:     res.OrderCode,
			PaymentLinkID: linkID,
			URL:           url,
			Tracking:      tracking,
			CreatedAt:     p.now().UTC(),
		}
		if err := p.store.Put(ctx, key, rec); err != nil {
			log.Warnf("[Checkout] Failed to persist payment link mapping %s: %v", key, err)
		}
	}
	return res
}

func (p *Provisioner) fallback(res *Result, code string, cause error) *Result {
	res.Source = SourceStatic
	res.Fallback = true
	res.ErrorCode = code
	res.Cause = cause
	res.URL = res.Plan.StaticFallbackURL
	metrics.CheckoutsTotal.WithLabelValues(SourceStatic, "true").Inc()
	return res
}
