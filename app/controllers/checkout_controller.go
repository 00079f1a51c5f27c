package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/catalog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/checkout"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
)

const checkoutTimeout = 30 * time.Second

var validate = validator.New()

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	PlanID   string          `json:"planId" validate:"required,max=64"`
	Tracking json.RawMessage `json:"tracking"`
}

func (r *CheckoutRequest) Validate() error {
	r.PlanID = strings.TrimSpace(r.PlanID)
	return validate.Struct(r)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return "planId is required"
			}
		}
	}
	return "invalid planId"
}

// TrackingContext decodes the optional tracking bundle. Anything that is not
// a JSON object counts as absent.
func (r *CheckoutRequest) TrackingContext() *linkstore.Tracking {
	raw := bytes.TrimSpace(r.Tracking)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var t linkstore.Tracking
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil
	}
	return &t
}

// CheckoutController serves the plan catalog, checkout provisioning and the
// mapping lookup.
type CheckoutController struct {
	catalog         *catalog.Catalog
	links           *catalog.Links
	provisioner     *checkout.Provisioner
	store           linkstore.Store
	shippingCarrier string
}

func NewCheckoutController(cat *catalog.Catalog, links *catalog.Links, provisioner *checkout.Provisioner, store linkstore.Store, shippingCarrier string) *CheckoutController {
	return &CheckoutController{
		catalog:         cat,
		links:           links,
		provisioner:     provisioner,
		store:           store,
		shippingCarrier: shippingCarrier,
	}
}

func (cc *CheckoutController) HandlePlans(c *fiber.Ctx) error {
	plans := make([]fiber.Map, 0)
	for _, p := range cc.catalog.List() {
		href := p.StaticFallbackURL
		if ref, ok := cc.links.Get(p.ID); ok && ref.URL != "" {
			href = ref.URL
		}
		plans = append(plans, fiber.Map{
			"id":            p.ID,
			"name":          p.Name,
			"subtitle":      p.Subtitle,
			"originalPrice": p.OriginalPrice,
			"price":         p.Price,
			"installments":  p.Installments,
			"features":      p.Features,
			"featured":      p.Featured,
			"cta":           p.CTA,
			"badge":         p.Badge,
			"hrefButton":    href,
			"amount":        p.Amount,
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "plans": plans})
}

func (cc *CheckoutController) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := req.Validate(); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, validationMessage(err))
	}

	ctx, cancel := requestContext(c, checkoutTimeout)
	defer cancel()

	res, err := cc.provisioner.Provision(ctx, req.PlanID, req.TrackingContext())
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "plan_not_found")
		}
		log.Errorf("[Checkout] Provisioning failed plan=%s: %v", req.PlanID, err)
		return errorJSON(c, fiber.StatusInternalServerError, checkout.ErrCodeInternal)
	}

	body := fiber.Map{
		"ok":     !res.Fallback,
		"url":    res.URL,
		"source": res.Source,
	}
	if cc.shippingCarrier != "" {
		body["shippingCarrier"] = cc.shippingCarrier
	}
	if !res.Fallback {
		body["reused"] = res.Reused
		return c.Status(fiber.StatusOK).JSON(body)
	}

	body["fallback"] = true
	body["error"] = res.ErrorCode
	status := fiber.StatusOK
	switch res.ErrorCode {
	case checkout.ErrCodeProvider:
		status = fiber.StatusBadGateway
	case checkout.ErrCodeInternal:
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(body)
}

func (cc *CheckoutController) HandleLookup(c *fiber.Ctx) error {
	linkID := strings.TrimSpace(c.Query("payment_link_id"))
	orderCode := strings.TrimSpace(c.Query("order_code"))
	if linkID == "" && orderCode == "" {
		return errorJSON(c, fiber.StatusBadRequest, "payment_link_id or order_code is required")
	}

	ctx := c.UserContext()
	all, err := cc.store.All(ctx)
	if err != nil {
		log.Warnf("[LinkStore] Lookup failed: %v", err)
		return errorJSON(c, fiber.StatusNotFound, "no_mappings")
	}
	if len(all) == 0 {
		return errorJSON(c, fiber.StatusNotFound, "no_mappings")
	}

	if linkID != "" {
		if rec, ok := all[linkID]; ok {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "key": linkID, "mapping": rec})
		}
	}
	if orderCode != "" {
		for key, rec := range all {
			if rec.OrderCode == orderCode {
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "key": key, "mapping": rec})
			}
		}
	}
	return errorJSON(c, fiber.StatusNotFound, "not_found")
}
