package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/billing"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/metrics"
)

const (
	webhookBodyLimit = 1 << 20
	webhookTimeout   = 60 * time.Second
)

// WebhookController receives provider payment notifications.
type WebhookController struct {
	services map[string]*billing.Service
}

// NewWebhookController maps provider names (the :provider path segment) to
// their processing service.
func NewWebhookController(services map[string]*billing.Service) *WebhookController {
	normalized := make(map[string]*billing.Service, len(services))
	for name, svc := range services {
		normalized[strings.ToLower(name)] = svc
	}
	return &WebhookController{services: normalized}
}

func (wc *WebhookController) HandleWebhook(c *fiber.Ctx) error {
	provider := strings.ToLower(strings.TrimSpace(c.Params("provider")))
	svc, ok := wc.services[provider]
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "unknown_provider")
	}

	// The signature covers the exact bytes on the wire; fiber reuses its buffer.
	rawBody := append([]byte(nil), c.BodyRaw()...)
	if len(rawBody) > webhookBodyLimit {
		metrics.WebhookRequestsTotal.WithLabelValues("unknown", strconv.Itoa(fiber.StatusRequestEntityTooLarge)).Inc()
		return errorJSON(c, fiber.StatusRequestEntityTooLarge, "payload_too_large")
	}

	ctx, cancel := requestContext(c, webhookTimeout)
	defer cancel()

	res, err := svc.HandleWebhook(ctx, billing.WebhookInput{
		Provider:  provider,
		RawBody:   rawBody,
		Signature: firstHeaderValue(c, billing.SignatureHeaders...),
	})
	label := "other"
	if res.Reportable {
		label = res.Event
	}
	if err != nil {
		if errors.Is(err, billing.ErrSignatureRejected) {
			metrics.WebhookRequestsTotal.WithLabelValues("unknown", strconv.Itoa(fiber.StatusUnauthorized)).Inc()
			return errorJSON(c, fiber.StatusUnauthorized, res.Verification.Reason)
		}
		metrics.WebhookRequestsTotal.WithLabelValues(label, strconv.Itoa(fiber.StatusInternalServerError)).Inc()
		return errorJSON(c, fiber.StatusInternalServerError, "webhook_processing_failed")
	}

	metrics.WebhookRequestsTotal.WithLabelValues(label, strconv.Itoa(fiber.StatusOK)).Inc()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
