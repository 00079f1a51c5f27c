package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/conversion"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonwalk"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/metrics"
)

// ErrSignatureRejected is returned when a notification fails verification.
var ErrSignatureRejected = errors.New("webhook signature rejected")

// Reporter forwards purchase notifications as conversion events.
type Reporter interface {
	BuildAndSend(ctx context.Context, in conversion.Input) conversion.Outcome
}

// Service processes verified provider notifications.
type Service struct {
	repo             Repository
	correlator       *Correlator
	reporter         Reporter
	secret           string
	conversionEvents map[string]bool
	now              func() time.Time
}

// NewService creates a webhook service. conversionEvents is the allow-list of
// notification names that trigger a conversion report.
func NewService(repo Repository, correlator *Correlator, reporter Reporter, secret string, conversionEvents []string) *Service {
	allowed := make(map[string]bool, len(conversionEvents))
	for _, e := range conversionEvents {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Service{
		repo:             repo,
		correlator:       correlator,
		reporter:         reporter,
		secret:           secret,
		conversionEvents: allowed,
		now:              time.Now,
	}
}

// HandleWebhook verifies, audits, correlates and reports one notification.
// Once the signature is accepted nothing downstream fails the call.
func (s *Service) HandleWebhook(ctx context.Context, in WebhookInput) (WebhookResult, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	res := WebhookResult{
		Event:        EventUnknown,
		Verification: VerifyWebhookSignature(in.RawBody, in.Signature, s.secret),
	}
	if !res.Verification.Authentic {
		log.Warnf("[Webhook] Rejected %s notification: %s", provider, res.Verification.Reason)
		return res, fmt.Errorf("%w: %s", ErrSignatureRejected, res.Verification.Reason)
	}
	if res.Verification.Skipped {
		log.Warnf("[Webhook] Signature verification skipped for %s, no secret configured", provider)
	}

	payload, err := jsonwalk.Decode(in.RawBody)
	var stored interface{} = string(in.RawBody)
	if err != nil {
		log.Warnf("[Webhook] Could not parse %s notification body: %v", provider, err)
	} else {
		res.Parsed = true
		stored = payload
		res.Event = eventName(payload)
		res.ProviderEventID = providerEventID(payload)
	}

	if s.repo != nil {
		entry := WebhookEventRecord{
			ID:                uuid.NewString(),
			TS:                s.now().UTC(),
			Event:             res.Event,
			Provider:          provider,
			SignatureVerified: !res.Verification.Skipped,
			Payload:           stored,
		}
		if err := s.repo.AppendWebhookEvent(entry); err != nil {
			log.Warnf("[Webhook] Failed to append audit entry: %v", err)
		}
	}

	if !res.Parsed || !s.conversionEvents[res.Event] {
		return res, nil
	}
	res.Reportable = true

	var corr *Correlation
	if s.correlator != nil {
		if corr, err = s.correlator.Correlate(ctx, payload); err != nil {
			log.Warnf("[Webhook] Correlation lookup failed event=%s: %v", res.Event, err)
		}
	}
	res.Correlation = corr
	if corr != nil {
		metrics.CorrelationsTotal.WithLabelValues("matched").Inc()
		log.Infof("[Webhook] Notification correlated event=%s key=%s order_code=%s", res.Event, corr.Key, corr.Record.OrderCode)
	} else {
		metrics.CorrelationsTotal.WithLabelValues("missed").Inc()
	}

	if s.reporter != nil {
		input := conversion.Input{
			SourceEvent:     res.Event,
			ProviderEventID: res.ProviderEventID,
			OrderCode:       OrderCode(payload),
			Payload:         payload,
			RawBody:         in.RawBody,
		}
		if corr != nil {
			rec := corr.Record
			input.Record = &rec
		}
		res.Outcome = s.reporter.BuildAndSend(ctx, input)
	}
	return res, nil
}

// eventName reads the top-level event/type discriminator.
func eventName(payload interface{}) string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return EventUnknown
	}
	for _, k := range []string{"event", "type"} {
		if s, ok := jsonwalk.String(obj[k]); ok {
			return s
		}
	}
	return EventUnknown
}

func providerEventID(payload interface{}) string {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := jsonwalk.String(obj["id"])
	return s
}
