package conversion

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/auditlog"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/metrics"
)

// Outcome is the delivery result of one conversion event.
type Outcome string

const (
	OutcomeDelivered            Outcome = "delivered"
	OutcomeSkippedNotConfigured Outcome = "skipped_not_configured"
	OutcomeFailedAfterRetries   Outcome = "failed_after_retries"
)

const (
	DefaultCurrency = "BRL"
	maxAttempts     = 3
	backoffStep     = 500 * time.Millisecond
)

// Sender delivers a built event to the ad-attribution API.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, ev Event) error
}

// LogEntry is one line of the local conversion log.
type LogEntry struct {
	TS                 time.Time `json:"ts"`
	SourceEvent        string    `json:"source_event"`
	DeliveryConfigured bool      `json:"delivery_configured"`
	Event              Event     `json:"event"`
}

type Reporter struct {
	log      *auditlog.CappedLog
	sender   Sender
	currency string
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewReporter(l *auditlog.CappedLog, sender Sender, currency string) *Reporter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Reporter{
		log:      l,
		sender:   sender,
		currency: currency,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// BuildAndSend records the event locally, then delivers it with up to three
// attempts. Failures are logged, never returned.
func (r *Reporter) BuildAndSend(ctx context.Context, in Input) Outcome {
	ev := BuildEvent(in, r.currency, r.now())
	configured := r.sender != nil && r.sender.Configured()

	if r.log != nil {
		entry := LogEntry{
			TS:                 r.now().UTC(),
			SourceEvent:        in.SourceEvent,
			DeliveryConfigured: configured,
			Event:              ev,
		}
		if err := r.log.Append(entry); err != nil {
			log.Warnf("[Conversion] Failed to append conversion log event_id=%s: %v", ev.EventID, err)
		}
	}

	if !configured {
		metrics.ConversionDeliveriesTotal.WithLabelValues(string(OutcomeSkippedNotConfigured)).Inc()
		log.Infof("[Conversion] Delivery not configured, event %s logged only", ev.EventID)
		return OutcomeSkippedNotConfigured
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		err := r.sender.Send(ctx, ev)
		metrics.ConversionAttemptDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.ConversionDeliveriesTotal.WithLabelValues(string(OutcomeDelivered)).Inc()
			log.Infof("[Conversion] Event delivered event_id=%s event=%s attempt=%d", ev.EventID, ev.EventName, attempt)
			return OutcomeDelivered
		}
		log.Warnf("[Conversion] Delivery attempt %d failed event_id=%s: %v", attempt, ev.EventID, err)
		if attempt < maxAttempts {
			if err := r.sleep(ctx, time.Duration(attempt)*backoffStep); err != nil {
				break
			}
		}
	}

	metrics.ConversionDeliveriesTotal.WithLabelValues(string(OutcomeFailedAfterRetries)).Inc()
	log.Errorf("[Conversion] Giving up on event %s after %d attempts", ev.EventID, maxAttempts)
	return OutcomeFailedAfterRetries
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
