package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/billing"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/env"
)

type sendWebhookOptions struct {
	URL       string
	Secret    string
	Event     string
	EventID   string
	OrderCode string
	LinkID    string
	Amount    int64
	Timeout   time.Duration
}

func newSendWebhookCmd() *cobra.Command {
	opts := sendWebhookOptions{}
	cmd := &cobra.Command{
		Use:   "send-webhook",
		Short: "Sign and post a sample payment notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Secret == "" {
				opts.Secret = env.GetEnv("PAGARME_WEBHOOK_SECRET", "")
			}
			status, body, err := sendWebhook(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status %d\n%s\n", status, body)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:4000/api/webhook/pagarme", "webhook endpoint")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "HMAC secret (defaults to PAGARME_WEBHOOK_SECRET)")
	cmd.Flags().StringVar(&opts.Event, "event", "order.paid", "event name")
	cmd.Flags().StringVar(&opts.EventID, "event-id", "", "provider event id (random when empty)")
	cmd.Flags().StringVar(&opts.OrderCode, "order-code", "sejamais2_experience_1610000000000", "order code")
	cmd.Flags().StringVar(&opts.LinkID, "link-id", "pl_pg04ke1QGO2R8XDLIou18PK7DqJ6M3wj", "payment link id")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 39999, "amount in cents")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}

func samplePayload(opts sendWebhookOptions) ([]byte, error) {
	eventID := opts.EventID
	if eventID == "" {
		eventID = "evt_" + uuid.NewString()
	}
	return json.Marshal(map[string]interface{}{
		"event": opts.Event,
		"data": map[string]interface{}{
			"id":              eventID,
			"order_code":      opts.OrderCode,
			"payment_link_id": opts.LinkID,
			"amount":          opts.Amount,
		},
	})
}

func sendWebhook(ctx context.Context, opts sendWebhookOptions) (int, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := samplePayload(opts)
	if err != nil {
		return 0, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Secret != "" {
		req.Header.Set("X-Hub-Signature", billing.SignatureHeaderValue(body, opts.Secret))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(respBody), nil
}
