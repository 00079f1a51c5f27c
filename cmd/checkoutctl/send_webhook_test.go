package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/billing"
)

func TestSendWebhook_SignsExactBody(t *testing.T) {
	var verification billing.Verification
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		verification = billing.VerifyWebhookSignature(raw, r.Header.Get("X-Hub-Signature"), "whsec")
		_ = json.Unmarshal(raw, &payload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	status, body, err := sendWebhook(context.Background(), sendWebhookOptions{
		URL:       srv.URL,
		Secret:    "whsec",
		Event:     "order.paid",
		EventID:   "evt_1",
		OrderCode: "sejamais2_experience_1",
		LinkID:    "pl_abc",
		Amount:    39999,
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, body)
	assert.True(t, verification.Authentic)
	assert.False(t, verification.Skipped)

	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "order.paid", payload["event"])
	assert.Equal(t, "evt_1", data["id"])
	assert.Equal(t, "pl_abc", data["payment_link_id"])
	assert.Equal(t, float64(39999), data["amount"])
}

func TestSamplePayload_RandomEventID(t *testing.T) {
	a, err := samplePayload(sendWebhookOptions{Event: "order.paid"})
	require.NoError(t, err)
	b, err := samplePayload(sendWebhookOptions{Event: "order.paid"})
	require.NoError(t, err)
	assert.NotEqual(t, string(a), string(b))
}
