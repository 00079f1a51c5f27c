package billing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/jsonwalk"
	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/linkstore"
)

func seededStore(t *testing.T) linkstore.Store {
	t.Helper()
	store := linkstore.NewFileStore(filepath.Join(t.TempDir(), "paymentlinks.json"))
	ctx := context.Background()
	if err := store.Put(ctx, "pl_DeepLink42", linkstore.Record{OrderCode: "ns_experience_1", PaymentLinkID: "pl_DeepLink42"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Put(ctx, "pl_Other", linkstore.Record{OrderCode: "ns_last_option_2", PaymentLinkID: "pl_Other"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func mustDecode(t *testing.T, raw string) interface{} {
	t.Helper()
	v, err := jsonwalk.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestCorrelator_Correlate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantKey string
	}{
		{
			name:    "payment link id at depth three in containers",
			payload: `{"type":"order.paid","data":{"order":{"checkout":{"payment_link_id":"pl_DeepLink42"}}}}`,
			wantKey: "pl_DeepLink42",
		},
		{
			name:    "nested payment_link object",
			payload: `{"data":{"payment_link":{"id":"pl_DeepLink42"}}}`,
			wantKey: "pl_DeepLink42",
		},
		{
			name:    "order code scan",
			payload: `{"data":{"code":"ns_last_option_2","id":"or_123"}}`,
			wantKey: "pl_Other",
		},
		{
			name:    "id with link pattern",
			payload: `{"data":{"object":{"id":"pl_Other"}}}`,
			wantKey: "pl_Other",
		},
		{
			name:    "shallow string carrying a link id",
			payload: `{"type":"order.paid","url":"https://pay.example/pl_DeepLink42"}`,
			wantKey: "pl_DeepLink42",
		},
		{
			name:    "identifier only inside unknown container",
			payload: `{"type":"order.paid","customer":{"extra":{"payment_link_id":"pl_DeepLink42"}}}`,
		},
		{
			name:    "unknown link id",
			payload: `{"data":{"payment_link_id":"pl_Unknown"}}`,
		},
		{
			name:    "not an object",
			payload: `["pl_DeepLink42"]`,
		},
	}

	c := NewCorrelator(seededStore(t))
	for _, tt := range tests {
		got, err := c.Correlate(context.Background(), mustDecode(t, tt.payload))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if tt.wantKey == "" {
			if got != nil {
				t.Fatalf("%s: expected no match, got %+v", tt.name, got)
			}
			continue
		}
		if got == nil || got.Key != tt.wantKey {
			t.Fatalf("%s: got %+v, want key %s", tt.name, got, tt.wantKey)
		}
	}
}

func TestCorrelator_DepthBound(t *testing.T) {
	raw := `{"data":{"data":{"data":{"data":{"data":{"data":{"data":{"data":{"data":{"payment_link_id":"pl_DeepLink42"}}}}}}}}}}`
	got, err := NewCorrelator(seededStore(t)).Correlate(context.Background(), mustDecode(t, raw))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != nil {
		t.Fatalf("expected identifiers beyond the depth bound to be ignored, got %+v", got)
	}
}

func TestOrderCode(t *testing.T) {
	if got := OrderCode(mustDecode(t, `{"data":{"order_code":"ns_a_1"}}`)); got != "ns_a_1" {
		t.Fatalf("OrderCode = %q", got)
	}
	if got := OrderCode(mustDecode(t, `{"data":{}}`)); got != "" {
		t.Fatalf("OrderCode = %q, want empty", got)
	}
}
