package pagarme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("sk_test", srv.URL, 2*time.Second)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient("", "", 0)
	assert.False(t, c.Configured())

	_, err := c.GetLink(context.Background(), "pl_abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_GetLink_BasicAuthAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("sk_test:"))
		assert.Equal(t, want, r.Header.Get("Authorization"))
		assert.Equal(t, "/paymentlinks/pl_abc123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pl_abc123","status":"active","url":"https://payment-link-v3.pagar.me/pl_abc123","amount":39999}`))
	})

	link, err := c.GetLink(context.Background(), "pl_abc123")
	require.NoError(t, err)
	assert.Equal(t, "pl_abc123", link.ID)
	assert.True(t, link.IsActive())
	assert.Equal(t, int64(39999), link.Amount)
}

func TestClient_FindActiveByName(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
	}{
		{"bare array", `[{"id":"pl_a","name":"ns-experience-39999","status":"active","url":"https://x/pl_a"}]`, "pl_a"},
		{"wrapped data", `{"data":[{"id":"pl_b","status":"active","url":"https://x/pl_b"}]}`, "pl_b"},
		{"skips inactive and urlless", `{"data":[{"id":"pl_c","status":"inactive","url":"https://x/pl_c"},{"id":"pl_d","status":"active"},{"id":"pl_e","status":"active","short_url":"https://x/pl_e"}]}`, "pl_e"},
		{"empty", `{"data":[]}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "ns-experience-39999", r.URL.Query().Get("name"))
				assert.Equal(t, "active", r.URL.Query().Get("status"))
				_, _ = w.Write([]byte(tt.body))
			})

			link, err := c.FindActiveByName(context.Background(), "ns-experience-39999")
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.Nil(t, link)
				return
			}
			require.NotNil(t, link)
			assert.Equal(t, tt.wantID, link.ID)
		})
	}
}

func TestClient_FindActiveByName_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var requests int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte(`{"data":[{"id":"pl_shared","status":"active","url":"https://x/pl_shared"}]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.FindActiveByName(ctx, "ns-experience-39999")
		firstErr <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type result struct {
		link *PaymentLink
		err  error
	}
	second := make(chan result, 1)
	go func() {
		link, err := c.FindActiveByName(context.Background(), "ns-experience-39999")
		second <- result{link, err}
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	got := <-second
	require.NoError(t, got.err)
	require.NotNil(t, got.link)
	assert.Equal(t, "pl_shared", got.link.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestClient_CreateLink_RetriesWithAlternatePayload(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		raw, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))

		if n == 1 {
			assert.Contains(t, payload, "payment_settings")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"The request is invalid.","errors":{"PaymentSettings":["invalid"]}}`))
			return
		}
		assert.Contains(t, payload, "payment_config")
		assert.NotContains(t, payload, "payment_settings")
		_, _ = w.Write([]byte(`{"data":{"id":"pl_new","url":"https://payment-link-v3.pagar.me/pl_new"}}`))
	})

	link, err := c.CreateLink(context.Background(), CreateLinkRequest{
		Name:      "ns-experience-39999",
		OrderCode: "ns_experience_1",
		Item:      LinkItem{ID: "experience", Name: "1 unidade", Amount: 39999},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "pl_new", link.ID)
	assert.Equal(t, "https://payment-link-v3.pagar.me/pl_new", link.URL)
}

func TestClient_CreateLink_OtherErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authorization has been denied for this request."}`))
	})

	_, err := c.CreateLink(context.Background(), CreateLinkRequest{Name: "x"})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDecodeLink_FieldPriority(t *testing.T) {
	link, err := decodeLink([]byte(`{"short_url":"https://s/pl_short","data":{"url":"https://x/pl_data"}}`))
	require.NoError(t, err)
	assert.Equal(t, "https://s/pl_short", link.URL)
	assert.Equal(t, "pl_short", link.ID)

	link, err = decodeLink([]byte(`{"payment_link_id":"pl_pid","url":"https://x/other","order":{"items":[{"unit_price":75998}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "pl_pid", link.ID)
	assert.Equal(t, int64(75998), link.Amount)

	_, err = decodeLink([]byte(`{"foo":"bar"}`))
	assert.Error(t, err)
}

func TestExtractLinkID(t *testing.T) {
	assert.Equal(t, "pl_abc", ExtractLinkID("pl_abc"))
	assert.Equal(t, "pl_abc", ExtractLinkID("https://payment-link-v3.pagar.me/pl_abc"))
	assert.Equal(t, "xyz", ExtractLinkID("https://example.com/links/xyz/"))
	assert.Equal(t, "", ExtractLinkID("  "))
	assert.True(t, IsLinkID("pl_Z9"))
	assert.False(t, IsLinkID("or_Z9"))
}

func TestAPIError_HasFieldError(t *testing.T) {
	e := newAPIError(422, []byte(`{"errors":{"cart_settings.items":["required"]}}`))
	assert.True(t, e.HasFieldError("CartSettings", "cart_settings"))
	assert.False(t, e.HasFieldError("PaymentSettings"))
}
