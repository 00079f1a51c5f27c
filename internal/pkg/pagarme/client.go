package pagarme

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"

	"github.com/ManuelReschke/sejamais-checkout/internal/pkg/metrics"
)

const (
	DefaultAPIBaseURL = "https://api.pagar.me/core/v5"
	responseBodyLimit = 1 << 20
)

// ErrNotConfigured is returned when no API credential is set.
var ErrNotConfigured = errors.New("pagarme api key is not configured")

// Client talks to the payment-link endpoints of the provider API.
type Client struct {
	APIKey     string
	APIBaseURL string
	HTTPClient *http.Client

	lookups singleflight.Group
}

func NewClient(apiKey, apiBaseURL string, timeout time.Duration) *Client {
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIKey:     strings.TrimSpace(apiKey),
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

func (c *Client) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.APIKey+":"))
}

// GetLink fetches a payment link by id.
func (c *Client) GetLink(ctx context.Context, id string) (*PaymentLink, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("payment link id is required")
	}
	body, err := c.do(ctx, "get_link", http.MethodGet, "/paymentlinks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	link, err := decodeLink(body)
	if err != nil {
		return nil, err
	}
	if link.ID == "" {
		link.ID = id
	}
	return link, nil
}

// FindActiveByName returns the first active link with the given name, or nil
// when the provider reports none. Concurrent lookups for one name share a
// single request; the shared request is not tied to any one caller's
// cancellation, each caller stops waiting when its own ctx is done.
func (c *Client) FindActiveByName(ctx context.Context, name string) (*PaymentLink, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.lookups.DoChan(name, func() (interface{}, error) {
		return c.findActiveByName(shared, name)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*PaymentLink), nil
	}
}

func (c *Client) findActiveByName(ctx context.Context, name string) (*PaymentLink, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("status", StatusActive)
	body, err := c.do(ctx, "list_links", http.MethodGet, "/paymentlinks?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	links, err := decodeLinkList(body)
	if err != nil {
		return nil, err
	}
	for i := range links {
		l := links[i]
		if l.URL == "" {
			continue
		}
		if l.Name != "" && l.Name != name {
			continue
		}
		if l.Status != "" && !l.IsActive() {
			continue
		}
		return &l, nil
	}
	return nil, nil
}

// CreateLink creates a payment link. When the provider rejects the primary
// payload with a validation error on the payment or cart settings, the
// request is retried once with the alternate payload shape.
func (c *Client) CreateLink(ctx context.Context, req CreateLinkRequest) (*PaymentLink, error) {
	body, err := c.do(ctx, "create_link", http.MethodPost, "/paymentlinks", primaryPayload(req))
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.HasFieldError("PaymentSettings", "CartSettings", "payment_settings", "cart_settings") {
			return nil, err
		}
		log.Infof("[Pagarme] Primary payload for %s rejected with status %d, trying alternate payment_config payload",
			req.Name, apiErr.StatusCode)
		body, err = c.do(ctx, "create_link_alt", http.MethodPost, "/paymentlinks", alternatePayload(req))
		if err != nil {
			return nil, err
		}
	}
	return decodeLink(body)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", op, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.ProviderRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}
	var raw struct {
		Message string                     `json:"message"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}
	apiErr.Message = raw.Message
	if len(raw.Errors) > 0 {
		apiErr.Errors = make(map[string][]string, len(raw.Errors))
		for field, msg := range raw.Errors {
			var list []string
			if err := json.Unmarshal(msg, &list); err != nil {
				var single string
				if err := json.Unmarshal(msg, &single); err == nil {
					list = []string{single}
				}
			}
			apiErr.Errors[field] = list
		}
	}
	return apiErr
}
