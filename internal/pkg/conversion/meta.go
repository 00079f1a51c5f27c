package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGraphBaseURL = "https://graph.facebook.com"
	DefaultAPIVersion   = "v18.0"
)

// MetaClient posts events to the Meta Conversions API.
type MetaClient struct {
	PixelID       string
	AccessToken   string
	APIVersion    string
	BaseURL       string
	TestEventCode string
	HTTPClient    *http.Client
}

func NewMetaClient(pixelID, accessToken, apiVersion, baseURL, testEventCode string, timeout time.Duration) *MetaClient {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MetaClient{
		PixelID:       strings.TrimSpace(pixelID),
		AccessToken:   strings.TrimSpace(accessToken),
		APIVersion:    apiVersion,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		TestEventCode: testEventCode,
		HTTPClient:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether both destination id and credential are set.
func (c *MetaClient) Configured() bool {
	return c != nil && c.PixelID != "" && c.AccessToken != ""
}

// Send delivers one event. The raw source payload is not transmitted.
func (c *MetaClient) Send(ctx context.Context, ev Event) error {
	ev.RawPayload = nil
	body := map[string]interface{}{"data": []Event{ev}}
	if c.TestEventCode != "" {
		body["test_event_code"] = c.TestEventCode
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode conversion event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/events?access_token=%s",
		c.BaseURL, c.APIVersion, url.PathEscape(c.PixelID), url.QueryEscape(c.AccessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("conversion api request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
