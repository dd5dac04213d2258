package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

const (
	defaultTimeout = 3 * time.Second
	maxFailCount   = 23 // max 10 minutes
)

var ErrEndpointSuspended = errors.New("webhook endpoint suspended after repeated failures")

// Client delivers tenant webhooks. Endpoints that keep failing are skipped
// until their failure counter expires.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
}

func New(userAgent string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: userAgent,
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func failKey(url string) string {
	return "fail:" + url
}

func (c *Client) failCount(url string) int {
	x, found := c.cache.Get(failKey(url))
	if !found {
		return 0
	}
	return x.(int)
}

func (c *Client) fail(url string) {
	if _, err := c.cache.IncrementInt(failKey(url), 1); err != nil {
		c.cache.Set(failKey(url), 1, cache.DefaultExpiration)
	}
}

// Post sends payload as JSON. Any 2xx response counts as delivered.
func (c *Client) Post(ctx context.Context, url string, payload any) error {
	ctx, span := tracer.Start(ctx, "Client.Webhook.Post")
	defer span.End()

	span.SetAttributes(attribute.String("url", url))

	if c.failCount(url) >= maxFailCount {
		return ErrEndpointSuspended
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.fail(url)
		span.RecordError(err)
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.fail(url)
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		span.RecordError(err)
		return err
	}

	c.cache.Delete(failKey(url))
	return nil
}
