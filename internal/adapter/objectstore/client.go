// Package objectstore fetches radar containers from a REST object store by UUID.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/storage"
	"github.com/google/uuid"
)

// maxObjectSize caps a single download.
const maxObjectSize = 512 << 20

// Client implements storage.BlobFetcher against GET {baseURL}/objects/{uuid}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an object store client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads the object with the given id.
func (c *Client) Fetch(ctx context.Context, id uuid.UUID) ([]byte, error) {
	u := fmt.Sprintf("%s/objects/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObjectStoreDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ObjectStoreRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("object store request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.metrics.ObjectStoreRequests.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	default:
		c.metrics.ObjectStoreRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("object store error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectSize))
	if err != nil {
		c.metrics.ObjectStoreRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read object %s: %w", id, err)
	}
	c.metrics.ObjectStoreRequests.WithLabelValues("success").Inc()
	c.logger.Debug("object fetched", "id", id, "bytes", len(data))
	return data, nil
}
