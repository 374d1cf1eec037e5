// Package api is the HTTP client for the content data service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/hanssays/contentdesk/internal/model"
)

// Error is a failed service call: a transport-level status or a service
// error payload delivered with a 200.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("data service: %s", e.Message)
	}
	return fmt.Sprintf("data service: HTTP %d", e.Status)
}

// Client talks to the data service. Calls are paced by a client-side rate
// limiter so a busy dashboard cannot stampede the service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client. rps <= 0 disables pacing.
func New(baseURL string, timeout time.Duration, rps float64) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Items fetches the ordered item feed for a built query.
func (c *Client) Items(ctx context.Context, vals url.Values) ([]model.Item, error) {
	var items []model.Item
	path := "/items"
	if enc := vals.Encode(); enc != "" {
		path += "?" + enc
	}
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}
	return items, nil
}

// Item fetches a single item by id.
func (c *Client) Item(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	if err := c.getJSON(ctx, fmt.Sprintf("/items/%d", id), &item); err != nil {
		return nil, fmt.Errorf("fetching item %d: %w", id, err)
	}
	return &item, nil
}

// Promote elevates an item into a topic cluster and returns the cluster key.
func (c *Client) Promote(ctx context.Context, id int64) (string, error) {
	var out struct {
		ClusterID string `json:"cluster_id"`
		ErrMsg    string `json:"error"`
	}
	if err := c.post(ctx, fmt.Sprintf("/items/%d/promote", id), &out); err != nil {
		return "", fmt.Errorf("promoting item %d: %w", id, err)
	}
	if out.ErrMsg != "" {
		return "", fmt.Errorf("promoting item %d: %w", id, &Error{Status: http.StatusOK, Message: out.ErrMsg})
	}
	return out.ClusterID, nil
}

// Trending fetches the cluster name to item count mapping.
func (c *Client) Trending(ctx context.Context) (map[string]int, error) {
	var trends map[string]int
	if err := c.getJSON(ctx, "/trending", &trends); err != nil {
		return nil, fmt.Errorf("fetching trending topics: %w", err)
	}
	return trends, nil
}

// Sources fetches the configured upstream streams.
func (c *Client) Sources(ctx context.Context) ([]model.Source, error) {
	var sources []model.Source
	if err := c.getJSON(ctx, "/sources", &sources); err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}
	return sources, nil
}

// angleEnvelope matches the service's angles payload, which reports its own
// failures inside a 200 body.
type angleEnvelope struct {
	model.AngleSet
	ErrMsg string `json:"error"`
}

// Angles fetches the latest stored angles for a cluster.
func (c *Client) Angles(ctx context.Context, clusterID string) (*model.AngleSet, error) {
	var env angleEnvelope
	if err := c.getJSON(ctx, "/topics/"+url.PathEscape(clusterID)+"/angles", &env); err != nil {
		return nil, fmt.Errorf("fetching angles for %s: %w", clusterID, err)
	}
	if env.ErrMsg != "" {
		return nil, fmt.Errorf("fetching angles for %s: %w", clusterID, &Error{Status: http.StatusOK, Message: env.ErrMsg})
	}
	return &env.AngleSet, nil
}

// GenerateAngles asks the service to generate fresh angles for a cluster.
func (c *Client) GenerateAngles(ctx context.Context, clusterID string) (*model.AngleSet, error) {
	var env angleEnvelope
	if err := c.post(ctx, "/topics/"+url.PathEscape(clusterID)+"/generate_angles", &env); err != nil {
		return nil, fmt.Errorf("generating angles for %s: %w", clusterID, err)
	}
	if env.ErrMsg != "" {
		return nil, fmt.Errorf("generating angles for %s: %w", clusterID, &Error{Status: http.StatusOK, Message: env.ErrMsg})
	}
	return &env.AngleSet, nil
}

type packageEnvelope struct {
	model.Package
	ErrMsg string `json:"error"`
}

// Package fetches the stored publishing package for a cluster.
func (c *Client) Package(ctx context.Context, clusterID string) (*model.Package, error) {
	var env packageEnvelope
	if err := c.getJSON(ctx, "/topics/"+url.PathEscape(clusterID)+"/package", &env); err != nil {
		return nil, fmt.Errorf("fetching package for %s: %w", clusterID, err)
	}
	if env.ErrMsg != "" {
		return nil, fmt.Errorf("fetching package for %s: %w", clusterID, &Error{Status: http.StatusOK, Message: env.ErrMsg})
	}
	return &env.Package, nil
}

// GeneratePackage asks the service to generate a full package for a cluster.
func (c *Client) GeneratePackage(ctx context.Context, clusterID string) (*model.Package, error) {
	var env packageEnvelope
	if err := c.post(ctx, "/topics/"+url.PathEscape(clusterID)+"/generate_full_package", &env); err != nil {
		return nil, fmt.Errorf("generating package for %s: %w", clusterID, err)
	}
	if env.ErrMsg != "" {
		return nil, fmt.Errorf("generating package for %s: %w", clusterID, &Error{Status: http.StatusOK, Message: env.ErrMsg})
	}
	return &env.Package, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodPost, path, out)
}

func (c *Client) call(ctx context.Context, method, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Status: resp.StatusCode, Message: serviceMessage(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// serviceMessage pulls the error string out of an error payload, if any.
func serviceMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Detail
	}
	return ""
}
