// api/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UnknownProduct is the placeholder shown when a product id cannot be
// resolved to a display name.
const UnknownProduct = "Unknown Product"

// Resolver maps a product id from a cart event payload to a display name.
// The commerce platform is an external collaborator; lookups may fail and
// callers must degrade to UnknownProduct, never propagate.
type Resolver interface {
	DisplayName(ctx context.Context, productID string) (string, error)
}

// HTTPResolver queries the commerce platform's product endpoint.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewHTTPResolver(baseURL string, log *zap.Logger) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
		log:     log,
	}
}

func (r *HTTPResolver) DisplayName(ctx context.Context, productID string) (string, error) {
	url := fmt.Sprintf("%s/products/%s", r.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build product lookup request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("product lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("product lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode product lookup response: %w", err)
	}

	if body.Name == "" {
		return "", fmt.Errorf("product %s has no name", productID)
	}
	return body.Name, nil
}

// Static resolves from a fixed map. Tests and dev mode.
type Static map[string]string

func (s Static) DisplayName(_ context.Context, productID string) (string, error) {
	name, ok := s[productID]
	if !ok || name == "" {
		return "", fmt.Errorf("product %s not found", productID)
	}
	return name, nil
}
