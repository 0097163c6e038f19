// Package gateway is the HTTP client for the routing gateway the console
// manages. The gateway owns serving-time routing and the actual upstream
// calls; the console only asks it to verify pairs and to enumerate each
// provider's live model list.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nulzo/prism-console/internal/core/domain"
	"github.com/nulzo/prism-console/internal/httpclient"
)

// Client talks to the gateway's admin API.
type Client struct {
	baseURL string
	apiKey  string
	http    httpclient.HTTPClient
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.apiKey != "" {
		h["Authorization"] = "Bearer " + c.apiKey
	}
	return h
}

// VerifyAssociation issues a test call through an existing association.
func (c *Client) VerifyAssociation(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/admin/v1/associations/%s/verify", c.baseURL, url.PathEscape(id))
	if err := httpclient.SendRequest(ctx, c.http, http.MethodPost, endpoint, c.headers(), nil, nil); err != nil {
		return &domain.RemoteCallError{Target: id, Err: err}
	}
	return nil
}

// VerifyModel issues a test call against a provider/model pair that is not
// associated yet.
func (c *Client) VerifyModel(ctx context.Context, providerID, modelName string) error {
	endpoint := fmt.Sprintf("%s/admin/v1/providers/%s/verify", c.baseURL, url.PathEscape(providerID))
	body := map[string]string{"model": modelName}
	if err := httpclient.SendRequest(ctx, c.http, http.MethodPost, endpoint, c.headers(), body, nil); err != nil {
		return &domain.RemoteCallError{Target: providerID + "/" + modelName, Err: err}
	}
	return nil
}

type upstreamModel struct {
	ID string `json:"id"`
}

type upstreamModelList struct {
	Data []upstreamModel `json:"data"`
}

// ListUpstreamModels returns the provider's live model identifiers as the
// gateway currently sees them, in upstream order.
func (c *Client) ListUpstreamModels(ctx context.Context, providerID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/admin/v1/providers/%s/models", c.baseURL, url.PathEscape(providerID))

	var list upstreamModelList
	if err := httpclient.SendRequest(ctx, c.http, http.MethodGet, endpoint, c.headers(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list upstream models for %s: %w", providerID, err)
	}

	names := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		names = append(names, m.ID)
	}
	return names, nil
}
