// Package wishlistapi is the HTTP client for the wishlist service.
package wishlistapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/pawmart/storefront/pkg/errors"
	"github.com/pawmart/storefront/pkg/httpclient"
	"github.com/pawmart/storefront/pkg/logger"
	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

const serviceName = "wishlist"

// maxBody bounds how much of a success response is decoded.
const maxBody = 4 << 20

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// Client calls the wishlist endpoints on behalf of the signed-in shopper.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	tokens  TokenSource
	logger  *slog.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, tokens TokenSource, httpCfg httpclient.Config, cbCfg httpclient.CircuitBreakerConfig, logger *slog.Logger) *Client {
	return &Client{
		http:    httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), cbCfg, logger),
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		logger:  logger,
	}
}

type itemsResponse struct {
	Items []domain.WishlistItem `json:"items"`
}

type itemResponse struct {
	Item *domain.WishlistItem `json:"item"`
}

type syncItem struct {
	ProductID string `json:"productId"`
}

type syncRequest struct {
	Items []syncItem `json:"items"`
}

type addRequest struct {
	ProductID string `json:"productId"`
}

// List returns the server's wishlist.
func (c *Client) List(ctx context.Context) ([]domain.WishlistItem, error) {
	var out itemsResponse
	if err := c.call(ctx, http.MethodGet, "/api/wishlist", nil, &out); err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return out.Items, nil
}

// Sync pushes productIDs; the server keeps one entry per product and returns
// the merged list.
func (c *Client) Sync(ctx context.Context, productIDs []string) ([]domain.WishlistItem, error) {
	req := syncRequest{Items: make([]syncItem, len(productIDs))}
	for i, id := range productIDs {
		req.Items[i] = syncItem{ProductID: id}
	}
	var out itemsResponse
	if err := c.call(ctx, http.MethodPost, "/api/wishlist/sync", req, &out); err != nil {
		return nil, fmt.Errorf("sync wishlist: %w", err)
	}
	return out.Items, nil
}

// Add saves one product on the server.
func (c *Client) Add(ctx context.Context, productID string) (*domain.WishlistItem, error) {
	var out itemResponse
	if err := c.call(ctx, http.MethodPost, "/api/wishlist/add", addRequest{ProductID: productID}, &out); err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	return out.Item, nil
}

// Remove deletes one product on the server.
func (c *Client) Remove(ctx context.Context, productID string) error {
	if err := c.call(ctx, http.MethodDelete, "/api/wishlist/"+url.PathEscape(productID), nil, nil); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

// Clear deletes every entry on the server.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.call(ctx, http.MethodDelete, "/api/wishlist", nil, nil); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}

// call sends one authenticated request. in is JSON-encoded when non-nil; out
// receives the decoded body when non-nil. Non-2xx responses become AppErrors.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	token := c.tokens.Token()
	if token == "" {
		return apperrors.Unauthorized("no active session")
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
