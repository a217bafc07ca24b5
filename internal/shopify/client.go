package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const DefaultAPIVersion = "2025-10"

// ErrNotConfigured is returned at call time when the store name or
// credentials are missing, so a deployment without Shopify access
// still serves the local order API.
var ErrNotConfigured = errors.New("shopify credentials not configured")

// UpstreamError carries the status and body of a non-2xx Shopify
// response for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("shopify api error (%d): %s", e.StatusCode, e.Body)
}

// Client is a thin pass-through to the Shopify Admin REST API. It
// performs no transformation beyond unwrapping the single-key response
// envelopes; payloads stay raw JSON and are never reconciled with
// local orders.
type Client struct {
	baseURL     string
	apiKey      string
	apiPassword string
	httpClient  *http.Client
}

func NewClient(storeName, apiKey, apiPassword, apiVersion string, httpClient *http.Client) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	var baseURL string
	if storeName != "" {
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", storeName, apiVersion)
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		apiPassword: apiPassword,
		httpClient:  httpClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if c.baseURL == "" || c.apiKey == "" || c.apiPassword == "" {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// unwrap extracts one key of a Shopify response envelope, e.g. the
// "shop" of {"shop": {...}}.
func unwrap(data json.RawMessage, key string) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode shopify response: %w", err)
	}
	return envelope[key], nil
}

func unwrapList(data json.RawMessage, key string) ([]json.RawMessage, error) {
	inner, err := unwrap(data, key)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return []json.RawMessage{}, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("decode shopify %s list: %w", key, err)
	}
	return list, nil
}

func (c *Client) GetShop(ctx context.Context) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, "/shop.json", nil)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "shop")
}

func (c *Client) ListProducts(ctx context.Context, limit int) ([]json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products.json?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}
	return unwrapList(data, "products")
}

func (c *Client) GetProduct(ctx context.Context, productID string) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%s.json", productID), nil)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "product")
}

func (c *Client) ListOrders(ctx context.Context, limit int, status string) ([]json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders.json?limit=%d&status=%s", limit, status), nil)
	if err != nil {
		return nil, err
	}
	return unwrapList(data, "orders")
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%s.json", orderID), nil)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "order")
}

// GetOrderByNumber scans the most recent orders for a matching
// order_number. Shopify has no direct lookup for it, so this fetches
// up to 250 orders and filters client-side.
func (c *Client) GetOrderByNumber(ctx context.Context, orderNumber int64) (json.RawMessage, error) {
	orders, err := c.ListOrders(ctx, 250, "any")
	if err != nil {
		return nil, err
	}

	for _, raw := range orders {
		var probe struct {
			OrderNumber int64 `json:"order_number"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.OrderNumber == orderNumber {
			return raw, nil
		}
	}

	return nil, nil
}

func (c *Client) CreateOrder(ctx context.Context, order json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"order": order})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/orders.json", body)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "order")
}

func (c *Client) UpdateOrder(ctx context.Context, orderID string, order json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"order": order})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/orders/%s.json", orderID), body)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "order")
}

func (c *Client) ListFulfillments(ctx context.Context, orderID string) ([]json.RawMessage, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%s/fulfillments.json", orderID), nil)
	if err != nil {
		return nil, err
	}
	return unwrapList(data, "fulfillments")
}

func (c *Client) CreateFulfillment(ctx context.Context, orderID string, fulfillment json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"fulfillment": fulfillment})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%s/fulfillments.json", orderID), body)
	if err != nil {
		return nil, err
	}
	return unwrap(data, "fulfillment")
}
