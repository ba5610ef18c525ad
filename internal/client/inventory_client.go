// Package client is the order service's typed HTTP boundary to the
// inventory service. Every call crosses a process boundary: transport and
// status outcomes are translated into domain errors here so the
// orchestrator never sees raw HTTP failures. The client applies a bounded
// timeout per call and never retries.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/microshop/microshop/internal/errs"
	"github.com/microshop/microshop/internal/models"
)

type InventoryClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetProduct fetches a product from the inventory service, acting as the
// caller identified by token.
func (c *InventoryClient) GetProduct(ctx context.Context, token, productID string) (*models.Product, error) {
	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID)

	resp, err := c.do(ctx, http.MethodGet, url, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.translate(resp, productID, 0)
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product response: %w", err)
	}

	return &product, nil
}

// CheckStock asks the inventory service whether productID has at least
// quantity units in stock. A true result is only a point-in-time read; the
// reduction re-validates on its own.
func (c *InventoryClient) CheckStock(ctx context.Context, token, productID string, quantity int) (bool, error) {
	url := fmt.Sprintf("%s/api/products/%s/check-stock?quantity=%d", c.baseURL, productID, quantity)

	resp, err := c.do(ctx, http.MethodGet, url, token)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, c.translate(resp, productID, quantity)
	}

	var available bool
	if err := json.NewDecoder(resp.Body).Decode(&available); err != nil {
		return false, fmt.Errorf("failed to decode stock check response: %w", err)
	}

	return available, nil
}

// ReduceStock asks the inventory service to decrement stock by quantity.
func (c *InventoryClient) ReduceStock(ctx context.Context, token, productID string, quantity int) error {
	url := fmt.Sprintf("%s/api/products/%s/reduce-stock?quantity=%d", c.baseURL, productID, quantity)

	resp, err := c.do(ctx, http.MethodPut, url, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.translate(resp, productID, quantity)
	}

	return nil
}

func (c *InventoryClient) do(ctx context.Context, method, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("inventory service timed out: %w", errs.ErrUpstreamUnavailable)
		}
		return nil, fmt.Errorf("failed to call inventory service: %w", errs.ErrUpstreamUnavailable)
	}

	return resp, nil
}

// errorBody is the shape of the inventory service's error responses.
type errorBody struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	Available *int   `json:"available"`
}

// translate maps a non-200 inventory response to a domain error, the same
// way the service's own handlers classify them: a 404 on a product path
// means the product is unavailable, a 400 whose body signals insufficient
// stock carries the remaining quantity, auth failures and unavailability
// map to their sentinels.
func (c *InventoryClient) translate(resp *http.Response, productID string, quantity int) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &errs.ProductUnavailableError{ProductID: productID}

	case http.StatusBadRequest:
		if body.Type == "insufficient-stock" || strings.Contains(strings.ToLower(body.Error), "insufficient stock") {
			available := -1
			if body.Available != nil {
				available = *body.Available
			}
			return &errs.InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: available,
			}
		}
		return fmt.Errorf("inventory service rejected request: %s", body.Error)

	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("inventory call for product %s: %w", productID, errs.ErrAccessDenied)

	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("inventory call for product %s: %w", productID, errs.ErrUpstreamUnavailable)

	default:
		return fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}
}
