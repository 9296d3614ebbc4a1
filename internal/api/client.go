// Package api is the typed client for the billing backend contract
// consumed by the console.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"clothbill/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the backend at baseURL. The underlying HTTP client
// carries no timeout: a hung backend call blocks only the operation that
// issued it, which is the behavior the console relies on.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

func (c *Client) FetchStock(ctx context.Context) ([]domain.StockItem, error) {
	var items []domain.StockItem
	if err := c.get(ctx, "/api/stock", &items); err != nil {
		return nil, fmt.Errorf("fetch stock: %w", err)
	}
	return items, nil
}

func (c *Client) FetchLastBill(ctx context.Context, phone string) (domain.LastBillSummary, error) {
	var summary domain.LastBillSummary
	path := "/api/customer/last-bill/" + url.PathEscape(phone)
	if err := c.get(ctx, path, &summary); err != nil {
		return domain.LastBillSummary{}, fmt.Errorf("fetch last bill: %w", err)
	}
	return summary, nil
}

func (c *Client) AddStock(ctx context.Context, req domain.AddStockRequest) error {
	var resp domain.AddStockResponse
	if err := c.post(ctx, "/api/stock/add", req, &resp); err != nil {
		return fmt.Errorf("add stock: %w", err)
	}
	return nil
}

func (c *Client) SaveBill(ctx context.Context, req domain.SaveBillRequest) (domain.SaveBillResponse, error) {
	var resp domain.SaveBillResponse
	if err := c.post(ctx, "/api/bill/save", req, &resp); err != nil {
		return domain.SaveBillResponse{}, fmt.Errorf("save bill: %w", err)
	}
	return resp, nil
}

func (c *Client) FetchWorkers(ctx context.Context) ([]domain.Worker, error) {
	var workers []domain.Worker
	if err := c.get(ctx, "/api/workers", &workers); err != nil {
		return nil, fmt.Errorf("fetch workers: %w", err)
	}
	return workers, nil
}

func (c *Client) ResetIncentives(ctx context.Context) error {
	var resp domain.ResetIncentivesResponse
	if err := c.post(ctx, "/api/incentives/reset", nil, &resp); err != nil {
		return fmt.Errorf("reset incentives: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) post(ctx context.Context, path string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// errorFromResponse surfaces the backend's error field when the body carries
// one, falling back to the raw status.
func errorFromResponse(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("backend: %s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("backend: unexpected status %d", resp.StatusCode)
}
