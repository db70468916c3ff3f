package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client represents a Supabase PostgREST client authenticated with the service key
type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a new Supabase client
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		URL:        strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Error is returned for PostgREST responses with status >= 400
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from PostgREST
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// Query executes a filtered select on a table. Query values use PostgREST
// operator syntax, e.g. {"user_id": "eq.abc", "order": "date.asc"}.
func (c *Client) Query(ctx context.Context, table string, query map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, table, query, nil, "")
}

// Insert inserts one record or a slice of records
func (c *Client) Insert(ctx context.Context, table string, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, table, nil, data, "return=representation")
}

// Upsert inserts or updates records.
// onConflict specifies the columns to detect conflicts (e.g., "user_id,date")
func (c *Client) Upsert(ctx context.Context, table string, data any, onConflict string) ([]byte, error) {
	query := map[string]string{}
	if onConflict != "" {
		query["on_conflict"] = onConflict
	}
	// resolution=merge-duplicates will update existing rows
	return c.do(ctx, http.MethodPost, table, query, data, "return=representation,resolution=merge-duplicates")
}

// UpdateWhere updates records matching a query
func (c *Client) UpdateWhere(ctx context.Context, table string, query map[string]string, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, table, query, data, "return=representation")
}

// DeleteWhere deletes records matching a query
func (c *Client) DeleteWhere(ctx context.Context, table string, query map[string]string) error {
	_, err := c.do(ctx, http.MethodDelete, table, query, nil, "")
	return err
}

func (c *Client) do(ctx context.Context, method, table string, query map[string]string, data any, prefer string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.URL, table)

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", table, err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	if len(query) > 0 {
		q := url.Values{}
		for key, value := range query {
			q.Add(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
