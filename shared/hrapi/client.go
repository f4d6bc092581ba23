package hrapi

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
	"time"
)

// maxErrorBody caps how much of an error response body is kept on a row.
const maxErrorBody = 512

// Config holds HR platform API client configuration
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a thin REST client for the HR platform. Authentication is an
// opaque bearer token; the client never interprets it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Employee is one record from the platform's people snapshot.
type Employee struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
}

// ListValue is one entry of a named enum list.
type ListValue struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// NewClient creates a new HR platform API client
func NewClient(config *Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListEmployees fetches the bulk people snapshot.
func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var out struct {
		Employees []Employee `json:"employees"`
	}
	if err := c.getJSON(ctx, "/v1/people", &out); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return out.Employees, nil
}

// SearchEmployee queries the platform for a single record by business
// identifier. Returns (nil, nil) when the search matches nothing; snapshot
// staleness is expected and a miss here is not a transport failure.
func (c *Client) SearchEmployee(ctx context.Context, identifier string) (*Employee, error) {
	var out struct {
		Employees []Employee `json:"employees"`
	}
	path := "/v1/people/search?identifier=" + url.QueryEscape(identifier)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to search employee: %w", err)
	}
	if len(out.Employees) == 0 {
		return nil, nil
	}
	return &out.Employees[0], nil
}

// ListValues fetches the named enum list snapshot.
func (c *Client) ListValues(ctx context.Context, listName string) ([]ListValue, error) {
	var out struct {
		Values []ListValue `json:"values"`
	}
	path := "/v1/company/named-lists/" + url.PathEscape(listName)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to list values for %q: %w", listName, err)
	}
	return out.Values, nil
}

// UpdateField issues a partial update against one record. The returned code
// and body snippet classify the outcome; err is non-nil only for transport
// failures (the write may or may not have reached the platform).
func (c *Client) UpdateField(ctx context.Context, recordID string, payload map[string]any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal update payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/people/"+url.PathEscape(recordID), bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	c.logger.Debug("HR platform update",
		slog.String("record_id", recordID),
		slog.Int("status", resp.StatusCode),
	)

	return resp.StatusCode, string(snippet), nil
}

// GetFieldValue reads one record back and extracts the value at the dotted
// field path, for post-write verification.
func (c *Client) GetFieldValue(ctx context.Context, recordID, fieldPath string) (string, error) {
	var doc map[string]any
	if err := c.getJSON(ctx, "/v1/people/"+url.PathEscape(recordID), &doc); err != nil {
		return "", fmt.Errorf("failed to read back record: %w", err)
	}

	value, ok := valueAtPath(doc, fieldPath)
	if !ok {
		return "", fmt.Errorf("field %q not present on record %s", fieldPath, recordID)
	}
	return value, nil
}

// valueAtPath walks a dotted path through nested JSON objects.
func valueAtPath(doc map[string]any, path string) (string, bool) {
	segments := strings.Split(path, ".")
	current := any(doc)
	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = obj[seg]
		if !ok {
			return "", false
		}
	}
	if current == nil {
		return "", true
	}
	return fmt.Sprintf("%v", current), true
}

// getJSON performs an authorized GET and decodes a JSON body. Non-2xx
// responses are errors with the code and body snippet preserved.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}
