package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foospace/sprintsync/internal/types"
)

// Client provides HTTP access to the Notion API.
type Client struct {
	BaseURL    string
	Token      string
	APIVersion string
	HTTPClient *http.Client
}

// NewClient creates a new Notion client.
func NewClient(token, apiVersion string) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		Token:      token,
		APIVersion: apiVersion,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL returns a copy of the client pointed at a different endpoint.
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = strings.TrimSuffix(baseURL, "/")
	return &cp
}

// QueryDatabase returns every record matching filter, following the
// continuation cursor until the result set is exhausted. A nil filter
// returns the whole database.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter map[string]any) ([]types.Record, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("database id is required")
	}
	apiURL := fmt.Sprintf("%s/databases/%s/query", c.BaseURL, url.PathEscape(databaseID))

	var all []types.Record
	var cursor string
	for {
		payload := map[string]any{"page_size": pageSize}
		if filter != nil {
			maps.Copy(payload, filter)
		}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal query: %w", err)
		}

		body, err := c.doRequest(ctx, http.MethodPost, apiURL, data)
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", databaseID, err)
		}

		var resp QueryResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parse query response: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}
	return all, nil
}

// GetPage fetches a single page with its properties.
func (c *Client) GetPage(ctx context.Context, pageID string) (*types.Record, error) {
	apiURL := fmt.Sprintf("%s/pages/%s", c.BaseURL, url.PathEscape(pageID))
	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", pageID, err)
	}
	var page types.Record
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parse page response: %w", err)
	}
	return &page, nil
}

// PageTitle resolves the text of a page's title property. Pages without a
// title property resolve to a placeholder rather than an error. Missing pages
// and an unconfigured token report types.ErrPageNotFound.
func (c *Client) PageTitle(ctx context.Context, pageID string) (string, error) {
	if c.Token == "" {
		return "", types.ErrPageNotFound
	}
	page, err := c.GetPage(ctx, pageID)
	if err != nil {
		return "", err
	}
	for _, prop := range page.Properties {
		if prop.Type == types.PropTitle {
			return prop.FullText(), nil
		}
	}
	return fmt.Sprintf("Unnamed Page (ID: %s)", pageID), nil
}

// doRequest executes an authenticated HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("notion token not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", c.APIVersion)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sprintsync/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", types.ErrPageNotFound, apiMessage(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("notion API returned %d: %s", resp.StatusCode, apiMessage(respBody))
	}
	return respBody, nil
}

func apiMessage(body []byte) string {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Code + ": " + apiErr.Message
	}
	return string(body)
}

// IsNotFound reports whether err came from a missing page.
func IsNotFound(err error) bool {
	return errors.Is(err, types.ErrPageNotFound)
}
