package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/tally/internal/domain/leaderboard"
)

const maxBodyBytes = 32 << 20

// Client talks to a running tally server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Board is the leaderboard as served.
type Board struct {
	List     string            `json:"list"`
	Snapshot string            `json:"snapshot"`
	BuiltAt  time.Time         `json:"builtAt"`
	Rows     []leaderboard.Row `json:"rows"`
	Errors   []string          `json:"errors"`
}

// Health checks that the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Leaderboard fetches list's full leaderboard.
func (c *Client) Leaderboard(ctx context.Context, list string) (*Board, error) {
	var b Board
	if err := c.getJSON(ctx, "/leaderboard", listQuery(list), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Rank fetches user's row on list.
func (c *Client) Rank(ctx context.Context, list, user string) (leaderboard.Row, error) {
	var row leaderboard.Row
	err := c.getJSON(ctx, "/rank/"+url.PathEscape(user), listQuery(list), &row)
	return row, err
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	resp, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return resp, nil
}

func listQuery(list string) url.Values {
	if list == "" {
		return nil
	}
	return url.Values{"list": {list}}
}
