package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

// Client calls the arena's HTTP API on behalf of the solver.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches the current board snapshot, starting a board when
// none is active.
func (c *Client) Status(ctx context.Context) (*service.FireResponse, error) {
	var resp service.FireResponse
	if err := c.get(ctx, "/fire", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fire shoots the engine coordinate (x, y). The path takes row first.
func (c *Client) Fire(ctx context.Context, x, y int) (*service.FireResponse, error) {
	var resp service.FireResponse
	if err := c.get(ctx, fmt.Sprintf("/fire/%d/%d", y, x), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FireAvenger shoots (x, y) spending the avenger.
func (c *Client) FireAvenger(ctx context.Context, x, y int, avenger engine.Avenger) (*service.AvengerFireResponse, error) {
	var resp service.AvengerFireResponse
	if err := c.get(ctx, fmt.Sprintf("/fire/%d/%d/avenger/%s", y, x, avenger), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset abandons the ongoing board; with wipe it clears all data for
// the token.
func (c *Client) Reset(ctx context.Context, wipe bool) error {
	path := "/reset"
	if wipe {
		path += "?wipe"
	}
	return c.get(ctx, path, &struct{}{})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var wire struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &wire) == nil && wire.Error != "" {
			return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, wire.Error)
		}
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
