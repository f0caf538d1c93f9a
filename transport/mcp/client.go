package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

// Client is a thin MCP surface that proxies tool calls to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates an MCP client targeting the given API base URL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	c.initMCPServer()
	return c
}

// GetMCPServer returns the underlying MCP server.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Battleship Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Battleship Arena - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Discover all 28 ship cells of the six hidden ships on a 12x12 board in
as few moves as possible. Fully discovering the helicarrier grants a
one-shot avenger (thor, ironman or hulk).

AVAILABLE TOOLS:
- status: current board snapshot (grid, move count, avenger flag)
- fire: shoot one cell by row/column
- fire_avenger: shoot one cell and spend the avenger
- reset: abandon the ongoing board (optionally wipe all data)

All tools require a token identifying your session.`),
	)
	c.registerTools()
}

func (c *Client) registerTools() {
	tokenProp := map[string]interface{}{
		"type":        "string",
		"description": "Access token identifying the session",
	}
	rowProp := map[string]interface{}{
		"type":        "number",
		"description": "Row of the target cell (0-11)",
	}
	columnProp := map[string]interface{}{
		"type":        "number",
		"description": "Column of the target cell (0-11)",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "status",
		Description: "Get the current board snapshot, starting a board if none is active",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": tokenProp,
			},
			Required: []string{"token"},
		},
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "fire",
		Description: "Fire at a cell identified by row and column",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token":  tokenProp,
				"row":    rowProp,
				"column": columnProp,
			},
			Required: []string{"token", "row", "column"},
		},
	}, c.handleFire)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "fire_avenger",
		Description: "Fire at a cell and spend the avenger (thor, ironman or hulk)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token":  tokenProp,
				"row":    rowProp,
				"column": columnProp,
				"avenger": map[string]interface{}{
					"type":        "string",
					"description": "Avenger to use: thor, ironman or hulk",
				},
			},
			Required: []string{"token", "row", "column", "avenger"},
		},
	}, c.handleFireAvenger)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Abandon the ongoing board; with wipe=true remove all data for the token",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": tokenProp,
				"wipe": map[string]interface{}{
					"type":        "boolean",
					"description": "Also wipe the user record",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleReset)
}

// apiCall performs an authenticated GET against the REST API.
func (c *Client) apiCall(token, path string, result interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)

	var response service.FireResponse
	if err := c.apiCall(token, "/fire", &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatResponse(&response)), nil
}

func (c *Client) handleFire(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)
	row, _ := args["row"].(float64)
	column, _ := args["column"].(float64)

	var response service.FireResponse
	path := fmt.Sprintf("/fire/%d/%d", int(row), int(column))
	if err := c.apiCall(token, path, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatResponse(&response)), nil
}

func (c *Client) handleFireAvenger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)
	row, _ := args["row"].(float64)
	column, _ := args["column"].(float64)
	avenger, _ := args["avenger"].(string)

	var response service.AvengerFireResponse
	path := fmt.Sprintf("/fire/%d/%d/avenger/%s", int(row), int(column), avenger)
	if err := c.apiCall(token, path, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString(formatResponse(&response.FireResponse))
	for _, r := range response.AvengerResult {
		sb.WriteString(fmt.Sprintf("avenger hit=%v at row %d column %d\n", r.Hit, r.MapPoint.X, r.MapPoint.Y))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	token, _ := args["token"].(string)
	wipe, _ := args["wipe"].(bool)

	path := "/reset"
	if wipe {
		path += "?wipe"
	}
	if err := c.apiCall(token, path, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Board reset\n"), nil
}

// formatResponse renders a fire response as a human-readable grid plus
// the counters an agent needs for its next decision.
func formatResponse(response *service.FireResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Map %d | Moves: %d | Maps left: %d | Avenger: %v | Finished: %v\n",
		response.MapID, response.MoveCount, response.MapCount,
		response.AvengerAvailable, response.Finished))
	if response.Cell != "" {
		sb.WriteString(fmt.Sprintf("Last shot: %s\n", response.Cell))
	}
	sb.WriteString("\n")

	for y := 0; y < engine.BoardSize; y++ {
		sb.WriteString(response.Grid[y*engine.BoardSize : (y+1)*engine.BoardSize])
		sb.WriteString("\n")
	}
	return sb.String()
}
