package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPCaller invokes tools on one remote service over HTTP. Per-call
// deadlines come from the context, so the shared client carries none.
type HTTPCaller struct {
	endpoint string
	client   *http.Client
}

// NewHTTPCaller creates a caller for a service endpoint. client may be
// nil, in which case http.DefaultClient is used.
func NewHTTPCaller(endpoint string, client *http.Client) *HTTPCaller {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCaller{endpoint: endpoint, client: client}
}

type toolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type toolResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// CallTool posts the tool invocation and returns the decoded response
// data.
func (c *HTTPCaller) CallTool(ctx context.Context, tool string, args map[string]any) (any, error) {
	body, err := json.Marshal(toolRequest{Tool: tool, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, msg)
	}

	var out toolResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode tool response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("service error: %s", out.Error)
	}
	return out.Data, nil
}
