// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// client.go - HTTP client for the Flowise API.
//
// This file defines the Client struct used for all communication with a
// Flowise instance: listing the available chatflows and running predictions
// against a specific chatflow.
//
// Key Features:
// - Bearer-token authentication using a static API key
// - Bounded request time via a 30 second HTTP client timeout
// - Structured logging of every outbound call
//
// Usage Example:
//   client := flowise.NewClient("http://localhost:3000", apiKey)
//   answer, err := client.Predict(ctx, chatflowID, "What is the refund policy?")

package flowise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// Chatflow is one entry from the Flowise chatflow listing. The listing
// payload carries more fields; only id and name are relevant here.
type Chatflow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client handles Flowise API requests.
type Client struct {
	Endpoint   string // Base URL of the Flowise instance, no trailing slash
	APIKey     string // Optional bearer credential, passed through unchanged
	HTTPClient *http.Client
}

// NewClient creates a Flowise API client for the given endpoint. The API key
// may be empty for unauthenticated instances.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		APIKey:   apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListChatflows fetches all chatflows known to the Flowise instance.
func (c *Client) ListChatflows(ctx context.Context) ([]Chatflow, error) {
	url := c.Endpoint + "/api/v1/chatflows"
	logging.FlowiseLogger.Debug("Fetching chatflows", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, false)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.FlowiseLogger.Error("Chatflow listing request failed", "error", err)
		return nil, fmt.Errorf("failed to fetch chatflows: %w", err)
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp, "list chatflows")
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp, body, "list chatflows"); err != nil {
		return nil, err
	}

	var chatflows []Chatflow
	if err := json.Unmarshal(body, &chatflows); err != nil {
		logging.FlowiseLogger.Error("Failed to decode chatflow listing", "error", err)
		return nil, fmt.Errorf("failed to decode chatflow listing: %w", err)
	}

	logging.FlowiseLogger.Debug("Fetched chatflows", "count", len(chatflows))
	return chatflows, nil
}

// Predict sends a question to the given chatflow and returns the raw response
// text. The response body is returned verbatim; Flowise answers are opaque to
// this layer.
func (c *Client) Predict(ctx context.Context, chatflowID, question string) (string, error) {
	url := c.Endpoint + "/api/v1/prediction/" + chatflowID
	logging.FlowiseLogger.Debug("Sending prediction request", "url", url, "chatflow_id", chatflowID)

	payload, err := json.Marshal(map[string]interface{}{
		"chatflowId": chatflowID,
		"question":   question,
		"streaming":  false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	c.setHeaders(req, true)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logging.FlowiseLogger.Error("Prediction request failed", "chatflow_id", chatflowID, "error", err)
		return "", fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp, "prediction")
	if err != nil {
		return "", err
	}
	if err := c.checkStatus(resp, body, "prediction"); err != nil {
		return "", err
	}

	logging.FlowiseLogger.Debug("Prediction response received",
		"chatflow_id", chatflowID, "status", resp.StatusCode, "bytes", len(body))
	return string(body), nil
}

// setHeaders applies the bearer credential and, for requests with a body, the
// JSON content type.
func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

// checkStatus converts non-2xx responses into errors carrying the status code
// and response body.
func (c *Client) checkStatus(resp *http.Response, body []byte, operation string) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.FlowiseLogger.Debug("Error response body", "operation", operation, "body", string(body))
		return fmt.Errorf("%s failed: HTTP %d - %s", operation, resp.StatusCode, string(body))
	}
	return nil
}

// readBody reads the entire response body.
func (c *Client) readBody(resp *http.Response, operation string) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.FlowiseLogger.Debug("Failed to read response body", "operation", operation, "error", err)
		return nil, fmt.Errorf("failed to read %s response body: %v", operation, err)
	}
	return body, nil
}
