// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package flowise

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://localhost:3000/", "key")
	assert.Equal(t, "http://localhost:3000", client.Endpoint)

	client = NewClient("http://localhost:3000", "key")
	assert.Equal(t, "http://localhost:3000", client.Endpoint)
}

func TestClient_ListChatflows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/chatflows", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		// Flowise returns more fields than id and name; extras are ignored
		w.Write([]byte(`[
			{"id": "a1", "name": "Support Bot", "deployed": true},
			{"id": "a2", "name": "Billing Bot", "deployed": false}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	chatflows, err := client.ListChatflows(context.Background())
	require.NoError(t, err)
	require.Len(t, chatflows, 2)
	assert.Equal(t, Chatflow{ID: "a1", Name: "Support Bot"}, chatflows[0])
	assert.Equal(t, Chatflow{ID: "a2", Name: "Billing Bot"}, chatflows[1])
}

func TestClient_ListChatflows_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	chatflows, err := client.ListChatflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chatflows)
}

func TestClient_ListChatflows_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key")
	_, err := client.ListChatflows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestClient_ListChatflows_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ListChatflows(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_ListChatflows_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ListChatflows(context.Background())
	assert.Error(t, err)
}

func TestClient_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/prediction/a1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a1", payload["chatflowId"])
		assert.Equal(t, "What is the refund policy?", payload["question"])
		assert.Equal(t, false, payload["streaming"])

		w.Write([]byte(`{"text": "Refunds are processed within 14 days."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	result, err := client.Predict(context.Background(), "a1", "What is the refund policy?")
	require.NoError(t, err)

	// The response body is returned verbatim, not reinterpreted
	assert.Equal(t, `{"text": "Refunds are processed within 14 days."}`, result)
}

func TestClient_Predict_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Chatflow not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Predict(context.Background(), "missing", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "Chatflow not found")
}

func TestClient_Predict_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Predict(context.Background(), "a1", "x")
	assert.Error(t, err)
}

func TestClient_Predict_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// Hold the request open until the client gives up, but keep an exit
		// path the test controls so server.Close cannot wait forever.
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.Predict(ctx, "a1", "x")
		errCh <- err
	}()

	<-started
	cancel()
	assert.Error(t, <-errCh)
}
