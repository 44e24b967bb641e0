package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockYouTubeServer creates a test server that mocks YouTube Data API responses
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a new mock YouTube API server
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockLiveChatMessages adds a handler for the liveChat/messages list endpoint
func (m *MockYouTubeServer) MockLiveChatMessages(items []map[string]interface{}) {
	m.Handlers["/youtube/v3/liveChat/messages"] = func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // test mock request
			response := map[string]interface{}{
				"kind":    "youtube#liveChatMessage",
				"id":      "posted-message-id",
				"snippet": body["snippet"],
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
			return
		}
		response := map[string]interface{}{
			"kind":  "youtube#liveChatMessageListResponse",
			"items": items,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockLiveBroadcasts adds a handler for the liveBroadcasts list endpoint
func (m *MockYouTubeServer) MockLiveBroadcasts(liveChatIDs ...string) {
	m.Handlers["/youtube/v3/liveBroadcasts"] = func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]interface{}, 0, len(liveChatIDs))
		for i, id := range liveChatIDs {
			items = append(items, map[string]interface{}{
				"id": string(rune('a' + i)),
				"snippet": map[string]interface{}{
					"liveChatId": id,
				},
			})
		}
		response := map[string]interface{}{
			"kind":  "youtube#liveBroadcastListResponse",
			"items": items,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockOAuthTokenResponse adds a handler for the OAuth token endpoint
func (m *MockYouTubeServer) MockOAuthTokenResponse(accessToken, refreshToken string, expiresIn int) {
	m.Handlers["/token"] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_in":    expiresIn,
			"token_type":    "bearer",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockCompletionServer creates a test server that mocks an OpenAI-compatible
// chat completion endpoint. The returned content is served for every request,
// and the last received request body is captured for assertions.
type MockCompletionServer struct {
	*httptest.Server
	Content     string
	StatusCode  int
	LastRequest map[string]interface{}
}

// NewMockCompletionServer creates a new mock completion API server
func NewMockCompletionServer(t *testing.T, content string) *MockCompletionServer {
	t.Helper()
	m := &MockCompletionServer{Content: content, StatusCode: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // test mock request
		m.LastRequest = body
		if m.StatusCode != http.StatusOK {
			w.WriteHeader(m.StatusCode)
			return
		}
		response := map[string]interface{}{
			"id":     "cmpl-test",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": m.Content,
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}))
	t.Cleanup(m.Close)
	return m
}
