package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/worldsignal/ai/mock"
	"github.com/poiesic/worldsignal/answer"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage/sqlite"
)

// scriptedAnswerer replays fixed events, then an optional error.
type scriptedAnswerer struct {
	events []answer.Event
	err    error

	mu       sync.Mutex
	requests []answer.Request
}

func (a *scriptedAnswerer) Answer(ctx context.Context, req answer.Request) iter.Seq2[answer.Event, error] {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	return func(yield func(answer.Event, error) bool) {
		for _, e := range a.events {
			if !yield(e, nil) {
				return
			}
		}
		if a.err != nil {
			yield(answer.Event{}, a.err)
		}
	}
}

type staticRetriever []core.SearchHit

func (r staticRetriever) Retrieve(ctx context.Context, query, category string) ([]core.SearchHit, error) {
	return r, nil
}

func noLimit() Config {
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	return cfg
}

func newTestServer(t *testing.T, cfg Config, answerer Answerer, opts ...Option) *httptest.Server {
	t.Helper()
	s, err := New(cfg, answerer, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postChat(t *testing.T, srv *httptest.Server, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestNew(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Equal(t, ErrAnswererRequired, err)

	cfg := DefaultConfig()
	cfg.Addr = ""
	_, err = New(cfg, &scriptedAnswerer{})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Burst = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimit = 0
	assert.NoError(t, cfg.Validate())

	cfg.HistoryLimit = 0
	assert.Error(t, cfg.Validate())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, noLimit(), &scriptedAnswerer{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok"}, body)
}

func TestChat_Stream(t *testing.T) {
	answerer := &scriptedAnswerer{events: []answer.Event{
		{Type: answer.EventSources, Sources: []string{"https://example.com/a"}},
		{Type: answer.EventToken, Content: "Markets"},
		{Type: answer.EventToken, Content: " rallied."},
		{Type: answer.EventDone},
	}}
	srv := newTestServer(t, noLimit(), answerer)

	resp, body := postChat(t, srv, `{"query":"What happened?","category":"finance","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	expected := `data: {"type":"sources","sources":["https://example.com/a"]}` + "\n\n" +
		`data: {"type":"token","content":"Markets"}` + "\n\n" +
		`data: {"type":"token","content":" rallied."}` + "\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, expected, body)

	answerer.mu.Lock()
	defer answerer.mu.Unlock()
	require.Len(t, answerer.requests, 1)
	assert.Equal(t, answer.Request{Query: "What happened?", Category: "finance", SessionID: "s1"}, answerer.requests[0])
}

func TestChat_ErrorAfterStreamStarted(t *testing.T) {
	answerer := &scriptedAnswerer{
		events: []answer.Event{{Type: answer.EventSources}, {Type: answer.EventToken, Content: "Part"}},
		err:    errors.New("generation backend unavailable"),
	}
	srv := newTestServer(t, noLimit(), answerer)

	resp, body := postChat(t, srv, `{"query":"q"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lines := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `data: {"type":"sources","sources":[]}`, lines[0])
	assert.Equal(t, `data: {"type":"error","message":"generation backend unavailable"}`, lines[2])
	assert.Equal(t, "data: [DONE]", lines[3])
}

func TestChat_BadRequests(t *testing.T) {
	answerer := &scriptedAnswerer{}
	srv := newTestServer(t, noLimit(), answerer)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"missing query", `{"category":"finance"}`},
		{"blank query", `{"query":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postChat(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, `"error"`)
		})
	}
	answerer.mu.Lock()
	assert.Empty(t, answerer.requests)
	answerer.mu.Unlock()

	t.Run("wrong method", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/chat")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestChat_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	srv := newTestServer(t, cfg, &scriptedAnswerer{events: []answer.Event{{Type: answer.EventSources}}})

	resp, _ := postChat(t, srv, `{"query":"first"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postChat(t, srv, `{"query":"second"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "rate limit")

	// Health is not limited
	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, noLimit(), &scriptedAnswerer{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestChat_WithAnswererAndHistory(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	defer store.Close()

	hits := staticRetriever{{
		ID:      core.NewPointID(),
		Score:   0.9,
		Payload: core.ChunkPayload{Chunk: "Stocks climbed.", URL: "https://example.com/a1", Category: core.CategoryFinance},
	}}
	answerer, err := answer.NewAnswerer(hits, mock.NewMockGenerator("Stocks", " climbed."), answer.WithHistory(store))
	require.NoError(t, err)

	srv := newTestServer(t, noLimit(), answerer, WithHistory(store))

	_, body := postChat(t, srv, `{"query":"market rally today","session_id":"abc"}`)
	assert.True(t, strings.HasPrefix(body, `data: {"type":"sources","sources":["https://example.com/a1"]}`))
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
	assert.NotContains(t, body, `"done"`)

	resp, err := http.Get(srv.URL + "/api/sessions/abc/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		SessionID string `json:"session_id"`
		Messages  []struct {
			Role    string   `json:"role"`
			Content string   `json:"content"`
			Sources []string `json:"sources"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Equal(t, "abc", history.SessionID)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, core.RoleUser, history.Messages[0].Role)
	assert.Equal(t, "Stocks climbed.", history.Messages[1].Content)
	assert.Equal(t, []string{"https://example.com/a1"}, history.Messages[1].Sources)

	t.Run("invalid limit", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/sessions/abc/messages?limit=zero")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("limit", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/sessions/abc/messages?limit=1")
		require.NoError(t, err)
		defer resp.Body.Close()
		var limited historyResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&limited))
		require.Len(t, limited.Messages, 1)
		assert.Equal(t, core.RoleAssistant, limited.Messages[0].Role)
	})
}

func TestSessions_DisabledWithoutHistory(t *testing.T) {
	srv := newTestServer(t, noLimit(), &scriptedAnswerer{})

	resp, err := http.Get(srv.URL + "/api/sessions/abc/messages")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
