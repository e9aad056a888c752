package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/config"
	"github.com/abhisek/synap/internal/content"
	"github.com/abhisek/synap/internal/lock"
	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/spacedrep"
	"github.com/abhisek/synap/internal/store"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// newTestServer wires the handler to a fresh SQLite store and a fixed clock.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := zap.NewNop()
	clock := func() time.Time { return t0 }
	h := NewHandler(
		content.NewService(s.ItemRepo(), logger, clock),
		review.NewService(s, lock.NewLocal(), logger, clock),
		logger, nil,
	)
	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "%s %s", method, path)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createItem(t *testing.T, ts *httptest.Server, title string) store.Item {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/api/items", map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item store.Item
	decodeJSON(t, resp, &item)
	return item
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, ts, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestItemsCRUD(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/items", map[string]string{"title": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPost, "/api/items", map[string]string{"title": "x", "link": "notaurl"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	item := createItem(t, ts, "Escape analysis")
	assert.NotEmpty(t, item.ID)

	resp = doJSON(t, ts, http.MethodGet, "/api/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got store.Item
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Escape analysis", got.Title)

	resp = doJSON(t, ts, http.MethodGet, "/api/items", nil)
	var list []store.Item
	decodeJSON(t, resp, &list)
	assert.Len(t, list, 1)

	resp = doJSON(t, ts, http.MethodGet, "/api/items?limit=-2", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPost, "/api/items", map[string]string{"title": "x", "color": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown fields are rejected")
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodDelete, "/api/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errBody map[string]string
	decodeJSON(t, resp, &errBody)
	assert.Contains(t, errBody["error"], "not found")
}

func TestScheduleAndReviewFlow(t *testing.T) {
	ts := newTestServer(t)
	item := createItem(t, ts, "Goroutine leaks")
	base := "/api/items/" + item.ID

	// Reviewing before enabling is a conflict.
	resp := doJSON(t, ts, http.MethodPost, base+"/reviews", map[string]int{"quality": 2})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPut, base+"/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st spacedrep.State
	decodeJSON(t, resp, &st)
	assert.Equal(t, 1, st.IntervalDays)

	resp = doJSON(t, ts, http.MethodGet, base+"/schedule", nil)
	var status review.Status
	decodeJSON(t, resp, &status)
	assert.True(t, status.Enabled)
	assert.Equal(t, "Due tomorrow", status.NextReview)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"numeric grade", `{"quality": 3}`, http.StatusOK},
		{"named grade", `{"quality": "good"}`, http.StatusOK},
		{"out of range", `{"quality": 7}`, http.StatusBadRequest},
		{"unknown name", `{"quality": "perfect"}`, http.StatusBadRequest},
		{"missing", `{}`, http.StatusBadRequest},
		{"malformed", `{"quality":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+base+"/reviews", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp = doJSON(t, ts, http.MethodGet, base+"/reviews?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []store.ScheduleEventRecord
	decodeJSON(t, resp, &events)
	require.Len(t, events, 3, "enabled + two accepted reviews")
	assert.Equal(t, store.EventReviewed, events[0].Kind)
	require.NotNil(t, events[0].Quality)
	assert.Equal(t, spacedrep.Good, *events[0].Quality)

	resp = doJSON(t, ts, http.MethodDelete, base+"/schedule", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPut, "/api/items/missing/schedule", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodPost, "/api/items/missing/reviews", map[string]int{"quality": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateItem(t *testing.T) {
	ts := newTestServer(t)
	item := createItem(t, ts, "Escape analysis")
	path := "/api/items/" + item.ID

	resp := doJSON(t, ts, http.MethodPatch, path, map[string]string{
		"description": "go build -gcflags=-m",
		"link":        "https://go.dev/doc/faq",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got store.Item
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Escape analysis", got.Title, "omitted fields keep their value")
	assert.Equal(t, "go build -gcflags=-m", got.Description)
	assert.Equal(t, "https://go.dev/doc/faq", got.Link)

	resp = doJSON(t, ts, http.MethodPatch, path, map[string]string{"title": "Escape analysis in gc", "link": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Escape analysis in gc", got.Title)
	assert.Empty(t, got.Link)
	assert.Equal(t, "go build -gcflags=-m", got.Description)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"empty body", path, `{}`, http.StatusBadRequest},
		{"blank title", path, `{"title": "  "}`, http.StatusBadRequest},
		{"bad link", path, `{"link": "notaurl"}`, http.StatusBadRequest},
		{"wrong type", path, `{"title": 3}`, http.StatusBadRequest},
		{"unknown field", path, `{"pinned": true}`, http.StatusBadRequest},
		{"missing item", "/api/items/missing", `{"title": "x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPatch, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp = doJSON(t, ts, http.MethodGet, path, nil)
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Escape analysis in gc", got.Title, "rejected edits leave the item unchanged")
}

func TestReviseDueStats(t *testing.T) {
	ts := newTestServer(t)
	a := createItem(t, ts, "a")
	createItem(t, ts, "b")

	resp := doJSON(t, ts, http.MethodPut, "/api/items/"+a.ID+"/schedule", nil)
	resp.Body.Close()

	resp = doJSON(t, ts, http.MethodGet, "/api/revise", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board review.Board
	decodeJSON(t, resp, &board)
	assert.Empty(t, board.Due)
	require.Len(t, board.Week, 1)
	assert.Equal(t, a.ID, board.Week[0].Item.ID)

	resp = doJSON(t, ts, http.MethodGet, "/api/due", nil)
	var due []review.Entry
	decodeJSON(t, resp, &due)
	assert.NotNil(t, due)
	assert.Empty(t, due)

	resp = doJSON(t, ts, http.MethodGet, "/api/stats", nil)
	var stats spacedrep.Stats
	decodeJSON(t, resp, &stats)
	assert.Equal(t, spacedrep.Stats{DueTomorrow: 1, DueThisWeek: 1, Total: 1}, stats)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := NewServer(config.ServerConfig{Addr: "127.0.0.1:0"}, http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
