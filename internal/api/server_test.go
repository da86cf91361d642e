package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"presencesim/internal/entry"
	"presencesim/internal/plugin"
	"presencesim/internal/plugins/presence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStatusProvider struct {
	status []presence.Status
}

func (s *stubStatusProvider) Status() interface{} {
	return s.status
}

func newTestServer(t *testing.T, sims plugin.StatusProvider) (*Server, *entry.Store) {
	t.Helper()

	logger, _ := zap.NewDevelopment()
	store := entry.NewStore(filepath.Join(t.TempDir(), "entries.yaml"), logger)
	require.NoError(t, store.Load())

	return NewServer(store, sims, logger, 8081), store
}

func TestHandleHealth(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleEntries(t *testing.T) {
	server, store := newTestServer(t, nil)

	_, err := store.Add("Downstairs", map[string]interface{}{"interval": "0:05:00"})
	require.NoError(t, err)
	_, err = store.Add("Broken", map[string]interface{}{"playback_days": 99})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	w := httptest.NewRecorder()
	server.handleEntries(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body []EntryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 2)

	assert.Equal(t, "Downstairs", body[0].Title)
	assert.Equal(t, float64(300), body[0].Settings["interval"])
	assert.Empty(t, body[0].Error)

	assert.Equal(t, "Broken", body[1].Title)
	assert.Empty(t, body[1].Settings)
	assert.Contains(t, body[1].Error, "playback_days")
}

func TestHandleSimulations(t *testing.T) {
	sims := &stubStatusProvider{status: []presence.Status{
		{EntryID: "e1", Title: "Downstairs", Running: true, Replayed: 4},
	}}
	server, _ := newTestServer(t, sims)

	req := httptest.NewRequest(http.MethodGet, "/api/simulations", nil)
	w := httptest.NewRecorder()
	server.handleSimulations(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body []presence.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "Downstairs", body[0].Title)
	assert.True(t, body[0].Running)
}

func TestHandleSimulations_NoProvider(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/simulations", nil)
	w := httptest.NewRecorder()
	server.handleSimulations(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	w := httptest.NewRecorder()
	server.handleEntries(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
