package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	h := NewHandler(NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.Liveness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestFlows_EmptyRegistry_ReturnsZeroCount(t *testing.T) {
	h := NewHandler(NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "/flows", nil)
	w := httptest.NewRecorder()

	h.Flows(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int          `json:"count"`
		Flows []FlowStatus `json:"flows"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 0, body.Count)
	assert.Empty(t, body.Flows)
}

func TestRouter_HealthRoute(t *testing.T) {
	router := NewRouter(NewRegistry())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
