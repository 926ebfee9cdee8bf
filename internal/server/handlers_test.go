// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/engine"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/session"
	"github.com/EGDongAn/trip-planner-ai/internal/travel"
)

// ==========================
// Test Fixtures
// ==========================

// fakeClient returns one canned document for every generation call.
type fakeClient struct {
	response map[string]interface{}
}

func (f *fakeClient) Generate(context.Context, string, map[string]interface{}) (map[string]interface{}, error) {
	return f.response, nil
}

func newTestServer(t *testing.T, client *fakeClient) *Server {
	t.Helper()
	log := logger.NewNoOpLogger()
	eng := engine.New(client, log)
	store := session.NewStore(config.SessionConfig{TTL: 60, CleanupInterval: 600})
	ctrl := session.NewController(store, eng, log)
	travelSvc := travel.NewService(config.SearchConfig{BaseURL: "http://127.0.0.1:0", Timeout: 1000}, nil, log)

	srv := New(config.ServerConfig{
		Address:        ":0",
		ReadTimeout:    5000,
		WriteTimeout:   5000,
		AllowedOrigins: []string{"*"},
		RateLimit:      1000,
		RateBurst:      1000,
	}, eng, ctrl, store, travelSvc, log)
	t.Cleanup(srv.limiter.close)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func destinationsDoc() map[string]interface{} {
	return map[string]interface{}{
		"destinations": []interface{}{
			map[string]interface{}{
				"id": "1", "name": "Tokyo", "country": "Japan",
				"description": "desc", "bestFor": []interface{}{"food"},
				"estimatedBudget": "$$", "climate": "Mild",
			},
		},
	}
}

// ==========================
// Generate Endpoint Tests
// ==========================

func TestHandleGenerate_Validation(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "missing action",
			body:           map[string]interface{}{"userInput": "Tokyo"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown action",
			body:           map[string]interface{}{"action": "itinerary"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "destinations without userInput",
			body:           map[string]interface{}{"action": "destinations"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "plans without destination",
			body:           map[string]interface{}{"action": "plans"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "timeline without plan",
			body: map[string]interface{}{
				"action":      "timeline",
				"destination": map[string]interface{}{"id": "1", "name": "Tokyo"},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON body",
			body:           nil, // empty body
			expectedStatus: http.StatusBadRequest,
		},
	}

	srv := newTestServer(t, &fakeClient{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/trip/generate", tt.body)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleGenerate_Destinations(t *testing.T) {
	srv := newTestServer(t, &fakeClient{response: destinationsDoc()})

	rec := doRequest(t, srv, http.MethodPost, "/api/trip/generate", map[string]interface{}{
		"action":    "destinations",
		"userInput": "Tokyo",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	destinations, ok := body["destinations"].([]interface{})
	require.True(t, ok)
	assert.Len(t, destinations, 1)
}

// ==========================
// Refine Endpoint Tests
// ==========================

func TestHandleRefine_RequiresRefinableState(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	// A state without a selected plan cannot be refined.
	rec := doRequest(t, srv, http.MethodPost, "/api/trip/refine", map[string]interface{}{
		"message": "add a sushi class",
		"currentState": map[string]interface{}{
			"stage":    "choose_plan",
			"timeline": []interface{}{},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefine_MissingFields(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	rec := doRequest(t, srv, http.MethodPost, "/api/trip/refine", map[string]interface{}{
		"message": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefine_ConversationalTurn(t *testing.T) {
	srv := newTestServer(t, &fakeClient{response: map[string]interface{}{
		"response": "October is lovely in Tokyo.",
	}})

	rec := doRequest(t, srv, http.MethodPost, "/api/trip/refine", map[string]interface{}{
		"message": "is October a good month?",
		"currentState": map[string]interface{}{
			"stage": "itinerary_ready",
			"selectedDestination": map[string]interface{}{
				"id": "1", "name": "Tokyo", "country": "Japan",
				"description": "desc", "bestFor": []interface{}{"food"},
				"estimatedBudget": "$$", "climate": "Mild",
			},
			"selectedPlan": map[string]interface{}{
				"id": "B", "label": "B", "name": "Highlights",
				"description": "desc", "pace": "moderate",
				"highlights":    []interface{}{"Senso-ji"},
				"totalDays":     2,
				"estimatedCost": map[string]interface{}{"min": 1500, "max": 2000, "currency": "$"},
				"includes":      []interface{}{},
			},
			"timeline": []interface{}{
				map[string]interface{}{
					"id": "1", "day": 1, "date": "2026-10-01", "time": "Morning",
					"activity": "Senso-ji", "location": "Asakusa",
					"duration": "3 hours", "category": "activity", "verified": false,
				},
			},
			"metadata": map[string]interface{}{
				"travelers": 2, "departureDate": "2026-10-01",
				"returnDate": "2026-10-02", "departureCity": "Seoul",
				"preferences": []interface{}{"food"},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "October is lovely in Tokyo.", body["response"])
	// No timeline change means no updated state in the response.
	_, hasUpdatedState := body["updatedState"]
	assert.False(t, hasUpdatedState)
}

// ==========================
// Session Endpoint Tests
// ==========================

func TestSessionFlow_StartAndFetch(t *testing.T) {
	srv := newTestServer(t, &fakeClient{response: destinationsDoc()})

	rec := doRequest(t, srv, http.MethodPost, "/api/sessions/abc/start", map[string]interface{}{
		"userInput": "Tokyo",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "choose_destination", body["stage"])

	rec = doRequest(t, srv, http.MethodGet, "/api/sessions/abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "choose_destination", body["stage"])
}

func TestSessionFlow_UnknownSession(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	rec := doRequest(t, srv, http.MethodGet, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFlow_StartRequiresInput(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	rec := doRequest(t, srv, http.MethodPost, "/api/sessions/abc/start", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Travel Endpoint Tests
// ==========================

func TestHandleSearchFlights_Validation(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing fields", body: map[string]interface{}{"departure": "ICN"}},
		{
			name: "bad date format",
			body: map[string]interface{}{
				"departure": "ICN", "arrival": "NRT", "departureDate": "10/01/2026",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/travel/flights", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// ==========================
// Infrastructure Tests
// ==========================

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestShutdown_StopsLimiterCleanup(t *testing.T) {
	srv := newTestServer(t, &fakeClient{})

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case <-srv.limiter.stop:
	default:
		t.Fatal("limiter cleanup loop was not signalled to stop")
	}

	// Shutdown is idempotent with respect to the limiter.
	require.NoError(t, srv.Shutdown(context.Background()))
}
