// internal/travel/search_test.go
package travel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	stderrors "github.com/EGDongAn/trip-planner-ai/internal/common/errors"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
)

// ==========================
// Test Fixtures
// ==========================

func flightPayload(count int) map[string]interface{} {
	flights := make([]interface{}, count)
	for i := range flights {
		flights[i] = map[string]interface{}{
			"airline":           "Korean Air",
			"flight_number":     "KE703",
			"departure_airport": map[string]interface{}{"id": "ICN", "time": "10:05"},
			"arrival_airport":   map[string]interface{}{"id": "NRT", "time": "12:30"},
			"duration":          145,
			"price":             320.0,
			"currency":          "USD",
			"booking_token":     "tok123",
		}
	}
	return map[string]interface{}{"flights": flights}
}

func hotelPayload(count int) map[string]interface{} {
	hotels := make([]interface{}, count)
	for i := range hotels {
		hotels[i] = map[string]interface{}{
			"name":            "Park Hyatt Tokyo",
			"rating":          4.7,
			"stars":           5,
			"address":         "3-7-1-2 Nishi Shinjuku",
			"gps_coordinates": map[string]interface{}{"latitude": 35.685, "longitude": 139.69},
			"rate_per_night":  map[string]interface{}{"extracted_lowest": 450.0, "currency": "USD"},
			"amenities":       []interface{}{"Pool", "Spa"},
			"images":          []interface{}{map[string]interface{}{"thumbnail": "https://img.example/p.jpg"}},
			"link":            "https://hotel.example",
		}
	}
	return map[string]interface{}{"hotels": hotels}
}

func newTestService(t *testing.T, handler http.HandlerFunc, withCache bool) (*Service, *miniredis.Miniredis) {
	t.Helper()
	provider := httptest.NewServer(handler)
	t.Cleanup(provider.Close)

	var cache *redis.Client
	var mr *miniredis.Miniredis
	if withCache {
		mr = miniredis.RunT(t)
		cache = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	cfg := config.SearchConfig{
		BaseURL:  provider.URL,
		APIKey:   "test-key",
		Timeout:  5000,
		CacheTTL: 300,
	}
	return NewService(cfg, cache, logger.NewNoOpLogger()), mr
}

func serveJSON(t *testing.T, payload map[string]interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}
}

// ==========================
// Flight Search Tests
// ==========================

func TestSearchFlights_TransformsProviderResponse(t *testing.T) {
	var gotQuery map[string]string
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"engine":        r.URL.Query().Get("engine"),
			"departure_id":  r.URL.Query().Get("departure_id"),
			"arrival_id":    r.URL.Query().Get("arrival_id"),
			"outbound_date": r.URL.Query().Get("outbound_date"),
			"currency":      r.URL.Query().Get("currency"),
		}
		serveJSON(t, flightPayload(1))(w, r)
	}, false)

	flights, err := svc.SearchFlights(context.Background(), FlightSearchParams{
		Departure:     "ICN",
		Arrival:       "NRT",
		DepartureDate: "2026-10-01",
		Adults:        2,
	})
	require.NoError(t, err)

	assert.Equal(t, "google_flights", gotQuery["engine"])
	assert.Equal(t, "ICN", gotQuery["departure_id"])
	assert.Equal(t, "NRT", gotQuery["arrival_id"])
	assert.Equal(t, "2026-10-01", gotQuery["outbound_date"])
	assert.Equal(t, "USD", gotQuery["currency"])

	require.Len(t, flights, 1)
	f := flights[0]
	assert.Equal(t, "Korean Air", f.Airline)
	assert.Equal(t, "KE703", f.FlightNumber)
	assert.Equal(t, "ICN", f.Departure.Airport)
	assert.Equal(t, "2026-10-01", f.Departure.Date)
	assert.Equal(t, "2h 25m", f.Duration)
	assert.Equal(t, Price{Amount: 320, Currency: "USD"}, f.Price)
	assert.Equal(t, "https://www.google.com/travel/flights/booking?token=tok123", f.BookingURL)
	assert.True(t, f.Verified)
	assert.Equal(t, "serpapi", f.Source)
}

func TestSearchFlights_CapsResults(t *testing.T) {
	svc, _ := newTestService(t, serveJSON(t, flightPayload(25)), false)

	flights, err := svc.SearchFlights(context.Background(), FlightSearchParams{
		Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-01",
	})
	require.NoError(t, err)
	assert.Len(t, flights, 10)
}

func TestSearchFlights_ProviderError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, false)

	_, err := svc.SearchFlights(context.Background(), FlightSearchParams{
		Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-01",
	})
	require.Error(t, err)
	var stdErr *stderrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, stderrors.ErrCodeSearchFailed, stdErr.Code)
}

// ==========================
// Hotel Search Tests
// ==========================

func TestSearchHotels_TransformsProviderResponse(t *testing.T) {
	svc, _ := newTestService(t, serveJSON(t, hotelPayload(2)), false)

	hotels, err := svc.SearchHotels(context.Background(), HotelSearchParams{
		Location: "Tokyo",
		CheckIn:  "2026-10-01",
		CheckOut: "2026-10-03",
	})
	require.NoError(t, err)

	require.Len(t, hotels, 2)
	h := hotels[0]
	assert.Equal(t, "Park Hyatt Tokyo", h.Name)
	assert.Equal(t, 4.7, h.Rating)
	assert.Equal(t, 5, h.Stars)
	assert.Equal(t, HotelCoordinates{Lat: 35.685, Lng: 139.69}, h.Coordinates)
	assert.Equal(t, Price{Amount: 450, Currency: "USD"}, h.PricePerNight)
	assert.Equal(t, []string{"Pool", "Spa"}, h.Amenities)
	assert.Equal(t, "https://img.example/p.jpg", h.ImageURL)
}

func TestSearchHotels_EmptyProviderResponse(t *testing.T) {
	svc, _ := newTestService(t, serveJSON(t, map[string]interface{}{}), false)

	hotels, err := svc.SearchHotels(context.Background(), HotelSearchParams{
		Location: "Tokyo", CheckIn: "2026-10-01", CheckOut: "2026-10-03",
	})
	require.NoError(t, err)
	assert.Empty(t, hotels)
}

// ==========================
// Cache Tests
// ==========================

func TestSearchFlights_SecondLookupServedFromCache(t *testing.T) {
	providerHits := 0
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		providerHits++
		serveJSON(t, flightPayload(3))(w, r)
	}, true)

	params := FlightSearchParams{Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-01"}

	first, err := svc.SearchFlights(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.SearchFlights(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, providerHits)
	assert.Equal(t, first, second)
}

func TestSearchFlights_DifferentParamsMissCache(t *testing.T) {
	providerHits := 0
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		providerHits++
		serveJSON(t, flightPayload(1))(w, r)
	}, true)

	_, err := svc.SearchFlights(context.Background(), FlightSearchParams{
		Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-01",
	})
	require.NoError(t, err)
	_, err = svc.SearchFlights(context.Background(), FlightSearchParams{
		Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-02",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, providerHits)
}

func TestSearchFlights_CacheExpiry(t *testing.T) {
	providerHits := 0
	svc, mr := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		providerHits++
		serveJSON(t, flightPayload(1))(w, r)
	}, true)

	params := FlightSearchParams{Departure: "ICN", Arrival: "NRT", DepartureDate: "2026-10-01"}

	_, err := svc.SearchFlights(context.Background(), params)
	require.NoError(t, err)

	mr.FastForward(301 * time.Second) // past the cache TTL

	_, err = svc.SearchFlights(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, providerHits)
}
