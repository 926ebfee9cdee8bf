// internal/travel/search.go
//
// Package travel searches real flight and hotel availability through a
// SerpAPI-style provider. Results are cached in Redis keyed by the search
// parameters so repeated lookups during a planning session stay cheap.
package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	stderrors "github.com/EGDongAn/trip-planner-ai/internal/common/errors"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/common/metrics"
)

const maxResults = 10

// FlightSearchParams identifies one flight search.
type FlightSearchParams struct {
	Departure     string `json:"departure"` // airport code, e.g. ICN
	Arrival       string `json:"arrival"`   // airport code, e.g. NRT
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty"`
	Adults        int    `json:"adults,omitempty"`
}

// HotelSearchParams identifies one hotel search.
type HotelSearchParams struct {
	Location string `json:"location"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Adults   int    `json:"adults,omitempty"`
}

// Price is an amount in a currency.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Endpoint is an airport with a local time and date.
type Endpoint struct {
	Airport string `json:"airport"`
	Time    string `json:"time"`
	Date    string `json:"date"`
}

// FlightInfo is one flight offer in the application's shape.
type FlightInfo struct {
	Airline      string   `json:"airline"`
	FlightNumber string   `json:"flightNumber"`
	Departure    Endpoint `json:"departure"`
	Arrival      Endpoint `json:"arrival"`
	Duration     string   `json:"duration"`
	Price        Price    `json:"price"`
	BookingURL   string   `json:"bookingUrl"`
	Verified     bool     `json:"verified"`
	Source       string   `json:"source"`
}

type HotelCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HotelInfo is one hotel offer in the application's shape.
type HotelInfo struct {
	Name          string           `json:"name"`
	Rating        float64          `json:"rating"`
	Stars         int              `json:"stars"`
	Address       string           `json:"address"`
	Coordinates   HotelCoordinates `json:"coordinates"`
	PricePerNight Price            `json:"pricePerNight"`
	Amenities     []string         `json:"amenities"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	BookingURL    string           `json:"bookingUrl"`
	Verified      bool             `json:"verified"`
	Source        string           `json:"source"`
}

// Service performs searches against the provider with a Redis read-through
// cache. The cache client may be nil, in which case every search hits the
// provider.
type Service struct {
	cfg        config.SearchConfig
	httpClient *http.Client
	cache      *redis.Client
	logger     logger.Logger
}

func NewService(cfg config.SearchConfig, cache *redis.Client, log logger.Logger) *Service {
	return &Service{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		cache:  cache,
		logger: log,
	}
}

type serpFlightResponse struct {
	Flights []struct {
		Airline          string `json:"airline"`
		FlightNumber     string `json:"flight_number"`
		DepartureAirport struct {
			ID   string `json:"id"`
			Time string `json:"time"`
		} `json:"departure_airport"`
		ArrivalAirport struct {
			ID   string `json:"id"`
			Time string `json:"time"`
		} `json:"arrival_airport"`
		Duration     int     `json:"duration"` // minutes
		Price        float64 `json:"price"`
		Currency     string  `json:"currency"`
		BookingToken string  `json:"booking_token"`
	} `json:"flights"`
}

type serpHotelResponse struct {
	Hotels []struct {
		Name           string   `json:"name"`
		Rating         float64  `json:"rating"`
		Stars          int      `json:"stars"`
		Address        string   `json:"address"`
		GPSCoordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"gps_coordinates"`
		RatePerNight struct {
			ExtractedLowest float64 `json:"extracted_lowest"`
			Currency        string  `json:"currency"`
		} `json:"rate_per_night"`
		Amenities []string `json:"amenities"`
		Images    []struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"images"`
		Link string `json:"link"`
	} `json:"hotels"`
}

// SearchFlights returns up to 10 flight offers for the given route.
func (s *Service) SearchFlights(ctx context.Context, params FlightSearchParams) ([]FlightInfo, error) {
	cacheKey := "travel:flights:" + cacheKeyFor(params)

	var cached []FlightInfo
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	q := url.Values{}
	q.Set("engine", "google_flights")
	q.Set("api_key", s.cfg.APIKey)
	q.Set("departure_id", params.Departure)
	q.Set("arrival_id", params.Arrival)
	q.Set("outbound_date", params.DepartureDate)
	if params.ReturnDate != "" {
		q.Set("return_date", params.ReturnDate)
	}
	if params.Adults > 0 {
		q.Set("adults", strconv.Itoa(params.Adults))
	}
	q.Set("currency", "USD")
	q.Set("hl", "en")

	var resp serpFlightResponse
	if err := s.doSearch(ctx, q, &resp); err != nil {
		metrics.TravelSearchesTotal.WithLabelValues("flights", "failure").Inc()
		return nil, stderrors.NewSearchFailedError("flights", err)
	}
	metrics.TravelSearchesTotal.WithLabelValues("flights", "success").Inc()

	flights := transformFlights(resp, params)
	s.writeCache(ctx, cacheKey, flights)
	return flights, nil
}

// SearchHotels returns up to 10 hotel offers for the given stay.
func (s *Service) SearchHotels(ctx context.Context, params HotelSearchParams) ([]HotelInfo, error) {
	cacheKey := "travel:hotels:" + cacheKeyFor(params)

	var cached []HotelInfo
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	q := url.Values{}
	q.Set("engine", "google_hotels")
	q.Set("api_key", s.cfg.APIKey)
	q.Set("q", params.Location)
	q.Set("check_in_date", params.CheckIn)
	q.Set("check_out_date", params.CheckOut)
	if params.Adults > 0 {
		q.Set("adults", strconv.Itoa(params.Adults))
	}
	q.Set("currency", "USD")
	q.Set("hl", "en")

	var resp serpHotelResponse
	if err := s.doSearch(ctx, q, &resp); err != nil {
		metrics.TravelSearchesTotal.WithLabelValues("hotels", "failure").Inc()
		return nil, stderrors.NewSearchFailedError("hotels", err)
	}
	metrics.TravelSearchesTotal.WithLabelValues("hotels", "success").Inc()

	hotels := transformHotels(resp)
	s.writeCache(ctx, cacheKey, hotels)
	return hotels, nil
}

func (s *Service) doSearch(ctx context.Context, q url.Values, out interface{}) error {
	searchURL := s.cfg.BaseURL + "/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read search response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode search response: %w", err)
	}
	return nil
}

func transformFlights(resp serpFlightResponse, params FlightSearchParams) []FlightInfo {
	flights := resp.Flights
	if len(flights) > maxResults {
		flights = flights[:maxResults]
	}

	out := make([]FlightInfo, 0, len(flights))
	for _, f := range flights {
		info := FlightInfo{
			Airline:      defaultString(f.Airline, "Unknown Airline"),
			FlightNumber: defaultString(f.FlightNumber, "N/A"),
			Departure: Endpoint{
				Airport: defaultString(f.DepartureAirport.ID, params.Departure),
				Time:    defaultString(f.DepartureAirport.Time, "00:00"),
				Date:    params.DepartureDate,
			},
			Arrival: Endpoint{
				Airport: defaultString(f.ArrivalAirport.ID, params.Arrival),
				Time:    defaultString(f.ArrivalAirport.Time, "00:00"),
				Date:    params.DepartureDate,
			},
			Duration: formatDuration(f.Duration),
			Price: Price{
				Amount:   f.Price,
				Currency: defaultString(f.Currency, "USD"),
			},
			BookingURL: "#",
			Verified:   true,
			Source:     "serpapi",
		}
		if f.BookingToken != "" {
			info.BookingURL = "https://www.google.com/travel/flights/booking?token=" + f.BookingToken
		}
		out = append(out, info)
	}
	return out
}

func transformHotels(resp serpHotelResponse) []HotelInfo {
	hotels := resp.Hotels
	if len(hotels) > maxResults {
		hotels = hotels[:maxResults]
	}

	out := make([]HotelInfo, 0, len(hotels))
	for _, h := range hotels {
		info := HotelInfo{
			Name:    defaultString(h.Name, "Unknown Hotel"),
			Rating:  h.Rating,
			Stars:   h.Stars,
			Address: h.Address,
			Coordinates: HotelCoordinates{
				Lat: h.GPSCoordinates.Latitude,
				Lng: h.GPSCoordinates.Longitude,
			},
			PricePerNight: Price{
				Amount:   h.RatePerNight.ExtractedLowest,
				Currency: defaultString(h.RatePerNight.Currency, "USD"),
			},
			Amenities:  h.Amenities,
			BookingURL: defaultString(h.Link, "#"),
			Verified:   true,
			Source:     "serpapi",
		}
		if info.Amenities == nil {
			info.Amenities = []string{}
		}
		if len(h.Images) > 0 {
			info.ImageURL = h.Images[0].Thumbnail
		}
		out = append(out, info)
	}
	return out
}

// formatDuration renders minutes as "XhYm" matching the timeline's duration
// strings.
func formatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func (s *Service) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("travel cache read failed", map[string]interface{}{"key": key})
		}
		metrics.TravelCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.TravelCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	metrics.TravelCacheHits.WithLabelValues("hit").Inc()
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := time.Duration(s.cfg.CacheTTL) * time.Second
	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("travel cache write failed", map[string]interface{}{"key": key})
	}
}

func cacheKeyFor(params interface{}) string {
	data, _ := json.Marshal(params)
	return string(data)
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
