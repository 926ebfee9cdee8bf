// internal/trip/state/convert_test.go
package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

func readyState() *TripState {
	s := NewTripState()
	s.Stage = StageItineraryReady
	s.SelectedDestination = &schema.DestinationOption{
		ID:              "1",
		Name:            "Tokyo",
		Country:         "Japan",
		Description:     "A city of contrasts",
		BestFor:         []string{"food", "culture"},
		EstimatedBudget: "$$$",
		Climate:         "Mild autumn",
	}
	s.SelectedPlan = &PlanOption{
		ID:            "B",
		Label:         "B",
		Name:          "Tokyo Highlights",
		Description:   "Balanced pace",
		Pace:          PaceModerate,
		Highlights:    []string{"Senso-ji", "Shibuya Crossing"},
		TotalDays:     3,
		EstimatedCost: CostRange{Min: 1500, Max: 2000, Currency: "$"},
		Includes:      []string{"first-time visitors"},
	}
	s.Timeline = []TimelineRow{
		{
			ID: "1", Day: 1, Date: "2026-10-01", Time: "09:00-12:00",
			Activity: "Senso-ji", Location: "Asakusa", Duration: "3 hours",
			Category: CategoryActivity, Notes: "Go early",
			Cost: &Cost{Amount: 0, Currency: "USD"}, Verified: false,
		},
		{
			ID: "2", Day: 1, Date: "2026-10-01", Time: "13:00-14:00",
			Activity: "Airport Limousine Bus", Location: "Narita",
			Duration: "90 min", Category: CategoryTransport,
			Cost: &Cost{Amount: 30, Currency: "$"}, Verified: true,
		},
		{
			ID: "3", Day: 2, Date: "2026-10-02", Time: "Morning",
			Activity: "Stroll Yoyogi Park", Location: "Yoyogi",
			Duration: "2 hours", Category: CategoryFree,
		},
	}
	s.Metadata = TripMetadata{
		Travelers:     2,
		DepartureDate: "2026-10-01",
		ReturnDate:    "2026-10-03",
		DepartureCity: "Seoul",
		Budget:        3000,
		Preferences:   []string{"food", "culture"},
	}
	return s
}

// ==========================
// Engine State Conversion Tests
// ==========================

func TestToEngineState_SoftPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TripState)
		wantNil bool
	}{
		{name: "complete state converts", mutate: func(*TripState) {}, wantNil: false},
		{name: "missing destination", mutate: func(s *TripState) { s.SelectedDestination = nil }, wantNil: true},
		{name: "missing plan", mutate: func(s *TripState) { s.SelectedPlan = nil }, wantNil: true},
		{name: "empty timeline", mutate: func(s *TripState) { s.Timeline = nil }, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readyState()
			tt.mutate(s)
			got := ToEngineState(s)
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
			}
		})
	}
}

func TestToEngineState_FieldMapping(t *testing.T) {
	engineState := ToEngineState(readyState())
	require.NotNil(t, engineState)

	// Plan: pace stands in for both style and pace, cost band is rendered.
	assert.Equal(t, "Tokyo Highlights", engineState.Plan.Title)
	assert.Equal(t, "moderate", engineState.Plan.Style)
	assert.Equal(t, "moderate", engineState.Plan.Pace)
	assert.Equal(t, "$1500-2000", engineState.Plan.EstimatedCost)

	// The flat location becomes both name and address.
	first := engineState.Timeline[0]
	assert.Equal(t, "Asakusa", first.Location.Name)
	assert.Equal(t, "Asakusa", first.Location.Address)
	assert.Equal(t, "Go early", first.Description)
	assert.Equal(t, []string{"Go early"}, first.Tips)

	// Transport rows gain transport info.
	second := engineState.Timeline[1]
	require.NotNil(t, second.TransportInfo)
	assert.Equal(t, "Airport Limousine Bus", second.TransportInfo.Method)
	assert.Equal(t, "90 min", second.TransportInfo.Duration)
	assert.Equal(t, "$30", second.TransportInfo.Cost)

	// The free category has no engine-side counterpart.
	assert.Equal(t, "Activity", engineState.Timeline[2].Category)
	// A row without notes falls back to the activity name.
	assert.Equal(t, "Stroll Yoyogi Park", engineState.Timeline[2].Description)

	// Summary synthesized from the timeline.
	assert.Equal(t, 2, engineState.Summary.TotalDays)
	assert.Equal(t, 3, engineState.Summary.TotalActivities)
	assert.Equal(t, "$3000", engineState.Summary.EstimatedTotalCost)

	// Metadata: inclusive day count, first preference as style.
	assert.Equal(t, 3, engineState.Metadata.NumberOfDays)
	assert.Equal(t, "food", engineState.Metadata.TravelStyle)
	require.NotNil(t, engineState.Metadata.Travelers)
	assert.Equal(t, 2, engineState.Metadata.Travelers.Adults)
}

// ==========================
// Plan / Timeline Flattening Tests
// ==========================

func TestFromEnginePlans(t *testing.T) {
	plans := FromEnginePlans([]schema.PlanOption{
		{
			ID: "A", Title: "Slow Tokyo", Description: "Take it easy",
			Style: "Relaxed", Pace: "Slow", Highlights: []string{"Tea ceremony"},
			EstimatedCost: "$1500-2000", TargetAudience: []string{"couples"},
		},
	}, 4)

	require.Len(t, plans, 1)
	assert.Equal(t, "A", plans[0].Label)
	assert.Equal(t, "Slow Tokyo", plans[0].Name)
	assert.Equal(t, PaceRelaxed, plans[0].Pace)
	assert.Equal(t, 4, plans[0].TotalDays)
	assert.Equal(t, CostRange{Min: 1500, Max: 2000, Currency: "$"}, plans[0].EstimatedCost)
	assert.Equal(t, []string{"couples"}, plans[0].Includes)
}

func TestFromEngineTimeline(t *testing.T) {
	booking := true
	rows := FromEngineTimeline([]schema.TimelineRow{
		{
			ID: "1", Day: 1, Date: "2026-10-01", TimeSlot: "Evening",
			Activity: "Izakaya dinner", Description: "Local izakaya crawl",
			Location:      schema.TimelineLocation{Name: "Shinjuku", Address: "Omoide Yokocho"},
			Category:      "Fine Dining",
			EstimatedCost: "$40", EstimatedDuration: "2 hours",
			BookingRequired: &booking,
		},
		{
			ID: "2", Day: 1, Date: "2026-10-01", TimeSlot: "Morning",
			Activity: "Rest", Description: "Sleep in",
			Location: schema.TimelineLocation{Name: "Hotel"},
			Category: "Leisure", EstimatedCost: "Free",
		},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, CategoryFood, rows[0].Category)
	assert.Equal(t, "Local izakaya crawl", rows[0].Notes)
	require.NotNil(t, rows[0].Cost)
	assert.Equal(t, Cost{Amount: 40, Currency: "$"}, *rows[0].Cost)
	assert.True(t, rows[0].Verified)

	assert.Equal(t, CategoryFree, rows[1].Category)
	assert.Nil(t, rows[1].Cost)
	assert.False(t, rows[1].Verified)
}

// ==========================
// Round-Trip and Refinement Tests
// ==========================

func TestRoundTrip_NormalizedTimelineIsStable(t *testing.T) {
	s := readyState()
	engineState := ToEngineState(s)
	require.NotNil(t, engineState)

	back := FromEngineTimeline(engineState.Timeline)
	require.Len(t, back, len(s.Timeline))

	for i := range back {
		assert.Equal(t, s.Timeline[i].ID, back[i].ID)
		assert.Equal(t, s.Timeline[i].Day, back[i].Day)
		assert.Equal(t, s.Timeline[i].Date, back[i].Date)
		assert.Equal(t, s.Timeline[i].Time, back[i].Time)
		assert.Equal(t, s.Timeline[i].Activity, back[i].Activity)
		assert.Equal(t, s.Timeline[i].Location, back[i].Location)
		assert.Equal(t, s.Timeline[i].Duration, back[i].Duration)
	}

	// The free category cannot survive the round trip; it comes back as a
	// plain activity.
	assert.Equal(t, CategoryActivity, back[2].Category)
	assert.Equal(t, CategoryTransport, back[1].Category)
}

func TestUpdateStateWithRefinedTimeline(t *testing.T) {
	s := readyState()
	conversationBefore := len(s.Conversation)

	UpdateStateWithRefinedTimeline(s, []schema.TimelineRow{
		{
			ID: "new-1", Day: 1, Date: "2026-10-01", TimeSlot: "Morning",
			Activity: "Sushi class", Description: "Hands-on lesson",
			Location: schema.TimelineLocation{Name: "Tsukiji"}, Category: "Food",
		},
	})

	require.Len(t, s.Timeline, 1)
	assert.Equal(t, "new-1", s.Timeline[0].ID)
	assert.Equal(t, CategoryFood, s.Timeline[0].Category)
	// Everything else is untouched.
	assert.Len(t, s.Conversation, conversationBefore)
	assert.Equal(t, StageItineraryReady, s.Stage)
	assert.NotNil(t, s.SelectedPlan)
}
