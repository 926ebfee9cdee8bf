// internal/trip/state/convert.go
package state

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

// ToEngineState converts the application state into the engine's refinement
// input. Returns nil when the trip is not far enough along to refine: no
// selected destination, no selected plan, or an empty timeline.
func ToEngineState(s *TripState) *schema.TripEngineState {
	if s.SelectedDestination == nil || s.SelectedPlan == nil || len(s.Timeline) == 0 {
		return nil
	}

	plan := schema.PlanOption{
		ID:          s.SelectedPlan.ID,
		Title:       s.SelectedPlan.Name,
		Description: s.SelectedPlan.Description,
		// The app side keeps a single pace value; style is lost on the way
		// in, so pace stands in for both.
		Style:          string(s.SelectedPlan.Pace),
		Pace:           string(s.SelectedPlan.Pace),
		Highlights:     s.SelectedPlan.Highlights,
		EstimatedCost:  formatCostRange(s.SelectedPlan.EstimatedCost),
		TargetAudience: s.SelectedPlan.Includes,
	}
	if plan.TargetAudience == nil {
		plan.TargetAudience = []string{}
	}

	timeline := make([]schema.TimelineRow, len(s.Timeline))
	for i, row := range s.Timeline {
		timeline[i] = toEngineRow(row)
	}

	metadata := schema.TripMetadata{
		StartDate:           s.Metadata.DepartureDate,
		EndDate:             s.Metadata.ReturnDate,
		NumberOfDays:        calculateDays(s.Metadata.DepartureDate, s.Metadata.ReturnDate),
		TravelStyle:         firstOrEmpty(s.Metadata.Preferences),
		Interests:           s.Metadata.Preferences,
		Travelers:           &schema.Travelers{Adults: s.Metadata.Travelers},
		SpecialRequirements: []string{},
	}
	if s.Metadata.Budget > 0 {
		metadata.Budget = fmt.Sprintf("$%g", s.Metadata.Budget)
	}

	summary := schema.TimelineSummary{
		TotalDays: len(lo.UniqBy(timeline, func(row schema.TimelineRow) int {
			return row.Day
		})),
		TotalActivities: len(timeline),
		KeyHighlights:   s.SelectedPlan.Highlights,
	}
	if s.Metadata.Budget > 0 {
		summary.EstimatedTotalCost = fmt.Sprintf("$%g", s.Metadata.Budget)
	}

	return &schema.TripEngineState{
		Destination: *s.SelectedDestination,
		Plan:        plan,
		Timeline:    timeline,
		Summary:     summary,
		Metadata:    metadata,
	}
}

func toEngineRow(row TimelineRow) schema.TimelineRow {
	description := row.Notes
	if description == "" {
		description = row.Activity
	}

	out := schema.TimelineRow{
		ID:          row.ID,
		Day:         row.Day,
		Date:        row.Date,
		TimeSlot:    row.Time,
		Activity:    row.Activity,
		Description: description,
		// The flat location string becomes both name and address; there is
		// no richer data to recover.
		Location: schema.TimelineLocation{
			Name:    row.Location,
			Address: row.Location,
		},
		Category:          engineCategory(row.Category),
		EstimatedDuration: row.Duration,
		BookingRequired:   &row.Verified,
	}

	if row.Coordinates != nil {
		lat, lng := row.Coordinates.Lat, row.Coordinates.Lng
		out.Location.Coordinates = &schema.Coordinates{Lat: &lat, Lng: &lng}
	}
	if row.Cost != nil {
		out.EstimatedCost = fmt.Sprintf("%s%g", row.Cost.Currency, row.Cost.Amount)
	}
	if row.Notes != "" {
		out.Tips = []string{row.Notes}
	}
	if row.Category == CategoryTransport {
		out.TransportInfo = &schema.TransportInfo{
			Method:   row.Activity,
			Duration: row.Duration,
			Cost:     out.EstimatedCost,
		}
	}

	return out
}

// engineCategory maps the application category to the engine's labels. The
// "free" category has no engine-side counterpart and becomes "Activity".
func engineCategory(c Category) string {
	if c == CategoryFree {
		return "Activity"
	}
	return string(c)
}

// FromEnginePlans converts generated plan options into the application
// representation, normalizing pace and cost. Labels follow the engine IDs,
// which are expected to be A, B, and C.
func FromEnginePlans(plans []schema.PlanOption, totalDays int) []PlanOption {
	out := make([]PlanOption, len(plans))
	for i, p := range plans {
		out[i] = PlanOption{
			ID:            p.ID,
			Label:         p.ID,
			Name:          p.Title,
			Description:   p.Description,
			Pace:          MapPace(p.Pace),
			Highlights:    p.Highlights,
			TotalDays:     totalDays,
			EstimatedCost: ParsePlanCost(p.EstimatedCost),
			Includes:      p.TargetAudience,
		}
	}
	return out
}

// FromEngineTimeline flattens generated timeline rows into the application
// representation, normalizing category and cost.
func FromEngineTimeline(timeline []schema.TimelineRow) []TimelineRow {
	out := make([]TimelineRow, len(timeline))
	for i, row := range timeline {
		out[i] = fromEngineRow(row)
	}
	return out
}

func fromEngineRow(row schema.TimelineRow) TimelineRow {
	out := TimelineRow{
		ID:       row.ID,
		Day:      row.Day,
		Date:     row.Date,
		Time:     row.TimeSlot,
		Activity: row.Activity,
		Location: row.Location.Name,
		Duration: row.EstimatedDuration,
		Category: MapCategory(row.Category),
		Notes:    row.Description,
		Cost:     ParseCost(row.EstimatedCost),
	}
	if row.BookingRequired != nil {
		out.Verified = *row.BookingRequired
	}
	if row.Location.Coordinates != nil {
		out.Coordinates = &Coordinates{
			Lat: deref(row.Location.Coordinates.Lat),
			Lng: deref(row.Location.Coordinates.Lng),
		}
	}
	return out
}

// UpdateStateWithRefinedTimeline replaces the timeline with the refined rows.
// All other state, including the conversation, is preserved.
func UpdateStateWithRefinedTimeline(s *TripState, refined []schema.TimelineRow) {
	s.Timeline = FromEngineTimeline(refined)
}

func formatCostRange(c CostRange) string {
	if c.Min == 0 && c.Max == 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%s%g-%g", c.Currency, c.Min, c.Max)
}

// calculateDays counts inclusive days between two YYYY-MM-DD dates. Zero
// when either date is missing or unparseable.
func calculateDays(startDate, endDate string) int {
	if startDate == "" || endDate == "" {
		return 0
	}
	start, err := time.Parse("2006-01-02", strings.TrimSpace(startDate))
	if err != nil {
		return 0
	}
	end, err := time.Parse("2006-01-02", strings.TrimSpace(endDate))
	if err != nil {
		return 0
	}
	diff := math.Abs(end.Sub(start).Hours() / 24)
	return int(math.Ceil(diff)) + 1
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
