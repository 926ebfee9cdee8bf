// internal/trip/schema/schema.go
//
// Package schema defines the engine-side trip planning types and the JSON
// schema documents used to constrain generative model output at each stage.
package schema

// DestinationOption is one of the candidate destinations offered to the user.
type DestinationOption struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Country         string   `json:"country"`
	Description     string   `json:"description"`
	BestFor         []string `json:"bestFor"`
	EstimatedBudget string   `json:"estimatedBudget"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	Climate         string   `json:"climate"`
}

// PlanOption is one of the three themed plan variants (A, B, C).
type PlanOption struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Style          string   `json:"style"`
	Pace           string   `json:"pace"`
	Highlights     []string `json:"highlights"`
	EstimatedCost  string   `json:"estimatedCost"`
	TargetAudience []string `json:"targetAudience"`
}

// Coordinates is an optional lat/lng pair on a timeline location.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`
}

type TimelineLocation struct {
	Name        string       `json:"name"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type TransportInfo struct {
	Method   string `json:"method,omitempty"`
	Duration string `json:"duration,omitempty"`
	Cost     string `json:"cost,omitempty"`
}

// TimelineRow is a single scheduled entry in the trip timeline.
type TimelineRow struct {
	ID                string           `json:"id"`
	Day               int              `json:"day"`
	Date              string           `json:"date"`
	TimeSlot          string           `json:"timeSlot"`
	Activity          string           `json:"activity"`
	Description       string           `json:"description"`
	Location          TimelineLocation `json:"location"`
	Category          string           `json:"category"`
	EstimatedCost     string           `json:"estimatedCost,omitempty"`
	EstimatedDuration string           `json:"estimatedDuration,omitempty"`
	Tips              []string         `json:"tips,omitempty"`
	BookingRequired   *bool            `json:"bookingRequired,omitempty"`
	TransportInfo     *TransportInfo   `json:"transportInfo,omitempty"`
}

// TimelineSummary aggregates counts over a timeline. TotalDays and
// TotalActivities are always recomputed from the timeline itself rather than
// trusted from model output.
type TimelineSummary struct {
	TotalDays          int      `json:"totalDays"`
	TotalActivities    int      `json:"totalActivities"`
	EstimatedTotalCost string   `json:"estimatedTotalCost,omitempty"`
	KeyHighlights      []string `json:"keyHighlights,omitempty"`
}

// Travelers describes the travel party composition.
type Travelers struct {
	Adults   int `json:"adults"`
	Children int `json:"children,omitempty"`
	Seniors  int `json:"seniors,omitempty"`
}

// TripMetadata carries trip-level preferences gathered from the user. All
// fields are optional; prompt builders only mention what is present.
type TripMetadata struct {
	StartDate           string     `json:"startDate,omitempty"`
	EndDate             string     `json:"endDate,omitempty"`
	NumberOfDays        int        `json:"numberOfDays,omitempty"`
	Budget              string     `json:"budget,omitempty"`
	TravelStyle         string     `json:"travelStyle,omitempty"`
	Interests           []string   `json:"interests,omitempty"`
	Travelers           *Travelers `json:"travelers,omitempty"`
	SpecialRequirements []string   `json:"specialRequirements,omitempty"`
	Presets             []string   `json:"presets,omitempty"`
}

// TripEngineState is the fully resolved trip the refinement loop operates on.
type TripEngineState struct {
	Destination DestinationOption `json:"destination"`
	Plan        PlanOption        `json:"plan"`
	Timeline    []TimelineRow     `json:"timeline"`
	Summary     TimelineSummary   `json:"summary"`
	Metadata    TripMetadata      `json:"metadata"`
}

// TimelineResult is the payload of a successful timeline generation.
type TimelineResult struct {
	Timeline []TimelineRow   `json:"timeline"`
	Summary  TimelineSummary `json:"summary"`
}

// RefinementResponse is the payload of a refinement turn. UpdatedTimeline is
// nil when the turn was purely conversational.
type RefinementResponse struct {
	Response         string        `json:"response"`
	UpdatedTimeline  []TimelineRow `json:"updatedTimeline,omitempty"`
	SuggestedActions []string      `json:"suggestedActions,omitempty"`
	ChangesSummary   string        `json:"changesSummary,omitempty"`
}

// Stage names used in error reporting and metrics labels.
const (
	StageDestinations = "destinations"
	StagePlans        = "plans"
	StageTimeline     = "timeline"
	StageRefinement   = "refinement"
)
