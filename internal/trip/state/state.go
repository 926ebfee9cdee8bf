// internal/trip/state/state.go
//
// Package state holds the application-facing trip representation: the stage
// machine, the flattened timeline the UI consumes, and the conversion layer
// between it and the engine's richer types.
package state

import (
	"time"

	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

// TripStage is the planning stage a session is in.
type TripStage string

const (
	StageInitial           TripStage = "initial"
	StageChooseDestination TripStage = "choose_destination"
	StageChoosePlan        TripStage = "choose_plan"
	StageItineraryReady    TripStage = "itinerary_ready"
	StageRefining          TripStage = "refining"
)

// Pace is the normalized daily pace of a plan.
type Pace string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PaceIntense  Pace = "intense"
)

// Category is the normalized activity category used by the application.
type Category string

const (
	CategoryTransport     Category = "transport"
	CategoryActivity      Category = "activity"
	CategoryFood          Category = "food"
	CategoryAccommodation Category = "accommodation"
	CategoryFree          Category = "free"
)

// CostRange is a plan-level cost estimate band.
type CostRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Cost is a single activity cost.
type Cost struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlanOption is the application-side plan with a normalized pace and cost
// band. Label is "A", "B", or "C".
type PlanOption struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Pace          Pace      `json:"pace"`
	Highlights    []string  `json:"highlights"`
	TotalDays     int       `json:"totalDays"`
	EstimatedCost CostRange `json:"estimatedCost"`
	Includes      []string  `json:"includes"`
}

// TimelineRow is the flattened timeline entry the UI consumes. Location is a
// plain string; the engine-side nested location is collapsed on the way in.
type TimelineRow struct {
	ID          string       `json:"id"`
	Day         int          `json:"day"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Activity    string       `json:"activity"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Duration    string       `json:"duration"`
	Category    Category     `json:"category"`
	Notes       string       `json:"notes,omitempty"`
	Cost        *Cost        `json:"cost,omitempty"`
	Verified    bool         `json:"verified"`
	BookingURL  string       `json:"bookingUrl,omitempty"`
}

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// MessageMetadata carries optional stage/action context on a message.
type MessageMetadata struct {
	Stage  TripStage   `json:"stage,omitempty"`
	Action string      `json:"action,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// ChatMessage is one turn in the session conversation.
type ChatMessage struct {
	ID        string           `json:"id"`
	Role      MessageRole      `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// TripMetadata is the application-side trip parameters gathered from the user.
type TripMetadata struct {
	Travelers     int      `json:"travelers"`
	DepartureDate string   `json:"departureDate"`
	ReturnDate    string   `json:"returnDate"`
	DepartureCity string   `json:"departureCity"`
	Budget        float64  `json:"budget,omitempty"`
	Preferences   []string `json:"preferences"`
	Presets       []string `json:"presets,omitempty"`
}

// TripState is the complete session state: where the user is in the stage
// machine, the options they have seen, what they selected, and the
// conversation so far.
type TripState struct {
	Stage               TripStage                  `json:"stage"`
	UserInput           string                     `json:"userInput"`
	DestinationOptions  []schema.DestinationOption `json:"destinationOptions"`
	SelectedDestination *schema.DestinationOption  `json:"selectedDestination"`
	PlanOptions         []PlanOption               `json:"planOptions"`
	SelectedPlan        *PlanOption                `json:"selectedPlan"`
	Timeline            []TimelineRow              `json:"timeline"`
	Conversation        []ChatMessage              `json:"conversation"`
	Metadata            TripMetadata               `json:"metadata"`
}

// NewTripState returns an empty session at the initial stage.
func NewTripState() *TripState {
	return &TripState{
		Stage:              StageInitial,
		DestinationOptions: []schema.DestinationOption{},
		PlanOptions:        []PlanOption{},
		Timeline:           []TimelineRow{},
		Conversation:       []ChatMessage{},
		Metadata: TripMetadata{
			Travelers:   1,
			Preferences: []string{},
		},
	}
}
