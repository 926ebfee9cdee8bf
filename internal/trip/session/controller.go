// internal/trip/session/controller.go
//
// Package session orchestrates the trip planning stage machine over live
// sessions. Each generation call is single-flight per session, and chat
// updates are optimistic: the user's message is appended before the model
// call and removed again, and only it, when the call fails.
package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	stderrors "github.com/EGDongAn/trip-planner-ai/internal/common/errors"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/engine"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/state"
)

// maxConversationLength bounds the conversation kept per session; older
// messages are dropped from the front.
const maxConversationLength = 20

// Controller coordinates engine calls with per-session state transitions.
type Controller struct {
	store  *Store
	engine *engine.Engine
	logger logger.Logger
}

func NewController(store *Store, eng *engine.Engine, log logger.Logger) *Controller {
	return &Controller{
		store:  store,
		engine: eng,
		logger: log,
	}
}

// GetState returns a snapshot of the session state.
func (c *Controller) GetState(sessionID string) (*state.TripState, error) {
	e, ok := c.store.Get(sessionID)
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.state), nil
}

// StartPlanning generates destination options for the user's free-form input
// and advances the session to the choose_destination stage. The user's input
// is appended to the conversation optimistically and removed if generation
// fails.
func (c *Controller) StartPlanning(ctx context.Context, sessionID, userInput string, metadata *state.TripMetadata) (*state.TripState, error) {
	e := c.store.GetOrCreate(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if metadata != nil {
		e.state.Metadata = *metadata
	}

	userMsg := newMessage(state.RoleUser, userInput, &state.MessageMetadata{Stage: state.StageInitial})
	e.state.Conversation = append(e.state.Conversation, userMsg)

	destinations, err := c.engine.GenerateDestinations(ctx, userInput, engineMetadata(e.state.Metadata))
	if err != nil {
		removeMessage(e.state, userMsg.ID)
		return nil, err
	}

	e.state.Stage = state.StageChooseDestination
	e.state.UserInput = userInput
	e.state.DestinationOptions = destinations
	c.finishTurn(e.state)

	c.logger.Info("planning started", map[string]interface{}{
		"session_id":   sessionID,
		"destinations": len(destinations),
	})
	return snapshot(e.state), nil
}

// SelectDestination records the chosen destination, generates the plan
// options for it, and advances to the choose_plan stage.
func (c *Controller) SelectDestination(ctx context.Context, sessionID string, destination schema.DestinationOption) (*state.TripState, error) {
	e, ok := c.store.Get(sessionID)
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Stage != state.StageChooseDestination {
		return nil, stderrors.NewInvalidStageError("destination can only be selected while choosing a destination")
	}

	userMsg := newMessage(state.RoleUser,
		"I'd like to visit "+destination.Name+", "+destination.Country,
		&state.MessageMetadata{
			Stage:  state.StageChooseDestination,
			Action: "select_destination",
			Data:   destination,
		})
	e.state.Conversation = append(e.state.Conversation, userMsg)

	plans, err := c.engine.GeneratePlans(ctx, destination, engineMetadata(e.state.Metadata))
	if err != nil {
		removeMessage(e.state, userMsg.ID)
		return nil, err
	}

	e.state.Stage = state.StageChoosePlan
	e.state.SelectedDestination = &destination
	e.state.PlanOptions = state.FromEnginePlans(plans, tripDays(e.state.Metadata))
	c.finishTurn(e.state)

	c.logger.Info("destination selected", map[string]interface{}{
		"session_id":  sessionID,
		"destination": destination.Name,
		"plans":       len(plans),
	})
	return snapshot(e.state), nil
}

// SelectPlan records the chosen plan, generates the full timeline, and
// advances to the itinerary_ready stage.
func (c *Controller) SelectPlan(ctx context.Context, sessionID string, plan state.PlanOption) (*state.TripState, error) {
	e, ok := c.store.Get(sessionID)
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Stage != state.StageChoosePlan {
		return nil, stderrors.NewInvalidStageError("plan can only be selected while choosing a plan")
	}
	if e.state.SelectedDestination == nil {
		return nil, stderrors.NewInvalidStageError("no destination selected")
	}

	userMsg := newMessage(state.RoleUser,
		"I'd like to go with Plan "+plan.Label+": "+plan.Name,
		&state.MessageMetadata{
			Stage:  state.StageChoosePlan,
			Action: "select_plan",
			Data:   plan,
		})
	e.state.Conversation = append(e.state.Conversation, userMsg)

	result, err := c.engine.GenerateTimeline(ctx, *e.state.SelectedDestination, enginePlan(plan), engineMetadata(e.state.Metadata))
	if err != nil {
		removeMessage(e.state, userMsg.ID)
		return nil, err
	}

	e.state.Stage = state.StageItineraryReady
	e.state.SelectedPlan = &plan
	e.state.Timeline = state.FromEngineTimeline(result.Timeline)
	e.state.Conversation = append(e.state.Conversation, newMessage(state.RoleAssistant,
		"Great choice! Here's your personalized itinerary. You can chat with me to refine it.",
		&state.MessageMetadata{Stage: state.StageItineraryReady}))
	c.finishTurn(e.state)

	c.logger.Info("plan selected", map[string]interface{}{
		"session_id": sessionID,
		"plan":       plan.Label,
		"rows":       len(e.state.Timeline),
	})
	return snapshot(e.state), nil
}

// Refine runs one conversational refinement turn against the itinerary. A
// purely conversational answer leaves the timeline untouched; when the model
// returns an updated timeline it replaces the current one.
func (c *Controller) Refine(ctx context.Context, sessionID, message string) (*state.TripState, error) {
	e, ok := c.store.Get(sessionID)
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	engineState := state.ToEngineState(e.state)
	if engineState == nil {
		return nil, stderrors.NewInvalidStageError("trip is not ready for refinement")
	}

	userMsg := newMessage(state.RoleUser, message, &state.MessageMetadata{
		Stage:  state.StageItineraryReady,
		Action: "modify_timeline",
	})
	e.state.Conversation = append(e.state.Conversation, userMsg)

	result, err := c.engine.RefineTrip(ctx, *engineState, message)
	if err != nil {
		removeMessage(e.state, userMsg.ID)
		return nil, err
	}

	if result.UpdatedTimeline != nil {
		state.UpdateStateWithRefinedTimeline(e.state, result.UpdatedTimeline)
	}
	e.state.Conversation = append(e.state.Conversation, newMessage(state.RoleAssistant,
		result.Response, &state.MessageMetadata{Stage: state.StageItineraryReady}))
	c.finishTurn(e.state)

	c.logger.Info("refinement applied", map[string]interface{}{
		"session_id":       sessionID,
		"timeline_updated": result.UpdatedTimeline != nil,
	})
	return snapshot(e.state), nil
}

// Reset returns the session to a fresh initial state, keeping the session
// itself alive.
func (c *Controller) Reset(sessionID string) (*state.TripState, error) {
	e, ok := c.store.Get(sessionID)
	if !ok {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state.NewTripState()
	return snapshot(e.state), nil
}

// UpdateMetadata merges new trip parameters into the session.
func (c *Controller) UpdateMetadata(sessionID string, metadata state.TripMetadata) (*state.TripState, error) {
	e := c.store.GetOrCreate(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if metadata.Travelers > 0 {
		e.state.Metadata.Travelers = metadata.Travelers
	}
	if metadata.DepartureDate != "" {
		e.state.Metadata.DepartureDate = metadata.DepartureDate
	}
	if metadata.ReturnDate != "" {
		e.state.Metadata.ReturnDate = metadata.ReturnDate
	}
	if metadata.DepartureCity != "" {
		e.state.Metadata.DepartureCity = metadata.DepartureCity
	}
	if metadata.Budget > 0 {
		e.state.Metadata.Budget = metadata.Budget
	}
	if metadata.Preferences != nil {
		e.state.Metadata.Preferences = metadata.Preferences
	}
	if metadata.Presets != nil {
		e.state.Metadata.Presets = metadata.Presets
	}
	return snapshot(e.state), nil
}

// finishTurn applies post-turn housekeeping: conversation truncation.
func (c *Controller) finishTurn(s *state.TripState) {
	if len(s.Conversation) > maxConversationLength {
		s.Conversation = s.Conversation[len(s.Conversation)-maxConversationLength:]
	}
}

func newMessage(role state.MessageRole, content string, metadata *state.MessageMetadata) state.ChatMessage {
	return state.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// removeMessage drops exactly the message with the given ID, leaving the
// rest of the conversation untouched.
func removeMessage(s *state.TripState, messageID string) {
	filtered := s.Conversation[:0]
	for _, msg := range s.Conversation {
		if msg.ID != messageID {
			filtered = append(filtered, msg)
		}
	}
	s.Conversation = filtered
}

// snapshot deep-copies the slices callers may serialize after the lock is
// released.
func snapshot(s *state.TripState) *state.TripState {
	out := *s
	out.DestinationOptions = append([]schema.DestinationOption(nil), s.DestinationOptions...)
	out.PlanOptions = append([]state.PlanOption(nil), s.PlanOptions...)
	out.Timeline = append([]state.TimelineRow(nil), s.Timeline...)
	out.Conversation = append([]state.ChatMessage(nil), s.Conversation...)
	return &out
}

func engineMetadata(m state.TripMetadata) *schema.TripMetadata {
	out := &schema.TripMetadata{
		StartDate:    m.DepartureDate,
		EndDate:      m.ReturnDate,
		NumberOfDays: tripDays(m),
		Interests:    m.Preferences,
		Presets:      m.Presets,
	}
	if len(m.Preferences) > 0 {
		out.TravelStyle = m.Preferences[0]
	}
	if m.Travelers > 0 {
		out.Travelers = &schema.Travelers{Adults: m.Travelers}
	}
	if m.Budget > 0 {
		out.Budget = "$" + trimFloat(m.Budget)
	}
	return out
}

func enginePlan(p state.PlanOption) schema.PlanOption {
	return schema.PlanOption{
		ID:             p.ID,
		Title:          p.Name,
		Description:    p.Description,
		Style:          string(p.Pace),
		Pace:           string(p.Pace),
		Highlights:     p.Highlights,
		EstimatedCost:  formatRange(p.EstimatedCost),
		TargetAudience: p.Includes,
	}
}

func tripDays(m state.TripMetadata) int {
	if m.DepartureDate == "" || m.ReturnDate == "" {
		return 0
	}
	start, err1 := time.Parse("2006-01-02", m.DepartureDate)
	end, err2 := time.Parse("2006-01-02", m.ReturnDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func formatRange(c state.CostRange) string {
	if c.Min == 0 && c.Max == 0 {
		return "Unknown"
	}
	return c.Currency + trimFloat(c.Min) + "-" + trimFloat(c.Max)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
