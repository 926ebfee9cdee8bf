// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	stderrors "github.com/EGDongAn/trip-planner-ai/internal/common/errors"
	"github.com/EGDongAn/trip-planner-ai/internal/common/validation"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/state"
	"github.com/EGDongAn/trip-planner-ai/internal/travel"
)

// generateRequestSchema validates the stateless generate endpoint's body
// before the action-specific decoding happens.
var generateRequestSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"action": {
			Type: "string",
			Enum: []string{"destinations", "plans", "timeline"},
		},
		"userInput":   {Type: "string"},
		"destination": {Type: "object"},
		"plan":        {Type: "object"},
		"metadata":    {Type: "object"},
	},
	Required:             []string{"action"},
	AdditionalProperties: true,
}

type generateRequest struct {
	Action      string                    `json:"action"`
	UserInput   string                    `json:"userInput"`
	Destination *schema.DestinationOption `json:"destination"`
	Plan        *schema.PlanOption        `json:"plan"`
	Metadata    *schema.TripMetadata      `json:"metadata"`
}

// handleGenerate is the stateless pipeline endpoint. The action field picks
// the stage; each stage checks its own required inputs.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	if result := validation.ValidateInput(raw, generateRequestSchema); !result.Valid {
		s.respondError(w, stderrors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	var req generateRequest
	if err := reDecode(raw, &req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError(err.Error()))
		return
	}

	switch req.Action {
	case "destinations":
		if req.UserInput == "" {
			s.respondError(w, stderrors.NewValidationFailedError("userInput is required for destinations action"))
			return
		}
		destinations, err := s.engine.GenerateDestinations(r.Context(), req.UserInput, req.Metadata)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"destinations": destinations})

	case "plans":
		if req.Destination == nil {
			s.respondError(w, stderrors.NewValidationFailedError("destination is required for plans action"))
			return
		}
		plans, err := s.engine.GeneratePlans(r.Context(), *req.Destination, req.Metadata)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})

	case "timeline":
		if req.Destination == nil || req.Plan == nil {
			s.respondError(w, stderrors.NewValidationFailedError("destination and plan are required for timeline action"))
			return
		}
		result, err := s.engine.GenerateTimeline(r.Context(), *req.Destination, *req.Plan, req.Metadata)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"timeline": result})

	default:
		s.respondError(w, stderrors.NewValidationFailedError("invalid action, must be one of: destinations, plans, timeline"))
	}
}

type refineRequest struct {
	CurrentState *state.TripState `json:"currentState"`
	Message      string           `json:"message"`
}

type refineResponse struct {
	Response         string           `json:"response"`
	UpdatedState     *state.TripState `json:"updatedState,omitempty"`
	SuggestedActions []string         `json:"suggestedActions,omitempty"`
	ChangesSummary   string           `json:"changesSummary,omitempty"`
}

// handleRefine is the stateless refinement endpoint: the caller supplies its
// full trip state and gets the updated state back only when the timeline
// actually changed.
func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.CurrentState == nil || req.Message == "" {
		s.respondError(w, stderrors.NewValidationFailedError("currentState and message are required"))
		return
	}

	engineState := state.ToEngineState(req.CurrentState)
	if engineState == nil {
		s.respondError(w, stderrors.NewValidationFailedError("invalid state: destination, plan, and timeline are required"))
		return
	}

	result, err := s.engine.RefineTrip(r.Context(), *engineState, req.Message)
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := refineResponse{
		Response:         result.Response,
		SuggestedActions: result.SuggestedActions,
		ChangesSummary:   result.ChangesSummary,
	}
	if result.UpdatedTimeline != nil {
		state.UpdateStateWithRefinedTimeline(req.CurrentState, result.UpdatedTimeline)
		resp.UpdatedState = req.CurrentState
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	st, err := s.controller.GetState(ps.ByName("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type startRequest struct {
	UserInput string              `json:"userInput"`
	Metadata  *state.TripMetadata `json:"metadata"`
}

func (s *Server) handleStartPlanning(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.UserInput == "" {
		s.respondError(w, stderrors.NewValidationFailedError("userInput is required"))
		return
	}

	st, err := s.controller.StartPlanning(r.Context(), ps.ByName("id"), req.UserInput, req.Metadata)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type selectDestinationRequest struct {
	Destination *schema.DestinationOption `json:"destination"`
}

func (s *Server) handleSelectDestination(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req selectDestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.Destination == nil {
		s.respondError(w, stderrors.NewValidationFailedError("destination is required"))
		return
	}

	st, err := s.controller.SelectDestination(r.Context(), ps.ByName("id"), *req.Destination)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type selectPlanRequest struct {
	Plan *state.PlanOption `json:"plan"`
}

func (s *Server) handleSelectPlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req selectPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.Plan == nil {
		s.respondError(w, stderrors.NewValidationFailedError("plan is required"))
		return
	}

	st, err := s.controller.SelectPlan(r.Context(), ps.ByName("id"), *req.Plan)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type sessionRefineRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSessionRefine(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req sessionRefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if req.Message == "" {
		s.respondError(w, stderrors.NewValidationFailedError("message is required"))
		return
	}

	st, err := s.controller.Refine(r.Context(), ps.ByName("id"), req.Message)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	st, err := s.controller.Reset(ps.ByName("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var metadata state.TripMetadata
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}

	st, err := s.controller.UpdateMetadata(ps.ByName("id"), metadata)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSearchFlights(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var params travel.FlightSearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if params.Departure == "" || params.Arrival == "" || params.DepartureDate == "" {
		s.respondError(w, stderrors.NewValidationFailedError("departure, arrival, and departureDate are required"))
		return
	}
	if !validation.ValidateDate(params.DepartureDate) {
		s.respondError(w, stderrors.NewValidationFailedError("departureDate must be YYYY-MM-DD"))
		return
	}

	flights, err := s.travel.SearchFlights(r.Context(), params)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flights": flights})
}

func (s *Server) handleSearchHotels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var params travel.HotelSearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, stderrors.NewValidationFailedError("request body is not valid JSON"))
		return
	}
	if params.Location == "" || params.CheckIn == "" || params.CheckOut == "" {
		s.respondError(w, stderrors.NewValidationFailedError("location, checkIn, and checkOut are required"))
		return
	}
	if !validation.ValidateDate(params.CheckIn) || !validation.ValidateDate(params.CheckOut) {
		s.respondError(w, stderrors.NewValidationFailedError("checkIn and checkOut must be YYYY-MM-DD"))
		return
	}

	hotels, err := s.travel.SearchHotels(r.Context(), params)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hotels": hotels})
}

// respondError writes the error as JSON with the status its code maps to.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := stderrors.StatusFor(err)

	var stdErr *stderrors.StandardError
	if !errors.As(err, &stdErr) {
		s.logger.WithError(err).Error("unhandled error", nil)
		writeError(w, status, "internal server error")
		return
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed", map[string]interface{}{"code": stdErr.Code})
	}
	writeJSON(w, status, map[string]interface{}{
		"error": stdErr.Message,
		"code":  stdErr.Code,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func reDecode(raw map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
