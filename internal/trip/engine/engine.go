// internal/trip/engine/engine.go
//
// Package engine implements the staged trip planning pipeline: destination
// options, plan options, timeline generation, and conversational refinement.
// The engine owns prompt construction, output decoding, and the timeline
// invariants (ordering and summary consistency); it is transport-agnostic
// and talks to the model only through the genai.Client interface.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	stderrors "github.com/EGDongAn/trip-planner-ai/internal/common/errors"
	"github.com/EGDongAn/trip-planner-ai/internal/common/logger"
	"github.com/EGDongAn/trip-planner-ai/internal/common/metrics"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/genai"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/prompt"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

const (
	expectedDestinations = 5
	expectedPlans        = 3
)

// Engine drives the four generation stages.
type Engine struct {
	client genai.Client
	logger logger.Logger
}

func New(client genai.Client, log logger.Logger) *Engine {
	return &Engine{
		client: client,
		logger: log,
	}
}

// GenerateDestinations produces candidate destinations for the user's input.
// A count other than 5 is logged but not rejected; the options are still
// usable and the user decides what to do with them.
func (e *Engine) GenerateDestinations(ctx context.Context, userInput string, metadata *schema.TripMetadata) ([]schema.DestinationOption, error) {
	start := time.Now()

	p := prompt.BuildDestinationPrompt(userInput, metadata)
	raw, err := e.client.Generate(ctx, p, schema.DestinationDocument())
	if err != nil {
		metrics.RecordEngineOperation(schema.StageDestinations, time.Since(start).Seconds(), false)
		return nil, e.wrapStageError(schema.StageDestinations, err)
	}

	var result struct {
		Destinations []schema.DestinationOption `json:"destinations"`
	}
	if err := decode(raw, &result); err != nil {
		metrics.RecordEngineOperation(schema.StageDestinations, time.Since(start).Seconds(), false)
		return nil, stderrors.NewMalformedResponseError(schema.StageDestinations, err)
	}

	if len(result.Destinations) != expectedDestinations {
		e.logger.Warn("unexpected destination count", map[string]interface{}{
			"expected": expectedDestinations,
			"actual":   len(result.Destinations),
		})
	}

	metrics.RecordEngineOperation(schema.StageDestinations, time.Since(start).Seconds(), true)
	e.logger.Info("destinations generated", map[string]interface{}{
		"count":       len(result.Destinations),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result.Destinations, nil
}

// GeneratePlans produces the three themed plan variants for a destination.
// As with destinations, a wrong count is logged rather than rejected.
func (e *Engine) GeneratePlans(ctx context.Context, destination schema.DestinationOption, metadata *schema.TripMetadata) ([]schema.PlanOption, error) {
	start := time.Now()

	p := prompt.BuildPlanPrompt(destination, metadata)
	raw, err := e.client.Generate(ctx, p, schema.PlanDocument())
	if err != nil {
		metrics.RecordEngineOperation(schema.StagePlans, time.Since(start).Seconds(), false)
		return nil, e.wrapStageError(schema.StagePlans, err)
	}

	var result struct {
		Plans []schema.PlanOption `json:"plans"`
	}
	if err := decode(raw, &result); err != nil {
		metrics.RecordEngineOperation(schema.StagePlans, time.Since(start).Seconds(), false)
		return nil, stderrors.NewMalformedResponseError(schema.StagePlans, err)
	}

	if len(result.Plans) != expectedPlans {
		e.logger.Warn("unexpected plan count", map[string]interface{}{
			"expected": expectedPlans,
			"actual":   len(result.Plans),
		})
	}

	metrics.RecordEngineOperation(schema.StagePlans, time.Since(start).Seconds(), true)
	e.logger.Info("plans generated", map[string]interface{}{
		"destination": destination.Name,
		"count":       len(result.Plans),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result.Plans, nil
}

// GenerateTimeline produces the full day-by-day itinerary. The timeline is
// sorted and the summary counts are recomputed before it is returned, so
// callers always see the invariant form.
func (e *Engine) GenerateTimeline(ctx context.Context, destination schema.DestinationOption, plan schema.PlanOption, metadata *schema.TripMetadata) (*schema.TimelineResult, error) {
	start := time.Now()

	p := prompt.BuildTimelinePrompt(destination, plan, metadata)
	raw, err := e.client.Generate(ctx, p, schema.TimelineDocument())
	if err != nil {
		metrics.RecordEngineOperation(schema.StageTimeline, time.Since(start).Seconds(), false)
		return nil, e.wrapStageError(schema.StageTimeline, err)
	}

	if _, ok := raw["timeline"]; !ok {
		metrics.RecordEngineOperation(schema.StageTimeline, time.Since(start).Seconds(), false)
		return nil, stderrors.NewInvalidResponseShapeError(schema.StageTimeline, "missing timeline key")
	}
	if _, ok := raw["summary"]; !ok {
		metrics.RecordEngineOperation(schema.StageTimeline, time.Since(start).Seconds(), false)
		return nil, stderrors.NewInvalidResponseShapeError(schema.StageTimeline, "missing summary key")
	}

	var result schema.TimelineResult
	if err := decode(raw, &result); err != nil {
		metrics.RecordEngineOperation(schema.StageTimeline, time.Since(start).Seconds(), false)
		return nil, stderrors.NewMalformedResponseError(schema.StageTimeline, err)
	}

	SortTimeline(result.Timeline)
	result.Summary = RepairSummary(result.Summary, result.Timeline)

	metrics.RecordEngineOperation(schema.StageTimeline, time.Since(start).Seconds(), true)
	e.logger.Info("timeline generated", map[string]interface{}{
		"destination": destination.Name,
		"plan":        plan.ID,
		"rows":        len(result.Timeline),
		"days":        result.Summary.TotalDays,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &result, nil
}

// RefineTrip runs one conversational refinement turn. When the model returns
// an updated timeline it is sorted before being handed back; when it does
// not, the turn was purely conversational and the caller's state is left
// alone.
func (e *Engine) RefineTrip(ctx context.Context, state schema.TripEngineState, userMessage string) (*schema.RefinementResponse, error) {
	start := time.Now()

	p := prompt.BuildRefinementPrompt(state, userMessage)
	raw, err := e.client.Generate(ctx, p, schema.RefinementDocument())
	if err != nil {
		metrics.RecordEngineOperation(schema.StageRefinement, time.Since(start).Seconds(), false)
		return nil, e.wrapStageError(schema.StageRefinement, err)
	}

	var result schema.RefinementResponse
	if err := decode(raw, &result); err != nil {
		metrics.RecordEngineOperation(schema.StageRefinement, time.Since(start).Seconds(), false)
		return nil, stderrors.NewMalformedResponseError(schema.StageRefinement, err)
	}

	if result.Response == "" {
		metrics.RecordEngineOperation(schema.StageRefinement, time.Since(start).Seconds(), false)
		return nil, stderrors.NewInvalidResponseShapeError(schema.StageRefinement, "empty response text")
	}

	if result.UpdatedTimeline != nil {
		SortTimeline(result.UpdatedTimeline)
	}

	metrics.RecordEngineOperation(schema.StageRefinement, time.Since(start).Seconds(), true)
	e.logger.Info("refinement completed", map[string]interface{}{
		"timeline_updated": result.UpdatedTimeline != nil,
		"duration_ms":      time.Since(start).Milliseconds(),
	})
	return &result, nil
}

// SortTimeline orders rows by day ascending, then time slot. Time slots are
// compared as plain strings; named slots like "Morning" sort by their text,
// which keeps the order deterministic even for mixed formats. The sort is
// stable so equal rows keep their generated order.
func SortTimeline(timeline []schema.TimelineRow) {
	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].Day != timeline[j].Day {
			return timeline[i].Day < timeline[j].Day
		}
		return timeline[i].TimeSlot < timeline[j].TimeSlot
	})
}

// RepairSummary recomputes the counts the model is prone to getting wrong.
// Everything else in the summary is kept as generated.
func RepairSummary(summary schema.TimelineSummary, timeline []schema.TimelineRow) schema.TimelineSummary {
	summary.TotalActivities = len(timeline)
	summary.TotalDays = len(lo.UniqBy(timeline, func(row schema.TimelineRow) int {
		return row.Day
	}))
	return summary
}

func (e *Engine) wrapStageError(stage string, err error) error {
	switch {
	case errors.Is(err, genai.ErrEmptyResponse):
		return stderrors.NewEmptyResponseError(stage)
	case errors.Is(err, genai.ErrMalformedResponse):
		return stderrors.NewMalformedResponseError(stage, err)
	case errors.Is(err, genai.ErrTimeout):
		return stderrors.NewGenerationTimeoutError(stage)
	default:
		return stderrors.NewGenerationFailedError(stage, err)
	}
}

// decode round-trips a raw JSON document into a typed struct.
func decode(raw map[string]interface{}, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode failed: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}
