// internal/trip/prompt/prompt_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

func tokyoDestination() schema.DestinationOption {
	return schema.DestinationOption{
		ID:              "1",
		Name:            "Tokyo",
		Country:         "Japan",
		Description:     "Neon, temples, and the best food city on earth",
		BestFor:         []string{"food", "culture", "nightlife"},
		EstimatedBudget: "$$$",
		Climate:         "Mild autumn",
	}
}

func balancedPlan() schema.PlanOption {
	return schema.PlanOption{
		ID:          "B",
		Title:       "Tokyo Highlights",
		Description: "Major sights at a sustainable pace",
		Style:       "Balanced",
		Pace:        "Moderate",
		Highlights:  []string{"Senso-ji", "Shibuya Crossing", "Tsukiji Market"},
	}
}

// ==========================
// Destination Prompt Tests
// ==========================

func TestBuildDestinationPrompt_SpecificPlaceContract(t *testing.T) {
	p := BuildDestinationPrompt("Tokyo", nil)

	assert.Contains(t, p, `User Input: "Tokyo"`)
	// The specific-place branch: option 1 must be the named place, 2-5 its
	// sub-areas or nearby alternatives.
	assert.Contains(t, p, `The FIRST option (id: "1") MUST be that exact destination`)
	assert.Contains(t, p, "DIFFERENT AREAS or NEIGHBORHOODS within that same destination")
	assert.Contains(t, p, "Generate exactly 5 destination options")
}

func TestBuildDestinationPrompt_MetadataSections(t *testing.T) {
	tests := []struct {
		name        string
		metadata    *schema.TripMetadata
		contains    []string
		notContains []string
	}{
		{
			name:        "nil metadata emits no optional sections",
			metadata:    nil,
			notContains: []string{"Travel Dates:", "Budget:", "Interests:", "Travelers:", "Special Requirements:"},
		},
		{
			name: "dates and budget",
			metadata: &schema.TripMetadata{
				StartDate:    "2026-10-01",
				EndDate:      "2026-10-05",
				NumberOfDays: 5,
				Budget:       "$3000",
			},
			contains:    []string{"Travel Dates:", "- Start: 2026-10-01", "- End: 2026-10-05", "- Duration: 5 days", "Budget: $3000"},
			notContains: []string{"Interests:", "Travelers:"},
		},
		{
			name: "travelers and interests",
			metadata: &schema.TripMetadata{
				Interests: []string{"food", "museums"},
				Travelers: &schema.Travelers{Adults: 2, Children: 1},
			},
			contains:    []string{"Interests: food, museums", "Travelers:", "- Adults: 2", "- Children: 1"},
			notContains: []string{"- Seniors:", "Travel Dates:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildDestinationPrompt("somewhere warm", tt.metadata)
			for _, want := range tt.contains {
				assert.Contains(t, p, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, p, unwanted)
			}
		})
	}
}

// ==========================
// Plan Prompt Tests
// ==========================

func TestBuildPlanPrompt_FixedThemes(t *testing.T) {
	p := BuildPlanPrompt(tokyoDestination(), nil)

	assert.Contains(t, p, "Destination: Tokyo, Japan")
	assert.Contains(t, p, "Best For: food, culture, nightlife")
	// The three themes are fixed regardless of input.
	assert.Contains(t, p, "Plan A: Relaxed/Cultural Focus")
	assert.Contains(t, p, "Plan B: Balanced/Highlights Focus")
	assert.Contains(t, p, "Plan C: Adventurous/Intensive Focus")
}

func TestBuildPlanPrompt_Duration(t *testing.T) {
	p := BuildPlanPrompt(tokyoDestination(), &schema.TripMetadata{NumberOfDays: 4})
	assert.Contains(t, p, "Trip Duration: 4 days")
}

// ==========================
// Timeline Prompt Tests
// ==========================

func TestBuildTimelinePrompt_IncludesPlanContext(t *testing.T) {
	p := BuildTimelinePrompt(tokyoDestination(), balancedPlan(), &schema.TripMetadata{
		StartDate:    "2026-10-01",
		NumberOfDays: 4,
	})

	assert.Contains(t, p, "Plan: Tokyo Highlights (B)")
	assert.Contains(t, p, "Key Highlights: Senso-ji, Shibuya Crossing, Tsukiji Market")
	assert.Contains(t, p, "Start Date: 2026-10-01")
	// The pace is restated inside the pacing requirement.
	assert.Contains(t, p, "Match the pace specified in the plan (Moderate)")
	assert.Contains(t, p, "10. **Summary**")
}

// ==========================
// Refinement Prompt Tests
// ==========================

func TestBuildRefinementPrompt_GroupsTimelineByDay(t *testing.T) {
	state := schema.TripEngineState{
		Destination: tokyoDestination(),
		Plan:        balancedPlan(),
		Timeline: []schema.TimelineRow{
			{ID: "1", Day: 1, Date: "2026-10-01", TimeSlot: "09:00-12:00", Activity: "Senso-ji",
				Location: schema.TimelineLocation{Name: "Asakusa"}, Category: "Culture"},
			{ID: "2", Day: 1, Date: "2026-10-01", TimeSlot: "14:00-17:00", Activity: "Shibuya Crossing",
				Location: schema.TimelineLocation{Name: "Shibuya"}, Category: "Sightseeing"},
			{ID: "3", Day: 2, Date: "2026-10-02", TimeSlot: "09:00-12:00", Activity: "Tsukiji Market",
				Location: schema.TimelineLocation{Name: "Tsukiji"}, Category: "Food"},
		},
		Summary: schema.TimelineSummary{TotalDays: 2, TotalActivities: 3},
	}

	p := BuildRefinementPrompt(state, "add a sushi class")

	assert.Contains(t, p, `"add a sushi class"`)
	assert.Contains(t, p, "Day 1 (2026-10-01):")
	assert.Contains(t, p, "Day 2 (2026-10-02):")
	assert.Contains(t, p, "- 09:00-12:00: Senso-ji at Asakusa (Culture)")
	assert.Contains(t, p, "- 09:00-12:00: Tsukiji Market at Tsukiji (Food)")

	// Days appear in ascending order.
	assert.Less(t, strings.Index(p, "Day 1 (2026-10-01)"), strings.Index(p, "Day 2 (2026-10-02)"))
}

func TestBuildRefinementPrompt_NullTimelineInstruction(t *testing.T) {
	state := schema.TripEngineState{
		Destination: tokyoDestination(),
		Plan:        balancedPlan(),
		Summary:     schema.TimelineSummary{TotalDays: 1, TotalActivities: 0},
	}
	p := BuildRefinementPrompt(state, "is October a good month?")
	assert.Contains(t, p, "If just answering a question without changes: return null for updatedTimeline")
}
