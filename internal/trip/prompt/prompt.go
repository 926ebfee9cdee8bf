// internal/trip/prompt/prompt.go
//
// Package prompt builds the stage prompts sent to the generative model. The
// builders are pure functions of their inputs so they can be tested without
// any model in the loop.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/EGDongAn/trip-planner-ai/internal/trip/schema"
)

// BuildDestinationPrompt builds the prompt for generating 5 destination
// options. When the user names a specific place, the model is instructed to
// make option 1 that exact place and fill options 2-5 with sub-areas or
// nearby alternatives.
func BuildDestinationPrompt(userInput string, metadata *schema.TripMetadata) string {
	var b strings.Builder

	b.WriteString(`You are an expert travel planner. Based on the user's input and preferences, suggest 5 destination options.

User Input: "` + userInput + `"

**CRITICAL**: Analyze the user input carefully:
1. If the user mentions a SPECIFIC DESTINATION (city, country, region like "Paris", "Japan", "Hawaii", "Bali"):
   - The FIRST option (id: "1") MUST be that exact destination
   - Options 2-5 should be DIFFERENT AREAS or NEIGHBORHOODS within that same destination, OR very similar alternatives nearby
   - Example: If user says "Hong Kong", option 1 = Hong Kong (general), options 2-5 = Hong Kong Island, Kowloon, Lantau Island, or nearby Macau/Shenzhen

2. If the user gives a GENERAL description (like "somewhere warm", "beach vacation", "a trip to Europe"):
   - Suggest 5 diverse destinations that match the criteria
   - Vary by budget, style, and specific attractions

`)

	if metadata != nil {
		writeDates(&b, metadata)
		writeBudget(&b, metadata.Budget)
		if metadata.TravelStyle != "" {
			fmt.Fprintf(&b, "Preferred Travel Style: %s\n\n", metadata.TravelStyle)
		}
		writeInterests(&b, metadata.Interests)
		writeTravelers(&b, metadata.Travelers)
		writeSpecialRequirements(&b, metadata.SpecialRequirements)
	}

	b.WriteString(`Requirements:
- Generate exactly 5 destination options
- RESPECT the user's specific destination request if one is given
- Include varied budget levels and travel styles
- Consider the travel dates and climate
- Provide practical budget estimates using $ symbols ($, $$, $$$)
- Make each destination unique and appealing
- Include specific details about what makes each destination special
- Consider the traveler composition (families, couples, solo, groups, etc.)

For each destination, provide:
- A unique ID (1, 2, 3, 4, 5)
- Name and country
- Compelling description (2-3 sentences)
- What it's best for (tags like 'beaches', 'culture', 'adventure', 'food', 'nightlife', 'nature', 'history', 'relaxation')
- Estimated budget level
- Climate conditions during the travel period
- Optional image URL (can use placeholder)

Make the descriptions engaging and informative, highlighting unique selling points.`)

	return b.String()
}

// BuildPlanPrompt builds the prompt for generating the three themed plan
// options for a chosen destination. The A/B/C themes are fixed.
func BuildPlanPrompt(destination schema.DestinationOption, metadata *schema.TripMetadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert travel planner. Create 3 distinct trip plan options (A, B, C) for the following destination.

Destination: %s, %s
Description: %s
Best For: %s
Climate: %s

`, destination.Name, destination.Country, destination.Description,
		strings.Join(destination.BestFor, ", "), destination.Climate)

	if metadata != nil {
		if metadata.NumberOfDays > 0 {
			fmt.Fprintf(&b, "Trip Duration: %d days\n\n", metadata.NumberOfDays)
		}
		writeBudget(&b, metadata.Budget)
		if metadata.TravelStyle != "" {
			fmt.Fprintf(&b, "Preferred Travel Style: %s\n\n", metadata.TravelStyle)
		}
		writeInterests(&b, metadata.Interests)
		writeTravelers(&b, metadata.Travelers)
		writeSpecialRequirements(&b, metadata.SpecialRequirements)
	}

	b.WriteString(`Create 3 distinctly different plan options:

Plan A: Relaxed/Cultural Focus
- Slower pace with more time at each location
- Emphasis on cultural immersion and local experiences
- More downtime and flexibility
- Suitable for those who want to absorb the destination deeply

Plan B: Balanced/Highlights Focus
- Moderate pace covering major attractions
- Mix of must-see sights and local experiences
- Good balance of activity and rest
- Most comprehensive coverage of destination highlights

Plan C: Adventurous/Intensive Focus
- Faster pace with packed schedule
- Maximum experiences and activities
- Early starts and full days
- For travelers who want to see and do as much as possible

For each plan, provide:
- ID (A, B, or C)
- Catchy title that captures the plan's essence
- Detailed description (3-4 sentences) explaining the approach and philosophy
- Travel style descriptor
- Daily pace descriptor
- 5-8 key highlights and activities included
- Estimated cost range
- Target audience (who this plan is perfect for)

Make each plan distinct and appealing to different types of travelers. Consider the destination's strengths and the user's preferences.`)

	return b.String()
}

// BuildTimelinePrompt builds the prompt for generating the day-by-day
// timeline for a chosen destination and plan.
func BuildTimelinePrompt(destination schema.DestinationOption, plan schema.PlanOption, metadata *schema.TripMetadata) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert travel planner. Create a detailed day-by-day timeline for the following trip.

Destination: %s, %s
Plan: %s (%s)
Plan Description: %s
Style: %s
Pace: %s
Key Highlights: %s

`, destination.Name, destination.Country, plan.Title, plan.ID,
		plan.Description, plan.Style, plan.Pace, strings.Join(plan.Highlights, ", "))

	if metadata != nil {
		if metadata.StartDate != "" {
			fmt.Fprintf(&b, "Start Date: %s\n", metadata.StartDate)
		}
		if metadata.EndDate != "" {
			fmt.Fprintf(&b, "End Date: %s\n", metadata.EndDate)
		}
		if metadata.NumberOfDays > 0 {
			fmt.Fprintf(&b, "Duration: %d days\n", metadata.NumberOfDays)
		}
		b.WriteString("\n")
		writeBudget(&b, metadata.Budget)
		writeInterests(&b, metadata.Interests)
		writeTravelers(&b, metadata.Travelers)
		writeSpecialRequirements(&b, metadata.SpecialRequirements)
	} else {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `Create a detailed timeline with the following requirements:

1. **Comprehensive Coverage**: Include all activities from arrival to departure
2. **Time Slots**: Specify realistic time ranges for each activity (e.g., "09:00-12:00", "Morning", "Afternoon", "Evening")
3. **Locations**: Provide specific venue names, addresses, and coordinates where possible
4. **Categories**: Classify activities (Sightseeing, Food, Transport, Accommodation, Activity, Shopping, Culture, Nature, etc.)
5. **Logistics**: Include transport information between locations (method, duration, cost)
6. **Practical Details**:
   - Estimated costs for each activity
   - Duration of activities
   - Booking requirements
   - Helpful tips and insider advice
   - Opening hours considerations
   - Best times to visit

7. **Flow and Pacing**:
   - Ensure logical geographic flow to minimize backtracking
   - Match the pace specified in the plan (%s)
   - Include appropriate breaks and meal times
   - Consider travel time between locations
   - Factor in jet lag for first day if international travel

8. **Variety**: Mix different types of activities
   - Morning activities (when places are less crowded)
   - Afternoon experiences
   - Evening entertainment
   - Meal recommendations
   - Rest periods

9. **Realism**:
   - Account for actual opening/closing times
   - Include realistic travel times
   - Don't over-schedule
   - Build in buffer time

10. **Summary**: Provide trip overview with:
    - Total days and activities
    - Overall estimated cost
    - Key highlights not to miss

Make this timeline actionable and ready to use. Include enough detail that a traveler could follow it without additional research.`, plan.Pace)

	return b.String()
}

// BuildRefinementPrompt builds the prompt for one refinement turn. The
// current timeline is serialized grouped by day so the model sees the full
// itinerary it is asked to modify.
func BuildRefinementPrompt(state schema.TripEngineState, userMessage string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert travel planner helping refine a trip itinerary. The user wants to make changes or ask questions.

**Current Trip Details:**
Destination: %s, %s
Plan: %s (%s, %s)
Duration: %d days
Total Activities: %d

**User's Request:**
"%s"

**Current Timeline Summary:**
`, state.Destination.Name, state.Destination.Country,
		state.Plan.Title, state.Plan.Style, state.Plan.Pace,
		state.Summary.TotalDays, state.Summary.TotalActivities, userMessage)

	dayGroups := lo.GroupBy(state.Timeline, func(row schema.TimelineRow) int {
		return row.Day
	})
	days := lo.Keys(dayGroups)
	sort.Ints(days)

	for _, day := range days {
		activities := dayGroups[day]
		fmt.Fprintf(&b, "\nDay %d (%s):\n", day, activities[0].Date)
		for _, activity := range activities {
			fmt.Fprintf(&b, "- %s: %s at %s (%s)\n",
				activity.TimeSlot, activity.Activity, activity.Location.Name, activity.Category)
		}
	}

	b.WriteString(`

**Your Task:**

1. **Understand the Request**: Analyze what the user wants to change, add, remove, or learn about
2. **Make Appropriate Changes**: If the request involves modifications:
   - Update the timeline accordingly
   - Maintain logical flow and realistic timing
   - Adjust subsequent activities if needed
   - Keep the overall plan style and pace
   - Ensure geographic coherence

3. **Provide Context**: Explain what changes you're making and why
4. **Offer Suggestions**: Recommend related improvements or alternatives
5. **Ask Clarifying Questions**: If the request is ambiguous, ask for clarification

**Response Requirements:**
- **response**: Natural, conversational explanation of what you understood and what you're doing
- **updatedTimeline**: The modified timeline array (ONLY if changes were made, otherwise null)
- **suggestedActions**: 2-4 follow-up suggestions or questions for the user
- **changesSummary**: Brief summary of specific changes made (if any)

**Important Guidelines:**
- If just answering a question without changes: return null for updatedTimeline
- If making changes: return the COMPLETE updated timeline, not just the changed items
- Maintain all IDs for unchanged items
- Generate new IDs for new items (format: "timeline-{day}-{sequence}")
- Keep date format consistent (YYYY-MM-DD)
- Preserve the existing structure and detail level
- If removing activities, adjust timing of subsequent activities
- If adding activities, ensure realistic time allocation

Be helpful, knowledgeable, and maintain the quality and detail of the original plan.`)

	return b.String()
}

func writeDates(b *strings.Builder, m *schema.TripMetadata) {
	if m.StartDate == "" && m.EndDate == "" && m.NumberOfDays == 0 {
		return
	}
	b.WriteString("Travel Dates:\n")
	if m.StartDate != "" {
		fmt.Fprintf(b, "- Start: %s\n", m.StartDate)
	}
	if m.EndDate != "" {
		fmt.Fprintf(b, "- End: %s\n", m.EndDate)
	}
	if m.NumberOfDays > 0 {
		fmt.Fprintf(b, "- Duration: %d days\n", m.NumberOfDays)
	}
	b.WriteString("\n")
}

func writeBudget(b *strings.Builder, budget string) {
	if budget != "" {
		fmt.Fprintf(b, "Budget: %s\n\n", budget)
	}
}

func writeInterests(b *strings.Builder, interests []string) {
	if len(interests) > 0 {
		fmt.Fprintf(b, "Interests: %s\n\n", strings.Join(interests, ", "))
	}
}

func writeTravelers(b *strings.Builder, t *schema.Travelers) {
	if t == nil {
		return
	}
	b.WriteString("Travelers:\n")
	if t.Adults > 0 {
		fmt.Fprintf(b, "- Adults: %d\n", t.Adults)
	}
	if t.Children > 0 {
		fmt.Fprintf(b, "- Children: %d\n", t.Children)
	}
	if t.Seniors > 0 {
		fmt.Fprintf(b, "- Seniors: %d\n", t.Seniors)
	}
	b.WriteString("\n")
}

func writeSpecialRequirements(b *strings.Builder, reqs []string) {
	if len(reqs) > 0 {
		fmt.Fprintf(b, "Special Requirements: %s\n\n", strings.Join(reqs, ", "))
	}
}
