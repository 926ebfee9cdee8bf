// internal/trip/schema/documents.go
package schema

// Schema documents constraining model output per stage. Each document is
// both sent to the model as the response schema and used to validate what
// comes back, so shape drift is caught at a single boundary.

func timelineRowSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":          map[string]interface{}{"type": "string"},
			"day":         map[string]interface{}{"type": "integer"},
			"date":        map[string]interface{}{"type": "string"},
			"timeSlot":    map[string]interface{}{"type": "string"},
			"activity":    map[string]interface{}{"type": "string"},
			"description": map[string]interface{}{"type": "string"},
			"location": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name":    map[string]interface{}{"type": "string"},
					"address": map[string]interface{}{"type": "string"},
					"coordinates": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"lat": map[string]interface{}{"type": "number"},
							"lng": map[string]interface{}{"type": "number"},
						},
					},
				},
				"required": []interface{}{"name"},
			},
			"category":          map[string]interface{}{"type": "string"},
			"estimatedCost":     map[string]interface{}{"type": "string"},
			"estimatedDuration": map[string]interface{}{"type": "string"},
			"tips": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"bookingRequired": map[string]interface{}{"type": "boolean"},
			"transportInfo": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"method":   map[string]interface{}{"type": "string"},
					"duration": map[string]interface{}{"type": "string"},
					"cost":     map[string]interface{}{"type": "string"},
				},
			},
		},
		"required": []interface{}{"id", "day", "date", "timeSlot", "activity", "description", "location", "category"},
	}
}

// DestinationDocument constrains the destination generation stage to an
// array of destination options.
func DestinationDocument() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"destinations": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":          map[string]interface{}{"type": "string"},
						"name":        map[string]interface{}{"type": "string"},
						"country":     map[string]interface{}{"type": "string"},
						"description": map[string]interface{}{"type": "string"},
						"bestFor": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"estimatedBudget": map[string]interface{}{"type": "string"},
						"imageUrl":        map[string]interface{}{"type": "string"},
						"climate":         map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"id", "name", "country", "description", "bestFor", "estimatedBudget", "climate"},
				},
			},
		},
		"required": []interface{}{"destinations"},
	}
}

// PlanDocument constrains the plan generation stage to an array of plan
// options.
func PlanDocument() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"plans": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":          map[string]interface{}{"type": "string"},
						"title":       map[string]interface{}{"type": "string"},
						"description": map[string]interface{}{"type": "string"},
						"style":       map[string]interface{}{"type": "string"},
						"pace":        map[string]interface{}{"type": "string"},
						"highlights": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"estimatedCost": map[string]interface{}{"type": "string"},
						"targetAudience": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
					},
					"required": []interface{}{"id", "title", "description", "style", "pace", "highlights", "estimatedCost", "targetAudience"},
				},
			},
		},
		"required": []interface{}{"plans"},
	}
}

// TimelineDocument constrains the timeline generation stage to a timeline
// array plus a summary object.
func TimelineDocument() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"timeline": map[string]interface{}{
				"type":  "array",
				"items": timelineRowSchema(),
			},
			"summary": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"totalDays":          map[string]interface{}{"type": "integer"},
					"totalActivities":    map[string]interface{}{"type": "integer"},
					"estimatedTotalCost": map[string]interface{}{"type": "string"},
					"keyHighlights": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
				"required": []interface{}{"totalDays", "totalActivities"},
			},
		},
		"required": []interface{}{"timeline", "summary"},
	}
}

// RefinementDocument constrains the refinement stage. Only the conversational
// response is required; the updated timeline is present only when the model
// actually changed the itinerary.
func RefinementDocument() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"response": map[string]interface{}{"type": "string"},
			"updatedTimeline": map[string]interface{}{
				"type":  "array",
				"items": timelineRowSchema(),
			},
			"suggestedActions": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"changesSummary": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"response"},
	}
}
