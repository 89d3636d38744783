package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/leyiUPM/emotion/pkg/profile"
)

func ptr[T any](v T) *T { return &v }

func predictSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text": {
				Type:        "string",
				Description: "Comment to analyze",
			},
			"threshold": {
				Type:        "number",
				Description: "Minimum score for a label to count as detected",
				Minimum:     ptr(0.0),
				Maximum:     ptr(1.0),
			},
			"top_k": {
				Type:        "integer",
				Description: "Number of highest scoring labels to return",
				Minimum:     ptr(float64(profile.MinTopK)),
				Maximum:     ptr(float64(profile.MaxTopK)),
			},
			"save": {
				Type:        "boolean",
				Description: "Store the result in the history (default true)",
			},
		},
		Required: []string{"text"},
	}
}

func searchSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Case-insensitive substring of the comment text",
			},
			"label": {
				Type:        "string",
				Description: "Emotion label that must be detected",
			},
			"min_score": {
				Type:        "number",
				Description: "Minimum score of label",
				Minimum:     ptr(0.0),
				Maximum:     ptr(1.0),
			},
			"sort": {
				Type:        "string",
				Description: "Result order",
				Enum:        []any{"newest", "highest"},
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of results",
				Minimum:     ptr(0.0),
			},
		},
	}
}
