package detector

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchemaJSON is the strict JSON contract a detection backend's raw
// response must satisfy before it is unmarshalled. Rejecting at this
// boundary keeps malformed or refusal responses from ever reaching
// domain types.
const responseSchemaJSON = `{
	"type": "object",
	"required": ["events"],
	"properties": {
		"context_language": {"type": "string"},
		"events": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["type", "confidence", "intensity"],
				"properties": {
					"type": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"intensity": {"type": "number", "minimum": 0, "maximum": 1},
					"triggers": {"type": "array", "items": {"type": "string"}},
					"reasoning": {"type": "string"},
					"content_quality_score": {"type": "number", "minimum": 0, "maximum": 10}
				}
			}
		}
	}
}`

var responseSchemaLoader = gojsonschema.NewStringLoader(responseSchemaJSON)

// rawResponse mirrors the wire shape validated by responseSchemaJSON.
type rawResponse struct {
	ContextLanguage string     `json:"context_language"`
	Events          []rawEvent `json:"events"`
}

type rawEvent struct {
	Type                string   `json:"type"`
	Confidence          float64  `json:"confidence"`
	Intensity           float64  `json:"intensity"`
	Triggers            []string `json:"triggers"`
	Reasoning           string   `json:"reasoning"`
	ContentQualityScore float64  `json:"content_quality_score"`
}

// validateResponse checks raw bytes against the detection response
// schema, returning a descriptive error that names every violation
// instead of failing on the first.
func validateResponse(raw []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(responseSchemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msg := "detection response failed schema validation:"
		for _, e := range result.Errors() {
			msg += " " + e.String() + ";"
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}
