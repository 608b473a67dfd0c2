// Package events decodes and validates inbound workflow job variables and runs the
// shared job lifecycle for the worker packages.
package events

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "consultant-workflow/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema for one event type.
type Schema struct {
	eventType string
	schema    *gojsonschema.Schema
}

// MustSchema compiles a JSON schema literal and panics if it is malformed. It is meant
// for package-level schema variables.
func MustSchema(eventType, schemaJSON string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid schema for %s: %v", eventType, err))
	}
	return &Schema{eventType: eventType, schema: s}
}

// Decode validates the job variables against the schema and unmarshals them into out.
// Any failure is an INVALID_EVENT_PAYLOAD error.
func Decode(variables string, schema *Schema, out interface{}) error {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}

	result, err := schema.schema.Validate(gojsonschema.NewStringLoader(variables))
	if err != nil {
		return apperrors.NewInvalidEventPayloadError(schema.eventType, fmt.Sprintf("parse variables: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperrors.NewInvalidEventPayloadError(schema.eventType, strings.Join(errs, "; "))
	}

	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return apperrors.NewInvalidEventPayloadError(schema.eventType, fmt.Sprintf("decode variables: %v", err))
	}
	return nil
}
