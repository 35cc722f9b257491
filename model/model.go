// Package model validates payloads against JSON schemas and describes the
// schema contracts used for API documentation.
package model

import (
	"encoding/json"
	"fmt"

	"github.com/swaggest/jsonschema-go"
)

// Reflect returns the JSON schema of v. Properties not declared on v are
// rejected, so a misspelled payload key fails validation instead of being
// silently dropped.
func Reflect(v any) ([]byte, error) {
	r := jsonschema.Reflector{}

	sch, err := r.Reflect(v, jsonschema.InlineRefs)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", v, err)
	}

	closed := false
	sch.AdditionalProperties = &jsonschema.SchemaOrBool{TypeBoolean: &closed}

	return json.Marshal(sch)
}

// Decode validates body against schema and unmarshals it into dst.
func Decode(schema, body []byte, dst any) error {
	if err := Validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("unable to unmarshal the data: %w", err)
	}
	return nil
}
