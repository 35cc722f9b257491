package model

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ErrBodyEmpty occurs when the payload was empty.
var ErrBodyEmpty = errors.New("body empty")

// Validate validates body against the JSON schema document.
func Validate(schemaDoc []byte, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("validateBodySchema: %w %w", NewValidationError(NewFieldError("(root)", "body is empty")), ErrBodyEmpty)
	}

	doc := gojsonschema.NewBytesLoader(schemaDoc)
	sch, err := gojsonschema.NewSchema(doc)
	if err != nil {
		return fmt.Errorf("gojsonschema.NewSchema: %w", err)
	}

	res, err := sch.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("json schema validate: %w", err)
	}

	if !res.Valid() {
		return ToValidationError(res)
	}

	return nil
}
