package model

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// FieldError reports a problem with one key of a payload.
type FieldError struct {
	field   string
	details map[string]interface{}
	Message string `json:"message"`
}

func (fe FieldError) Field() string {
	return fe.field
}

func (fe FieldError) Details() map[string]interface{} {
	return fe.details
}

func NewFieldError(field, message string) FieldError {
	return FieldError{field: field, Message: message}
}

// ValidationError collects every FieldError of a payload, sorted by message.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidationError(errs ...FieldError) ValidationError {
	res := ValidationError{Errors: errs}
	SortErrors(&res)
	return res
}

func (ve ValidationError) Error() string {
	d, err := json.Marshal(ve)
	if err != nil {
		return err.Error()
	}

	return string(d)
}

// ToValidationError converts a failed schema validation. Composite
// allOf/anyOf/oneOf results are dropped, their branches report on their own.
func ToValidationError(result *gojsonschema.Result) ValidationError {
	errs := make([]FieldError, 0, len(result.Errors()))
	for _, res := range result.Errors() {
		switch res.(type) {
		case *gojsonschema.NumberAllOfError, *gojsonschema.NumberAnyOfError, *gojsonschema.NumberOneOfError:
			continue
		}
		errs = append(errs, FieldError{
			field:   res.Field(),
			details: res.Details(),
			Message: schemaMessage(res),
		})
	}

	return NewValidationError(errs...)
}

// FromValidatorErrors converts struct tag violations. Other errors are
// returned unchanged.
func FromValidatorErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, FieldError{
			field:   fe.Namespace(),
			details: map[string]interface{}{"tag": fe.Tag(), "param": fe.Param()},
			Message: tagMessage(fe),
		})
	}
	return NewValidationError(errs...)
}

func SortErrors(e *ValidationError) {
	slices.SortFunc(e.Errors, func(a, b FieldError) int { return cmp.Compare(a.Message, b.Message) })
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func tagMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", name)
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s], got %v", name, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("'%s' must be at least %s", name, fe.Param())
	case "httpmethod":
		return fmt.Sprintf("'%s' should only list HTTP methods, got %v", name, fe.Value())
	case "mediatype":
		return fmt.Sprintf("'%s' should only list media types, got %v", name, fe.Value())
	}
	return fmt.Sprintf("'%s' failed the %s check", name, fe.Tag())
}

func schemaMessage(res gojsonschema.ResultError) string {
	name, details := res.Field(), res.Details()
	switch res.(type) {
	case *gojsonschema.RequiredError:
		return fmt.Sprintf("'%s' is required", details["property"])
	case *gojsonschema.AdditionalPropertyNotAllowedError:
		return fmt.Sprintf("'%s' is not a known key of %s", details["property"], name)
	case *gojsonschema.InvalidTypeError:
		return fmt.Sprintf("'%s' should be of type %s, got %s", name, details["expected"], details["given"])
	case *gojsonschema.EnumError:
		return fmt.Sprintf("'%s' must be one of %s", name, details["allowed"])
	case *gojsonschema.DoesNotMatchPatternError:
		return fmt.Sprintf("'%s' should match %s", name, details["pattern"])
	case *gojsonschema.StringLengthGTEError:
		return fmt.Sprintf("'%s' is too short", name)
	case *gojsonschema.ArrayMinItemsError:
		return fmt.Sprintf("'%s' needs at least %v items", name, details["min"])
	case *gojsonschema.NumberGTEError:
		return fmt.Sprintf("'%s' must be greater than or equal to %v", name, details["min"])
	}
	return fmt.Sprintf("%s: %s", name, res.Description())
}
