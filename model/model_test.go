package model_test

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/tailbits/apiforge/model"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestErrorsAreSorted(t *testing.T) {
	e := model.ValidationError{Errors: []model.FieldError{
		{Message: "bbb"},
		{Message: "aaa"},
	}}
	want := model.ValidationError{Errors: []model.FieldError{
		{Message: "aaa"},
		{Message: "bbb"},
	}}

	model.SortErrors(&e)

	assert.DeepEqual(t, e.Errors[0].Message, want.Errors[0].Message)
	assert.DeepEqual(t, e.Errors[1].Message, want.Errors[1].Message)
}

type payload struct {
	Name  string   `json:"name" required:"true"`
	Verbs []string `json:"verbs,omitempty"`
	Size  *int     `json:"size,omitempty"`
}

func TestReflectRejectsUnknownKeys(t *testing.T) {
	schema, err := model.Reflect(payload{})
	assert.NilError(t, err)

	assert.NilError(t, model.Validate(schema, []byte(`{"name":"foo","verbs":["GET"]}`)))

	err = model.Validate(schema, []byte(`{"nmae":"foo"}`))
	var verr model.ValidationError
	assert.Assert(t, errors.As(err, &verr))
	assert.Assert(t, len(verr.Errors) >= 1)
	assert.Assert(t, cmp.ErrorContains(err, "nmae"))
}

func TestValidateEmptyBody(t *testing.T) {
	err := model.Validate([]byte(`{"type":"object"}`), nil)
	assert.ErrorIs(t, err, model.ErrBodyEmpty)
	assert.Assert(t, model.IsValidationError(err))
}

func TestDecode(t *testing.T) {
	schema, err := model.Reflect(payload{})
	assert.NilError(t, err)

	var p payload
	assert.NilError(t, model.Decode(schema, []byte(`{"name":"foo","size":3}`), &p))
	assert.Equal(t, p.Name, "foo")
	assert.Equal(t, *p.Size, 3)

	err = model.Decode(schema, []byte(`{"name":1}`), &p)
	assert.Assert(t, model.IsValidationError(err))
}

func TestFromValidatorErrors(t *testing.T) {
	type spec struct {
		Selector string `validate:"required"`
		Size     int    `validate:"min=-1"`
	}

	err := validator.New().Struct(spec{Size: -5})
	converted := model.FromValidatorErrors(err)

	var verr model.ValidationError
	assert.Assert(t, errors.As(converted, &verr))
	assert.Equal(t, len(verr.Errors), 2)
	assert.Equal(t, verr.Errors[0].Message, "'Selector' is required")
	assert.Equal(t, verr.Errors[0].Field(), "spec.Selector")

	other := errors.New("boom")
	assert.Equal(t, model.FromValidatorErrors(other), other)
}
