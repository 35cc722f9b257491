package openapi

import (
	"fmt"
	"net/http"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi31"
)

type ContextWrapper struct {
	openapi.OperationContext
	*openapi31.Operation
	reflector *Reflector
}

func (c ContextWrapper) addToReflector() error {
	return c.reflector.AddOperation(c.OperationContext)
}

// from populates the operation context from record.
func (c *ContextWrapper) from(record Record) error {
	if record.Output.IsNil() {
		c.OperationContext.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	} else if err := c.addRespStructure(record.Output, openapi.WithHTTPStatus(record.SuccessStatus), openapi.WithContentType(record.ResponseType)); err != nil {
		return err
	}

	if record.Input != nil && !record.Input.IsNil() {
		if err := c.addReqStructure(*record.Input, openapi.WithContentType(record.RequestType)); err != nil {
			return err
		}
	}

	params := []openapi31.ParameterOrReference{}
	forEachPathParam(record.Method, record.Path, func(param string) {
		params = append(params, makeRequiredPathParam(param))
	})
	for _, q := range record.QueryParams {
		params = append(params, makeOptionalQueryParam(q.Name, q.Type, "", q.Description))
	}
	c.WithParameters(params...)

	c.WithID(record.ID)
	c.WithTags(record.Tags...)
	for _, tag := range record.Tags {
		c.reflector.allTags[tag] = true
	}
	c.SetDescription(record.Description)

	if record.Summary != "" {
		c.SetSummary(record.Summary)
	}

	if record.Extensions != nil && c.Operation != nil {
		c.Operation.WithMapOfAnything(record.Extensions)
	}

	return nil
}

// addReqStructure provides duplicate-detection to the openapi-go AddReqStructure method.
func (c ContextWrapper) addReqStructure(o Model, options ...openapi.ContentOption) error {
	if err := c.reflector.addModel(o); err != nil {
		return fmt.Errorf("failed to add definition for %s: %w", o.Name(), err)
	}

	c.OperationContext.AddReqStructure(o, options...)

	return nil
}

// addRespStructure provides duplicate-detection to the openapi-go AddRespStructure method.
func (c ContextWrapper) addRespStructure(o Model, options ...openapi.ContentOption) error {
	if err := c.reflector.addModel(o); err != nil {
		return fmt.Errorf("failed to add definition for %s: %w", o.Name(), err)
	}

	c.OperationContext.AddRespStructure(o, options...)

	return nil
}

func NewContextWrapper(ctx openapi.OperationContext, r *Reflector) *ContextWrapper {
	ctxWrapper := ContextWrapper{
		OperationContext: ctx,
		reflector:        r,
	}
	if opExp, ok := ctx.(openapi31.OperationExposer); ok {
		ctxWrapper.Operation = opExp.Operation()
	}

	return &ctxWrapper
}

/* -------------------------------------------------------------------------- */

func forEachPathParam(method string, path string, f func(string)) {
	_, _, params, _ := openapi.SanitizeMethodPath(method, path)
	for _, p := range params {
		f(p)
	}
}

func makeRequiredPathParam(param string) openapi31.ParameterOrReference {
	req := true
	s, err := jsonschema.String.ToSchemaOrBool().ToSimpleMap()
	if err != nil {
		return openapi31.ParameterOrReference{}
	}

	return openapi31.ParameterOrReference{
		Parameter: &openapi31.Parameter{
			Name:     param,
			In:       openapi31.ParameterInPath,
			Required: &req,
			Schema:   s,
		},
	}
}

func makeOptionalQueryParam(name string, t string, format string, desc string) openapi31.ParameterOrReference {
	req := false
	var schema jsonschema.Schema
	if t != "" {
		var jt jsonschema.Type
		switch t {
		case "string":
			jt.WithSimpleTypes(jsonschema.String)
		case "integer":
			jt.WithSimpleTypes(jsonschema.Integer)
		case "boolean":
			jt.WithSimpleTypes(jsonschema.Boolean)
		case "number":
			jt.WithSimpleTypes(jsonschema.Number)
		}
		schema.WithType(jt)
	}
	if format != "" {
		schema.Format = &format
	}
	s, err := schema.ToSchemaOrBool().ToSimpleMap()
	if err != nil {
		return openapi31.ParameterOrReference{}
	}

	param := &openapi31.Parameter{
		Name:     name,
		In:       openapi31.ParameterInQuery,
		Required: &req,
		Schema:   s,
	}
	if desc != "" {
		param.WithDescription(desc)
	}
	return openapi31.ParameterOrReference{Parameter: param}
}
