package openapi

import (
	"github.com/tailbits/apiforge/model"
)

// QueryParam is an optional query string parameter of an operation.
type QueryParam struct {
	Name        string
	Type        string
	Description string
}

// Record is one documented operation.
type Record struct {
	// Controller is the controller service name the operation belongs to.
	Controller    string
	Input         *Model
	Output        Model
	ID            string
	Method        string
	Path          string
	Description   string
	Summary       string
	SuccessStatus int
	Tags          []string
	QueryParams   []QueryParam
	RequestType   string
	ResponseType  string
	Extensions    map[string]interface{}
}

func (r *Record) AddInputModel(m model.WithSchema) {
	if m != nil {
		inp := NewModel(m)
		r.Input = &inp
	}
}

func (r *Record) AddOutputModel(m model.WithSchema) {
	if m == nil {
		m = model.Nil{}
	}
	r.Output = NewModel(m)
}

func (r *Record) AddQueryParams(q ...QueryParam) {
	r.QueryParams = append(r.QueryParams, q...)
}
