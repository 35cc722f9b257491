// Package openapi documents scaffolded REST services as an OpenAPI 3.1
// document: a collection and an entity path per service, HAL schemas for
// both, and one operation per allowed HTTP method.
package openapi

import (
	"github.com/tailbits/apiforge"
)

type openapiConfig struct {
	lint        bool
	filterFn    func(Record) bool
	tagsFn      func(Record) []string
	allTags     []string
	transformFn func(*Record)
	title       string
	version     string
	description string
	serverURL   string
}

type openAPIOption func(*openapiConfig)

// Lint runs the vacuum recommended ruleset over the document.
func Lint(enabled bool) openAPIOption {
	return func(c *openapiConfig) {
		c.lint = enabled
	}
}

func Filter(fn func(Record) bool) openAPIOption {
	return func(c *openapiConfig) {
		c.filterFn = fn
	}
}

// Tags adds the tags returned by fn to every operation. all lists tags to
// declare even when no operation uses them.
func Tags(fn func(Record) []string, all []string) openAPIOption {
	return func(c *openapiConfig) {
		c.tagsFn = fn
		c.allTags = all
	}
}

func Transform(fn func(*Record)) openAPIOption {
	return func(c *openapiConfig) {
		c.transformFn = fn
	}
}

func Info(title, version, description string) openAPIOption {
	return func(c *openapiConfig) {
		c.title = title
		c.version = version
		c.description = description
	}
}

func Server(url string) openAPIOption {
	return func(c *openapiConfig) {
		c.serverURL = url
	}
}

// New renders the document of services.
func New(services []*apiforge.RestServiceDescriptor, opts ...openAPIOption) ([]byte, error) {
	config := openapiConfig{
		lint:        false,
		filterFn:    func(r Record) bool { return true },
		tagsFn:      func(Record) []string { return []string{} },
		allTags:     []string{},
		transformFn: func(r *Record) {},
		title:       "REST API",
		version:     "1.0.0",
	}

	for _, opt := range opts {
		opt(&config)
	}

	registry := Registry{}
	for _, d := range services {
		for _, record := range operationsFor(d) {
			record.Tags = append(config.tagsFn(record), record.Tags...)
			config.transformFn(&record)

			if !config.filterFn(record) {
				continue
			}
			if err := registry.Add(record); err != nil {
				return nil, err
			}
		}
	}

	return ToSchema(registry.Ops(), config)
}
