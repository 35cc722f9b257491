package openapi

import (
	"fmt"
	"sort"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi31"
)

// ToSchema renders records as an OpenAPI 3.1 JSON document.
func ToSchema(records []Record, config openapiConfig) ([]byte, error) {
	r := newReflector(config)

	if err := r.ingest(records); err != nil {
		return nil, fmt.Errorf("failed to ingest records: %w", err)
	}

	collectedTags := []string{}
	for tag := range r.allTags {
		collectedTags = append(collectedTags, tag)
	}
	for _, inferredTag := range config.allTags {
		if _, ok := r.allTags[inferredTag]; !ok {
			collectedTags = append(collectedTags, inferredTag)
		}
	}

	sort.Strings(collectedTags)
	r.collectTags(collectedTags)
	if err := r.collectDefinitions(); err != nil {
		return nil, fmt.Errorf("failed to collect definitions: %w", err)
	}

	if config.lint {
		if err := r.lint(); err != nil {
			return nil, fmt.Errorf("failed to validate the generated spec: %w", err)
		}
	}

	return r.marshalJSON()
}

func newReflector(config openapiConfig) *Reflector {
	reflector := openapi31.NewReflector()
	reflector.Spec = &openapi31.Spec{Openapi: "3.1.0"}
	reflector.Spec.Info.
		WithTitle(config.title).
		WithVersion(config.version)
	if config.description != "" {
		reflector.Spec.Info.WithDescription(config.description)
	}
	if config.serverURL != "" {
		reflector.Spec.WithServers(openapi31.Server{URL: config.serverURL})
	}

	reflector.Reflector.DefaultOptions = append(reflector.Reflector.DefaultOptions, jsonschema.DefinitionsPrefix("#/components/schemas/"))

	return &Reflector{
		Reflector: reflector,
		allDefs:   make(definitionsMap),
		allTags:   make(map[string]bool),
	}
}
