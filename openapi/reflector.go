package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daveshanley/vacuum/model"
	"github.com/daveshanley/vacuum/motor"
	"github.com/daveshanley/vacuum/rulesets"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi31"
)

type definitionsMap map[string]jsonschema.Schema

// DefinitionConflictError is returned when two services publish different
// schemas under the same component name.
type DefinitionConflictError struct {
	Name string
	Diff string
}

func (e *DefinitionConflictError) Error() string {
	return fmt.Sprintf("definition with name [%s] already exists but with a different definition:\n%s", e.Name, e.Diff)
}

type Reflector struct {
	*openapi31.Reflector
	allDefs definitionsMap
	allTags map[string]bool
}

func (r *Reflector) ingest(records []Record) error {
	for _, record := range records {
		ctx, err := r.newOperationContext(record.Method, record.Path)
		if err != nil {
			return fmt.Errorf("failed to create operation context: %w", err)
		}

		if err := ctx.from(record); err != nil {
			return fmt.Errorf("failed to populate operation %s: %w", record.ID, err)
		}

		if err := ctx.addToReflector(); err != nil {
			return fmt.Errorf("failed to add operation %s: %w", record.ID, err)
		}
	}

	return nil
}

// lint applies the vacuum recommended ruleset and fails on violations of
// the schemas category.
func (r *Reflector) lint() error {
	specBytes, err := r.marshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	defaultRS := rulesets.BuildDefaultRuleSets()
	recommendedRS := defaultRS.GenerateOpenAPIRecommendedRuleSet()

	lintingResults := motor.ApplyRulesToRuleSet(
		&motor.RuleSetExecution{
			RuleSet: recommendedRS,
			Spec:    specBytes,
		})

	resultSet := model.NewRuleResultSet(lintingResults.Results)
	resultSet.SortResultsByLineNumber()

	schemasResults := resultSet.GetRuleResultsForCategory("schemas")

	errs := make([]error, 0)
	for _, ruleResult := range schemasResults.RuleResults {
		for _, violation := range ruleResult.Results {
			errs = append(errs, fmt.Errorf(" - [%d:%d] %s", violation.StartNode.Line, violation.StartNode.Column, violation.Message))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	return nil
}

func (r *Reflector) marshalJSON() ([]byte, error) {
	return r.Reflector.Spec.MarshalJSON()
}

// collectDefinitions commits every definition gathered from request and
// response models to the components of the document.
func (r *Reflector) collectDefinitions() error {
	seen := make(map[string]string)
	for defName := range r.allDefs {
		normalized := strings.ToLower(defName)
		if orig, exists := seen[normalized]; exists {
			return fmt.Errorf("conflicting definitions: %q and %q", orig, defName)
		}
		seen[normalized] = defName
	}

	components := r.Reflector.Spec.ComponentsEns()
	for defName, def := range r.allDefs {
		def.Definitions = nil
		sm, err := def.ToSchemaOrBool().ToSimpleMap()
		if err != nil {
			return fmt.Errorf("definition %s: %w", defName, err)
		}
		components.WithSchemasItem(defName, sm)
	}

	return nil
}

// collectTags saves tags as the top-level tag list of the document.
func (r *Reflector) collectTags(tags []string) {
	r.Spec.Tags = make([]openapi31.Tag, len(tags))
	for i, tag := range tags {
		r.Spec.Tags[i] = openapi31.Tag{Name: tag}
	}
}

func (r *Reflector) addModel(m Model) error {
	if m.IsNil() {
		return nil
	}

	schema, err := m.JSONSchema()
	if err != nil {
		return fmt.Errorf("failed to get JSON schema: %w", err)
	}

	if err := r.addDefinition(m.Name(), schema); err != nil {
		return fmt.Errorf("failed to add definition: %w", err)
	}

	return nil
}

// addDefinition registers schema under name, together with its nested
// definitions. A name registered twice must carry the same schema.
func (r *Reflector) addDefinition(name string, schema jsonschema.Schema) error {
	if name == "" {
		return fmt.Errorf("definition name cannot be empty")
	}

	if existingDef, ok := r.allDefs[name]; ok {
		if diff, same := compareSchemas(existingDef, schema); !same {
			return &DefinitionConflictError{Name: name, Diff: diff}
		}
		if len(existingDef.Examples) > 0 && len(schema.Examples) == 0 {
			return nil
		}
	}
	r.allDefs[name] = schema

	for nestedName, def := range schema.Definitions {
		if def.TypeObject != nil {
			if err := r.addDefinition(nestedName, *def.TypeObject); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Reflector) newOperationContext(method, path string) (*ContextWrapper, error) {
	oc, err := r.Reflector.NewOperationContext(method, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation context: %w", err)
	}

	return NewContextWrapper(oc, r), nil
}

/* -------------------------------------------------------------------------- */

func schemaDiff(existingDef jsonschema.Schema, newDef jsonschema.Schema) string {
	dmp := diffmatchpatch.New()

	existing, _ := existingDef.MarshalJSON()
	updated, _ := newDef.MarshalJSON()

	diffs := dmp.DiffMain(string(pretty(existing)), string(pretty(updated)), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.DiffPrettyText(diffs)
}

func pretty(schema []byte) []byte {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, schema, "", "  "); err != nil {
		return schema
	}
	return prettyJSON.Bytes()
}

// compareSchemas ignores examples and nested definitions; nested
// definitions are compared on their own.
func compareSchemas(a jsonschema.Schema, b jsonschema.Schema) (string, bool) {
	a.Examples = nil
	b.Examples = nil
	a.Definitions = nil
	b.Definitions = nil

	aa, _ := a.MarshalJSON()
	bb, _ := b.MarshalJSON()

	if string(aa) == string(bb) {
		return "", true
	}
	return schemaDiff(a, b), false
}
