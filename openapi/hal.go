package openapi

import (
	"encoding/json"
	"strings"

	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/model"
	"github.com/tailbits/apiforge/naming"
)

const halLinks = "HalLinks"

type schemaDoc map[string]any

var linksSchema = schemaDoc{
	"type": "object",
	"properties": schemaDoc{
		"self": schemaDoc{
			"type":       "object",
			"properties": schemaDoc{"href": schemaDoc{"type": "string"}},
			"required":   []string{"href"},
		},
	},
	"required": []string{"self"},
}

func ref(name string) schemaDoc {
	return schemaDoc{"$ref": "#/definitions/" + name}
}

// definitionName is the component name of a class: its last namespace
// segment.
func definitionName(class string) string {
	return class[strings.LastIndex(class, naming.Separator)+1:]
}

func entityProperties(d *apiforge.RestServiceDescriptor) schemaDoc {
	return schemaDoc{
		d.EntityIdentifierName: schemaDoc{"type": "string"},
		"_links":               ref(halLinks),
	}
}

// entityModel is the HAL representation of a single entity of d.
func entityModel(d *apiforge.RestServiceDescriptor, collectionPath string) model.WithSchema {
	name := definitionName(d.EntityClass)
	schema := schemaDoc{
		"type":        "object",
		"properties":  entityProperties(d),
		"required":    []string{d.EntityIdentifierName, "_links"},
		"definitions": schemaDoc{halLinks: linksSchema},
	}
	example := schemaDoc{
		d.EntityIdentifierName: "1",
		"_links":               schemaDoc{"self": schemaDoc{"href": collectionPath + "/1"}},
	}
	return model.NewStatic(name, mustJSON(schema), mustJSON(example))
}

// collectionModel is the paginated HAL collection of d. Entities are
// embedded under the collection name.
func collectionModel(d *apiforge.RestServiceDescriptor, collectionPath string) model.WithSchema {
	entity := definitionName(d.EntityClass)
	entitySchema := schemaDoc{
		"type":       "object",
		"properties": entityProperties(d),
		"required":   []string{d.EntityIdentifierName, "_links"},
	}

	schema := schemaDoc{
		"type": "object",
		"properties": schemaDoc{
			"_links": ref(halLinks),
			"_embedded": schemaDoc{
				"type": "object",
				"properties": schemaDoc{
					d.CollectionName: schemaDoc{"type": "array", "items": ref(entity)},
				},
			},
			"page_count":  schemaDoc{"type": "integer"},
			"page_size":   schemaDoc{"type": "integer"},
			"total_items": schemaDoc{"type": "integer"},
			"page":        schemaDoc{"type": "integer"},
		},
		"required": []string{"_links", "_embedded"},
		"definitions": schemaDoc{
			halLinks: linksSchema,
			entity:   entitySchema,
		},
	}
	example := schemaDoc{
		"_links":      schemaDoc{"self": schemaDoc{"href": collectionPath}},
		"_embedded":   schemaDoc{d.CollectionName: []any{}},
		"page_count":  0,
		"page_size":   d.PageSize,
		"total_items": 0,
		"page":        1,
	}
	return model.NewStatic(definitionName(d.CollectionClass), mustJSON(schema), mustJSON(example))
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
