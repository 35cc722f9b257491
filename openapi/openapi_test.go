package openapi_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/openapi"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func fooService() *apiforge.RestServiceDescriptor {
	return &apiforge.RestServiceDescriptor{
		Module:                   "BarConf",
		ServiceName:              "foo",
		ControllerServiceName:    `BarConf\V1\Rest\Foo\Controller`,
		ResourceClass:            `BarConf\V1\Rest\Foo\FooResource`,
		EntityClass:              `BarConf\V1\Rest\Foo\FooEntity`,
		CollectionClass:          `BarConf\V1\Rest\Foo\FooCollection`,
		RouteName:                "bar-conf.rest.foo",
		RouteMatch:               "/api/foo[/:foo_id]",
		RouteIdentifierName:      "foo_id",
		EntityIdentifierName:     "id",
		CollectionName:           "foo",
		EntityHTTPMethods:        []string{"GET", "PATCH", "DELETE"},
		CollectionHTTPMethods:    []string{"GET", "POST"},
		CollectionQueryWhitelist: []string{"sort", "filter"},
		PageSize:                 10,
		PageSizeParam:            "p",
		Selector:                 "HalJson",
		AcceptWhitelist:          []string{"application/vnd.bar-conf.v1+json", "application/hal+json", "application/json"},
		ContentTypeWhitelist:     []string{"application/vnd.bar-conf.v1+json", "application/json"},
	}
}

func barService() *apiforge.RestServiceDescriptor {
	d := fooService()
	d.ServiceName = "Bar"
	d.ControllerServiceName = `BarConf\V1\Rest\Bar\Controller`
	d.ResourceClass = `BarConf\V1\Rest\Bar\BarResource`
	d.EntityClass = `BarConf\V1\Rest\Bar\BarEntity`
	d.CollectionClass = `BarConf\V1\Rest\Bar\BarCollection`
	d.RouteName = "bar-conf.rest.bar"
	d.RouteMatch = "/bar[/:bar_id]"
	d.RouteIdentifierName = "bar_id"
	d.CollectionName = "bar"
	return d
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	assert.NilError(t, json.Unmarshal(raw, &doc))
	return doc
}

func lookup(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func operationIDs(doc map[string]any) []string {
	var ids []string
	paths, _ := lookup(doc, "paths").(map[string]any)
	for _, item := range paths {
		for _, op := range item.(map[string]any) {
			if id, ok := lookup(op, "operationId").(string); ok {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids
}

func paramNames(op any) []string {
	var names []string
	params, _ := lookup(op, "parameters").([]any)
	for _, p := range params {
		names = append(names, lookup(p, "name").(string))
	}
	return names
}

func TestPaths(t *testing.T) {
	tests := []struct {
		route, ident       string
		collection, entity string
	}{
		{route: "/api/foo[/:foo_id]", ident: "foo_id", collection: "/api/foo", entity: "/api/foo/{foo_id}"},
		{route: "/foo", ident: "foo_id", collection: "/foo", entity: "/foo/{foo_id}"},
		{route: "/users/:user_id/posts[/:post_id]", ident: "post_id", collection: "/users/{user_id}/posts", entity: "/users/{user_id}/posts/{post_id}"},
		{route: "/v1/foo[/:id]", ident: "foo_id", collection: "/v1/foo", entity: "/v1/foo/{id}"},
	}

	for _, tc := range tests {
		t.Run(tc.route, func(t *testing.T) {
			collection, entity := openapi.Paths(tc.route, tc.ident)
			assert.Equal(t, collection, tc.collection)
			assert.Equal(t, entity, tc.entity)
		})
	}
}

func TestNewDocumentsService(t *testing.T) {
	raw, err := openapi.New([]*apiforge.RestServiceDescriptor{fooService()},
		openapi.Info("BarConf API", "1", "Scaffolded services."),
		openapi.Server("https://api.example.com"),
	)
	assert.NilError(t, err)
	doc := decode(t, raw)

	assert.Equal(t, lookup(doc, "openapi"), "3.1.0")
	assert.Equal(t, lookup(doc, "info", "title"), "BarConf API")

	assert.DeepEqual(t, operationIDs(doc), []string{
		"createFoo",
		"deleteFoo",
		"fetchAllFoo",
		"fetchFoo",
		"patchFoo",
	})

	list := lookup(doc, "paths", "/api/foo", "get")
	assert.DeepEqual(t, paramNames(list), []string{"sort", "filter", "page", "p"})
	assert.Assert(t, lookup(list, "responses", "200", "content", "application/hal+json") != nil)

	create := lookup(doc, "paths", "/api/foo", "post")
	assert.Assert(t, lookup(create, "responses", "201") != nil)
	assert.Assert(t, lookup(create, "requestBody", "content", "application/vnd.bar-conf.v1+json") != nil)

	fetch := lookup(doc, "paths", "/api/foo/{foo_id}", "get")
	assert.DeepEqual(t, paramNames(fetch), []string{"foo_id"})

	remove := lookup(doc, "paths", "/api/foo/{foo_id}", "delete")
	assert.Assert(t, lookup(remove, "responses", "204") != nil)

	assert.Assert(t, lookup(doc, "paths", "/api/foo/{foo_id}", "put") == nil)

	schemas := lookup(doc, "components", "schemas")
	for _, name := range []string{"FooEntity", "FooCollection", "HalLinks"} {
		assert.Assert(t, lookup(schemas, name) != nil, name)
	}
	assert.Assert(t, lookup(schemas, "FooCollection", "properties", "_embedded", "properties", "foo") != nil)
	assert.Assert(t, lookup(schemas, "FooEntity", "properties", "id") != nil)
}

func TestNewFilterAndTags(t *testing.T) {
	raw, err := openapi.New([]*apiforge.RestServiceDescriptor{fooService(), barService()},
		openapi.Filter(func(r openapi.Record) bool { return r.Method == http.MethodGet }),
		openapi.Tags(func(openapi.Record) []string { return []string{"BarConf"} }, []string{"Unused"}),
	)
	assert.NilError(t, err)
	doc := decode(t, raw)

	assert.DeepEqual(t, operationIDs(doc), []string{"fetchAllBar", "fetchAllFoo", "fetchBar", "fetchFoo"})

	tags, _ := lookup(doc, "tags").([]any)
	var names []string
	for _, tag := range tags {
		names = append(names, lookup(tag, "name").(string))
	}
	assert.DeepEqual(t, names, []string{"Bar", "BarConf", "Foo", "Unused"})

	opTags, _ := lookup(doc, "paths", "/bar", "get", "tags").([]any)
	assert.DeepEqual(t, opTags, []any{"BarConf", "Bar"})
}

func TestNewTransform(t *testing.T) {
	raw, err := openapi.New([]*apiforge.RestServiceDescriptor{fooService()},
		openapi.Transform(func(r *openapi.Record) {
			r.Description = r.Method + " " + r.Path
		}),
	)
	assert.NilError(t, err)
	doc := decode(t, raw)

	assert.Equal(t, lookup(doc, "paths", "/api/foo", "get", "description"), "GET /api/foo")
}

func TestNewRejectsDuplicateOperations(t *testing.T) {
	v2 := fooService()
	v2.ControllerServiceName = `BarConf\V2\Rest\Foo\Controller`

	_, err := openapi.New([]*apiforge.RestServiceDescriptor{fooService(), v2})
	assert.Assert(t, cmp.ErrorContains(err, "is documented by both"))
}

func TestNewRejectsConflictingDefinitions(t *testing.T) {
	other := barService()
	other.EntityClass = `BarConf\V1\Rest\Foo\FooEntity`
	other.EntityIdentifierName = "uuid"

	_, err := openapi.New([]*apiforge.RestServiceDescriptor{fooService(), other})

	var conflict *openapi.DefinitionConflictError
	assert.Assert(t, errors.As(err, &conflict))
	assert.Equal(t, conflict.Name, "FooEntity")
	assert.Assert(t, conflict.Diff != "")
}

func TestRegistry(t *testing.T) {
	reg := openapi.Registry{}
	assert.NilError(t, reg.Add(openapi.Record{Controller: "A", Method: "GET", Path: "/b", Tags: []string{"x", "y"}}))
	assert.NilError(t, reg.Add(openapi.Record{Controller: "A", Method: "GET", Path: "/a", Tags: []string{"x"}}))
	assert.NilError(t, reg.Add(openapi.Record{Controller: "B", Method: "POST", Path: "/a"}))

	ops := reg.Ops()
	assert.Equal(t, len(ops), 3)
	assert.Equal(t, ops[0].Path+" "+ops[0].Method, "/a GET")
	assert.Equal(t, ops[1].Path+" "+ops[1].Method, "/a POST")

	assert.Equal(t, len(reg.TaggedOps("x")), 2)
	assert.Equal(t, len(reg.TaggedOps("x", "y")), 1)

	_, ok := reg.FindOp("POST", "/a")
	assert.Assert(t, ok)

	err := reg.Add(openapi.Record{Controller: "B", Method: "GET", Path: "/b"})
	assert.Assert(t, cmp.ErrorContains(err, "documented by both A and B"))
}
