package apiforge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/model"
	"gotest.tools/v3/assert"
)

func createFoo(t *testing.T, f *fixture) *apiforge.RestServiceDescriptor {
	t.Helper()
	d, err := f.model.CreateService(context.Background(), creationPayload())
	assert.NilError(t, err)
	return d
}

func TestUpdateRoute(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)

	updated, err := f.model.UpdateRoute(context.Background(), original, apiforge.RestServicePatch{
		RouteMatch: "/api/updated/foo",
	})
	assert.NilError(t, err)
	assert.Equal(t, updated.RouteMatch, "/api/updated/foo")

	route := f.doc(t).MapPath("router", "routes", "bar-conf.rest.foo")
	assert.Equal(t, route.String("type"), "Segment")
	assert.Equal(t, route.MapPath("options", "defaults").String("controller"), fooController)
}

func TestUpdateRestConfig(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)

	pageSize := 50
	updated, err := f.model.UpdateRestConfig(context.Background(), original, apiforge.RestServicePatch{
		EntityHTTPMethods: []string{},
		PageSize:          &pageSize,
		CollectionName:    "foos",
	})
	assert.NilError(t, err)

	assert.DeepEqual(t, updated.EntityHTTPMethods, []string{})
	assert.Equal(t, updated.PageSize, 50)
	assert.Equal(t, updated.CollectionName, "foos")
	assert.DeepEqual(t, updated.CollectionHTTPMethods, original.CollectionHTTPMethods)
	assert.DeepEqual(t, updated.CollectionQueryWhitelist, original.CollectionQueryWhitelist)
	assert.Equal(t, updated.PageSizeParam, original.PageSizeParam)
}

func TestUpdateRestConfigRejectsInvalidMethods(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)
	before := f.doc(t)

	_, err := f.model.UpdateRestConfig(context.Background(), original, apiforge.RestServicePatch{
		CollectionHTTPMethods: []string{"LIST"},
	})
	assert.Assert(t, model.IsValidationError(err))
	assert.DeepEqual(t, f.doc(t), before)
}

func TestUpdateContentNegotiationConfig(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)

	updated, err := f.model.UpdateContentNegotiationConfig(context.Background(), original, apiforge.RestServicePatch{
		Selector:        "Json",
		AcceptWhitelist: []string{"application/json"},
	})
	assert.NilError(t, err)

	assert.Equal(t, updated.Selector, "Json")
	assert.DeepEqual(t, updated.AcceptWhitelist, []string{"application/json"})
	assert.DeepEqual(t, updated.ContentTypeWhitelist, original.ContentTypeWhitelist)
}

func TestUpdateHalConfigMergesEntries(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)

	_, err := f.model.UpdateHalConfig(context.Background(), original, apiforge.RestServicePatch{
		RouteIdentifierName: "bar_id",
		RouteName:           "bar-conf.rest.bar",
		HydratorName:        `Laminas\Hydrator\ClassMethodsHydrator`,
	})
	assert.NilError(t, err)

	doc := f.doc(t)
	entity := doc.MapPath("hal", "metadata_map", original.EntityClass)
	assert.DeepEqual(t, entity.Plain(), map[string]any{
		"entity_identifier_name": "id",
		"route_name":             "bar-conf.rest.bar",
		"route_identifier_name":  "bar_id",
		"hydrator":               `Laminas\Hydrator\ClassMethodsHydrator`,
	})

	collection := doc.MapPath("hal", "metadata_map", original.CollectionClass)
	assert.DeepEqual(t, collection.Plain(), map[string]any{
		"entity_identifier_name": "id",
		"route_name":             "bar-conf.rest.bar",
		"route_identifier_name":  "bar_id",
		"is_collection":          true,
	})

	// the route itself is not renamed
	assert.Assert(t, doc.MapPath("router", "routes", "bar-conf.rest.foo") != nil)
	assert.Equal(t, doc.MapPath("rest", fooController).String("route_name"), "bar-conf.rest.foo")
}

func TestUpdateHalConfigRenamedEntityClass(t *testing.T) {
	f := newFixture(t)
	original := createFoo(t, f)

	_, err := f.model.UpdateHalConfig(context.Background(), original, apiforge.RestServicePatch{
		EntityClass: `App\Model\Foo`,
	})
	assert.NilError(t, err)

	metadata := f.doc(t).MapPath("hal", "metadata_map")
	renamed := metadata.MapAt(`App\Model\Foo`)
	assert.Equal(t, renamed.String("route_name"), "bar-conf.rest.foo")
	assert.Equal(t, renamed.String("route_identifier_name"), "foo_id")
	assert.Equal(t, renamed.String("hydrator"), `Laminas\Hydrator\ObjectPropertyHydrator`)
	assert.Assert(t, metadata.Has(original.EntityClass))
}

func TestUpdateService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createFoo(t, f)

	pageSize := 5
	updated, err := f.model.UpdateService(ctx, apiforge.RestServicePatch{
		ControllerServiceName:    fooController,
		RouteMatch:               "/v1/foo[/:foo_id]",
		CollectionQueryWhitelist: []string{"q"},
		PageSize:                 &pageSize,
		ContentTypeWhitelist:     []string{"application/merge-patch+json"},
		EntityIdentifierName:     "uuid",
	})
	assert.NilError(t, err)

	assert.Equal(t, updated.RouteMatch, "/v1/foo[/:foo_id]")
	assert.DeepEqual(t, updated.CollectionQueryWhitelist, []string{"q"})
	assert.Equal(t, updated.PageSize, 5)
	assert.DeepEqual(t, updated.ContentTypeWhitelist, []string{"application/merge-patch+json"})
	assert.Equal(t, updated.EntityIdentifierName, "uuid")

	fetched, err := f.model.Fetch(ctx, fooController)
	assert.NilError(t, err)
	assert.DeepEqual(t, fetched, updated)
}

func TestUpdateServiceNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.model.UpdateService(context.Background(), apiforge.RestServicePatch{
		ControllerServiceName: fooController,
		Selector:              "Json",
	})
	var notFound *apiforge.NotFoundError
	assert.Assert(t, errors.As(err, &notFound))
	assert.Equal(t, f.doc(t).Len(), 0)
}
