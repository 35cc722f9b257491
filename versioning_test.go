package apiforge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/confdoc"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

const fooV2Controller = `BarConf\V2\Rest\Foo\Controller`

func (f *fixture) sourceFile(parts ...string) string {
	return filepath.Join(append([]string{f.root, "src", "BarConf"}, parts...)...)
}

func createTwoVersions(t *testing.T, f *fixture) *apiforge.VersioningModel {
	t.Helper()
	ctx := context.Background()

	_, err := f.model.CreateService(ctx, apiforge.NewRestServiceSpec{ServiceName: "Foo"})
	assert.NilError(t, err)

	versions := apiforge.NewVersioningModel(f.module, f.store)
	ok, err := versions.CreateVersion(ctx, 2)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	return versions
}

func TestCreateVersionCopiesServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	versions := createTwoVersions(t, f)

	all, err := versions.Versions(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, all, []int{1, 2})
	assert.DeepEqual(t, f.module.Versions, []int{1, 2})

	v2, err := f.model.Fetch(ctx, fooV2Controller)
	assert.NilError(t, err)
	assert.Equal(t, v2.ResourceClass, `BarConf\V2\Rest\Foo\FooResource`)
	assert.Equal(t, v2.EntityClass, `BarConf\V2\Rest\Foo\FooEntity`)
	assert.Equal(t, v2.RouteName, "bar-conf.rest.foo")
	assert.Equal(t, v2.RouteMatch, "/foo[/:foo_id]")
	assert.Equal(t, v2.EntityIdentifierName, "id")
	assert.DeepEqual(t, v2.AcceptWhitelist, []string{
		"application/vnd.bar-conf.v2+json",
		"application/hal+json",
		"application/json",
	})

	doc := f.doc(t)
	factories := doc.MapPath("service_manager", "factories")
	assert.Equal(t, factories.String(`BarConf\V2\Rest\Foo\FooResource`), `BarConf\V2\Rest\Foo\FooResourceFactory`)
	assert.Equal(t, routeController(doc), `BarConf\V1\Rest\Foo\Controller`)

	content, err := os.ReadFile(f.sourceFile("V2", "Rest", "Foo", "FooResource.php"))
	assert.NilError(t, err)
	assert.Assert(t, cmp.Contains(string(content), `namespace BarConf\V2\Rest\Foo;`))

	v1, err := f.model.Fetch(ctx, fooController)
	assert.NilError(t, err)
	assert.Equal(t, v1.ResourceClass, `BarConf\V1\Rest\Foo\FooResource`)
}

func TestCreateVersionRejectsExisting(t *testing.T) {
	f := newFixture(t)
	versions := createTwoVersions(t, f)
	before := f.doc(t)

	_, err := versions.CreateVersion(context.Background(), 2)
	var exists *apiforge.VersionExistsError
	assert.Assert(t, errors.As(err, &exists))
	assert.Equal(t, exists.Version, 2)
	assert.DeepEqual(t, f.doc(t), before)
}

func TestNewServicesTargetLatestVersion(t *testing.T) {
	f := newFixture(t)
	createTwoVersions(t, f)

	created, err := f.model.CreateService(context.Background(), apiforge.NewRestServiceSpec{ServiceName: "Bar"})
	assert.NilError(t, err)
	assert.Equal(t, created.ControllerServiceName, `BarConf\V2\Rest\Bar\Controller`)
}

func TestServiceExistsInOtherVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	versions := createTwoVersions(t, f)

	exists, err := versions.ServiceExistsInOtherVersion(ctx, "Foo", 1)
	assert.NilError(t, err)
	assert.Assert(t, exists)

	exists, err = versions.ServiceExistsInOtherVersion(ctx, "foo", 2)
	assert.NilError(t, err)
	assert.Assert(t, exists)

	exists, err = versions.ServiceExistsInOtherVersion(ctx, "Bar", 0)
	assert.NilError(t, err)
	assert.Assert(t, !exists)
}

func TestDeleteService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, unrelatedDoc())

	_, err := f.model.CreateService(ctx, creationPayload())
	assert.NilError(t, err)

	ok, err := f.model.DeleteService(ctx, fooController, false)
	assert.NilError(t, err)
	assert.Assert(t, ok)

	doc := f.doc(t)
	assert.Assert(t, doc.MapPath("rest", fooController) == nil)
	assert.Assert(t, doc.MapPath("router", "routes", "bar-conf.rest.foo") == nil)
	assert.Assert(t, doc.MapPath("router", "routes", "home") != nil)
	uris, _ := doc.MapAt("versioning").Strings("uri")
	assert.DeepEqual(t, uris, []string{})
	for _, section := range []string{"controllers", "accept_whitelist", "content_type_whitelist"} {
		assert.Assert(t, !doc.MapPath("content_negotiation", section).Has(fooController), section)
	}
	assert.Equal(t, doc.MapPath("hal", "metadata_map").Len(), 0)
	assert.Equal(t, doc.MapPath("service_manager", "factories").Len(), 0)

	_, err = os.Stat(f.sourceFile("V1", "Rest", "Foo", "FooResource.php"))
	assert.Assert(t, os.IsNotExist(err))
	_, err = os.Stat(f.sourceFile("V1", "Rest", "Foo"))
	assert.NilError(t, err)

	_, err = f.model.Fetch(ctx, fooController)
	var notFound *apiforge.NotFoundError
	assert.Assert(t, errors.As(err, &notFound))
}

func TestDeleteServiceRecursive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.model.CreateService(ctx, creationPayload())
	assert.NilError(t, err)
	nested := f.sourceFile("V1", "Rest", "Foo", "Model", "Item.php")
	assert.NilError(t, os.MkdirAll(filepath.Dir(nested), 0o755))
	assert.NilError(t, os.WriteFile(nested, []byte("<?php\n"), 0o644))

	_, err = f.model.DeleteService(ctx, fooController, true)
	assert.NilError(t, err)

	_, err = os.Stat(f.sourceFile("V1", "Rest", "Foo"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestDeleteServiceNotFound(t *testing.T) {
	f := newFixture(t)
	f.seed(t, unrelatedDoc())

	ok, err := f.model.DeleteService(context.Background(), fooController, false)
	assert.Assert(t, !ok)
	var notFound *apiforge.NotFoundError
	assert.Assert(t, errors.As(err, &notFound))
	assert.DeepEqual(t, f.doc(t), unrelatedDoc())
}

func TestDeleteServiceToleratesMissingSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.model.CreateService(ctx, creationPayload())
	assert.NilError(t, err)

	doc := f.doc(t)
	doc.Delete("hal")
	doc.Delete("content_negotiation")
	f.seed(t, doc)

	ok, err := f.model.DeleteService(ctx, fooController, false)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Assert(t, f.doc(t).MapPath("rest", fooController) == nil)
}

func TestDeleteNewerVersionKeepsSharedRoute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createTwoVersions(t, f)

	_, err := f.model.DeleteService(ctx, fooV2Controller, false)
	assert.NilError(t, err)

	doc := f.doc(t)
	assert.Assert(t, doc.MapPath("router", "routes", "bar-conf.rest.foo") != nil)
	assert.Equal(t, routeController(doc), fooController)
	uris, _ := doc.MapAt("versioning").Strings("uri")
	assert.DeepEqual(t, uris, []string{"bar-conf.rest.foo"})

	v1, err := f.model.Fetch(ctx, fooController)
	assert.NilError(t, err)
	assert.Equal(t, v1.EntityIdentifierName, "id")
	assert.Assert(t, doc.MapPath("hal", "metadata_map", `BarConf\V2\Rest\Foo\FooEntity`) == nil)

	_, err = f.model.DeleteService(ctx, fooController, false)
	assert.NilError(t, err)

	doc = f.doc(t)
	assert.Assert(t, doc.MapPath("router", "routes", "bar-conf.rest.foo") == nil)
	uris, _ = doc.MapAt("versioning").Strings("uri")
	assert.DeepEqual(t, uris, []string{})
}

func TestDeleteOlderVersionRebindsRoute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createTwoVersions(t, f)

	_, err := f.model.DeleteService(ctx, fooController, false)
	assert.NilError(t, err)

	doc := f.doc(t)
	assert.Equal(t, routeController(doc), fooV2Controller)

	v2, err := f.model.Fetch(ctx, fooV2Controller)
	assert.NilError(t, err)
	assert.Equal(t, v2.RouteMatch, "/foo[/:foo_id]")
}

type otherVersionExists bool

func (v otherVersionExists) ServiceExistsInOtherVersion(context.Context, string, int) (bool, error) {
	return bool(v), nil
}

func TestDeleteServiceConsultsVersionChecker(t *testing.T) {
	f := newFixture(t, apiforge.WithVersionChecker(otherVersionExists(true)))
	ctx := context.Background()

	_, err := f.model.CreateService(ctx, creationPayload())
	assert.NilError(t, err)

	_, err = f.model.DeleteService(ctx, fooController, false)
	assert.NilError(t, err)

	doc := f.doc(t)
	assert.Assert(t, doc.MapPath("router", "routes", "bar-conf.rest.foo") != nil)
	uris, _ := doc.MapAt("versioning").Strings("uri")
	assert.DeepEqual(t, uris, []string{"bar-conf.rest.foo"})
}

func routeController(doc *confdoc.Map) string {
	return apiforge.NewRouteConfig(doc).Controller("bar-conf.rest.foo")
}
