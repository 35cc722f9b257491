package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailbits/apiforge"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func moduleArgs(dir string, args ...string) []string {
	return append([]string{"--module", "BarConf", "--path", dir, "-o", "json"}, args...)
}

func TestCreateAndFetch(t *testing.T) {
	dir := fs.NewDir(t, "module")

	out, err := run(t, moduleArgs(dir.Path(), "create", "Foo", "--route", "/api/foo")...)
	assert.NilError(t, err)

	var created apiforge.RestServiceDescriptor
	assert.NilError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, created.ControllerServiceName, `BarConf\V1\Rest\Foo\Controller`)
	assert.Equal(t, created.RouteMatch, "/api/foo[/:foo_id]")

	_, err = os.Stat(filepath.Join(dir.Path(), "config", "module.config.yaml"))
	assert.NilError(t, err)
	_, err = os.Stat(filepath.Join(dir.Path(), "src", "BarConf", "V1", "Rest", "Foo", "FooResource.php"))
	assert.NilError(t, err)

	out, err = run(t, moduleArgs(dir.Path(), "fetch", `BarConf\V1\Rest\Foo\Controller`)...)
	assert.NilError(t, err)
	var fetched apiforge.RestServiceDescriptor
	assert.NilError(t, json.Unmarshal([]byte(out), &fetched))
	assert.DeepEqual(t, fetched, created)
}

func TestCreateFromPayloadFile(t *testing.T) {
	dir := fs.NewDir(t, "module",
		fs.WithFile("payload.json", `{"service_name": "foo", "route_match": "/api/foo", "page_size": 10}`),
		fs.WithFile("bad.json", `{"servicename": "foo"}`),
	)

	out, err := run(t, moduleArgs(dir.Path(), "create", "--file", dir.Join("payload.json"))...)
	assert.NilError(t, err)
	var created apiforge.RestServiceDescriptor
	assert.NilError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, created.PageSize, 10)

	_, err = run(t, moduleArgs(dir.Path(), "create", "--file", dir.Join("bad.json"))...)
	assert.Assert(t, cmp.ErrorContains(err, "invalid payload"))
}

func TestUpdateAndDelete(t *testing.T) {
	dir := fs.NewDir(t, "module",
		fs.WithFile("patch.json", `{"controller_service_name": "BarConf\\V1\\Rest\\Foo\\Controller", "selector": "Json", "entity_http_methods": []}`),
	)

	_, err := run(t, moduleArgs(dir.Path(), "create", "Foo")...)
	assert.NilError(t, err)

	out, err := run(t, moduleArgs(dir.Path(), "update", "--file", dir.Join("patch.json"))...)
	assert.NilError(t, err)
	var updated apiforge.RestServiceDescriptor
	assert.NilError(t, json.Unmarshal([]byte(out), &updated))
	assert.Equal(t, updated.Selector, "Json")
	assert.DeepEqual(t, updated.EntityHTTPMethods, []string{})

	out, err = run(t, moduleArgs(dir.Path(), "delete", `BarConf\V1\Rest\Foo\Controller`)...)
	assert.NilError(t, err)
	assert.Equal(t, out, "deleted BarConf\\V1\\Rest\\Foo\\Controller\n")

	_, err = run(t, moduleArgs(dir.Path(), "fetch", `BarConf\V1\Rest\Foo\Controller`)...)
	var notFound *apiforge.NotFoundError
	assert.Assert(t, errors.As(err, &notFound))
}

func TestVersionsAndDocs(t *testing.T) {
	dir := fs.NewDir(t, "module")

	_, err := run(t, moduleArgs(dir.Path(), "create", "Foo")...)
	assert.NilError(t, err)

	out, err := run(t, moduleArgs(dir.Path(), "version", "create", "2")...)
	assert.NilError(t, err)
	assert.Equal(t, out, "created version 2\n")

	out, err = run(t, moduleArgs(dir.Path(), "version", "list")...)
	assert.NilError(t, err)
	assert.Equal(t, out, "[\n    1,\n    2\n]\n")

	out, err = run(t, moduleArgs(dir.Path(), "list", "--api-version", "2")...)
	assert.NilError(t, err)
	var services []apiforge.RestServiceDescriptor
	assert.NilError(t, json.Unmarshal([]byte(out), &services))
	assert.Equal(t, len(services), 1)
	assert.Equal(t, services[0].ControllerServiceName, `BarConf\V2\Rest\Foo\Controller`)

	out, err = run(t, moduleArgs(dir.Path(), "docs")...)
	assert.NilError(t, err)
	var doc map[string]any
	assert.NilError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, doc["info"].(map[string]any)["title"], "BarConf API")
	assert.Equal(t, doc["info"].(map[string]any)["version"], "2")
	paths := doc["paths"].(map[string]any)
	assert.Assert(t, paths["/foo"] != nil)
	assert.Assert(t, paths["/foo/{foo_id}"] != nil)
}

func TestSettingsFromEnvironment(t *testing.T) {
	dir := fs.NewDir(t, "module")
	t.Setenv("APIFORGE_MODULE", "BarConf")
	t.Setenv("APIFORGE_PATH", dir.Path())
	t.Setenv("APIFORGE_OUTPUT", "yaml")

	out, err := run(t, "list")
	assert.NilError(t, err)
	assert.Equal(t, out, "[]\n")
}

func TestSettingsFromConfigFile(t *testing.T) {
	dir := fs.NewDir(t, "module")
	conf := fs.NewDir(t, "conf", fs.WithFile("apiforge.yaml", "module: BarConf\npath: "+dir.Path()+"\nformat: json\n"))

	_, err := run(t, "--config", conf.Join("apiforge.yaml"), "create", "Foo")
	assert.NilError(t, err)

	_, err = os.Stat(filepath.Join(dir.Path(), "config", "module.config.json"))
	assert.NilError(t, err)
}

func TestSettingsValidation(t *testing.T) {
	_, err := run(t, "--path", t.TempDir(), "list")
	assert.Assert(t, cmp.ErrorContains(err, "Module"))

	_, err = run(t, "--module", "BarConf", "--path", t.TempDir(), "--format", "toml", "list")
	assert.Assert(t, cmp.ErrorContains(err, "Format"))
}
