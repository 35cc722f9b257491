package configstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailbits/apiforge/confdoc"
	"github.com/tailbits/apiforge/configstore"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
)

func sampleDoc() *confdoc.Map {
	doc := confdoc.New()
	doc.EnsurePath("router", "routes", "bar-conf.rest.foo").Set("type", "Segment")
	doc.EnsureMap("versioning").Set("uri", []string{"bar-conf.rest.foo"})
	return doc
}

func TestFileStore(t *testing.T) {
	for _, format := range []configstore.Format{configstore.FormatYAML, configstore.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			dir := fs.NewDir(t, "module")
			store := configstore.NewFileStore(format)
			ctx := context.Background()

			doc, err := store.Read(ctx, dir.Path())
			assert.NilError(t, err)
			assert.Equal(t, doc.Len(), 0)

			assert.NilError(t, store.Write(ctx, dir.Path(), sampleDoc()))

			_, err = os.Stat(filepath.Join(dir.Path(), "config", "module.config."+string(format)))
			assert.NilError(t, err)

			got, err := store.Read(ctx, dir.Path())
			assert.NilError(t, err)
			assert.DeepEqual(t, got, sampleDoc())
		})
	}
}

func TestFileStoreReadsExistingYAML(t *testing.T) {
	dir := fs.NewDir(t, "module",
		fs.WithDir("config",
			fs.WithFile("module.config.yaml", "service_manager:\n    factories: {}\nrouter:\n    routes: {}\n"),
		),
	)

	doc, err := configstore.NewFileStore("").Read(context.Background(), dir.Path())
	assert.NilError(t, err)
	assert.DeepEqual(t, doc.Keys(), []string{"service_manager", "router"})
}

func TestFileStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := configstore.NewFileStore(configstore.FormatYAML).Write(ctx, t.TempDir(), sampleDoc())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := configstore.NewMemoryStore()
	ctx := context.Background()

	doc := sampleDoc()
	assert.NilError(t, store.Write(ctx, "mod", doc))
	doc.Set("mutated", true)

	got, err := store.Read(ctx, "mod")
	assert.NilError(t, err)
	assert.Assert(t, !got.Has("mutated"))

	got.Set("mutated", true)
	again, _ := store.Read(ctx, "mod")
	assert.Assert(t, !again.Has("mutated"))
}
