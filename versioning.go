package apiforge

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tailbits/apiforge/confdoc"
	"github.com/tailbits/apiforge/configstore"
	"github.com/tailbits/apiforge/generator"
	"github.com/tailbits/apiforge/naming"
)

// VersioningModel manages the API versions of a module.
type VersioningModel struct {
	module    *ModuleEntity
	store     configstore.Store
	generator *generator.Generator
	logger    *log.Logger
}

var _ VersionChecker = (*VersioningModel)(nil)

func NewVersioningModel(module *ModuleEntity, store configstore.Store, opts ...Option) *VersioningModel {
	return newVersioningModel(module, store, newOptions(module, opts))
}

func newVersioningModel(module *ModuleEntity, store configstore.Store, o options) *VersioningModel {
	return &VersioningModel{
		module:    module,
		store:     store,
		generator: o.generator,
		logger:    o.logger,
	}
}

// Versions returns the versions of the module: the declared ones and every
// version a REST controller is configured for, ascending.
func (v *VersioningModel) Versions(ctx context.Context) ([]int, error) {
	doc, err := v.store.Read(ctx, v.module.Path)
	if err != nil {
		return nil, err
	}
	return v.versions(doc), nil
}

func (v *VersioningModel) versions(doc *confdoc.Map) []int {
	versions := slices.Clone(v.module.Versions)
	for _, controller := range NewRestConfig(doc).Controllers() {
		c, err := parseController(controller)
		if err != nil || c.Module != v.module.Name {
			continue
		}
		versions = append(versions, c.Version)
	}
	slices.Sort(versions)
	return slices.Compact(versions)
}

// CreateVersion copies the latest version of every REST service of the
// module to version: configuration keys and source files under the new
// version namespace, with vendor media types following. Routes are shared
// and stay as they are.
func (v *VersioningModel) CreateVersion(ctx context.Context, version int) (bool, error) {
	var from int
	_, err := editDocument(ctx, v.store, v.module, func(doc *confdoc.Map) error {
		versions := v.versions(doc)
		if len(versions) == 0 {
			versions = []int{1}
		}
		if slices.Contains(versions, version) {
			return &VersionExistsError{Module: v.module.Name, Version: version}
		}
		from = versions[len(versions)-1]

		rewrite := versionRewriter(v.module.Name, from, version)
		if err := v.generator.CopyTree(ctx, naming.VersionNamespace(v.module.Name, from), naming.VersionNamespace(v.module.Name, version), func(b []byte) []byte {
			return []byte(rewrite(string(b)))
		}); err != nil {
			return err
		}

		prefix := naming.VersionNamespace(v.module.Name, from) + naming.Separator
		for _, section := range [][]string{
			{sectionRest},
			{sectionContentNegotiation, "controllers"},
			{sectionContentNegotiation, "accept_whitelist"},
			{sectionContentNegotiation, "content_type_whitelist"},
			{sectionHal, "metadata_map"},
			{sectionServiceManager, "factories"},
		} {
			copyVersionKeys(doc.MapPath(section...), prefix, rewrite)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	v.module.addVersion(version)
	v.logger.Info("created API version", "module", v.module.Name, "version", version, "from", from)
	return true, nil
}

// ServiceExistsInOtherVersion reports whether serviceName has a REST
// controller in any version of the module except excludingVersion.
func (v *VersioningModel) ServiceExistsInOtherVersion(ctx context.Context, serviceName string, excludingVersion int) (bool, error) {
	doc, err := v.store.Read(ctx, v.module.Path)
	if err != nil {
		return false, err
	}

	service := naming.Normalize(serviceName)
	for _, controller := range NewRestConfig(doc).Controllers() {
		c, err := parseController(controller)
		if err != nil {
			continue
		}
		if c.Module == v.module.Name && c.Service == service && c.Version != excludingVersion {
			return true, nil
		}
	}
	return false, nil
}

// versionRewriter moves namespaces and vendor media types from one version
// to another.
func versionRewriter(module string, from, to int) func(string) string {
	r := strings.NewReplacer(
		naming.VersionNamespace(module, from)+naming.Separator, naming.VersionNamespace(module, to)+naming.Separator,
		naming.MediaType(module, from), naming.MediaType(module, to),
	)
	return r.Replace
}

func copyVersionKeys(section *confdoc.Map, prefix string, rewrite func(string) string) {
	for _, key := range section.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		target := rewrite(key)
		if section.Has(target) {
			continue
		}
		value, _ := section.Get(key)
		section.Set(target, rewriteValue(value, rewrite))
	}
}

func rewriteValue(v any, rewrite func(string) string) any {
	switch v := v.(type) {
	case string:
		return rewrite(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = rewriteValue(e, rewrite)
		}
		return out
	case *confdoc.Map:
		out := confdoc.New()
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			out.Set(k, rewriteValue(e, rewrite))
		}
		return out
	}
	return v
}
