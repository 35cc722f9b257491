// Package apiforge scaffolds REST services into a host module.
//
// A service is described once (NewRestServiceSpec) and spread over five
// sections of the module configuration: routing with its versioning list,
// REST dispatch, content negotiation, HAL metadata and service factories.
// RestServiceModel keeps those sections consistent across create, fetch,
// update and delete. VersioningModel adds API versions to a module.
//
// Every operation reads the module configuration once, applies all section
// changes to that copy and writes it back once. Either all sections of an
// operation are persisted or none are. Generated source files are written
// before the configuration and are not removed when a later step fails.
package apiforge

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/tailbits/apiforge/confdoc"
	"github.com/tailbits/apiforge/configstore"
	"github.com/tailbits/apiforge/generator"
	"github.com/tailbits/apiforge/naming"
)

// Top-level configuration sections.
const (
	sectionRouter             = "router"
	sectionVersioning         = "versioning"
	sectionRest               = "rest"
	sectionContentNegotiation = "content_negotiation"
	sectionHal                = "hal"
	sectionServiceManager     = "service_manager"
)

const (
	defaultPageSize = 25
	defaultSelector = "HalJson"
)

var (
	defaultEntityHTTPMethods     = []string{"GET", "PATCH", "PUT", "DELETE"}
	defaultCollectionHTTPMethods = []string{"GET", "POST"}
)

// VersionChecker answers whether a service still exists in another API
// version of the module. DeleteService keeps a shared route while it does.
type VersionChecker interface {
	ServiceExistsInOtherVersion(ctx context.Context, serviceName string, excludingVersion int) (bool, error)
}

type options struct {
	logger    *log.Logger
	generator *generator.Generator
	versions  VersionChecker
}

type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGenerator replaces the generator writing into the module directory.
func WithGenerator(g *generator.Generator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// WithVersionChecker replaces the VersioningModel consulted on delete.
func WithVersionChecker(v VersionChecker) Option {
	return func(o *options) {
		o.versions = v
	}
}

func newOptions(module *ModuleEntity, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.generator == nil {
		o.generator = generator.New(
			generator.NewOSFilesystem(module.Path),
			generator.WithLogger(o.logger.WithPrefix("generator")),
		)
	}
	return o
}

// RestServiceModel creates, fetches, updates and deletes the REST services
// of one module.
type RestServiceModel struct {
	module    *ModuleEntity
	store     configstore.Store
	generator *generator.Generator
	versions  VersionChecker
	events    *Events
	logger    *log.Logger
}

func NewRestServiceModel(module *ModuleEntity, store configstore.Store, opts ...Option) *RestServiceModel {
	o := newOptions(module, opts)
	if o.versions == nil {
		o.versions = newVersioningModel(module, store, o)
	}

	return &RestServiceModel{
		module:    module,
		store:     store,
		generator: o.generator,
		versions:  o.versions,
		events:    newEvents(),
		logger:    o.logger,
	}
}

func (m *RestServiceModel) Module() *ModuleEntity {
	return m.module
}

// Events returns the listener registry of the model.
func (m *RestServiceModel) Events() *Events {
	return m.events
}

// edit loads the module configuration, applies fn and persists the result.
// Nothing is written when fn fails.
func (m *RestServiceModel) edit(ctx context.Context, fn func(doc *confdoc.Map) error) (*confdoc.Map, error) {
	return editDocument(ctx, m.store, m.module, fn)
}

func editDocument(ctx context.Context, store configstore.Store, module *ModuleEntity, fn func(doc *confdoc.Map) error) (*confdoc.Map, error) {
	doc, err := store.Read(ctx, module.Path)
	if err != nil {
		return nil, err
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	if err := store.Write(ctx, module.Path, doc); err != nil {
		return nil, &ConfigWriteError{Module: module.Name, Err: err}
	}
	return doc, nil
}

func parseController(controller string) (naming.ControllerName, error) {
	return naming.ParseControllerServiceName(controller)
}
