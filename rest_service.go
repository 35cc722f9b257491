package apiforge

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/tailbits/apiforge/confdoc"
	"github.com/tailbits/apiforge/generator"
	"github.com/tailbits/apiforge/naming"
)

// describe validates spec and derives the full descriptor for the latest
// module version, filling every omitted field with its default.
func (m *RestServiceModel) describe(spec NewRestServiceSpec) (*RestServiceDescriptor, error) {
	module, version := m.module.Name, m.module.LatestVersion()

	controller, err := naming.ControllerServiceName(module, version, spec.ServiceName)
	if err != nil {
		return nil, &CreationError{ServiceName: spec.ServiceName, Err: err}
	}
	if err := validateStruct(spec); err != nil {
		return nil, &CreationError{ServiceName: spec.ServiceName, Err: err}
	}

	d := &RestServiceDescriptor{
		Module:                   module,
		ServiceName:              spec.ServiceName,
		ControllerServiceName:    controller,
		ResourceClass:            naming.ResourceClass(module, version, spec.ServiceName),
		EntityClass:              firstNonEmpty(spec.EntityClass, naming.EntityClass(module, version, spec.ServiceName)),
		CollectionClass:          firstNonEmpty(spec.CollectionClass, naming.CollectionClass(module, version, spec.ServiceName)),
		RouteName:                naming.RouteName(module, spec.ServiceName),
		RouteIdentifierName:      firstNonEmpty(spec.RouteIdentifierName, naming.DefaultRouteIdentifierName(spec.ServiceName)),
		EntityIdentifierName:     firstNonEmpty(spec.EntityIdentifierName, defaultEntityIdentifierName),
		CollectionName:           firstNonEmpty(spec.CollectionName, naming.DefaultCollectionName(spec.ServiceName)),
		EntityHTTPMethods:        listOr(spec.EntityHTTPMethods, defaultEntityHTTPMethods),
		CollectionHTTPMethods:    listOr(spec.CollectionHTTPMethods, defaultCollectionHTTPMethods),
		CollectionQueryWhitelist: listOr(spec.CollectionQueryWhitelist, []string{}),
		PageSize:                 defaultPageSize,
		PageSizeParam:            spec.PageSizeParam,
		Selector:                 firstNonEmpty(spec.Selector, defaultSelector),
		AcceptWhitelist:          listOr(spec.AcceptWhitelist, naming.DefaultAcceptWhitelist(module, version)),
		ContentTypeWhitelist:     listOr(spec.ContentTypeWhitelist, naming.DefaultContentTypeWhitelist(module, version)),
		HydratorName:             spec.HydratorName,
	}
	if spec.PageSize != nil {
		d.PageSize = *spec.PageSize
	}
	d.RouteMatch = naming.RouteMatch(firstNonEmpty(spec.RouteMatch, naming.DefaultRouteMatch(spec.ServiceName)), d.RouteIdentifierName)

	return d, nil
}

// assemble reads the descriptor of controller back from the document.
// Sections other than the dispatch entry may be missing.
func (m *RestServiceModel) assemble(doc *confdoc.Map, controller string) (*RestServiceDescriptor, error) {
	entry := NewRestConfig(doc).Entry(controller)
	if entry == nil {
		return nil, &NotFoundError{ControllerServiceName: controller}
	}

	d := &RestServiceDescriptor{
		Module:                   m.module.Name,
		ServiceName:              entry.String("service_name"),
		ControllerServiceName:    controller,
		ResourceClass:            entry.String("listener"),
		EntityClass:              entry.String("entity_class"),
		CollectionClass:          entry.String("collection_class"),
		RouteName:                entry.String("route_name"),
		RouteIdentifierName:      entry.String("route_identifier_name"),
		CollectionName:           entry.String("collection_name"),
		EntityHTTPMethods:        stringsAt(entry, "entity_http_methods"),
		CollectionHTTPMethods:    stringsAt(entry, "collection_http_methods"),
		CollectionQueryWhitelist: stringsAt(entry, "collection_query_whitelist"),
		PageSizeParam:            entry.String("page_size_param"),
	}
	if c, err := parseController(controller); err == nil {
		d.Module = c.Module
	}
	d.PageSize, _ = entry.Int("page_size")

	d.RouteMatch = NewRouteConfig(doc).Match(d.RouteName)

	cn := NewContentNegotiationConfig(doc)
	d.Selector = cn.Selector(controller)
	d.AcceptWhitelist, _ = cn.AcceptWhitelist(controller)
	d.ContentTypeWhitelist, _ = cn.ContentTypeWhitelist(controller)

	metadata := NewHalConfig(doc).Metadata(d.EntityClass)
	d.HydratorName = metadata.String("hydrator")
	d.EntityIdentifierName = metadata.String("entity_identifier_name")

	return d, nil
}

// CreateService generates the classes of a new service and writes its
// configuration. Running it again with the same spec changes nothing.
func (m *RestServiceModel) CreateService(ctx context.Context, spec NewRestServiceSpec) (*RestServiceDescriptor, error) {
	d, err := m.describe(spec)
	if err != nil {
		return nil, err
	}

	doc, err := m.edit(ctx, func(doc *confdoc.Map) error {
		if err := NewRouteConfig(doc).CheckOwner(d.RouteName, d.ControllerServiceName); err != nil {
			return err
		}

		if err := m.createArtifacts(ctx, doc, d, spec); err != nil {
			return err
		}

		NewRestConfig(doc).Create(d)
		NewContentNegotiationConfig(doc).Create(d.ControllerServiceName, d.Selector, d.AcceptWhitelist, d.ContentTypeWhitelist)
		if err := NewRouteConfig(doc).Create(d.RouteName, d.RouteMatch, d.ControllerServiceName); err != nil {
			return err
		}
		NewHalConfig(doc).Create(d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := m.assemble(doc, d.ControllerServiceName)
	if err != nil {
		return nil, err
	}

	m.logger.Info("created REST service", "controller", created.ControllerServiceName, "route", created.RouteName)
	m.events.notify(ctx, EventCreated, created)
	return created, nil
}

func (m *RestServiceModel) createArtifacts(ctx context.Context, doc *confdoc.Map, d *RestServiceDescriptor, spec NewRestServiceSpec) error {
	if err := m.generateResource(ctx, doc, d.ResourceClass); err != nil {
		return err
	}
	if spec.EntityClass == "" {
		if _, err := m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindEntity, Class: d.EntityClass}); err != nil {
			return err
		}
	}
	if spec.CollectionClass == "" {
		if _, err := m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindCollection, Class: d.CollectionClass}); err != nil {
			return err
		}
	}
	return nil
}

// generateResource writes the resource class and its factory and registers
// the factory binding.
func (m *RestServiceModel) generateResource(ctx context.Context, doc *confdoc.Map, class string) error {
	if _, err := m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindResource, Class: class}); err != nil {
		return err
	}
	_, err := m.generateFactory(ctx, doc, class)
	return err
}

func (m *RestServiceModel) generateFactory(ctx context.Context, doc *confdoc.Map, class string) (string, error) {
	factory := naming.FactoryClass(class)
	if _, err := m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindFactory, Class: factory, Target: class}); err != nil {
		return "", err
	}
	NewServiceFactoryConfig(doc).Register(class)
	return factory, nil
}

func (m *RestServiceModel) serviceClass(serviceName string, derive func(module string, version int, serviceName string) string) (string, error) {
	if err := naming.ValidateServiceName(serviceName); err != nil {
		return "", &CreationError{ServiceName: serviceName, Err: err}
	}
	return derive(m.module.Name, m.module.LatestVersion(), serviceName), nil
}

// CreateResourceClass generates the resource class of serviceName together
// with its factory and registers the factory.
func (m *RestServiceModel) CreateResourceClass(ctx context.Context, serviceName string) (string, error) {
	class, err := m.serviceClass(serviceName, naming.ResourceClass)
	if err != nil {
		return "", err
	}

	_, err = m.edit(ctx, func(doc *confdoc.Map) error {
		return m.generateResource(ctx, doc, class)
	})
	if err != nil {
		return "", err
	}
	return class, nil
}

func (m *RestServiceModel) CreateEntityClass(ctx context.Context, serviceName string) (string, error) {
	class, err := m.serviceClass(serviceName, naming.EntityClass)
	if err != nil {
		return "", err
	}
	return m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindEntity, Class: class})
}

func (m *RestServiceModel) CreateCollectionClass(ctx context.Context, serviceName string) (string, error) {
	class, err := m.serviceClass(serviceName, naming.CollectionClass)
	if err != nil {
		return "", err
	}
	return m.generator.Generate(ctx, generator.Artifact{Kind: generator.KindCollection, Class: class})
}

// CreateFactory generates the factory of class and registers it. It
// returns the factory class name.
func (m *RestServiceModel) CreateFactory(ctx context.Context, class string) (string, error) {
	var factory string
	_, err := m.edit(ctx, func(doc *confdoc.Map) error {
		var err error
		factory, err = m.generateFactory(ctx, doc, class)
		return err
	})
	if err != nil {
		return "", err
	}
	return factory, nil
}

// CreateRoute writes the route of spec and registers it as version aware.
// It returns the route name.
func (m *RestServiceModel) CreateRoute(ctx context.Context, spec NewRestServiceSpec) (string, error) {
	d, err := m.describe(spec)
	if err != nil {
		return "", err
	}

	_, err = m.edit(ctx, func(doc *confdoc.Map) error {
		return NewRouteConfig(doc).Create(d.RouteName, d.RouteMatch, d.ControllerServiceName)
	})
	if err != nil {
		return "", err
	}
	return d.RouteName, nil
}

func (m *RestServiceModel) CreateRestConfig(ctx context.Context, spec NewRestServiceSpec) error {
	d, err := m.describe(spec)
	if err != nil {
		return err
	}

	_, err = m.edit(ctx, func(doc *confdoc.Map) error {
		NewRestConfig(doc).Create(d)
		return nil
	})
	return err
}

func (m *RestServiceModel) CreateContentNegotiationConfig(ctx context.Context, spec NewRestServiceSpec) error {
	d, err := m.describe(spec)
	if err != nil {
		return err
	}

	_, err = m.edit(ctx, func(doc *confdoc.Map) error {
		NewContentNegotiationConfig(doc).Create(d.ControllerServiceName, d.Selector, d.AcceptWhitelist, d.ContentTypeWhitelist)
		return nil
	})
	return err
}

func (m *RestServiceModel) CreateHalConfig(ctx context.Context, spec NewRestServiceSpec) error {
	d, err := m.describe(spec)
	if err != nil {
		return err
	}

	_, err = m.edit(ctx, func(doc *confdoc.Map) error {
		NewHalConfig(doc).Create(d)
		return nil
	})
	return err
}

// Fetch assembles the descriptor of controller and passes it through the
// fetch listeners.
func (m *RestServiceModel) Fetch(ctx context.Context, controller string) (*RestServiceDescriptor, error) {
	doc, err := m.store.Read(ctx, m.module.Path)
	if err != nil {
		return nil, err
	}

	d, err := m.assemble(doc, controller)
	if err != nil {
		return nil, err
	}
	return m.events.filter(ctx, EventFetch, d), nil
}

// FetchAll returns every REST service of the module, sorted by controller
// service name. Version 0 selects all versions.
func (m *RestServiceModel) FetchAll(ctx context.Context, version int) ([]*RestServiceDescriptor, error) {
	doc, err := m.store.Read(ctx, m.module.Path)
	if err != nil {
		return nil, err
	}

	var services []*RestServiceDescriptor
	for _, controller := range NewRestConfig(doc).Controllers() {
		c, err := parseController(controller)
		if err != nil || c.Module != m.module.Name {
			continue
		}
		if version != 0 && c.Version != version {
			continue
		}

		d, err := m.assemble(doc, controller)
		if err != nil {
			return nil, err
		}
		services = append(services, m.events.filter(ctx, EventFetch, d))
	}

	slices.SortFunc(services, func(a, b *RestServiceDescriptor) int {
		return cmp.Compare(a.ControllerServiceName, b.ControllerServiceName)
	})
	return services, nil
}

// update applies fn to the stored service of controller and returns the
// merged descriptor.
func (m *RestServiceModel) update(ctx context.Context, controller string, patch RestServicePatch, fn func(doc *confdoc.Map, current *RestServiceDescriptor) error) (*RestServiceDescriptor, error) {
	patch.ControllerServiceName = controller
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	doc, err := m.edit(ctx, func(doc *confdoc.Map) error {
		current, err := m.assemble(doc, controller)
		if err != nil {
			return err
		}
		return fn(doc, current)
	})
	if err != nil {
		return nil, err
	}

	updated, err := m.assemble(doc, controller)
	if err != nil {
		return nil, err
	}

	m.logger.Info("updated REST service", "controller", controller)
	m.events.notify(ctx, EventUpdated, updated)
	return updated, nil
}

// UpdateRoute rewrites the route string of the service. Other route
// options are kept.
func (m *RestServiceModel) UpdateRoute(ctx context.Context, original *RestServiceDescriptor, patch RestServicePatch) (*RestServiceDescriptor, error) {
	return m.update(ctx, original.ControllerServiceName, patch, func(doc *confdoc.Map, current *RestServiceDescriptor) error {
		NewRouteConfig(doc).Update(current.RouteName, patch.RouteMatch)
		return nil
	})
}

func (m *RestServiceModel) UpdateRestConfig(ctx context.Context, original *RestServiceDescriptor, patch RestServicePatch) (*RestServiceDescriptor, error) {
	return m.update(ctx, original.ControllerServiceName, patch, func(doc *confdoc.Map, current *RestServiceDescriptor) error {
		return NewRestConfig(doc).Update(current.ControllerServiceName, patch)
	})
}

func (m *RestServiceModel) UpdateContentNegotiationConfig(ctx context.Context, original *RestServiceDescriptor, patch RestServicePatch) (*RestServiceDescriptor, error) {
	return m.update(ctx, original.ControllerServiceName, patch, func(doc *confdoc.Map, current *RestServiceDescriptor) error {
		NewContentNegotiationConfig(doc).Update(current.ControllerServiceName, patch)
		return nil
	})
}

func (m *RestServiceModel) UpdateHalConfig(ctx context.Context, original *RestServiceDescriptor, patch RestServicePatch) (*RestServiceDescriptor, error) {
	return m.update(ctx, original.ControllerServiceName, patch, func(doc *confdoc.Map, current *RestServiceDescriptor) error {
		return NewHalConfig(doc).Update(current, patch)
	})
}

// UpdateService applies the route, REST, content negotiation and HAL
// updates of patch in one write and fetches the result.
func (m *RestServiceModel) UpdateService(ctx context.Context, patch RestServicePatch) (*RestServiceDescriptor, error) {
	controller := patch.ControllerServiceName

	_, err := m.update(ctx, controller, patch, func(doc *confdoc.Map, current *RestServiceDescriptor) error {
		NewRouteConfig(doc).Update(current.RouteName, patch.RouteMatch)
		if err := NewRestConfig(doc).Update(controller, patch); err != nil {
			return err
		}
		NewContentNegotiationConfig(doc).Update(controller, patch)
		return NewHalConfig(doc).Update(current, patch)
	})
	if err != nil {
		return nil, err
	}

	return m.Fetch(ctx, controller)
}

// DeleteService removes the service from every configuration section. The
// route and its versioning entry are kept while another version of the
// service still exists; the route then dispatches to the newest remaining
// version. Generated classes of the service are deleted, the whole
// directory tree only when recursive is set.
func (m *RestServiceModel) DeleteService(ctx context.Context, controller string, recursive bool) (bool, error) {
	parsed, parseErr := parseController(controller)

	var deleted *RestServiceDescriptor
	_, err := m.edit(ctx, func(doc *confdoc.Map) error {
		d, err := m.assemble(doc, controller)
		if err != nil {
			return err
		}
		deleted = d

		keepRoute := false
		if parseErr == nil {
			keepRoute, err = m.versions.ServiceExistsInOtherVersion(ctx, parsed.Service, parsed.Version)
			if err != nil {
				return fmt.Errorf("failed to look up other versions of %s: %w", controller, err)
			}
		}

		rest := NewRestConfig(doc)
		rest.Remove(controller)
		NewContentNegotiationConfig(doc).Remove(controller)

		var unused []string
		for _, class := range []string{d.ResourceClass, d.EntityClass, d.CollectionClass} {
			if class != "" && !rest.ReferencesClass(class, "") {
				unused = append(unused, class)
			}
		}
		NewHalConfig(doc).Remove(unused...)
		NewServiceFactoryConfig(doc).Remove(unused...)

		routes := NewRouteConfig(doc)
		users := rest.RouteUsers(d.RouteName, "")
		switch {
		case len(users) > 0:
			routes.Rebind(d.RouteName, controller, newestController(users))
		case !keepRoute:
			routes.Remove(d.RouteName)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if parseErr == nil && parsed.Module == m.module.Name {
		ns := naming.ServiceNamespace(parsed.Module, parsed.Version, parsed.Service)
		if err := m.generator.DeleteArtifacts(ctx, ns, recursive); err != nil {
			return false, err
		}
	}

	m.logger.Info("deleted REST service", "controller", controller, "recursive", recursive)
	m.events.notify(ctx, EventDeleted, deleted)
	return true, nil
}

// newestController picks the controller with the highest version.
func newestController(controllers []string) string {
	newest, best := controllers[0], -1
	for _, c := range controllers {
		parsed, err := parseController(c)
		if err != nil {
			continue
		}
		if parsed.Version > best {
			newest, best = c, parsed.Version
		}
	}
	return newest
}

func listOr(v, fallback []string) []string {
	if v == nil {
		return slices.Clone(fallback)
	}
	return slices.Clone(v)
}

func stringsAt(m *confdoc.Map, key string) []string {
	v, ok := m.Strings(key)
	if !ok {
		return []string{}
	}
	return v
}
