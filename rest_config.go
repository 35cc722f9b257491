package apiforge

import (
	"github.com/tailbits/apiforge/confdoc"
)

// RestConfig edits the REST dispatch entries keyed by controller service name.
type RestConfig struct {
	doc *confdoc.Map
}

func NewRestConfig(doc *confdoc.Map) RestConfig {
	return RestConfig{doc: doc}
}

// Entry returns the dispatch entry of controller, or nil.
func (c RestConfig) Entry(controller string) *confdoc.Map {
	return c.doc.MapPath(sectionRest, controller)
}

// Controllers lists every controller with a dispatch entry, in document order.
func (c RestConfig) Controllers() []string {
	return c.doc.MapAt(sectionRest).Keys()
}

func (c RestConfig) Create(d *RestServiceDescriptor) {
	entry := c.doc.EnsurePath(sectionRest, d.ControllerServiceName)
	entry.Set("service_name", d.ServiceName)
	entry.Set("listener", d.ResourceClass)
	entry.Set("route_name", d.RouteName)
	entry.Set("route_identifier_name", d.RouteIdentifierName)
	entry.Set("collection_name", d.CollectionName)
	entry.Set("entity_http_methods", d.EntityHTTPMethods)
	entry.Set("collection_http_methods", d.CollectionHTTPMethods)
	entry.Set("collection_query_whitelist", d.CollectionQueryWhitelist)
	entry.Set("page_size", d.PageSize)
	entry.Set("page_size_param", d.PageSizeParam)
	entry.Set("entity_class", d.EntityClass)
	entry.Set("collection_class", d.CollectionClass)
}

// Update merges the patch into the entry of controller. Lists present in
// the patch replace the stored lists, including with an empty list.
func (c RestConfig) Update(controller string, p RestServicePatch) error {
	entry := c.Entry(controller)
	if entry == nil {
		return &NotFoundError{ControllerServiceName: controller}
	}

	setString(entry, "route_identifier_name", p.RouteIdentifierName)
	setString(entry, "collection_name", p.CollectionName)
	setList(entry, "entity_http_methods", p.EntityHTTPMethods)
	setList(entry, "collection_http_methods", p.CollectionHTTPMethods)
	setList(entry, "collection_query_whitelist", p.CollectionQueryWhitelist)
	if p.PageSize != nil {
		entry.Set("page_size", *p.PageSize)
	}
	setString(entry, "page_size_param", p.PageSizeParam)
	setString(entry, "entity_class", p.EntityClass)
	setString(entry, "collection_class", p.CollectionClass)
	return nil
}

// Remove deletes the entry and reports whether it existed.
func (c RestConfig) Remove(controller string) bool {
	return c.doc.MapAt(sectionRest).Delete(controller)
}

// ReferencesRoute reports whether any controller other than except
// dispatches through routeName.
func (c RestConfig) ReferencesRoute(routeName, except string) bool {
	return len(c.RouteUsers(routeName, except)) > 0
}

// RouteUsers lists the controllers other than except bound to routeName.
func (c RestConfig) RouteUsers(routeName, except string) []string {
	var users []string
	rest := c.doc.MapAt(sectionRest)
	for _, controller := range rest.Keys() {
		if controller == except {
			continue
		}
		if rest.MapAt(controller).String("route_name") == routeName {
			users = append(users, controller)
		}
	}
	return users
}

// ReferencesClass reports whether a controller other than except uses class
// as resource, entity or collection.
func (c RestConfig) ReferencesClass(class, except string) bool {
	rest := c.doc.MapAt(sectionRest)
	for _, controller := range rest.Keys() {
		if controller == except {
			continue
		}
		entry := rest.MapAt(controller)
		for _, key := range []string{"listener", "entity_class", "collection_class"} {
			if entry.String(key) == class {
				return true
			}
		}
	}
	return false
}

func setString(m *confdoc.Map, key, value string) {
	if value != "" {
		m.Set(key, value)
	}
}

func setList(m *confdoc.Map, key string, value []string) {
	if value != nil {
		m.Set(key, value)
	}
}
