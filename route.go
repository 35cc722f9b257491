package apiforge

import (
	"slices"

	"github.com/tailbits/apiforge/confdoc"
)

// RouteConfig edits router.routes and the versioning.uri list.
type RouteConfig struct {
	doc *confdoc.Map
}

func NewRouteConfig(doc *confdoc.Map) RouteConfig {
	return RouteConfig{doc: doc}
}

func (c RouteConfig) routes() *confdoc.Map {
	return c.doc.EnsurePath(sectionRouter, "routes")
}

// Route returns the route entry, or nil.
func (c RouteConfig) Route(routeName string) *confdoc.Map {
	return c.doc.MapPath(sectionRouter, "routes", routeName)
}

// Match returns the literal route string.
func (c RouteConfig) Match(routeName string) string {
	return c.Route(routeName).MapAt("options").String("route")
}

// Controller returns the controller the route dispatches to by default.
func (c RouteConfig) Controller(routeName string) string {
	return c.Route(routeName).MapPath("options", "defaults").String("controller")
}

// CheckOwner fails when routeName is bound to a controller of another
// service. Versions of the same service may share a route.
func (c RouteConfig) CheckOwner(routeName, controller string) error {
	owner := c.Controller(routeName)
	if owner == "" || owner == controller {
		return nil
	}
	if sameService(owner, controller) {
		return nil
	}
	return &RouteConflictError{RouteName: routeName, Controller: controller, Owner: owner}
}

// Create binds routeName to controller and registers it as version aware.
// Options already present on the route are kept.
func (c RouteConfig) Create(routeName, route, controller string) error {
	if err := c.CheckOwner(routeName, controller); err != nil {
		return err
	}

	entry := c.routes().EnsureMap(routeName)
	entry.Set("type", "Segment")
	options := entry.EnsureMap("options")
	options.Set("route", route)
	options.EnsureMap("defaults").Set("controller", controller)

	c.addVersionedURI(routeName)
	return nil
}

// Update rewrites only the route string.
func (c RouteConfig) Update(routeName, route string) {
	if route == "" {
		return
	}
	c.routes().EnsureMap(routeName).EnsureMap("options").Set("route", route)
}

// Rebind points the default controller of routeName from one controller to
// another. It does nothing when the route dispatches elsewhere.
func (c RouteConfig) Rebind(routeName, from, to string) {
	defaults := c.Route(routeName).MapPath("options", "defaults")
	if defaults == nil || defaults.String("controller") != from {
		return
	}
	defaults.Set("controller", to)
}

// Remove deletes the route and its versioning entry. Missing keys are
// tolerated.
func (c RouteConfig) Remove(routeName string) {
	c.doc.MapPath(sectionRouter, "routes").Delete(routeName)

	versioning := c.doc.MapAt(sectionVersioning)
	uris, ok := versioning.Strings("uri")
	if !ok {
		return
	}
	versioning.Set("uri", slices.DeleteFunc(uris, func(u string) bool { return u == routeName }))
}

// VersionedURIs lists the route names registered as version aware.
func (c RouteConfig) VersionedURIs() []string {
	uris, _ := c.doc.MapAt(sectionVersioning).Strings("uri")
	return uris
}

func (c RouteConfig) addVersionedURI(routeName string) {
	versioning := c.doc.EnsureMap(sectionVersioning)
	uris, _ := versioning.Strings("uri")
	if slices.Contains(uris, routeName) {
		return
	}
	versioning.Set("uri", append(uris, routeName))
}

func sameService(a, b string) bool {
	ca, err := parseController(a)
	if err != nil {
		return false
	}
	cb, err := parseController(b)
	if err != nil {
		return false
	}
	return ca.Module == cb.Module && ca.Service == cb.Service
}
