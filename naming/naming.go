// Package naming derives every identifier of a REST service from the module
// name, the API version and the human supplied service name.
//
// All functions are pure. Given the same input they return the same output,
// which lets update operations re-derive names safely.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tailbits/apiforge/internal/casing"
)

// Separator splits namespace segments of service and class names.
const Separator = `\`

var segmentPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reserved words of the host language; a namespace segment named after one
// cannot be declared.
var reserved = map[string]bool{
	"abstract": true, "and": true, "array": true, "as": true, "break": true,
	"callable": true, "case": true, "catch": true, "class": true, "clone": true,
	"const": true, "continue": true, "declare": true, "default": true, "do": true,
	"echo": true, "else": true, "elseif": true, "empty": true, "enum": true,
	"eval": true, "exit": true, "extends": true, "final": true, "finally": true,
	"fn": true, "for": true, "foreach": true, "function": true, "global": true,
	"goto": true, "if": true, "implements": true, "include": true,
	"instanceof": true, "insteadof": true, "interface": true, "isset": true,
	"list": true, "match": true, "namespace": true, "new": true, "or": true,
	"print": true, "private": true, "protected": true, "public": true,
	"readonly": true, "require": true, "return": true, "static": true,
	"switch": true, "throw": true, "trait": true, "try": true, "unset": true,
	"use": true, "var": true, "while": true, "xor": true, "yield": true,
}

// InvalidServiceNameError reports a service name that cannot be turned into
// class and route identifiers.
type InvalidServiceNameError struct {
	Name   string
	Reason string
}

func (e *InvalidServiceNameError) Error() string {
	return fmt.Sprintf("invalid service name %q: %s", e.Name, e.Reason)
}

// ValidateServiceName checks name against the identifier rules.
func ValidateServiceName(name string) error {
	if name == "" {
		return &InvalidServiceNameError{Name: name, Reason: "name is empty"}
	}
	if strings.ContainsAny(name, " \t:/") {
		return &InvalidServiceNameError{Name: name, Reason: "spaces, colons and slashes are not allowed"}
	}

	for _, segment := range strings.Split(name, Separator) {
		if segment == "" {
			return &InvalidServiceNameError{Name: name, Reason: "empty namespace segment"}
		}
		if !segmentPattern.MatchString(segment) {
			return &InvalidServiceNameError{Name: name, Reason: fmt.Sprintf("segment %q must start with a letter and contain only letters, digits and underscores", segment)}
		}
		if reserved[strings.ToLower(segment)] {
			return &InvalidServiceNameError{Name: name, Reason: fmt.Sprintf("segment %q is a reserved word", segment)}
		}
	}

	return nil
}

// Normalize upper-cases the first letter of every namespace segment.
func Normalize(serviceName string) string {
	segments := strings.Split(serviceName, Separator)
	for i, s := range segments {
		segments[i] = casing.UpperFirst(s)
	}
	return strings.Join(segments, Separator)
}

// LastSegment returns the trailing namespace segment, upper-cased first.
func LastSegment(serviceName string) string {
	segments := strings.Split(serviceName, Separator)
	return casing.UpperFirst(segments[len(segments)-1])
}

// VersionNamespace is the root namespace of one API version of a module.
func VersionNamespace(module string, version int) string {
	return module + Separator + "V" + strconv.Itoa(version)
}

// ServiceNamespace is the namespace holding every class of one REST service.
func ServiceNamespace(module string, version int, serviceName string) string {
	return strings.Join([]string{VersionNamespace(module, version), "Rest", Normalize(serviceName)}, Separator)
}

// ControllerServiceName returns the key joining all configuration sections of
// the service.
func ControllerServiceName(module string, version int, serviceName string) (string, error) {
	if err := ValidateServiceName(serviceName); err != nil {
		return "", err
	}
	return ServiceNamespace(module, version, serviceName) + Separator + "Controller", nil
}

func ResourceClass(module string, version int, serviceName string) string {
	return classIn(module, version, serviceName, "Resource")
}

func EntityClass(module string, version int, serviceName string) string {
	return classIn(module, version, serviceName, "Entity")
}

func CollectionClass(module string, version int, serviceName string) string {
	return classIn(module, version, serviceName, "Collection")
}

// FactoryClass names the factory building class.
func FactoryClass(class string) string {
	return class + "Factory"
}

func classIn(module string, version int, serviceName, suffix string) string {
	return ServiceNamespace(module, version, serviceName) + Separator + LastSegment(serviceName) + suffix
}

// RouteName derives the router key, e.g. BarConf + FooBar -> bar-conf.rest.foo-bar.
func RouteName(module, serviceName string) string {
	module = strings.ReplaceAll(module, Separator, "")
	return casing.ToKebabCase(module) + ".rest." + casing.ToKebabCase(LastSegment(serviceName))
}

// RouteMatch appends the optional identifier segment to a literal URI.
func RouteMatch(routeMatch, routeIdentifierName string) string {
	if routeIdentifierName == "" {
		return routeMatch
	}
	return fmt.Sprintf("%s[/:%s]", strings.TrimSuffix(routeMatch, "/"), routeIdentifierName)
}

// DefaultRouteMatch is used when the caller supplies no URI.
func DefaultRouteMatch(serviceName string) string {
	return "/" + casing.ToKebabCase(LastSegment(serviceName))
}

func DefaultRouteIdentifierName(serviceName string) string {
	return casing.ToSnakeCase(LastSegment(serviceName)) + "_id"
}

func DefaultCollectionName(serviceName string) string {
	return casing.ToSnakeCase(LastSegment(serviceName))
}

// MediaType is the vendor media type of a module version,
// e.g. application/vnd.bar-conf.v1+json.
func MediaType(module string, version int) string {
	module = strings.ReplaceAll(module, Separator, "")
	return fmt.Sprintf("application/vnd.%s.v%d+json", casing.ToKebabCase(module), version)
}

func DefaultAcceptWhitelist(module string, version int) []string {
	return []string{MediaType(module, version), "application/hal+json", "application/json"}
}

func DefaultContentTypeWhitelist(module string, version int) []string {
	return []string{MediaType(module, version), "application/json"}
}

// ControllerName is a parsed controller service name.
type ControllerName struct {
	Module  string
	Version int
	Service string
}

var controllerPattern = regexp.MustCompile(`^(.+)\\V([0-9]+)\\Rest\\(.+)\\Controller$`)

// ParseControllerServiceName splits a controller service name into module,
// version and normalized service path.
func ParseControllerServiceName(name string) (ControllerName, error) {
	m := controllerPattern.FindStringSubmatch(name)
	if m == nil {
		return ControllerName{}, fmt.Errorf("%q is not a versioned REST controller service name", name)
	}

	version, err := strconv.Atoi(m[2])
	if err != nil {
		return ControllerName{}, fmt.Errorf("version of %q: %w", name, err)
	}

	return ControllerName{Module: m[1], Version: version, Service: m[3]}, nil
}

// String rebuilds the controller service name.
func (c ControllerName) String() string {
	return ServiceNamespace(c.Module, c.Version, c.Service) + Separator + "Controller"
}

// WithVersion returns the same service under another version.
func (c ControllerName) WithVersion(version int) ControllerName {
	c.Version = version
	return c
}
