package apiforge

import (
	"fmt"

	"github.com/tailbits/apiforge/generator"
	"github.com/tailbits/apiforge/naming"
)

// InvalidServiceNameError reports a service name that cannot be turned
// into identifiers.
type InvalidServiceNameError = naming.InvalidServiceNameError

// FileConflictError reports a generated file that already exists with
// different content.
type FileConflictError = generator.ConflictError

// CreationError is returned by CreateService when the payload is rejected
// before anything is written.
type CreationError struct {
	ServiceName string
	Err         error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("unable to create REST service %q: %v", e.ServiceName, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when a controller service has no REST entry.
type NotFoundError struct {
	ControllerServiceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find REST resource by name %q", e.ControllerServiceName)
}

// RouteConflictError is returned when a derived route name is already bound
// to a different service.
type RouteConflictError struct {
	RouteName  string
	Controller string
	Owner      string
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("route %q is already bound to %q and cannot serve %q", e.RouteName, e.Owner, e.Controller)
}

// VersionExistsError is returned when creating a version the module already has.
type VersionExistsError struct {
	Module  string
	Version int
}

func (e *VersionExistsError) Error() string {
	return fmt.Sprintf("module %s already has version %d", e.Module, e.Version)
}

// ConfigWriteError wraps a failure of the configuration store. Generated
// files written by the same operation are not rolled back.
type ConfigWriteError struct {
	Module string
	Err    error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("failed to persist configuration of module %s: %v", e.Module, e.Err)
}

func (e *ConfigWriteError) Unwrap() error {
	return e.Err
}
