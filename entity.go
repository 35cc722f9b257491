package apiforge

import (
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/tailbits/apiforge/model"
)

// ModuleEntity identifies the host module services are scaffolded into.
type ModuleEntity struct {
	Name string
	// Path is the module root directory. It also keys the module in the
	// configuration store.
	Path string
	// Versions in ascending order. New services target the latest.
	Versions []int
}

func NewModuleEntity(name, path string, versions ...int) *ModuleEntity {
	if len(versions) == 0 {
		versions = []int{1}
	}
	versions = slices.Clone(versions)
	slices.Sort(versions)
	return &ModuleEntity{Name: name, Path: path, Versions: slices.Compact(versions)}
}

func (m *ModuleEntity) LatestVersion() int {
	if len(m.Versions) == 0 {
		return 1
	}
	return m.Versions[len(m.Versions)-1]
}

func (m *ModuleEntity) HasVersion(v int) bool {
	return slices.Contains(m.Versions, v)
}

func (m *ModuleEntity) addVersion(v int) {
	if m.HasVersion(v) {
		return
	}
	m.Versions = append(m.Versions, v)
	slices.Sort(m.Versions)
}

// NewRestServiceSpec is the payload of CreateService. Nil lists and empty
// strings take the derived defaults; a non-nil empty list is kept empty.
type NewRestServiceSpec struct {
	ServiceName              string   `json:"service_name" yaml:"service_name" required:"true" minLength:"1" validate:"required"`
	RouteMatch               string   `json:"route_match,omitempty" yaml:"route_match,omitempty"`
	RouteIdentifierName      string   `json:"route_identifier_name,omitempty" yaml:"route_identifier_name,omitempty"`
	EntityIdentifierName     string   `json:"entity_identifier_name,omitempty" yaml:"entity_identifier_name,omitempty"`
	CollectionName           string   `json:"collection_name,omitempty" yaml:"collection_name,omitempty"`
	EntityHTTPMethods        []string `json:"entity_http_methods,omitempty" yaml:"entity_http_methods,omitempty" validate:"omitempty,dive,httpmethod"`
	CollectionHTTPMethods    []string `json:"collection_http_methods,omitempty" yaml:"collection_http_methods,omitempty" validate:"omitempty,dive,httpmethod"`
	CollectionQueryWhitelist []string `json:"collection_query_whitelist,omitempty" yaml:"collection_query_whitelist,omitempty"`
	PageSize                 *int     `json:"page_size,omitempty" yaml:"page_size,omitempty" validate:"omitempty,min=-1"`
	PageSizeParam            string   `json:"page_size_param,omitempty" yaml:"page_size_param,omitempty"`
	Selector                 string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	AcceptWhitelist          []string `json:"accept_whitelist,omitempty" yaml:"accept_whitelist,omitempty" validate:"omitempty,dive,mediatype"`
	ContentTypeWhitelist     []string `json:"content_type_whitelist,omitempty" yaml:"content_type_whitelist,omitempty" validate:"omitempty,dive,mediatype"`
	HydratorName             string   `json:"hydrator_name,omitempty" yaml:"hydrator_name,omitempty"`
	// EntityClass and CollectionClass replace the generated classes.
	EntityClass     string `json:"entity_class,omitempty" yaml:"entity_class,omitempty"`
	CollectionClass string `json:"collection_class,omitempty" yaml:"collection_class,omitempty"`
}

// RestServiceDescriptor is a scaffolded service as assembled from the five
// configuration sections. ControllerServiceName joins them.
type RestServiceDescriptor struct {
	Module                   string   `json:"module" yaml:"module"`
	ServiceName              string   `json:"service_name" yaml:"service_name"`
	ControllerServiceName    string   `json:"controller_service_name" yaml:"controller_service_name"`
	ResourceClass            string   `json:"resource_class" yaml:"resource_class"`
	EntityClass              string   `json:"entity_class" yaml:"entity_class"`
	CollectionClass          string   `json:"collection_class" yaml:"collection_class"`
	RouteName                string   `json:"route_name" yaml:"route_name"`
	RouteMatch               string   `json:"route_match" yaml:"route_match"`
	RouteIdentifierName      string   `json:"route_identifier_name" yaml:"route_identifier_name"`
	EntityIdentifierName     string   `json:"entity_identifier_name" yaml:"entity_identifier_name"`
	CollectionName           string   `json:"collection_name" yaml:"collection_name"`
	EntityHTTPMethods        []string `json:"entity_http_methods" yaml:"entity_http_methods"`
	CollectionHTTPMethods    []string `json:"collection_http_methods" yaml:"collection_http_methods"`
	CollectionQueryWhitelist []string `json:"collection_query_whitelist" yaml:"collection_query_whitelist"`
	PageSize                 int      `json:"page_size" yaml:"page_size"`
	PageSizeParam            string   `json:"page_size_param,omitempty" yaml:"page_size_param,omitempty"`
	Selector                 string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	AcceptWhitelist          []string `json:"accept_whitelist" yaml:"accept_whitelist"`
	ContentTypeWhitelist     []string `json:"content_type_whitelist" yaml:"content_type_whitelist"`
	HydratorName             string   `json:"hydrator_name,omitempty" yaml:"hydrator_name,omitempty"`
}

// Version returns the API version encoded in the controller service name,
// or 0 when it has none.
func (d *RestServiceDescriptor) Version() int {
	c, err := parseController(d.ControllerServiceName)
	if err != nil {
		return 0
	}
	return c.Version
}

// RestServicePatch updates an existing service. Empty strings and nil
// lists leave the stored value alone; a non-nil empty list clears it.
type RestServicePatch struct {
	ControllerServiceName    string   `json:"controller_service_name" yaml:"controller_service_name" required:"true" minLength:"1" validate:"required"`
	RouteMatch               string   `json:"route_match,omitempty" yaml:"route_match,omitempty"`
	RouteIdentifierName      string   `json:"route_identifier_name,omitempty" yaml:"route_identifier_name,omitempty"`
	EntityIdentifierName     string   `json:"entity_identifier_name,omitempty" yaml:"entity_identifier_name,omitempty"`
	CollectionName           string   `json:"collection_name,omitempty" yaml:"collection_name,omitempty"`
	EntityHTTPMethods        []string `json:"entity_http_methods,omitempty" yaml:"entity_http_methods,omitempty" validate:"omitempty,dive,httpmethod"`
	CollectionHTTPMethods    []string `json:"collection_http_methods,omitempty" yaml:"collection_http_methods,omitempty" validate:"omitempty,dive,httpmethod"`
	CollectionQueryWhitelist []string `json:"collection_query_whitelist,omitempty" yaml:"collection_query_whitelist,omitempty"`
	PageSize                 *int     `json:"page_size,omitempty" yaml:"page_size,omitempty" validate:"omitempty,min=-1"`
	PageSizeParam            string   `json:"page_size_param,omitempty" yaml:"page_size_param,omitempty"`
	Selector                 string   `json:"selector,omitempty" yaml:"selector,omitempty"`
	AcceptWhitelist          []string `json:"accept_whitelist,omitempty" yaml:"accept_whitelist,omitempty" validate:"omitempty,dive,mediatype"`
	ContentTypeWhitelist     []string `json:"content_type_whitelist,omitempty" yaml:"content_type_whitelist,omitempty" validate:"omitempty,dive,mediatype"`
	HydratorName             string   `json:"hydrator_name,omitempty" yaml:"hydrator_name,omitempty"`
	EntityClass              string   `json:"entity_class,omitempty" yaml:"entity_class,omitempty"`
	CollectionClass          string   `json:"collection_class,omitempty" yaml:"collection_class,omitempty"`
	// RouteName only changes the route HAL links are generated against.
	RouteName string `json:"route_name,omitempty" yaml:"route_name,omitempty"`
}

var (
	mediaTypePattern = regexp.MustCompile(`^[A-Za-z0-9][\w.+-]*/[\w.+*-]+$`)
	httpMethods      = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
		return mediaTypePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("httpmethod", func(fl validator.FieldLevel) bool {
		return slices.Contains(httpMethods, fl.Field().String())
	})
	return v
}

var structValidator = newValidator()

// validateStruct runs the struct tag rules and reports violations as a
// model.ValidationError.
func validateStruct(v any) error {
	if err := structValidator.Struct(v); err != nil {
		return model.FromValidatorErrors(err)
	}
	return nil
}
