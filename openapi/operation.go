package openapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/tailbits/apiforge"
	"github.com/tailbits/apiforge/model"
	"github.com/tailbits/apiforge/naming"
)

var successCodes = map[string]int{
	http.MethodPost:   http.StatusCreated,
	http.MethodPut:    http.StatusOK,
	http.MethodPatch:  http.StatusOK,
	http.MethodDelete: http.StatusOK,
	http.MethodGet:    http.StatusOK,
}

// DefaultSuccessCode returns the status of a successful call. Operations
// without a response body answer 204.
func DefaultSuccessCode(method string, output model.WithSchema) int {
	if _, ok := output.(model.Nil); ok || output == nil {
		return http.StatusNoContent
	}
	return successCodes[method]
}

var (
	optionalIdentifier = regexp.MustCompile(`\[/:([A-Za-z_][A-Za-z0-9_]*)\]$`)
	segmentParam       = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)
)

// Paths splits a route match such as /api/foo[/:foo_id] into the collection
// path /api/foo and the entity path /api/foo/{foo_id}. Other :param
// segments become path parameters of both.
func Paths(routeMatch, routeIdentifierName string) (collection, entity string) {
	collection = optionalIdentifier.ReplaceAllString(routeMatch, "")
	collection = segmentParam.ReplaceAllString(collection, "{$1}")
	collection = strings.NewReplacer("[", "", "]", "").Replace(collection)
	if collection == "" {
		collection = "/"
	}

	ident := routeIdentifierName
	if m := optionalIdentifier.FindStringSubmatch(routeMatch); m != nil {
		ident = m[1]
	}
	entity = strings.TrimSuffix(collection, "/") + "/{" + ident + "}"
	return collection, entity
}

// operationsFor lists the operations of one service, collection methods
// first.
func operationsFor(d *apiforge.RestServiceDescriptor) []Record {
	collectionPath, entityPath := Paths(d.RouteMatch, d.RouteIdentifierName)
	entity := entityModel(d, collectionPath)
	collection := collectionModel(d, collectionPath)
	service := naming.LastSegment(d.ServiceName)

	base := Record{
		Controller:   d.ControllerServiceName,
		Tags:         []string{service},
		RequestType:  first(d.ContentTypeWhitelist, "application/json"),
		ResponseType: responseType(d),
	}

	var records []Record
	for _, method := range d.CollectionHTTPMethods {
		r := base
		r.Method = method
		r.Path = collectionPath
		switch method {
		case http.MethodGet:
			r.ID = "fetchAll" + service
			r.Summary = "List " + d.CollectionName
			r.AddOutputModel(collection)
			for _, param := range d.CollectionQueryWhitelist {
				r.AddQueryParams(QueryParam{Name: param, Type: "string"})
			}
			r.AddQueryParams(QueryParam{Name: "page", Type: "integer", Description: "Page of the collection to return."})
			if d.PageSizeParam != "" {
				r.AddQueryParams(QueryParam{Name: d.PageSizeParam, Type: "integer", Description: "Number of items per page."})
			}
		case http.MethodPost:
			r.ID = "create" + service
			r.Summary = "Create a " + service
			r.AddInputModel(entity)
			r.AddOutputModel(entity)
		case http.MethodDelete:
			r.ID = "deleteList" + service
			r.Summary = "Delete " + d.CollectionName
			r.AddOutputModel(model.Nil{})
		default:
			r.ID = strings.ToLower(method) + "List" + service
			r.Summary = "Update " + d.CollectionName
			r.AddInputModel(collection)
			r.AddOutputModel(collection)
		}
		r.SuccessStatus = DefaultSuccessCode(method, r.Output.WithSchema)
		records = append(records, r)
	}

	for _, method := range d.EntityHTTPMethods {
		r := base
		r.Method = method
		r.Path = entityPath
		switch method {
		case http.MethodGet:
			r.ID = "fetch" + service
			r.Summary = "Fetch a " + service
			r.AddOutputModel(entity)
		case http.MethodDelete:
			r.ID = "delete" + service
			r.Summary = "Delete a " + service
			r.AddOutputModel(model.Nil{})
		case http.MethodPut:
			r.ID = "update" + service
			r.Summary = "Replace a " + service
			r.AddInputModel(entity)
			r.AddOutputModel(entity)
		default:
			r.ID = strings.ToLower(method) + service
			r.Summary = "Update a " + service
			r.AddInputModel(entity)
			r.AddOutputModel(entity)
		}
		r.SuccessStatus = DefaultSuccessCode(method, r.Output.WithSchema)
		records = append(records, r)
	}

	return records
}

func responseType(d *apiforge.RestServiceDescriptor) string {
	if d.Selector == "HalJson" {
		return "application/hal+json"
	}
	return first(d.AcceptWhitelist, "application/json")
}

func first(values []string, fallback string) string {
	for _, v := range values {
		if !strings.Contains(v, "*") {
			return v
		}
	}
	return fallback
}
