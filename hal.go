package apiforge

import (
	"github.com/tailbits/apiforge/confdoc"
)

const defaultEntityIdentifierName = "id"

// HalConfig edits hal.metadata_map entries keyed by entity and collection
// class.
type HalConfig struct {
	doc *confdoc.Map
}

func NewHalConfig(doc *confdoc.Map) HalConfig {
	return HalConfig{doc: doc}
}

// Metadata returns the entry of class, or nil.
func (c HalConfig) Metadata(class string) *confdoc.Map {
	return c.doc.MapPath(sectionHal, "metadata_map", class)
}

func (c HalConfig) Create(d *RestServiceDescriptor) {
	entity := c.doc.EnsurePath(sectionHal, "metadata_map", d.EntityClass)
	entity.Set("entity_identifier_name", d.EntityIdentifierName)
	entity.Set("route_name", d.RouteName)
	entity.Set("route_identifier_name", d.RouteIdentifierName)
	if d.HydratorName != "" {
		entity.Set("hydrator", d.HydratorName)
	}

	collection := c.doc.EnsurePath(sectionHal, "metadata_map", d.CollectionClass)
	collection.Set("entity_identifier_name", d.EntityIdentifierName)
	collection.Set("route_name", d.RouteName)
	collection.Set("route_identifier_name", d.RouteIdentifierName)
	collection.Set("is_collection", true)
}

// Update merges the patch into the entity and collection entries. Keys the
// patch does not name keep their values. A renamed class gets a new entry
// seeded from the old one; the old entry stays until the service is deleted.
func (c HalConfig) Update(original *RestServiceDescriptor, p RestServicePatch) error {
	entity, err := c.forward(original.EntityClass, firstNonEmpty(p.EntityClass, original.EntityClass), original)
	if err != nil {
		return err
	}
	collection, err := c.forward(original.CollectionClass, firstNonEmpty(p.CollectionClass, original.CollectionClass), original)
	if err != nil {
		return err
	}
	if !collection.Has("is_collection") {
		collection.Set("is_collection", true)
	}

	for _, entry := range []*confdoc.Map{entity, collection} {
		setString(entry, "route_name", p.RouteName)
		setString(entry, "route_identifier_name", p.RouteIdentifierName)
		setString(entry, "entity_identifier_name", p.EntityIdentifierName)
	}
	setString(entity, "hydrator", p.HydratorName)
	return nil
}

func (c HalConfig) forward(from, to string, original *RestServiceDescriptor) (*confdoc.Map, error) {
	if to == "" {
		return confdoc.New(), nil
	}

	entry := c.doc.EnsurePath(sectionHal, "metadata_map", to)
	if from != to {
		if err := confdoc.Merge(entry, c.Metadata(from), confdoc.KeepExisting); err != nil {
			return nil, err
		}
	}
	if !entry.Has("route_name") {
		entry.Set("route_name", original.RouteName)
	}
	return entry, nil
}

// Remove deletes the entry of each class. Missing entries are tolerated.
func (c HalConfig) Remove(classes ...string) {
	metadata := c.doc.MapPath(sectionHal, "metadata_map")
	for _, class := range classes {
		metadata.Delete(class)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
