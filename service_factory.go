package apiforge

import (
	"github.com/tailbits/apiforge/confdoc"
	"github.com/tailbits/apiforge/naming"
)

// ServiceFactoryConfig edits service_manager.factories.
type ServiceFactoryConfig struct {
	doc *confdoc.Map
}

func NewServiceFactoryConfig(doc *confdoc.Map) ServiceFactoryConfig {
	return ServiceFactoryConfig{doc: doc}
}

// Register binds class to its factory class.
func (c ServiceFactoryConfig) Register(class string) string {
	factory := naming.FactoryClass(class)
	c.doc.EnsurePath(sectionServiceManager, "factories").Set(class, factory)
	return factory
}

func (c ServiceFactoryConfig) Factory(class string) string {
	return c.doc.MapPath(sectionServiceManager, "factories").String(class)
}

// Remove unbinds each class. Missing bindings are tolerated.
func (c ServiceFactoryConfig) Remove(classes ...string) {
	factories := c.doc.MapPath(sectionServiceManager, "factories")
	for _, class := range classes {
		factories.Delete(class)
	}
}
