package apiforge

import (
	"github.com/tailbits/apiforge/confdoc"
)

// ContentNegotiationConfig edits the selector and the two whitelist maps,
// all keyed by controller service name.
type ContentNegotiationConfig struct {
	doc *confdoc.Map
}

func NewContentNegotiationConfig(doc *confdoc.Map) ContentNegotiationConfig {
	return ContentNegotiationConfig{doc: doc}
}

func (c ContentNegotiationConfig) section() *confdoc.Map {
	return c.doc.EnsureMap(sectionContentNegotiation)
}

func (c ContentNegotiationConfig) Create(controller, selector string, accept, contentType []string) {
	s := c.section()
	s.EnsureMap("controllers").Set(controller, selector)
	s.EnsureMap("accept_whitelist").Set(controller, accept)
	s.EnsureMap("content_type_whitelist").Set(controller, contentType)
}

// Update overwrites the values present in the patch.
func (c ContentNegotiationConfig) Update(controller string, p RestServicePatch) {
	s := c.section()
	setString(s.EnsureMap("controllers"), controller, p.Selector)
	setList(s.EnsureMap("accept_whitelist"), controller, p.AcceptWhitelist)
	setList(s.EnsureMap("content_type_whitelist"), controller, p.ContentTypeWhitelist)
}

// Remove deletes controller from each map independently.
func (c ContentNegotiationConfig) Remove(controller string) {
	s := c.doc.MapAt(sectionContentNegotiation)
	for _, key := range []string{"controllers", "accept_whitelist", "content_type_whitelist"} {
		s.MapAt(key).Delete(controller)
	}
}

func (c ContentNegotiationConfig) Selector(controller string) string {
	return c.doc.MapPath(sectionContentNegotiation, "controllers").String(controller)
}

func (c ContentNegotiationConfig) AcceptWhitelist(controller string) ([]string, bool) {
	return c.doc.MapPath(sectionContentNegotiation, "accept_whitelist").Strings(controller)
}

func (c ContentNegotiationConfig) ContentTypeWhitelist(controller string) ([]string, bool) {
	return c.doc.MapPath(sectionContentNegotiation, "content_type_whitelist").Strings(controller)
}
