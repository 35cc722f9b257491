package model

// WithName names a schema document. The name is the key the schema is
// registered under in generated API documentation.
type WithName interface {
	Name() string
}

// WithSchema is a named JSON schema together with an example document.
type WithSchema interface {
	WithName
	Schema() []byte
	Example() []byte
}

// Static is a WithSchema built from literal documents, used for schemas
// assembled at runtime from a service's configuration.
type Static struct {
	name    string
	schema  []byte
	example []byte
}

var _ WithSchema = Static{}

func NewStatic(name string, schema, example []byte) Static {
	return Static{name: name, schema: schema, example: example}
}

func (s Static) Name() string    { return s.name }
func (s Static) Schema() []byte  { return s.schema }
func (s Static) Example() []byte { return s.example }
