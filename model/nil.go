package model

// Nil stands for "no body". Operations answering with Nil are documented
// with an empty 204 response.
type Nil struct{}

var _ WithSchema = Nil{}

func (Nil) Name() string { return "NoContent" }

func (Nil) Schema() []byte {
	return []byte(`{"type":"object","properties":{},"additionalProperties":false}`)
}

func (Nil) Example() []byte { return []byte(`{}`) }
