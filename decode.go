package apiforge

import (
	"fmt"
	"io"
	"sync"

	"github.com/tailbits/apiforge/model"
)

var (
	specSchema  = lazySchema(NewRestServiceSpec{})
	patchSchema = lazySchema(RestServicePatch{})
)

func lazySchema(v any) func() ([]byte, error) {
	return sync.OnceValues(func() ([]byte, error) {
		return model.Reflect(v)
	})
}

// SpecSchema is the JSON schema create payloads are validated against.
func SpecSchema() ([]byte, error) {
	return specSchema()
}

// PatchSchema is the JSON schema update payloads are validated against.
func PatchSchema() ([]byte, error) {
	return patchSchema()
}

// DecodeSpec reads a JSON create payload. Unknown keys and mistyped values
// fail with a model.ValidationError.
func DecodeSpec(r io.Reader) (NewRestServiceSpec, error) {
	var spec NewRestServiceSpec
	if err := decodePayload(r, specSchema, &spec); err != nil {
		return spec, err
	}
	return spec, nil
}

// DecodePatch reads a JSON update payload. A key given as [] decodes to an
// empty list, which clears the stored list on update.
func DecodePatch(r io.Reader) (RestServicePatch, error) {
	var patch RestServicePatch
	if err := decodePayload(r, patchSchema, &patch); err != nil {
		return patch, err
	}
	return patch, nil
}

func decodePayload(r io.Reader, schema func() ([]byte, error), dst any) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read the body: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return fmt.Errorf("payload schema: %w", err)
	}

	if err := model.Decode(sch, body, dst); err != nil {
		return fmt.Errorf("model.Decode: %w", err)
	}
	return validateStruct(dst)
}
