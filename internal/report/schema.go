package report

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed results.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile results schema: %w", err)
	}
	return schema, nil
})

// Validate checks encoded report JSON against the results.json schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: schema validation failed: %v", ErrInvalid, result.Errors)
}
