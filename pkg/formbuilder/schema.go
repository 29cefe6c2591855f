package formbuilder

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaSource []byte

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("document.json", bytes.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("formbuilder: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("document.json")
	if err != nil {
		return nil, fmt.Errorf("formbuilder: compile schema: %w", err)
	}
	return schema, nil
})

// Schema returns the JSON schema form and library documents are checked against.
func Schema() []byte { return bytes.Clone(schemaSource) }

// validateSchema checks a generically decoded document.
func validateSchema(source string, doc any) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			se := &SchemaError{Source: source}
			collectViolations(verr, &se.Violations)
			return se
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, source, err)
	}
	return nil
}

// collectViolations flattens the leaf causes of a validation error.
func collectViolations(err *jsonschema.ValidationError, out *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}
