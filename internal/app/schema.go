package app

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// quoteItemSchema accepts any object carrying a string text field.
// Unknown fields and a missing category are tolerated.
const quoteItemSchema = `{
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"}
  }
}`

// collectionSchema is the shape persisted in the quotes slot.
const collectionSchema = `{
  "type": "array",
  "items": ` + quoteItemSchema + `
}`

var (
	compiledItemSchema       = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compileSchema(quoteItemSchema) })
	compiledCollectionSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compileSchema(collectionSchema) })
)

func compileSchema(src string) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return schema, nil
}

// validateCollection checks that raw is a JSON array of objects with a string text.
func validateCollection(raw []byte) error {
	schema, err := compiledCollectionSchema()
	if err != nil {
		return err
	}

	return validateAgainst(schema, gojsonschema.NewBytesLoader(raw))
}

// validateItem checks one decoded import element.
func validateItem(item any) error {
	schema, err := compiledItemSchema()
	if err != nil {
		return err
	}

	return validateAgainst(schema, gojsonschema.NewGoLoader(item))
}

func validateAgainst(schema *gojsonschema.Schema, doc gojsonschema.JSONLoader) error {
	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("validation execution failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}

	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
}
