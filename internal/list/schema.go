package list

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordsSchemaURL = "list.schema.json"

// recordsSchema describes the persisted list: an array of item records.
const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["_id", "_item", "_checked"],
    "properties": {
      "_id": {"type": "string"},
      "_item": {"type": "string"},
      "_checked": {"type": "boolean"}
    }
  }
}`

var compiledRecordsSchema = mustCompileRecordsSchema()

func mustCompileRecordsSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordsSchemaURL, strings.NewReader(recordsSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(recordsSchemaURL)
}

// PersistedDataError reports stored bytes that cannot be read back as a list.
type PersistedDataError struct {
	Key string
	Err error
}

func (e *PersistedDataError) Error() string {
	return fmt.Sprintf("stored list %q is not valid: %v", e.Key, e.Err)
}

func (e *PersistedDataError) Unwrap() error {
	return e.Err
}

// validateRecords checks that data is JSON matching recordsSchema.
func validateRecords(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data after list")
	}

	if err := compiledRecordsSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("unexpected shape: %s", firstCause(ve))
		}
		return err
	}
	return nil
}

// firstCause returns the innermost message of the first failing branch.
func firstCause(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
