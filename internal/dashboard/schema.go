package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config_schema.json
var configSchemaJSON string

var (
	compileOnce  sync.Once
	configSchema *jsonschema.Schema
	compileErr   error
)

// Schema returns the compiled JSON Schema for normalized configurations.
func Schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("config_schema.json", strings.NewReader(configSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("config_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile configuration schema: %w", err)
			return
		}
		configSchema = schema
	})
	return configSchema, compileErr
}

// ValidateDocument checks encoded configuration bytes against the schema.
// Internal markers (_locked, _removable) are rejected, so only stripped
// documents pass.
func ValidateDocument(data []byte) error {
	schema, err := Schema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("configuration is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("configuration does not match schema: %w", err)
	}
	return nil
}

// Validate encodes cfg and validates it against the schema.
func Validate(cfg *Configuration) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	return ValidateDocument(data)
}
