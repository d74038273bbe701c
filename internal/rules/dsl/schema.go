// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// documentShape mirrors the top-level YAML keys a rule-set document may
// declare, for jsonschema.Reflector to turn into editor-facing JSON
// Schema. The `when`/`conditions`/`then`/`else`/`rules` trees accept either the
// structured or simplified surface form, which a Go struct can't express
// precisely, so those stay `any` here; syntax-level correctness inside
// them is still enforced by the parser and validator at load time.
type documentShape struct {
	Name        string            `json:"name" jsonschema:"required"`
	Description string            `json:"description,omitempty"`
	Version     string            `json:"version,omitempty"`
	Metadata    *metadataShape    `json:"metadata,omitempty"`
	Inputs      []string          `json:"inputs,omitempty"`
	Constants   []inlineConstant  `json:"constants,omitempty"`
	Output      map[string]string `json:"output,omitempty"`

	When       any `json:"when,omitempty"`
	Conditions any `json:"conditions,omitempty" jsonschema_extras:"description=structured-form condition tree"`
	Then       any `json:"then,omitempty"`
	Else       any `json:"else,omitempty"`
	Rules      any `json:"rules,omitempty" jsonschema_extras:"description=multi-rule list form"`

	CircuitBreaker *circuitBreakerShape `json:"circuit_breaker,omitempty"`
}

type metadataShape struct {
	Tags      []string `json:"tags,omitempty"`
	Author    string   `json:"author,omitempty"`
	Category  string   `json:"category,omitempty"`
	Priority  int      `json:"priority,omitempty"`
	RiskLevel string   `json:"riskLevel,omitempty" jsonschema:"enum=LOW,enum=MEDIUM,enum=HIGH,enum=CRITICAL"`
}

type inlineConstant struct {
	Name        string `json:"name" jsonschema:"required"`
	Type        string `json:"type" jsonschema:"enum=NUMBER,enum=STRING,enum=BOOLEAN,enum=DATE,enum=OBJECT"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

type circuitBreakerShape struct {
	Enabled      bool   `json:"enabled,omitempty"`
	Condition    string `json:"condition,omitempty"`
	Message      string `json:"message,omitempty"`
	Threshold    any    `json:"threshold,omitempty"`
	TimeWindowMs int    `json:"timeWindowMs,omitempty"`
}

// schemaState holds the compiled schema and sync.Once for thread-safe
// lazy compilation, so repeated ValidateSchema calls (e.g. lint across a
// directory of rule sets) don't recompile the schema each time.
type schemaState struct {
	once   sync.Once
	schema *jschema.Schema
	err    error
}

var globalSchemaState = &schemaState{}

// GetSchemaID returns the canonical identifier the generated schema
// advertises, for $id references from rule-set YAML files.
func GetSchemaID() string {
	return "https://github.com/holomush/ruleforge/schemas/ruleset.schema.json"
}

// GenerateSchema produces the JSON Schema document describing a rule-set
// YAML file's top-level shape.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&documentShape{})
	schema.ID = jsonschema.ID(GetSchemaID())
	schema.Title = "ruleforge Rule Set"
	schema.Description = "Schema for YAML-embedded business rule documents"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.In("schema").Hint("failed to marshal schema").Wrap(err)
	}
	data = append(data, '\n')
	return data, nil
}

// ValidateSchema validates raw rule-set YAML against the generated
// schema, catching top-level shape mistakes (missing `name`, wrong
// constant `type` enum value) before the document ever reaches the
// lexer/parser.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.In("schema").New("rule set data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.In("schema").Hint("invalid YAML").Wrap(err)
	}
	jsonData := convertToJSONTypes(yamlData)

	sch, err := getCompiledSchema()
	if err != nil {
		return oops.In("schema").Hint("failed to compile schema").Wrap(err)
	}

	if err := sch.Validate(jsonData); err != nil {
		return oops.In("schema").Hint("schema validation failed").Wrap(err)
	}
	return nil
}

func getCompiledSchema() (*jschema.Schema, error) {
	globalSchemaState.once.Do(func() {
		globalSchemaState.schema, globalSchemaState.err = compileSchema()
	})
	return globalSchemaState.schema, globalSchemaState.err
}

func compileSchema() (*jschema.Schema, error) {
	schemaBytes, err := GenerateSchema()
	if err != nil {
		return nil, err
	}

	var schemaData any
	if err := json.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, oops.In("schema").Hint("failed to parse schema JSON").Wrap(err)
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, oops.In("schema").Hint("failed to add schema resource").Wrap(err)
	}

	return c.Compile("schema.json")
}

// convertToJSONTypes converts YAML-parsed data (map[string]any with
// possibly non-string keys for nested mappings) into the JSON-compatible
// shapes the schema compiler expects.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = convertToJSONTypes(v)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v := range val {
			result[i] = convertToJSONTypes(v)
		}
		return result
	case string, int, int64, float64, bool, nil:
		return val
	default:
		if b, err := json.Marshal(val); err == nil {
			var result any
			if err := json.Unmarshal(b, &result); err == nil {
				return result
			}
		}
		return val
	}
}

// ResetSchemaCache clears the cached compiled schema. Used by tests.
func ResetSchemaCache() {
	globalSchemaState = &schemaState{}
}

// FormatSchemaError strips the oops wrapper noise off a ValidateSchema
// error for display in CLI output.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.LastIndex(msg, "schema validation failed: "); idx >= 0 {
		return msg[idx+len("schema validation failed: "):]
	}
	return msg
}
