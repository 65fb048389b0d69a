package registry

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks args against the tool's input schema.
// A tool without a schema accepts anything.
func ValidateArguments(t Tool, args map[string]any) error {
	if t.InputSchema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(t.InputSchema), gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%s: schema validation error: %w", t.Name, err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%s: %w: %s", t.Name, ErrInvalidArguments, strings.Join(errs, ", "))
}

// StringParams builds an object schema whose properties are all strings.
// Every name listed in required must appear in props.
func StringParams(props map[string]string, required ...string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	for name, desc := range props {
		properties[name] = &jsonschema.Schema{Type: "string", Description: desc}
	}
	if required == nil {
		required = []string{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
