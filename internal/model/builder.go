package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	extensionNamespace   = "x-survivalform"
	orderExtension       = extensionNamespace + "-order"
	labelsExtension      = extensionNamespace + "-labels"
	inputExtension       = extensionNamespace + "-input"
	placeholderExtension = extensionNamespace + "-placeholder"
	minExtension         = extensionNamespace + "-min"
)

var (
	errOperationIDMissing   = errors.New("model builder: operation id is required")
	errOperationPathMissing = errors.New("model builder: operation path is required")
	errRequestSchemaMissing = errors.New("model builder: request schema is required")
)

// Operation is the subset of an OpenAPI operation the builder needs.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	Request *openapi3.Schema
}

// Options configures a Builder.
type Options struct {
	Labeler func(string) string
}

// Builder converts a contract operation into a FormModel.
type Builder struct {
	labeler func(string) string
}

// NewBuilder creates a Builder with the supplied options.
func NewBuilder(options Options) *Builder {
	labeler := options.Labeler
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return &Builder{labeler: labeler}
}

// Build produces one field per request property. Fields follow the order
// listed in the schema's x-survivalform-order extension; properties missing from
// that list are appended alphabetically.
func (b *Builder) Build(op Operation) (FormModel, error) {
	if op.ID == "" {
		return FormModel{}, errOperationIDMissing
	}
	if op.Path == "" {
		return FormModel{}, errOperationPathMissing
	}
	if op.Request == nil {
		return FormModel{}, errRequestSchemaMissing
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
	}

	required := make(map[string]struct{}, len(op.Request.Required))
	for _, name := range op.Request.Required {
		required[name] = struct{}{}
	}

	for _, name := range propertyOrder(op.Request) {
		ref := op.Request.Properties[name]
		if ref == nil || ref.Value == nil {
			return FormModel{}, fmt.Errorf("model builder: property %q has no schema", name)
		}
		_, isRequired := required[name]
		form.Fields = append(form.Fields, b.field(name, ref.Value, isRequired))
	}

	return form, nil
}

func (b *Builder) field(name string, schema *openapi3.Schema, required bool) Field {
	field := Field{
		Name:        name,
		Type:        fieldType(schema),
		Required:    required,
		Label:       strings.TrimSpace(schema.Title),
		Description: schema.Description,
		Placeholder: extensionString(schema.Extensions, placeholderExtension),
	}
	if field.Label == "" {
		field.Label = b.labeler(name)
	}

	if len(schema.Enum) > 0 {
		labels := extensionMap(schema.Extensions, labelsExtension)
		for _, raw := range schema.Enum {
			value := fmt.Sprint(raw)
			label := labels[value]
			if label == "" {
				label = value
			}
			field.Options = append(field.Options, Option{Value: value, Label: label})
		}
	}

	if required {
		field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleRequired})
	}
	if bound := extensionString(schema.Extensions, minExtension); bound != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMin,
			Params: map[string]string{"value": bound},
		})
	}
	if input := extensionString(schema.Extensions, inputExtension); input != "" {
		field.Metadata = map[string]string{"input": input}
	}
	return field
}

func fieldType(schema *openapi3.Schema) FieldType {
	if schema.Type != nil && schema.Type.Is(openapi3.TypeBoolean) {
		return FieldTypeBoolean
	}
	if len(schema.Enum) > 0 {
		return FieldTypeSelect
	}
	switch extensionString(schema.Extensions, inputExtension) {
	case "decimal":
		return FieldTypeNumber
	case "integer":
		return FieldTypeInteger
	default:
		return FieldTypeString
	}
}

func propertyOrder(schema *openapi3.Schema) []string {
	seen := make(map[string]struct{}, len(schema.Properties))
	var order []string
	if listed, ok := schema.Extensions[orderExtension].([]any); ok {
		for _, raw := range listed {
			name := fmt.Sprint(raw)
			if _, exists := schema.Properties[name]; !exists {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			order = append(order, name)
		}
	}

	var rest []string
	for name := range schema.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func extensionString(ext map[string]any, key string) string {
	if value, ok := ext[key]; ok && value != nil {
		return strings.TrimSpace(fmt.Sprint(value))
	}
	return ""
}

func extensionMap(ext map[string]any, key string) map[string]string {
	raw, ok := ext[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}
