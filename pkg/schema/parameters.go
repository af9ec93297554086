package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Field is one declared parameter, in declaration order.
type Field struct {
	Name        string
	Type        string // "string", "number", "integer", "boolean", "array", "object"
	Description string
	Required    bool
}

// Parameters is an ordered OpenAPI object schema for tool arguments.
type Parameters struct {
	spec   *openapi3.Schema
	fields []Field
}

// NewParameters returns an empty parameter specification.
func NewParameters() *Parameters {
	return &Parameters{spec: openapi3.NewObjectSchema()}
}

func (p *Parameters) add(name string, s *openapi3.Schema, typ, desc string, required bool) *Parameters {
	s.Description = desc
	p.spec = p.spec.WithProperty(name, s)
	if required {
		p.spec.Required = append(p.spec.Required, name)
	}
	p.fields = append(p.fields, Field{Name: name, Type: typ, Description: desc, Required: required})
	return p
}

// String declares a string parameter.
func (p *Parameters) String(name, desc string, required bool) *Parameters {
	return p.add(name, openapi3.NewStringSchema(), "string", desc, required)
}

// Number declares a floating-point parameter.
func (p *Parameters) Number(name, desc string, required bool) *Parameters {
	return p.add(name, openapi3.NewFloat64Schema(), "number", desc, required)
}

// Integer declares an integer parameter.
func (p *Parameters) Integer(name, desc string, required bool) *Parameters {
	return p.add(name, openapi3.NewIntegerSchema(), "integer", desc, required)
}

// Boolean declares a boolean parameter.
func (p *Parameters) Boolean(name, desc string, required bool) *Parameters {
	return p.add(name, openapi3.NewBoolSchema(), "boolean", desc, required)
}

// StringArray declares a parameter holding a list of strings.
func (p *Parameters) StringArray(name, desc string, required bool) *Parameters {
	return p.add(name, openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()), "array", desc, required)
}

// Enum declares a string parameter restricted to the given values.
func (p *Parameters) Enum(name, desc string, required bool, values ...string) *Parameters {
	s := openapi3.NewStringSchema()
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return p.add(name, s, "string", desc, required)
}

// Spec exposes the underlying OpenAPI schema.
func (p *Parameters) Spec() *openapi3.Schema { return p.spec }

// Fields returns the declared parameters in declaration order.
func (p *Parameters) Fields() []Field { return p.fields }

// Required returns the required parameter names, sorted.
func (p *Parameters) Required() []string {
	out := append([]string(nil), p.spec.Required...)
	sort.Strings(out)
	return out
}

// Missing returns the required parameters that are absent, nil, or an
// empty string in args, sorted. An empty result means all required
// parameters are present.
func (p *Parameters) Missing(args map[string]any) []string {
	var missing []string
	for _, name := range p.spec.Required {
		v, ok := args[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Validate checks args against the schema, types included. Callers
// usually check Missing first so absence and malformation report
// separately.
func (p *Parameters) Validate(args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	if err := p.spec.VisitJSON(map[string]any(args)); err != nil {
		return fmt.Errorf("argument validation: %w", err)
	}
	return nil
}

// Describe renders a compact one-parameter-per-line summary for prompts.
func (p *Parameters) Describe() string {
	var b strings.Builder
	for _, f := range p.fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(f.Type)
		if f.Required {
			b.WriteString(", required")
		}
		b.WriteString("): ")
		b.WriteString(f.Description)
		b.WriteString("\n")
	}
	return b.String()
}
