package llmtool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind is the JSON kind a Shape node accepts.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
)

// Shape declares the structure a model response must have. It is sent to
// the model as a response schema and checked again on the way back.
type Shape struct {
	Kind        Kind              `json:"kind"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]*Shape `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
	Items       *Shape            `json:"items,omitempty"`
	// Order keeps property declaration order for prompts and schemas.
	Order []string `json:"-"`
}

// ShapeError reports where a document departs from its Shape.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape: %s: %s", e.Path, e.Reason)
}

// Object builds an object shape whose properties are all required.
func Object(props map[string]*Shape, order ...string) *Shape {
	if len(order) == 0 {
		for k := range props {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	return &Shape{Kind: KindObject, Properties: props, Required: append([]string(nil), order...), Order: order}
}

// ArrayOf builds an array shape.
func ArrayOf(items *Shape) *Shape { return &Shape{Kind: KindArray, Items: items} }

// String builds a string shape.
func String(desc string) *Shape { return &Shape{Kind: KindString, Description: desc} }

// Integer builds an integer shape.
func Integer(desc string) *Shape { return &Shape{Kind: KindInteger, Description: desc} }

// PropertyNames returns property names in declaration order.
func (s *Shape) PropertyNames() []string {
	if s == nil {
		return nil
	}
	if len(s.Order) == len(s.Properties) {
		return s.Order
	}
	names := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate parses raw as untrusted JSON and checks it against s.
func (s *Shape) Validate(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &ShapeError{Path: "$", Reason: "invalid JSON: " + err.Error()}
	}
	if dec.More() {
		return &ShapeError{Path: "$", Reason: "trailing data after JSON value"}
	}
	return s.check("$", doc)
}

func (s *Shape) check(path string, v any) error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return &ShapeError{Path: path, Reason: "expected object, got " + kindOf(v)}
		}
		for _, name := range s.Required {
			if val, ok := obj[name]; !ok || val == nil {
				return &ShapeError{Path: path + "." + name, Reason: "required field missing"}
			}
		}
		for _, name := range s.PropertyNames() {
			val, ok := obj[name]
			if !ok || val == nil {
				continue
			}
			if err := s.Properties[name].check(path+"."+name, val); err != nil {
				return err
			}
		}
	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			return &ShapeError{Path: path, Reason: "expected array, got " + kindOf(v)}
		}
		for i, item := range arr {
			if err := s.Items.check(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case KindString:
		if _, ok := v.(string); !ok {
			return &ShapeError{Path: path, Reason: "expected string, got " + kindOf(v)}
		}
	case KindInteger:
		n, ok := v.(json.Number)
		if !ok {
			return &ShapeError{Path: path, Reason: "expected integer, got " + kindOf(v)}
		}
		if _, err := n.Int64(); err != nil {
			return &ShapeError{Path: path, Reason: "expected integer, got " + n.String()}
		}
	default:
		return &ShapeError{Path: path, Reason: fmt.Sprintf("unknown kind %q", s.Kind)}
	}
	return nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "bool"
	}
	return fmt.Sprintf("%T", v)
}

// ShapeOf derives a Shape from a Go value using its json, prompt_desc and
// prompt tags. Anonymous struct fields are flattened.
func ShapeOf(v any) *Shape {
	return shapeOfType(reflect.TypeOf(v), DefaultFieldOptions())
}

func shapeOfType(t reflect.Type, cfg FieldOptions) *Shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &Shape{Kind: KindString}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Shape{Kind: KindInteger}
	case reflect.Slice, reflect.Array:
		return ArrayOf(shapeOfType(t.Elem(), cfg))
	case reflect.Struct:
		out := &Shape{Kind: KindObject, Properties: map[string]*Shape{}}
		addStructFields(out, t, cfg)
		return out
	}
	panic(fmt.Sprintf("llmtool: unsupported kind %s", t.Kind()))
}

func addStructFields(out *Shape, t reflect.Type, cfg FieldOptions) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			addStructFields(out, f.Type, cfg)
			continue
		}
		if !f.IsExported() || shouldSkipField(f, cfg.PromptTag) {
			continue
		}
		name := fieldName(f, cfg.NameTag)
		if name == "" {
			continue
		}
		child := shapeOfType(f.Type, cfg)
		child.Description = strings.TrimSpace(f.Tag.Get(cfg.DescTag))
		out.Properties[name] = child
		out.Order = append(out.Order, name)
		required := cfg.RequiredDefault
		if r, ok := requiredOverride(f, cfg.PromptTag); ok {
			required = r
		}
		if required {
			out.Required = append(out.Required, name)
		}
	}
}
