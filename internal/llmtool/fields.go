package llmtool

import (
	"reflect"
	"strings"
)

// FieldOptions controls how struct fields map to Shape properties.
type FieldOptions struct {
	NameTag         string
	DescTag         string
	PromptTag       string
	RequiredDefault bool
}

// DefaultFieldOptions returns the standard tag mapping.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		NameTag:         "json",
		DescTag:         "prompt_desc",
		PromptTag:       "prompt",
		RequiredDefault: true,
	}
}

// FieldsFromShape lists the top-level properties of an object shape, or of
// the item shape when s is an array of objects.
func FieldsFromShape(s *Shape) []PromptField {
	if s == nil {
		return nil
	}
	if s.Kind == KindArray && s.Items != nil {
		s = s.Items
	}
	if s.Kind != KindObject {
		return []PromptField{{Name: "value", Type: typeString(s), Required: true, Description: s.Description}}
	}
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	fields := make([]PromptField, 0, len(s.Properties))
	for _, name := range s.PropertyNames() {
		p := s.Properties[name]
		fields = append(fields, PromptField{
			Name:        name,
			Type:        typeString(p),
			Required:    required[name],
			Description: p.Description,
		})
	}
	return fields
}

func typeString(s *Shape) string {
	if s == nil {
		return "any"
	}
	switch s.Kind {
	case KindArray:
		return "[]" + typeString(s.Items)
	case KindInteger:
		return "int"
	}
	return string(s.Kind)
}

func shouldSkipField(f reflect.StructField, promptTag string) bool {
	tag := strings.TrimSpace(f.Tag.Get(promptTag))
	if tag == "" {
		return false
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "-" || part == "omit" {
			return true
		}
	}
	return false
}

func requiredOverride(f reflect.StructField, promptTag string) (bool, bool) {
	tag := strings.TrimSpace(f.Tag.Get(promptTag))
	if tag == "" {
		return false, false
	}
	for _, part := range strings.Split(tag, ",") {
		switch strings.TrimSpace(part) {
		case "required":
			return true, true
		case "optional":
			return false, true
		}
	}
	return false, false
}

func fieldName(f reflect.StructField, nameTag string) string {
	tag := strings.TrimSpace(f.Tag.Get(nameTag))
	if tag != "" {
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return toSnake(f.Name)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
