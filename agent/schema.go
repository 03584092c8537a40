package agent

import "strings"

// ParamType is the JSON Schema type advertised for a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ContextParam is the reserved parameter name bound to the caller-supplied
// context value. It is injected at dispatch time and never appears in the
// schema sent to the model.
const ContextParam = "ctx"

// Param describes one declared tool parameter. Order matters: the manifest
// is positional against the handler's signature.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Optional    bool
}

// schemaFor derives the JSON Schema object advertised to the model from a
// tool's parameter manifest. The reserved ctx parameter is omitted, every
// non-optional parameter is required, and unknown types degrade to string.
func schemaFor(t Tool) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0, len(t.Params))

	for _, p := range t.Params {
		if p.Name == ContextParam {
			continue
		}

		prop := map[string]any{
			"type": string(normalizeType(p.Type)),
		}
		if p.Type == TypeArray {
			prop["items"] = map[string]any{"type": "string"}
		}

		desc := p.Description
		if desc == "" {
			desc = summaryLine(t.Description)
		}
		if desc != "" {
			prop["description"] = desc
		}

		properties[p.Name] = prop
		if !p.Optional {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func normalizeType(t ParamType) ParamType {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return t
	default:
		return TypeString
	}
}

// summaryLine returns the first line of a description for use as a fallback
// parameter description.
func summaryLine(desc string) string {
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = desc[:i]
	}
	return strings.TrimSpace(desc)
}
