package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// project renders a resolved value as plain JSON data holding only the
// fields the selection set asks for.
func project(value any, set ast.SelectionSet, vars map[string]any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return selectFields(data, set, vars), nil
}

func selectFields(data any, set ast.SelectionSet, vars map[string]any) any {
	if len(set) == 0 {
		return data
	}
	switch v := data.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = selectFields(item, set, vars)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(set))
		collectFields(out, v, set, vars)
		return out
	default:
		return data
	}
}

func collectFields(out, obj map[string]any, set ast.SelectionSet, vars map[string]any) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if !included(s.Directives, vars) {
				continue
			}
			key := s.Alias
			if key == "" {
				key = s.Name
			}
			if s.Name == "__typename" {
				if s.ObjectDefinition != nil {
					out[key] = s.ObjectDefinition.Name
				}
				continue
			}
			out[key] = selectFields(obj[s.Name], s.SelectionSet, vars)
		case *ast.InlineFragment:
			if included(s.Directives, vars) {
				collectFields(out, obj, s.SelectionSet, vars)
			}
		case *ast.FragmentSpread:
			if included(s.Directives, vars) && s.Definition != nil {
				collectFields(out, obj, s.Definition.SelectionSet, vars)
			}
		}
	}
}

// included evaluates @skip and @include.
func included(directives ast.DirectiveList, vars map[string]any) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}
