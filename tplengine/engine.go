// Package tplengine recursively expands `{{input.*}}`, `{{context.*}}` and
// `{{state.*}}` references inside JSON-like values, the way the teacher's
// pkg/tplengine walks maps/arrays/strings with text/template plus sprig.
// Unlike the teacher's runtime-reference engine (which defers `.tasks.*`
// expressions until a task completes), this resolver has exactly three
// namespaces and every reference must resolve immediately or fail.
package tplengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/tidwall/gjson"

	"github.com/graphflow/engine/werrors"
)

// Binding is the set of namespaces a template may reference.
type Binding struct {
	Input   any
	Context any
	State   any
}

const templateMarker = "{{"

// HasTemplate reports whether s contains a `{{ ... }}` expression.
func HasTemplate(s string) bool {
	return strings.Contains(s, templateMarker)
}

// Resolve recursively walks v, rendering every string value against binding.
// Arrays are mapped element-wise, objects value-wise, other primitives pass
// through unchanged.
func Resolve(v any, binding Binding) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return resolveString(val, binding)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := Resolve(elem, binding)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			r, err := Resolve(elem, binding)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return val, nil
	}
}

// bareReference matches a template action that is nothing but a dot-path
// over one of the three namespaces, e.g. "{{ input.x.y }}" or
// "{{- .context.lastName -}}", with no pipes or function calls. Groups:
// 1=leading trim dash, 2=namespace, 3=dotted path (with leading dot, may
// be empty), 4=trailing trim dash.
var bareReference = regexp.MustCompile(`\{\{(-?)\s*\.?(input|context|state)((?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*(-?)\}\}`)

// wholeReference matches a template string that consists of exactly one
// bare reference and nothing else, e.g. "{{input}}" or "{{ input.x.y }}".
var wholeReference = regexp.MustCompile(`^` + bareReference.String() + `$`)

// resolveString renders a single template string. A string that is exactly
// one bare `{{field.path}}` reference (e.g. "{{input}}" or "{{input.x}}"),
// with no surrounding text, resolves to that path's raw value with its
// original type preserved rather than being stringified.
func resolveString(s string, binding Binding) (any, error) {
	if s == "" || !HasTemplate(s) {
		return s, nil
	}
	if m := wholeReference.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		field := werrors.ReferenceField(m[2])
		path := strings.TrimPrefix(m[3], ".")
		if path == "" {
			return namespaceValue(field, binding), nil
		}
		v, ok := lookupPath(namespaceValue(field, binding), path)
		if !ok {
			return nil, &werrors.ReferenceError{Field: field, Reference: path}
		}
		return v, nil
	}

	// Validate every bare `{{field.path}}` reference up front, via gjson's
	// fast existence check against the marshaled namespace, so a missing
	// path surfaces as a werrors.ReferenceError instead of text/template's
	// generic "map has no entry for key" message (or, worse, a bogus
	// "function not defined" parse error for a reference text/template
	// would otherwise misparse as a function call).
	for _, m := range bareReference.FindAllStringSubmatch(s, -1) {
		field := werrors.ReferenceField(m[2])
		path := strings.TrimPrefix(m[3], ".")
		if path == "" {
			continue
		}
		if !pathExists(namespaceValue(field, binding), path) {
			return nil, &werrors.ReferenceError{Field: field, Reference: path}
		}
	}

	data := map[string]any{
		"input":   binding.Input,
		"context": binding.Context,
		"state":   binding.State,
	}

	funcs := sprig.TxtFuncMap()
	funcs["htmlEscape"] = htmlEscape
	funcs["htmlAttrEscape"] = htmlAttrEscape
	funcs["jsEscape"] = jsEscape

	// A bare "input"/"context"/"state" identifier with no leading "."
	// parses in text/template as a function call, not a field lookup, so
	// every bare reference must be rewritten to its dotted form before
	// Parse ever sees it.
	rewritten := rewriteBareReferences(s)

	tmpl, err := template.New("tpl").Funcs(funcs).Option("missingkey=error").Parse(rewritten)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", s, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %q: %w", s, err)
	}
	return buf.String(), nil
}

// rewriteBareReferences rewrites every bare `{{(input|context|state).path}}`
// action in s to its dotted `{{ .input.path }}` form, preserving any trim
// markers, so text/template resolves it as a field lookup against the
// rendering data map instead of parsing the leading identifier as a
// function call.
func rewriteBareReferences(s string) string {
	return bareReference.ReplaceAllStringFunc(s, func(match string) string {
		m := bareReference.FindStringSubmatch(match)
		leadDash, field, path, trailDash := m[1], m[2], m[3], m[4]
		return "{{" + leadDash + " ." + field + path + " " + trailDash + "}}"
	})
}

func namespaceValue(field werrors.ReferenceField, binding Binding) any {
	switch field {
	case werrors.FieldInput:
		return binding.Input
	case werrors.FieldContext:
		return binding.Context
	case werrors.FieldState:
		return binding.State
	default:
		return nil
	}
}

// pathExists reports whether path is reachable from root, without caring
// about the value found there. It marshals root to JSON and delegates to
// gjson rather than walking the path itself, since an existence check
// alone never needs lookupPath's exact-type guarantees.
func pathExists(root any, path string) bool {
	if root == nil {
		return false
	}
	raw, err := json.Marshal(root)
	if err != nil {
		return false
	}
	return gjson.GetBytes(raw, path).Exists()
}

// lookupPath walks a dot-separated path over nested maps, reporting
// whether every segment was present.
func lookupPath(root any, path string) (any, bool) {
	if root == nil {
		return nil, false
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, present := m[seg]
		if !present {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func htmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;").Replace(s)
}

func htmlAttrEscape(s string) string { return htmlEscape(s) }

func jsEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\'', '\\', '<', '>', '&', '=':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
