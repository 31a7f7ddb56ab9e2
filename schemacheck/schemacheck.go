// Package schemacheck implements the schema compatibility checker: a pure
// function comparing a producer Tool node's outputSchema against a
// consumer Tool node's inputSchema, the way the compiler's edge-validation
// stage needs it. Only "type", "properties" and "items" are inspected, per
// the node model's JSON-Schema-fragment convention.
package schemacheck

import (
	"fmt"
	"strings"

	"github.com/graphflow/engine/schema"
)

// Result is the outcome of checking one producer→consumer edge.
type Result struct {
	Compatible  bool
	Errors      []string
	Suggestions []string
}

// Check compares producerOutput against consumerInput. If consumerInput
// declares no required properties, the edge is trivially compatible.
func Check(producerOutput, consumerInput schema.Schema) *Result {
	required := stringSlice(consumerInput["required"])
	if len(required) == 0 {
		return &Result{Compatible: true}
	}
	var errs, suggestions []string
	compareObject(producerOutput, consumerInput, "", &errs, &suggestions)
	return &Result{Compatible: len(errs) == 0, Errors: errs, Suggestions: suggestions}
}

func compare(producer, consumer schema.Schema, path string, errs, suggestions *[]string) {
	consumerType, _ := consumer["type"].(string)
	producerType, _ := producer["type"].(string)
	if consumerType != "" && producerType != "" && consumerType != producerType {
		*errs = append(*errs, fmt.Sprintf("%s: type mismatch (producer=%s, consumer=%s)", path, producerType, consumerType))
		return
	}
	switch consumerType {
	case "object":
		compareObject(producer, consumer, path, errs, suggestions)
	case "array":
		compareArray(producer, consumer, path, errs, suggestions)
	}
}

func compareObject(producer, consumer schema.Schema, path string, errs, suggestions *[]string) {
	consumerProps := asObjectMap(consumer["properties"])
	producerProps := asObjectMap(producer["properties"])
	required := toSet(stringSlice(consumer["required"]))

	for name, rawConsumerProp := range consumerProps {
		if !required[name] {
			continue
		}
		fieldPath := joinPath(path, name)
		rawProducerProp, present := producerProps[name]
		if !present {
			*errs = append(*errs, fmt.Sprintf("%s: missing from producer output", fieldPath))
			*suggestions = append(*suggestions, suggestField(name, producerProps))
			continue
		}
		compare(asSchema(rawProducerProp), asSchema(rawConsumerProp), fieldPath, errs, suggestions)
	}
}

func compareArray(producer, consumer schema.Schema, path string, errs, suggestions *[]string) {
	consumerItems, consumerHasItems := consumer["items"]
	producerItems, producerHasItems := producer["items"]
	if !consumerHasItems {
		return
	}
	if !producerHasItems {
		*errs = append(*errs, fmt.Sprintf("%s: consumer specifies array items but producer does not", path))
		return
	}
	compare(asSchema(producerItems), asSchema(consumerItems), path+"[]", errs, suggestions)
}

// suggestField finds a similarly-named producer field by substring match
// in either direction, falling back to a generic "add field" suggestion.
func suggestField(name string, producerProps map[string]any) string {
	lower := strings.ToLower(name)
	for candidate := range producerProps {
		cl := strings.ToLower(candidate)
		if strings.Contains(lower, cl) || strings.Contains(cl, lower) {
			return fmt.Sprintf("Consider mapping '%s' to '%s'", candidate, name)
		}
	}
	return fmt.Sprintf("add '%s' field to parent output", name)
}

func asObjectMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSchema(v any) schema.Schema {
	m, _ := v.(map[string]any)
	return schema.Schema(m)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// stringSlice normalizes a "required" array, which may decode as []string
// (literal Go construction) or []any (JSON/YAML unmarshaling).
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
