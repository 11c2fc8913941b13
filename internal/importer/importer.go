// Package importer converts workflow graphs exported by other tools into
// flowcost nodes and edges. Each supported format has an adapter; payloads
// that are not strict JSON are repaired before decoding.
package importer

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rendis/flowcost/pkg/schema"
)

// Adapter converts a decoded payload into an imported workflow.
type Adapter func(payload map[string]any) (*schema.ImportedWorkflow, error)

var adapters = map[string]Adapter{
	"generic":   importGeneric,
	"custom":    importGeneric,
	"langgraph": importLangGraph,
	"n8n":       importN8N,
}

// Sources lists the supported import formats, sorted by name.
func Sources() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Import decodes payload and converts it with the adapter registered for
// source. Errors carry the IMPORT_ERROR code.
func Import(source string, payload []byte) (*schema.ImportedWorkflow, error) {
	adapter, ok := adapters[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeImport,
			"unknown import source %q, supported: %s", source, strings.Join(Sources(), ", "))
	}

	doc, repaired, err := decode(payload)
	if err != nil {
		return nil, err
	}

	wf, err := adapter(doc)
	if err != nil {
		return nil, err
	}
	if wf.Metadata == nil {
		wf.Metadata = make(map[string]any)
	}
	if repaired {
		wf.Metadata["repaired"] = true
	}
	return wf, nil
}

// decode parses payload as a JSON object. Malformed input (trailing commas,
// single quotes, unquoted keys, truncated brackets) is run through
// jsonrepair and parsed again.
func decode(payload []byte) (map[string]any, bool, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, false, schema.NewError(schema.ErrCodeImport, "payload is empty")
	}

	var doc map[string]any
	err := json.Unmarshal(payload, &doc)
	if err == nil {
		if doc == nil {
			return nil, false, schema.NewError(schema.ErrCodeImport, "payload must be a JSON object")
		}
		return doc, false, nil
	}

	fixed, repairErr := jsonrepair.JSONRepair(string(payload))
	if repairErr != nil {
		return nil, false, schema.NewError(schema.ErrCodeImport, "payload is not valid JSON and could not be repaired").
			WithCause(err).
			WithDetails(map[string]any{"repair_error": repairErr.Error()})
	}
	if err := json.Unmarshal([]byte(fixed), &doc); err != nil || doc == nil {
		return nil, false, schema.NewError(schema.ErrCodeImport, "payload must be a JSON object").WithCause(err)
	}
	return doc, true, nil
}

// --- loose field access ---

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func optInt(m map[string]any, key string) *int {
	switch v := m[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	}
	return nil
}

func list(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeImport, "%q must be an array", key)
	}
	return items, nil
}

// scalar renders a JSON scalar as an identifier.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

// truncateContext keeps imported prompts within the accepted context length.
func truncateContext(s string) string {
	r := []rune(s)
	if len(r) <= schema.MaxContextLength {
		return s
	}
	return string(r[:schema.MaxContextLength])
}
