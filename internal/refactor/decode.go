package refactor

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DecodeResult parses model text into a Result and type-checks every field.
// A single surrounding markdown fence (```json ... ```) is tolerated.
func DecodeResult(text string) (Result, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return Result{}, parseErrorf(text, "empty body")
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&fields); err != nil {
		return Result{}, parseErrorf(text, "decode object: %w", err)
	}
	if dec.More() {
		return Result{}, parseErrorf(text, "trailing data after JSON object")
	}
	if fields == nil {
		return Result{}, parseErrorf(text, "expected a JSON object")
	}

	var out Result
	if err := decodeString(fields, FieldImprovedCode, &out.ImprovedCode); err != nil {
		return Result{}, parseErrorf(text, "%w", err)
	}
	if err := decodeString(fields, FieldExplanation, &out.Explanation); err != nil {
		return Result{}, parseErrorf(text, "%w", err)
	}
	if err := decodeStrings(fields, FieldKeyChanges, &out.KeyChanges); err != nil {
		return Result{}, parseErrorf(text, "%w", err)
	}
	return out, nil
}

type fieldError struct {
	field string
	msg   string
}

func (e *fieldError) Error() string { return "field " + e.field + ": " + e.msg }

func lookup(fields map[string]json.RawMessage, name string) (json.RawMessage, error) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &fieldError{field: name, msg: "missing"}
	}
	return raw, nil
}

func decodeString(fields map[string]json.RawMessage, name string, dst *string) error {
	raw, err := lookup(fields, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &fieldError{field: name, msg: "expected a string"}
	}
	return nil
}

func decodeStrings(fields map[string]json.RawMessage, name string, dst *[]string) error {
	raw, err := lookup(fields, name)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return &fieldError{field: name, msg: "expected an array of strings"}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil || bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return &fieldError{field: name, msg: "expected an array of strings"}
		}
		out = append(out, s)
	}
	*dst = out
	return nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	// Drop an info string such as "json".
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(inner[:nl]); !strings.ContainsAny(tag, "{[") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
