package repository

import (
	"encoding/json"
	"fmt"
)

// ToFields flattens a JSON-tagged value into a document field map.
// Numbers become float64 and times become RFC 3339 strings, which every backend stores as-is.
func ToFields(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten document: %w", err)
	}
	return fields, nil
}

// DecodeDocument fills a JSON-tagged value from a document. The document id wins over
// any "id" field stored inside it.
func DecodeDocument(doc Document, v interface{}) error {
	fields := make(map[string]interface{}, len(doc.Fields)+1)
	for k, val := range doc.Fields {
		fields[k] = val
	}
	fields[FieldID] = doc.ID
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return nil
}

// Matches reports whether a field map satisfies every predicate.
func Matches(fields map[string]interface{}, predicates []Predicate) bool {
	for _, p := range predicates {
		if fields[p.Field] != p.Value {
			return false
		}
	}
	return true
}
