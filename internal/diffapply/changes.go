// Package diffapply turns the loosely-typed field diffs carried by edit
// suggestions into validated mutations of a restaurant record.
package diffapply

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Change is one proposed field edit. From is advisory display data; To is
// the authoritative new value and may be any JSON value.
type Change struct {
	Field string
	From  any
	To    any
}

// ChangeSet preserves the order fields appeared in the payload, since
// later entries win when a field repeats.
type ChangeSet []Change

// ParseChanges decodes a diff payload. Each field maps to either an
// object carrying a "to" key (the {from,to} pair format) or a raw value
// used as-is.
func ParseChanges(raw []byte) (ChangeSet, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode changes: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("changes payload must be a JSON object")
	}

	var set ChangeSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode changes: %w", err)
		}
		field := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode changes: field %q: %w", field, err)
		}

		set = append(set, splitChange(field, value))
	}
	return set, nil
}

func splitChange(field string, value any) Change {
	if pair, ok := value.(map[string]any); ok {
		if to, has := pair["to"]; has {
			return Change{Field: field, From: pair["from"], To: to}
		}
	}
	return Change{Field: field, To: value}
}
