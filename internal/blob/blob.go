// Package blob round-trips schemaless JSON documents without losing fields
// the current build does not declare.
package blob

import "encoding/json"

// SplitUnknown decodes data into v and returns the keys v does not declare,
// so they can be carried along and folded back in on re-serialization.
// v must not carry omitempty tags, otherwise empty declared fields would be
// misreported as unknown.
func SplitUnknown(data []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	declared, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var declaredKeys map[string]json.RawMessage
	if err := json.Unmarshal(declared, &declaredKeys); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	for k := range declaredKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// MergeUnknown marshals v and folds preserved unknown fields back into the
// document. Declared fields win on key collision.
func MergeUnknown(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return b, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := m[k]; !ok {
			m[k] = val
		}
	}
	return json.Marshal(m)
}
