package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/safedi/safedi-go/internal/errors"
)

// MarshalDeterministic renders a value as JSON with every object's keys
// sorted, so two runs over the same inputs produce byte-identical
// artifacts. The value is round-tripped through a generic tree first;
// marshalSorted then re-renders that tree without HTML escaping, which
// matters for the angle brackets in canonical type spellings.
func MarshalDeterministic(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact value: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("reshape artifact value: %w", err)
	}
	return marshalSorted(tree)
}

// marshalSorted recursively marshals maps with sorted keys
func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyJSON, err := marshalPrimitive(k)
			if err != nil {
				return nil, err
			}
			valJSON, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			buf.Write(valJSON)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemJSON, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemJSON)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return marshalPrimitive(v)
	}
}

// marshalPrimitive encodes a leaf value without HTML escaping.
func marshalPrimitive(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}

// unmarshalStrictSchema decodes artifact bytes, reporting malformed JSON
// as a structured driver error. Unknown fields pass through untouched.
func unmarshalStrictSchema(data []byte, doc *Document) error {
	if err := json.Unmarshal(data, doc); err != nil {
		return errors.WrapReport(errors.Newf(errors.IO003, "malformed module artifact: %v", err))
	}
	return nil
}
