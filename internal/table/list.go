package table

import (
	"encoding/json"
	"strings"
)

// EncodeList serializes a list-valued cell as a JSON array of strings:
//
//	["voucher","credit_card"]
//
// A nil slice encodes as "[]".
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		// []string always marshals.
		return "[]"
	}
	return string(b)
}

// DecodeList parses a list-valued cell. It accepts an in-memory []string or
// the text written by EncodeList; JSON null members decode to "". ok is false
// when v is null or is not a JSON array.
func DecodeList(v any) (items []string, ok bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if !strings.HasPrefix(s, "[") {
			return nil, false
		}
		var raw []*string
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, false
		}
		out := make([]string, len(raw))
		for i, p := range raw {
			if p != nil {
				out[i] = *p
			}
		}
		return out, true
	}
	return nil, false
}
