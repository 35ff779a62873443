package ats

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field extraction over decoded webhook payloads. Vendors populate different
// field subsets across API versions, so every interesting value is looked up
// through an ordered list of dot-separated alias paths and the first
// non-empty hit wins. List elements are addressed by numeric segment
// ("candidate.emailAddresses.0.value").

func decodeBody(raw []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func lookupPath(root any, path string) any {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			var ok bool
			cur, ok = node[seg]
			if !ok {
				return nil
			}
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			cur = node[idx]
		default:
			return nil
		}
	}
	return cur
}

// coerceString renders scalar values as strings. Provider IDs arrive as
// either JSON numbers or strings; they are opaque correlation keys here, so
// everything becomes a string.
func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

// firstString evaluates alias paths in priority order and returns the first
// non-empty value. The ordering is a compatibility contract with the real
// payload shapes each vendor emits; append new aliases, never reorder.
func firstString(root any, paths ...string) string {
	for _, p := range paths {
		if s := coerceString(lookupPath(root, p)); s != "" {
			return s
		}
	}
	return ""
}
