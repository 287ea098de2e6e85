// Package patch applies partial JSON updates onto existing values.
package patch

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/medbase/medbase/internal/platform/apperr"
)

// Apply decodes raw onto dst. Only keys present in raw change dst; an explicit
// null clears pointer fields. Unknown keys are ignored.
func Apply(dst interface{}, raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] != '{' {
		return apperr.Validation("request body must be a JSON object")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

// Touches reports whether raw is a JSON object naming any of keys. Invalid
// input touches nothing; Apply reports it.
func Touches(raw []byte, keys ...string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(raw), &fields); err != nil {
		return false
	}
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}
