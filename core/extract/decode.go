package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// entityReplacements is applied in order. The order matters: "&amp;lt;"
// becomes "<" because &amp; is decoded before &lt;.
var entityReplacements = [][2]string{
	{"&quot;", `"`},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&#39;", "'"},
	{"&#x27;", "'"},
	{"&#x2F;", "/"},
}

// UnescapeHTML decodes the entities NotebookLM leaves inside data-app-data.
func UnescapeHTML(s string) string {
	for _, r := range entityReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return s
}

// ToTriBool collapses the loosely typed correctness flag into a bool.
// Booleans pass through; "true", "yes" and "1" (any case, surrounding space
// ignored) are true; non-zero numbers are true; anything else is false.
func ToTriBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && f != 0
	default:
		return false
	}
}

// value decodes one raw JSON value; anything unreadable is nil.
func value(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// text reads a loosely typed text field. See textOf.
func text(raw json.RawMessage) string {
	return textOf(value(raw))
}

// textOf renders scalars as text. Null, objects and arrays read as "".
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
