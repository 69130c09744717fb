package source

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RenderJSON flattens a parsed JSON value into "path: value" lines. Object
// keys are visited in sorted order and array elements are enumerated from 1,
// so a given value always renders identically.
func RenderJSON(v any) string {
	var b strings.Builder
	renderValue(&b, "", v)
	return strings.TrimRight(b.String(), "\n")
}

func renderValue(b *strings.Builder, path string, v any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			writeLine(b, path, "{}")
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			renderValue(b, joinKey(path, k), t[k])
		}
	case []any:
		if len(t) == 0 {
			writeLine(b, path, "[]")
			return
		}
		for i, elem := range t {
			renderValue(b, path+"["+strconv.Itoa(i+1)+"]", elem)
		}
	default:
		writeLine(b, path, scalar(t))
	}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func writeLine(b *strings.Builder, path, value string) {
	if path == "" {
		b.WriteString(value)
	} else {
		b.WriteString(path)
		b.WriteString(": ")
		b.WriteString(value)
	}
	b.WriteByte('\n')
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		// keep each leaf on its own line
		return strings.ReplaceAll(t, "\n", " ")
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
