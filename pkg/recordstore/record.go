// Package recordstore defines the loosely-typed document store the core reads
// diagnostic graphs and stored cases from.
package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one document as returned by a store. Field types are not guaranteed;
// use the accessors, which treat missing or mistyped fields as zero values.
type Record map[string]any

// Filter selects records whose fields equal the given string values.
type Filter map[string]string

// Store is the read side of the record store.
type Store interface {
	QueryRecords(ctx context.Context, collection string, filter Filter) ([]Record, error)
}

// String returns the field as a string. Numbers and bools are formatted.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the field as a bool. Strings such as "true", "yes" and "1" are accepted.
func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	}
	return false
}

// Int returns the field as an int, or 0.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return 0
}

// Strings returns the field as a list. A list, a JSON array string, or a
// comma-separated string are all accepted. Empty items are dropped.
func (r Record) Strings(key string) []string {
	var out []string
	switch v := r[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			var items []string
			if err := json.Unmarshal([]byte(s), &items); err == nil {
				out = items
				break
			}
		}
		out = strings.Split(s, ",")
	}

	cleaned := out[:0]
	for _, item := range out {
		item = strings.TrimSpace(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// First returns the first non-empty string among keys.
func (r Record) First(keys ...string) string {
	for _, key := range keys {
		if v := r.String(key); v != "" {
			return v
		}
	}
	return ""
}

// Matches reports whether every filter field equals the record's value.
func (f Filter) Matches(r Record) bool {
	for key, want := range f {
		if r.String(key) != want {
			return false
		}
	}
	return true
}

// Keys returns the filter keys sorted, for stable query construction.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
