package output

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// listKeys are the object fields treated as the result list when the
// top-level value is an object rather than an array.
var listKeys = []string{"results", "roots", "items"}

// ApplyAgentOptions applies --result-limit/--result-sort-by/--result-desc to
// a normalized value. Arrays are sorted and limited directly; objects have
// their first list field adjusted.
func ApplyAgentOptions(ctx context.Context, data interface{}) interface{} {
	s := SettingsFromContext(ctx)
	limit, sortBy, desc := s.Limit, s.SortBy, s.SortDesc
	if limit <= 0 && sortBy == "" {
		return data
	}

	switch v := data.(type) {
	case []interface{}:
		return applyToList(v, limit, sortBy, desc)
	case map[string]interface{}:
		for _, key := range listKeys {
			list, ok := v[key].([]interface{})
			if !ok {
				continue
			}
			out := make(map[string]interface{}, len(v))
			for k, val := range v {
				out[k] = val
			}
			out[key] = applyToList(list, limit, sortBy, desc)
			return out
		}
	}
	return data
}

// applyToList copies, sorts, and limits a list. Items missing the sort key
// go last and keep their relative order.
func applyToList(items []interface{}, limit int, sortBy string, desc bool) []interface{} {
	out := make([]interface{}, len(items))
	copy(out, items)

	if sortBy != "" {
		path := strings.Split(sortBy, ".")
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := lookup(out[i], path)
			b, bok := lookup(out[j], path)
			if !aok || !bok {
				return aok && !bok
			}
			cmp := compareValues(a, b)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func lookup(v interface{}, path []string) (interface{}, bool) {
	for _, part := range path {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok = findKey(m, part)
		if !ok {
			return nil, false
		}
	}
	return v, v != nil
}

func findKey(m map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	norm := normalizeName(name)
	for k, v := range m {
		if normalizeName(k) == norm {
			return v, true
		}
	}
	return nil, false
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "_", ""), "-", ""))
}

func compareValues(a, b interface{}) int {
	switch va := a.(type) {
	case float64:
		if vb, ok := b.(float64); ok {
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		}
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
