package component

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// Scope returns the stable scope class for a component name: "r" followed by
// the FNV-1a hash of the name in hex.
func Scope(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("r%08x", h.Sum32())
}

// Classes joins class names. Arguments may be strings, string slices, or
// maps from class name to a condition; empty names and false conditions are
// skipped. Map entries are added in sorted order.
func Classes(args ...any) string {
	var out []string
	add := func(s string) {
		out = append(out, strings.Fields(s)...)
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case string:
			add(v)
		case []string:
			for _, s := range v {
				add(s)
			}
		case map[string]bool:
			for _, k := range sortedKeys(v) {
				if v[k] {
					add(k)
				}
			}
		case map[string]any:
			for _, k := range sortedKeys(v) {
				if truthy(v[k]) {
					add(k)
				}
			}
		case fmt.Stringer:
			add(v.String())
		}
	}
	return strings.Join(out, " ")
}

// Styles renders a style map as an inline style declaration. camelCase
// property names become kebab-case and nil values are skipped.
func Styles(styles map[string]any) string {
	var out []string
	for _, k := range sortedKeys(styles) {
		v := styles[k]
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %v", kebab(k), v))
	}
	return strings.Join(out, "; ")
}

func kebab(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
