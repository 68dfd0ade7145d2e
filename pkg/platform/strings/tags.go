// Package strings normalizes user-supplied labels.
package strings

import (
	"strings"
	"unicode"
)

// NormalizeTags lowercases each tag, collapses inner whitespace to a single
// hyphen, drops empties and duplicates, and keeps first-seen order. Tags
// longer than maxLen runes are cut; maxLen <= 0 disables the cut.
//
//	NormalizeTags([]string{" Summer  Linen ", "summer linen", ""}, 0)
//	// []string{"summer-linen"}
func NormalizeTags(values []string, maxLen int) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		tag := strings.Join(strings.FieldsFunc(strings.ToLower(v), unicode.IsSpace), "-")
		if maxLen > 0 {
			if r := []rune(tag); len(r) > maxLen {
				tag = strings.TrimRight(string(r[:maxLen]), "-")
			}
		}
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
