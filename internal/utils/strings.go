// Package utils holds small helpers shared by handlers.
package utils

import "strings"

// SplitList splits a comma-separated query value into trimmed, non-empty,
// de-duplicated items in first-seen order. Returns nil when nothing remains.
func SplitList(s string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, v := range strings.Split(s, ",") {
		item := strings.TrimSpace(v)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}
