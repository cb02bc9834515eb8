package media

import "strings"

// NormalizeTags trims each tag, drops empty ones and keeps the first of any duplicates.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func containsTag(tags []string, name string) bool {
	for _, t := range tags {
		if t == name {
			return true
		}
	}
	return false
}

// renameTag rewrites every occurrence of from in place and drops duplicates the
// rewrite produces, keeping the earliest. When to already precedes from, to
// stays where it was and from's slot disappears. The second result is false
// when nothing matched.
func renameTag(tags []string, from, to string) ([]string, bool) {
	if !containsTag(tags, from) {
		return tags, false
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == from {
			t = to
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, true
}

// removeTag drops all occurrences of name.
func removeTag(tags []string, name string) ([]string, bool) {
	if !containsTag(tags, name) {
		return tags, false
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != name {
			out = append(out, t)
		}
	}
	return out, true
}
