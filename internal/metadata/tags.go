package metadata

import "strings"

// TagMap holds one file's extracted metadata keyed by tag name. Keys may be
// namespace-prefixed ("QuickTime:CreateDate") depending on the extraction
// tool's output mode.
type TagMap map[string]string

// Lookup resolves a tag by exact key first, then by matching the suffix after
// the last colon of each stored key. The second return reports presence.
func (t TagMap) Lookup(name string) (string, bool) {
	if v, ok := t[name]; ok {
		return v, true
	}
	for k, v := range t {
		if i := strings.LastIndex(k, ":"); i >= 0 && k[i+1:] == name {
			return v, true
		}
	}
	return "", false
}

// Has reports whether the tag is present under the Lookup rules.
func (t TagMap) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}
