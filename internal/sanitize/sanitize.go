// Package sanitize provides metadata and identifier sanitization for the
// indexing pipeline.
//
// Vector store filter syntaxes commonly treat '$' as an operator prefix and
// '.' as a path separator, so metadata keys containing either are stripped
// before storage. Index names must match ^[a-z0-9_]{1,64}$.
package sanitize

import "strings"

// Metadata returns a copy of metadata with unsafe keys removed.
//
// A key is unsafe when it starts with '$' or contains '.', both of which
// break common vector-store filter syntaxes. The input map is never
// modified. Pure function: nil input yields nil, no panics.
func Metadata(metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	clean := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		if !SafeKey(k) {
			continue
		}
		clean[k] = v
	}
	return clean
}

// SafeKey reports whether a metadata key is safe for vector store filters.
func SafeKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.HasPrefix(key, "$") {
		return false
	}
	return !strings.Contains(key, ".")
}
