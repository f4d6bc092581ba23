package batch

import "strings"

// SetAtPath assigns value at the dotted path inside doc, creating empty
// nesting objects for every intermediate segment. Existing intermediate
// objects are reused so multiple paths can share a prefix.
func SetAtPath(doc map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// FieldPayload builds the minimal nested write body for one leaf assignment.
func FieldPayload(fieldPath string, value any) map[string]any {
	doc := map[string]any{}
	SetAtPath(doc, fieldPath, value)
	return doc
}
