package persistence

// Merge overlays src onto defaults and returns a new map. Nested objects
// merge key by key; arrays and scalars from src win; a null in src keeps
// the default.
func Merge(defaults, src map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(src))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range src {
		if v == nil {
			if _, ok := out[k]; ok {
				continue
			}
		}
		dm, dok := out[k].(map[string]any)
		sm, sok := v.(map[string]any)
		if dok && sok {
			out[k] = Merge(dm, sm)
			continue
		}
		out[k] = v
	}
	return out
}
