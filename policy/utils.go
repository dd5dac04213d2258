package policy

import "strings"

// lookup resolves a dotted key such as "requester.role" against the
// context's three roots.
func (ctx RequestContext) lookup(key string) (any, bool) {
	root, rest, _ := strings.Cut(key, ".")
	var current map[string]any
	switch root {
	case "requester":
		current = ctx.Requester
	case "subject":
		current = ctx.Subject
	case "params":
		current = ctx.Params
	default:
		return nil, false
	}
	if rest == "" {
		return current, current != nil
	}

	keys := strings.Split(rest, ".")
	for i, k := range keys {
		value, ok := current[k]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return value, true
		}
		if current, ok = value.(map[string]any); !ok {
			return nil, false
		}
	}
	return nil, false
}
