package pages

// Universe is the configured, ordered set of page identifiers.
type Universe struct {
	ids []string
	set map[string]struct{}
}

func NewUniverse(ids []string) Universe {
	u := Universe{set: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if _, dup := u.set[id]; dup {
			continue
		}
		u.set[id] = struct{}{}
		u.ids = append(u.ids, id)
	}
	return u
}

// IDs returns the identifiers in configured order.
func (u Universe) IDs() []string {
	return append([]string(nil), u.ids...)
}

func (u Universe) Contains(id string) bool {
	_, ok := u.set[id]
	return ok
}

// Filter keeps the ids that belong to the universe, dropping duplicates and
// preserving the caller's order. The result is never nil.
func (u Universe) Filter(ids []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, id := range ids {
		if !u.Contains(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
