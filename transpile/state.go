package transpile

// State is the mutable, nested, dot-path-addressed map threaded
// through one top-level Transpile call (spec.md §3's TranspilerState),
// plus the indentation depth indent:true rules raise and restore.
type State struct {
	vars  map[string]any
	depth int
}

func newState() *State {
	return &State{vars: map[string]any{}}
}

// get navigates segs against the state's nested map, reporting whether
// every segment resolved.
func (s *State) get(segs []string) (any, bool) {
	if len(segs) == 0 {
		return nil, false
	}
	m := s.vars
	for i, seg := range segs {
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	return nil, false
}

// set writes value at segs, creating intermediate maps on demand.
func (s *State) set(segs []string, value any) {
	if len(segs) == 0 {
		return
	}
	m := s.vars
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}
