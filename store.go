package cloudvar_client

// varStore holds the session's view of the room's variables. It is a
// plain map; the Session serializes all access under its own mutex.
type varStore struct {
	vars map[string]string
}

func newVarStore() *varStore {
	return &varStore{vars: make(map[string]string)}
}

// apply records a value and reports whether the name was observed for
// the first time.
func (s *varStore) apply(name, value string) (isNew bool) {
	_, exists := s.vars[name]
	s.vars[name] = value
	return !exists
}

func (s *varStore) get(name string) (string, bool) {
	value, ok := s.vars[name]
	return value, ok
}

func (s *varStore) has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

func (s *varStore) size() int {
	return len(s.vars)
}

// snapshot copies the store so callers can iterate without holding the
// session mutex.
func (s *varStore) snapshot() map[string]string {
	out := make(map[string]string, len(s.vars))
	for name, value := range s.vars {
		out[name] = value
	}
	return out
}
