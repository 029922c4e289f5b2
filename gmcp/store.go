package gmcp

import (
	"encoding/json"
	"strings"
)

// Store retains the raw value of every package the server has sent,
// addressable by dot-separated path. It backs the pass-through side of
// the protocol: packages the client does not interpret (group, room,
// enemy data) stay queryable by scripts.
type Store struct {
	data map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]any)}
}

// Update records a package's body under its dot-separated name,
// creating intermediate objects as needed. Bodies that are not valid
// JSON are stored as raw strings.
func (s *Store) Update(pkg string, body []byte) {
	var val any
	if err := json.Unmarshal(body, &val); err != nil {
		val = string(body)
	}

	parts := strings.Split(strings.ToLower(pkg), ".")
	cur := s.data
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = val
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
}

// Get retrieves a value by dot-separated path, descending into nested
// objects: Get("group.members") after an update to "group".
func (s *Store) Get(path string) (any, bool) {
	var cur any = s.data
	for _, part := range strings.Split(strings.ToLower(path), ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Reset empties the store.
func (s *Store) Reset() {
	s.data = make(map[string]any)
}
