package value

// Mapping is a string-keyed map that remembers key insertion order. Setting an
// existing key replaces its value in place.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// MappingOf builds a mapping from pairs, in order.
func MappingOf(pairs ...Pair) *Mapping {
	m := NewMapping()
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Pair is one key/value entry of a mapping.
type Pair struct {
	Key   string
	Value Value
}

// P is shorthand for constructing a Pair.
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// Len returns the number of keys. A nil mapping is empty.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key, appending the key if it is new.
func (m *Mapping) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Update copies every entry of other into m; other's values win.
func (m *Mapping) Update(other *Mapping) {
	other.Range(func(k string, v Value) bool {
		m.Set(k, v)
		return true
	})
}

// Merged returns a new mapping holding m's entries updated with other's.
func (m *Mapping) Merged(other *Mapping) *Mapping {
	out := m.shallowCopy()
	out.Update(other)
	return out
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	m.Range(func(k string, v Value) bool {
		out.Set(k, v.Clone())
		return true
	})
	return out
}

// Equal compares two mappings key by key, ignoring order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Range(func(k string, v Value) bool {
		ov, ok := other.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
		}
		return equal
	})
	return equal
}

func (m *Mapping) shallowCopy() *Mapping {
	out := NewMapping()
	m.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}
