package symptoms

import "fmt"

// Vector is a binary feature vector over a Vocabulary. Position i is 1 when
// the i-th vocabulary symptom is present.
type Vector []uint8

// Vocabulary is the ordered list of recognised symptom names. The order fixes
// the feature index mapping and never changes after construction.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary builds a vocabulary from names in the given order.
func NewVocabulary(names []string) (*Vocabulary, error) {
	v := &Vocabulary{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("empty symptom name at position %d", len(v.names))
		}
		if _, dup := v.index[name]; dup {
			return nil, fmt.Errorf("duplicate symptom %q", name)
		}
		v.index[name] = len(v.names)
		v.names = append(v.names, name)
	}
	return v, nil
}

// Len returns the number of symptoms.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Names returns a copy of the symptom names in index order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Index returns the vector position of name.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Encode maps selected symptom names onto a fresh vector. Names are matched
// exactly; unknown names are dropped. Matched names come back once each, in
// vocabulary order.
func (v *Vocabulary) Encode(selected []string) (Vector, []string) {
	vec := make(Vector, len(v.names))
	for _, name := range selected {
		if i, ok := v.Index(name); ok {
			vec[i] = 1
		}
	}

	matched := []string{}
	for i, bit := range vec {
		if bit == 1 {
			matched = append(matched, v.names[i])
		}
	}
	return vec, matched
}

// Equal reports whether a and b have the same length and bits.
func Equal(a, b Vector) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Overlaps reports whether a and b share at least one set position.
func Overlaps(a, b Vector) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i]&b[i] != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set positions.
func (vec Vector) Count() int {
	n := 0
	for _, bit := range vec {
		if bit != 0 {
			n++
		}
	}
	return n
}
