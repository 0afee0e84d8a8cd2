package mapping

import "fmt"

// Mapping associates a secret key with the property it is written under.
type Mapping struct {
	Key      string `koanf:"key" json:"key" yaml:"key"`
	Property string `koanf:"property" json:"property" yaml:"property"`
}

// String returns "key -> property".
func (m Mapping) String() string {
	return fmt.Sprintf("%s -> %s", m.Key, m.Property)
}

// ComplexMapping associates a secret holding a JSON object with a set of
// sub-mappings resolved against that object's fields.
type ComplexMapping struct {
	Key      string    `koanf:"key" json:"key" yaml:"key"`
	Mappings []Mapping `koanf:"mappings" json:"mappings" yaml:"mappings"`
}

// Equal reports whether c and other name the same secret and the same set of
// sub-mappings, ignoring order and duplicates.
func (c ComplexMapping) Equal(other ComplexMapping) bool {
	if c.Key != other.Key {
		return false
	}
	return containsAll(c.Mappings, other.Mappings) && containsAll(other.Mappings, c.Mappings)
}

func containsAll(set, items []Mapping) bool {
	index := make(map[Mapping]struct{}, len(set))
	for _, m := range set {
		index[m] = struct{}{}
	}
	for _, m := range items {
		if _, ok := index[m]; !ok {
			return false
		}
	}
	return true
}

// Keys returns the secret keys of mappings in declaration order.
func Keys(mappings []Mapping) []string {
	keys := make([]string, 0, len(mappings))
	for _, m := range mappings {
		keys = append(keys, m.Key)
	}
	return keys
}

// ComplexKeys returns the top-level secret keys of complex mappings in
// declaration order.
func ComplexKeys(mappings []ComplexMapping) []string {
	keys := make([]string, 0, len(mappings))
	for _, m := range mappings {
		keys = append(keys, m.Key)
	}
	return keys
}
