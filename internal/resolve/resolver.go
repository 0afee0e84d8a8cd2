package resolve

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/systmms/smpull/pkg/mapping"
)

// Secret is a resolved value ready to be flushed under Property.
type Secret struct {
	Property string
	Value    string
}

// Resolver matches mappings against fetched secret values. It holds no
// state besides the project used in error messages, so resolution is a pure
// function of its inputs.
type Resolver struct {
	projectID string
}

// New creates a resolver for secrets fetched from projectID.
func New(projectID string) *Resolver {
	return &Resolver{projectID: projectID}
}

// EachFlat resolves mappings in declaration order and passes every resolved
// secret to fn before the next mapping is looked at. It stops at the first
// missing key or the first error returned by fn.
func (r *Resolver) EachFlat(mappings []mapping.Mapping, fetched map[string]string, fn func(Secret) error) error {
	for _, m := range mappings {
		value, ok := fetched[m.Key]
		if !ok {
			return MissingSecretError{ProjectID: r.projectID, Key: m.Key}
		}
		if err := fn(Secret{Property: m.Property, Value: value}); err != nil {
			return err
		}
	}
	return nil
}

// EachComplex resolves complex mappings in declaration order. Each secret
// is parsed as a flat JSON object and its sub-mappings are resolved against
// that object's fields.
func (r *Resolver) EachComplex(mappings []mapping.ComplexMapping, fetched map[string]string, fn func(Secret) error) error {
	for _, cm := range mappings {
		raw, ok := fetched[cm.Key]
		if !ok {
			return MissingSecretError{ProjectID: r.projectID, Key: cm.Key, Complex: true}
		}

		fields, err := parseFlatObject(raw)
		if err != nil {
			return MalformedComplexSecretError{Key: cm.Key, Err: err}
		}

		for _, sub := range cm.Mappings {
			value, ok := fields[sub.Key]
			if !ok {
				return MissingSubKeyError{ParentKey: cm.Key, SubKey: sub.Key}
			}
			if err := fn(Secret{Property: sub.Property, Value: value}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveFlat returns one Secret per mapping in input order. On failure it
// returns the secrets resolved before the failing mapping along with the
// error.
func (r *Resolver) ResolveFlat(mappings []mapping.Mapping, fetched map[string]string) ([]Secret, error) {
	resolved := make([]Secret, 0, len(mappings))
	err := r.EachFlat(mappings, fetched, func(s Secret) error {
		resolved = append(resolved, s)
		return nil
	})
	return resolved, err
}

// ResolveComplex returns the secrets of every sub-mapping in input order,
// with the same partial-result semantics as ResolveFlat.
func (r *Resolver) ResolveComplex(mappings []mapping.ComplexMapping, fetched map[string]string) ([]Secret, error) {
	var resolved []Secret
	err := r.EachComplex(mappings, fetched, func(s Secret) error {
		resolved = append(resolved, s)
		return nil
	})
	return resolved, err
}

var errNotObject = errors.New("value is not a JSON object")

// parseFlatObject decodes a JSON object whose values are all strings.
// Nested objects, arrays, numbers, booleans and null are rejected rather
// than flattened or dropped.
func parseFlatObject(raw string) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errNotObject
	}

	result := make(map[string]string, len(fields))
	for name, value := range fields {
		var s string
		if err := json.Unmarshal(value, &s); err != nil || !isJSONString(value) {
			return nil, fmt.Errorf("field %q is not a string", name)
		}
		result[name] = s
	}
	return result, nil
}

// isJSONString reports whether a raw JSON value is a string literal;
// json.Unmarshal accepts null into a string without error.
func isJSONString(value json.RawMessage) bool {
	return len(value) > 0 && value[0] == '"'
}
