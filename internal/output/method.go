package output

import (
	"fmt"
	"strings"
)

// Method selects where resolved secrets are written.
type Method int

const (
	// PropertyMap stores each secret in FlushContext.Properties.
	PropertyMap Method = iota
	// SystemPropertyMap sets each secret on FlushContext.System.
	SystemPropertyMap
	// EnvFile appends each secret as a KEY=VALUE line to .env.
	EnvFile
	// RawFile appends each secret's value to a file named after the property.
	RawFile
	// TrustStore adds each secret as a trusted certificate to a keystore.
	TrustStore
)

// Methods lists every output method in declaration order.
var Methods = []Method{PropertyMap, SystemPropertyMap, EnvFile, RawFile, TrustStore}

var methodNames = map[Method]string{
	PropertyMap:       "PropertyMap",
	SystemPropertyMap: "SystemPropertyMap",
	EnvFile:           "EnvFile",
	RawFile:           "RawFile",
	TrustStore:        "TrustStore",
}

// Alternative spellings accepted by ParseMethod.
var methodAliases = map[string]Method{
	"mavenproperties":  PropertyMap,
	"systemproperties": SystemPropertyMap,
	"file":             RawFile,
}

// String returns the canonical name of m.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a method name case-insensitively. An empty name yields
// PropertyMap.
func ParseMethod(name string) (Method, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return PropertyMap, nil
	}
	for m, canonical := range methodNames {
		if strings.ToLower(canonical) == normalized {
			return m, nil
		}
	}
	if m, ok := methodAliases[normalized]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown output method %q (valid: %s)", name, strings.Join(MethodNames(), ", "))
}

// MethodNames returns the canonical names of all methods.
func MethodNames() []string {
	names := make([]string, 0, len(Methods))
	for _, m := range Methods {
		names = append(names, m.String())
	}
	return names
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, fmt.Errorf("unknown output method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
