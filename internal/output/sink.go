package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/smpull/internal/resolve"
	"github.com/systmms/smpull/internal/secure"
	"github.com/systmms/smpull/internal/truststore"
)

// Sink writes a single resolved secret to its destination.
type Sink interface {
	Flush(secret resolve.Secret, fc *FlushContext) error
}

// PropertySetter receives system properties.
type PropertySetter interface {
	SetProperty(name, value string) error
}

// ProcessEnv sets properties on the environment of the current process.
type ProcessEnv struct{}

// SetProperty calls os.Setenv.
func (ProcessEnv) SetProperty(name, value string) error {
	return os.Setenv(name, value)
}

// MapSetter collects properties in a map, e.g. to build a child process
// environment.
type MapSetter map[string]string

// SetProperty stores value under name.
func (m MapSetter) SetProperty(name, value string) error {
	m[name] = value
	return nil
}

// TrustStoreParams configures the TrustStore sink.
type TrustStoreParams struct {
	// Password protects the written store and unlocks ExistingStorePath.
	// Nil means an empty password.
	Password *secure.SecureBuffer

	// ExistingStorePath is a keystore to start from. When empty a new
	// store is created.
	ExistingStorePath string

	// StoreType is PKCS12 or JKS. Empty means PKCS12.
	StoreType string
}

// FlushContext carries the destinations shared by all sinks of a run.
type FlushContext struct {
	Properties map[string]string
	System     PropertySetter
	TrustStore TrustStoreParams

	// Dir is the directory relative output paths are resolved against.
	Dir string

	// trustStore is the store built by earlier TrustStore flushes of this
	// context. Later flushes extend it instead of starting over.
	trustStore *truststore.Store
}

// NewFlushContext returns a context writing properties to a fresh map,
// system properties to the process environment and files to dir.
func NewFlushContext(dir string) *FlushContext {
	return &FlushContext{
		Properties: make(map[string]string),
		System:     ProcessEnv{},
		Dir:        dir,
	}
}

func (fc *FlushContext) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	dir := fc.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// SinkError reports a failed flush. The secret value is never included.
type SinkError struct {
	Method   Method
	Property string
	Err      error
}

// Error implements the error interface.
func (e SinkError) Error() string {
	return fmt.Sprintf("failed to flush %s via %s: %v", e.Property, e.Method, e.Err)
}

// Unwrap returns the underlying cause.
func (e SinkError) Unwrap() error {
	return e.Err
}

// SinkFor returns the sink implementing m.
func SinkFor(m Method) (Sink, error) {
	switch m {
	case PropertyMap:
		return propertyMapSink{}, nil
	case SystemPropertyMap:
		return systemPropertySink{}, nil
	case EnvFile:
		return envFileSink{}, nil
	case RawFile:
		return rawFileSink{}, nil
	case TrustStore:
		return trustStoreSink{}, nil
	default:
		return nil, fmt.Errorf("unknown output method %d", int(m))
	}
}

// Flush writes secret with the sink selected by m and wraps failures in a
// SinkError.
func Flush(m Method, secret resolve.Secret, fc *FlushContext) error {
	sink, err := SinkFor(m)
	if err != nil {
		return err
	}
	if err := sink.Flush(secret, fc); err != nil {
		return SinkError{Method: m, Property: secret.Property, Err: err}
	}
	return nil
}

type propertyMapSink struct{}

func (propertyMapSink) Flush(secret resolve.Secret, fc *FlushContext) error {
	if fc.Properties == nil {
		fc.Properties = make(map[string]string)
	}
	fc.Properties[secret.Property] = secret.Value
	return nil
}

type systemPropertySink struct{}

func (systemPropertySink) Flush(secret resolve.Secret, fc *FlushContext) error {
	setter := fc.System
	if setter == nil {
		setter = ProcessEnv{}
	}
	return setter.SetProperty(secret.Property, secret.Value)
}
