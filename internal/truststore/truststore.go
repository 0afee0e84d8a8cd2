package truststore

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Keystore types.
const (
	TypePKCS12 = "PKCS12"
	TypeJKS    = "JKS"

	// DefaultType is used when no store type is configured.
	DefaultType = TypePKCS12
)

// ErrUnsupportedType is returned for store types other than PKCS12 and JKS.
var ErrUnsupportedType = errors.New("unsupported keystore type")

// backend is implemented once per keystore encoding.
type backend interface {
	load(r io.Reader, password []byte) error
	setCertificate(alias string, cert *x509.Certificate) error
	certificate(alias string) (*x509.Certificate, bool)
	aliases() []string
	write(w io.Writer, password []byte) error
}

// Store is an in-memory keystore of a fixed type.
type Store struct {
	storeType string
	backend   backend
}

// New creates an empty store. An empty storeType selects DefaultType.
func New(storeType string) (*Store, error) {
	canonical, err := NormalizeType(storeType)
	if err != nil {
		return nil, err
	}

	var b backend
	switch canonical {
	case TypePKCS12:
		b = newPKCS12Backend()
	case TypeJKS:
		b = newJKSBackend()
	}

	return &Store{storeType: canonical, backend: b}, nil
}

// Load reads an existing keystore of the given type from r.
func Load(r io.Reader, storeType string, password []byte) (*Store, error) {
	s, err := New(storeType)
	if err != nil {
		return nil, err
	}
	if err := s.backend.load(r, password); err != nil {
		return nil, fmt.Errorf("failed to load %s keystore: %w", s.storeType, err)
	}
	return s, nil
}

// NormalizeType returns the canonical spelling of a store type.
func NormalizeType(storeType string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(storeType)) {
	case "", TypePKCS12, "PKCS#12", "P12", "PFX":
		return TypePKCS12, nil
	case TypeJKS:
		return TypeJKS, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, storeType)
}

// FileName returns the output file name for a store type,
// "truststore.<type>" with the type lower-cased.
func FileName(storeType string) string {
	if storeType == "" {
		storeType = DefaultType
	}
	return "truststore." + strings.ToLower(storeType)
}

// Type returns the canonical store type.
func (s *Store) Type() string {
	return s.storeType
}

// SetCertificate adds cert under alias, replacing any entry with the same
// alias.
func (s *Store) SetCertificate(alias string, cert *x509.Certificate) error {
	if alias == "" {
		return errors.New("alias must not be empty")
	}
	if cert == nil {
		return errors.New("certificate must not be nil")
	}
	return s.backend.setCertificate(alias, cert)
}

// Certificate returns the trusted certificate stored under alias.
func (s *Store) Certificate(alias string) (*x509.Certificate, bool) {
	return s.backend.certificate(alias)
}

// Aliases returns the aliases of all entries.
func (s *Store) Aliases() []string {
	return s.backend.aliases()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.backend.aliases())
}

// Write encodes the store to w protected by password.
func (s *Store) Write(w io.Writer, password []byte) error {
	if err := s.backend.write(w, password); err != nil {
		return fmt.Errorf("failed to write %s keystore: %w", s.storeType, err)
	}
	return nil
}

// ParseCertificate parses a single X.509 certificate in PEM or DER form.
// PEM input must contain exactly one CERTIFICATE block.
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	block, rest := pem.Decode(data)
	if block == nil {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("certificate is neither PEM nor DER: %w", err)
		}
		return cert, nil
	}

	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	if next, _ := pem.Decode(rest); next != nil {
		return nil, errors.New("expected a single certificate, found more than one PEM block")
	}
	return x509.ParseCertificate(block.Bytes)
}
