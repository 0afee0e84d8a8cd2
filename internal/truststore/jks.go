package truststore

import (
	"crypto/x509"
	"io"
	"strings"
	"time"

	keystore "github.com/pavlo-v-chernykh/keystore-go/v4"
)

const x509CertificateType = "X509"

// jksBackend wraps a keystore-go KeyStore. Private key entries loaded from
// an existing store are preserved on write.
type jksBackend struct {
	ks keystore.KeyStore
}

func newJKSBackend() *jksBackend {
	return &jksBackend{
		ks: keystore.New(
			keystore.WithOrderedAliases(),
			keystore.WithMinPasswordLen(0),
		),
	}
}

func (b *jksBackend) load(r io.Reader, password []byte) error {
	return b.ks.Load(r, password)
}

// JKS aliases are lower-cased, as keytool does.
func (b *jksBackend) setCertificate(alias string, cert *x509.Certificate) error {
	return b.ks.SetTrustedCertificateEntry(strings.ToLower(alias), keystore.TrustedCertificateEntry{
		CreationTime: time.Now(),
		Certificate: keystore.Certificate{
			Type:    x509CertificateType,
			Content: cert.Raw,
		},
	})
}

func (b *jksBackend) certificate(alias string) (*x509.Certificate, bool) {
	entry, err := b.ks.GetTrustedCertificateEntry(strings.ToLower(alias))
	if err != nil {
		return nil, false
	}
	cert, err := x509.ParseCertificate(entry.Certificate.Content)
	if err != nil {
		return nil, false
	}
	return cert, true
}

func (b *jksBackend) aliases() []string {
	return b.ks.Aliases()
}

func (b *jksBackend) write(w io.Writer, password []byte) error {
	return b.ks.Store(w, password)
}
