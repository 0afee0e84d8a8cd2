package truststore

import (
	"crypto/x509"
	"fmt"
	"io"
	"strings"

	"software.sslmate.com/src/go-pkcs12"
)

// pkcs12Backend keeps trusted certificate entries in insertion order.
type pkcs12Backend struct {
	entries []pkcs12.TrustStoreEntry
}

func newPKCS12Backend() *pkcs12Backend {
	return &pkcs12Backend{}
}

// load decodes a PKCS#12 trust store. Friendly names are read back from
// the certificate bags; entries without one, or stores whose safe contents
// use a legacy cipher, are aliased by subject common name. Colliding
// aliases get a numeric suffix so no entry is dropped.
func (b *pkcs12Backend) load(r io.Reader, password []byte) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	certs, err := pkcs12.DecodeTrustStore(data, string(password))
	if err != nil {
		return err
	}

	names, err := readFriendlyNames(data, password)
	if err != nil || len(names) != len(certs) {
		names = nil
	}

	for i, cert := range certs {
		alias := ""
		if names != nil {
			alias = names[i]
		}
		if alias == "" {
			alias = fallbackAlias(cert, i)
		}
		b.entries = append(b.entries, pkcs12.TrustStoreEntry{
			Cert:         cert,
			FriendlyName: b.uniqueAlias(alias),
		})
	}
	return nil
}

// setCertificate matches aliases case-insensitively and keeps the case of
// the most recent alias.
func (b *pkcs12Backend) setCertificate(alias string, cert *x509.Certificate) error {
	if i := b.index(alias); i >= 0 {
		b.entries[i] = pkcs12.TrustStoreEntry{Cert: cert, FriendlyName: alias}
		return nil
	}
	b.entries = append(b.entries, pkcs12.TrustStoreEntry{Cert: cert, FriendlyName: alias})
	return nil
}

func (b *pkcs12Backend) certificate(alias string) (*x509.Certificate, bool) {
	if i := b.index(alias); i >= 0 {
		return b.entries[i].Cert, true
	}
	return nil, false
}

func (b *pkcs12Backend) index(alias string) int {
	for i, e := range b.entries {
		if strings.EqualFold(e.FriendlyName, alias) {
			return i
		}
	}
	return -1
}

// uniqueAlias returns alias, or alias-1, alias-2, ... if already taken.
func (b *pkcs12Backend) uniqueAlias(alias string) string {
	candidate := alias
	for n := 1; b.index(candidate) >= 0; n++ {
		candidate = fmt.Sprintf("%s-%d", alias, n)
	}
	return candidate
}

func (b *pkcs12Backend) aliases() []string {
	aliases := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		aliases = append(aliases, e.FriendlyName)
	}
	return aliases
}

func (b *pkcs12Backend) write(w io.Writer, password []byte) error {
	data, err := pkcs12.Modern.EncodeTrustStoreEntries(b.entries, string(password))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// fallbackAlias names entries written without a friendly name.
func fallbackAlias(cert *x509.Certificate, index int) string {
	if cn := cert.Subject.CommonName; cn != "" {
		return cn
	}
	return fmt.Sprintf("cert-%d", index)
}
