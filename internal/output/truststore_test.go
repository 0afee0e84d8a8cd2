package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/smpull/internal/resolve"
	"github.com/systmms/smpull/internal/secure"
	"github.com/systmms/smpull/internal/truststore"
	"github.com/systmms/smpull/tests/testutil"
)

func password(t *testing.T, s string) *secure.SecureBuffer {
	t.Helper()
	buf, err := secure.NewSecureString(s)
	require.NoError(t, err)
	t.Cleanup(buf.Destroy)
	return buf
}

func loadStore(t *testing.T, path, storeType, pass string) *truststore.Store {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	store, err := truststore.Load(f, storeType, []byte(pass))
	require.NoError(t, err)
	return store
}

func TestTrustStoreSinkCreatesStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cert := testutil.GenerateCertificate(t, "internal-ca")

	fc := NewFlushContext(dir)
	fc.TrustStore = TrustStoreParams{Password: password(t, "changeit")}

	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "internal-ca", Value: string(cert.PEM)}, fc))

	path := filepath.Join(dir, "truststore.pkcs12")
	store := loadStore(t, path, truststore.TypePKCS12, "changeit")
	got, ok := store.Certificate("internal-ca")
	require.True(t, ok)
	assert.Equal(t, cert.Cert.Raw, got.Raw)
}

func TestTrustStoreSinkAccumulatesWithinRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := testutil.GenerateCertificate(t, "first")
	second := testutil.GenerateCertificate(t, "second")

	fc := NewFlushContext(dir)
	fc.TrustStore = TrustStoreParams{Password: password(t, "changeit"), StoreType: "JKS"}

	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "first", Value: string(first.PEM)}, fc))
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "second", Value: string(second.DER)}, fc))

	store := loadStore(t, filepath.Join(dir, "truststore.jks"), truststore.TypeJKS, "changeit")
	assert.ElementsMatch(t, []string{"first", "second"}, store.Aliases())
}

func TestTrustStoreSinkExtendsExistingStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := testutil.GenerateCertificate(t, "existing")
	added := testutil.GenerateCertificate(t, "added")

	seed, err := truststore.New(truststore.TypePKCS12)
	require.NoError(t, err)
	require.NoError(t, seed.SetCertificate("existing", existing.Cert))

	seedPath := filepath.Join(dir, "seed.p12")
	f, err := os.Create(seedPath)
	require.NoError(t, err)
	require.NoError(t, seed.Write(f, []byte("secret")))
	require.NoError(t, f.Close())

	fc := NewFlushContext(dir)
	fc.TrustStore = TrustStoreParams{Password: password(t, "secret"), ExistingStorePath: seedPath}

	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "added", Value: string(added.PEM)}, fc))

	store := loadStore(t, filepath.Join(dir, "truststore.pkcs12"), truststore.TypePKCS12, "secret")
	assert.ElementsMatch(t, []string{"existing", "added"}, store.Aliases())

	original := loadStore(t, seedPath, truststore.TypePKCS12, "secret")
	assert.Equal(t, []string{"existing"}, original.Aliases())
}

func TestTrustStoreSinkReplacesAlias(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldCert := testutil.GenerateCertificate(t, "old")
	newCert := testutil.GenerateCertificate(t, "new")

	fc := NewFlushContext(dir)
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca", Value: string(oldCert.PEM)}, fc))
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca", Value: string(newCert.PEM)}, fc))

	store := loadStore(t, filepath.Join(dir, "truststore.pkcs12"), truststore.TypePKCS12, "")
	assert.Equal(t, 1, store.Len())
	got, ok := store.Certificate("ca")
	require.True(t, ok)
	assert.Equal(t, newCert.Cert.Raw, got.Raw)
}

func TestTrustStoreSinkRotatesSharedCommonName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldCA := testutil.GenerateCertificate(t, "Corp CA")
	newCA := testutil.GenerateCertificate(t, "Corp CA")
	rotated := testutil.GenerateCertificate(t, "Corp CA")

	fc := NewFlushContext(dir)
	fc.TrustStore = TrustStoreParams{Password: password(t, "changeit")}
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca-old", Value: string(oldCA.PEM)}, fc))
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca-new", Value: string(newCA.PEM)}, fc))

	previous := filepath.Join(dir, "previous.p12")
	require.NoError(t, os.Rename(filepath.Join(dir, "truststore.pkcs12"), previous))

	next := NewFlushContext(dir)
	next.TrustStore = TrustStoreParams{Password: password(t, "changeit"), ExistingStorePath: previous}
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca-new", Value: string(rotated.PEM)}, next))

	store := loadStore(t, filepath.Join(dir, "truststore.pkcs12"), truststore.TypePKCS12, "changeit")
	assert.Equal(t, []string{"ca-old", "ca-new"}, store.Aliases())

	got, ok := store.Certificate("ca-old")
	require.True(t, ok)
	assert.Equal(t, oldCA.Cert.Raw, got.Raw)
	got, ok = store.Certificate("ca-new")
	require.True(t, ok)
	assert.Equal(t, rotated.Cert.Raw, got.Raw)
}

func TestTrustStoreSinkInvalidCertificateKeepsExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cert := testutil.GenerateCertificate(t, "ca")

	fc := NewFlushContext(dir)
	require.NoError(t, Flush(TrustStore, resolve.Secret{Property: "ca", Value: string(cert.PEM)}, fc))

	path := filepath.Join(dir, "truststore.pkcs12")
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = Flush(TrustStore, resolve.Secret{Property: "broken", Value: "not a certificate"}, fc)
	var sinkErr SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, TrustStore, sinkErr.Method)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTrustStoreSinkMissingExistingStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cert := testutil.GenerateCertificate(t, "ca")

	fc := NewFlushContext(dir)
	fc.TrustStore = TrustStoreParams{ExistingStorePath: filepath.Join(dir, "absent.p12")}

	err := Flush(TrustStore, resolve.Secret{Property: "ca", Value: string(cert.PEM)}, fc)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(filepath.Join(dir, "truststore.pkcs12"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestTrustStoreSinkUnsupportedType(t *testing.T) {
	t.Parallel()

	cert := testutil.GenerateCertificate(t, "ca")
	fc := NewFlushContext(t.TempDir())
	fc.TrustStore = TrustStoreParams{StoreType: "BKS"}

	err := Flush(TrustStore, resolve.Secret{Property: "ca", Value: string(cert.PEM)}, fc)
	assert.ErrorIs(t, err, truststore.ErrUnsupportedType)
}
