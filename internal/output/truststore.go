package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/systmms/smpull/internal/resolve"
	"github.com/systmms/smpull/internal/truststore"
)

type trustStoreSink struct{}

// Flush adds the secret as a trusted certificate under its property name
// and rewrites truststore.<type> in the context directory. The existing
// store, if any, is read on the first flush of a context only.
func (trustStoreSink) Flush(secret resolve.Secret, fc *FlushContext) error {
	params := fc.TrustStore

	storeType, err := truststore.NormalizeType(params.StoreType)
	if err != nil {
		return err
	}

	cert, err := truststore.ParseCertificate([]byte(secret.Value))
	if err != nil {
		return err
	}

	return params.Password.Use(func(password []byte) error {
		store := fc.trustStore
		if store == nil || store.Type() != storeType {
			store, err = openTrustStore(params.ExistingStorePath, storeType, password)
			if err != nil {
				return err
			}
		}

		if err := store.SetCertificate(secret.Property, cert); err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := store.Write(&buf, password); err != nil {
			return err
		}
		if err := replaceFile(fc.path(truststore.FileName(storeType)), buf.Bytes()); err != nil {
			return err
		}

		fc.trustStore = store
		return nil
	})
}

func openTrustStore(path, storeType string, password []byte) (*truststore.Store, error) {
	if path == "" {
		return truststore.New(storeType)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trust store: %w", err)
	}
	defer f.Close()

	return truststore.Load(f, storeType, password)
}

// replaceFile writes data next to path and renames it into place, so a
// failed write leaves any existing file untouched.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, outputFileMode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
