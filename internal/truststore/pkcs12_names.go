package truststore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"hash"
	"unicode/utf16"

	"golang.org/x/crypto/pbkdf2"
)

var (
	oidDataContentType          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidEncryptedDataContentType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 6}
	oidCertBag                  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 12, 10, 1, 3}
	oidFriendlyName             = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 20}

	oidPBES2          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}
	oidPBKDF2         = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 12}
	oidHmacWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 7}
	oidHmacWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 9}
	oidHmacWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 113549, 2, 11}
	oidAES128CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 2}
	oidAES192CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 22}
	oidAES256CBC      = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 1, 42}
)

// errUnsupportedEncryption marks safe contents encrypted with a legacy
// PKCS#12 PBE scheme. Callers fall back to subject based aliases.
var errUnsupportedEncryption = errors.New("unsupported safe contents encryption")

type pfxPDU struct {
	Version  int
	AuthSafe contentInfo
	MacData  asn1.RawValue `asn1:"optional"`
}

type contentInfo struct {
	ContentType asn1.ObjectIdentifier
	Content     asn1.RawValue `asn1:"tag:0,explicit,optional"`
}

type encryptedData struct {
	Version              int
	EncryptedContentInfo encryptedContentInfo
}

type encryptedContentInfo struct {
	ContentType                asn1.ObjectIdentifier
	ContentEncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedContent           []byte `asn1:"tag:0,optional"`
}

type safeBag struct {
	ID         asn1.ObjectIdentifier
	Value      asn1.RawValue  `asn1:"tag:0,explicit"`
	Attributes []bagAttribute `asn1:"set,optional"`
}

type bagAttribute struct {
	ID    asn1.ObjectIdentifier
	Value asn1.RawValue `asn1:"set"`
}

type pbes2Params struct {
	KDF              pkix.AlgorithmIdentifier
	EncryptionScheme pkix.AlgorithmIdentifier
}

type pbkdf2Params struct {
	Salt       asn1.RawValue
	Iterations int
	KeyLength  int                      `asn1:"optional"`
	PRF        pkix.AlgorithmIdentifier `asn1:"optional"`
}

// readFriendlyNames returns the friendlyName attribute of every certificate
// bag in file order, "" where a bag has none. The MAC is not checked; the
// data must already have been accepted by pkcs12.DecodeTrustStore.
func readFriendlyNames(data, password []byte) ([]string, error) {
	var pfx pfxPDU
	if _, err := asn1.Unmarshal(data, &pfx); err != nil {
		return nil, err
	}
	if !pfx.AuthSafe.ContentType.Equal(oidDataContentType) {
		return nil, errors.New("authenticated safe is not of type data")
	}

	var authSafe []byte
	if _, err := asn1.Unmarshal(pfx.AuthSafe.Content.Bytes, &authSafe); err != nil {
		return nil, err
	}

	var safes []contentInfo
	if _, err := asn1.Unmarshal(authSafe, &safes); err != nil {
		return nil, err
	}

	var names []string
	for _, ci := range safes {
		contents, err := safeContents(ci, password)
		if err != nil {
			return nil, err
		}

		var bags []safeBag
		if _, err := asn1.Unmarshal(contents, &bags); err != nil {
			return nil, err
		}
		for _, bag := range bags {
			if !bag.ID.Equal(oidCertBag) {
				continue
			}
			name, err := bagFriendlyName(bag)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}
	return names, nil
}

func safeContents(ci contentInfo, password []byte) ([]byte, error) {
	switch {
	case ci.ContentType.Equal(oidDataContentType):
		var contents []byte
		if _, err := asn1.Unmarshal(ci.Content.Bytes, &contents); err != nil {
			return nil, err
		}
		return contents, nil

	case ci.ContentType.Equal(oidEncryptedDataContentType):
		var ed encryptedData
		if _, err := asn1.Unmarshal(ci.Content.Bytes, &ed); err != nil {
			return nil, err
		}
		return decryptPBES2(ed.EncryptedContentInfo, password)
	}
	return nil, fmt.Errorf("unsupported content type %s", ci.ContentType)
}

// decryptPBES2 decrypts safe contents protected with PBES2 (PBKDF2 and
// AES-CBC). PBES2 keys are derived from the UTF-8 password.
func decryptPBES2(info encryptedContentInfo, password []byte) ([]byte, error) {
	alg := info.ContentEncryptionAlgorithm
	if !alg.Algorithm.Equal(oidPBES2) {
		return nil, errUnsupportedEncryption
	}

	var params pbes2Params
	if _, err := asn1.Unmarshal(alg.Parameters.FullBytes, &params); err != nil {
		return nil, err
	}
	if !params.KDF.Algorithm.Equal(oidPBKDF2) {
		return nil, errUnsupportedEncryption
	}

	var kdf pbkdf2Params
	if _, err := asn1.Unmarshal(params.KDF.Parameters.FullBytes, &kdf); err != nil {
		return nil, err
	}
	if kdf.Salt.Tag != asn1.TagOctetString {
		return nil, errUnsupportedEncryption
	}

	var prf func() hash.Hash
	switch {
	case kdf.PRF.Algorithm.Equal(oidHmacWithSHA256):
		prf = sha256.New
	case kdf.PRF.Algorithm.Equal(oidHmacWithSHA512):
		prf = sha512.New
	case len(kdf.PRF.Algorithm) == 0, kdf.PRF.Algorithm.Equal(oidHmacWithSHA1):
		prf = sha1.New
	default:
		return nil, errUnsupportedEncryption
	}

	var keyLen int
	switch {
	case params.EncryptionScheme.Algorithm.Equal(oidAES256CBC):
		keyLen = 32
	case params.EncryptionScheme.Algorithm.Equal(oidAES192CBC):
		keyLen = 24
	case params.EncryptionScheme.Algorithm.Equal(oidAES128CBC):
		keyLen = 16
	default:
		return nil, errUnsupportedEncryption
	}

	block, err := aes.NewCipher(pbkdf2.Key(password, kdf.Salt.Bytes, kdf.Iterations, keyLen, prf))
	if err != nil {
		return nil, err
	}
	iv := params.EncryptionScheme.Parameters.Bytes
	if len(iv) != block.BlockSize() {
		return nil, errors.New("invalid AES-CBC IV")
	}

	encrypted := info.EncryptedContent
	if len(encrypted) == 0 || len(encrypted)%block.BlockSize() != 0 {
		return nil, errors.New("invalid encrypted content length")
	}
	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, encrypted)

	pad := int(decrypted[len(decrypted)-1])
	if pad == 0 || pad > block.BlockSize() {
		return nil, errors.New("invalid padding")
	}
	for _, b := range decrypted[len(decrypted)-pad:] {
		if int(b) != pad {
			return nil, errors.New("invalid padding")
		}
	}
	return decrypted[:len(decrypted)-pad], nil
}

func bagFriendlyName(bag safeBag) (string, error) {
	for _, attr := range bag.Attributes {
		if !attr.ID.Equal(oidFriendlyName) {
			continue
		}
		var bmp asn1.RawValue
		if _, err := asn1.Unmarshal(attr.Value.Bytes, &bmp); err != nil {
			return "", err
		}
		return decodeBMPString(bmp.Bytes)
	}
	return "", nil
}

// decodeBMPString decodes big-endian UTF-16, dropping a trailing NUL.
func decodeBMPString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.New("odd-length BMP string")
	}
	if l := len(b); l >= 2 && b[l-1] == 0 && b[l-2] == 0 {
		b = b[:l-2]
	}
	s := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		s = append(s, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(s)), nil
}
