package sec

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// ed25519Signer signs using an Ed25519 private key, grounded on
// std/security/signer/ed25519_signer.go.
type ed25519Signer struct {
	keyName name.Name
	key     ed25519.PrivateKey
}

func (s *ed25519Signer) Type() SigType       { return SigTypeEd25519 }
func (s *ed25519Signer) KeyName() name.Name  { return s.keyName }
func (s *ed25519Signer) Sign(covered []byte) ([]byte, error) {
	return ed25519.Sign(s.key, covered), nil
}

// PublicKey exposes the verifying key, used by KeyDigest.
func (s *ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// NewEd25519Signer wraps an existing Ed25519 private key as a Signer.
func NewEd25519Signer(keyName name.Name, key ed25519.PrivateKey) Signer {
	return &ed25519Signer{keyName: keyName, key: key}
}

// KeygenEd25519 generates a fresh Ed25519 keypair and returns a Signer plus
// the raw PKCS8-encoded private key (for persistence in the keychain).
func KeygenEd25519(keyName name.Name) (Signer, []byte, error) {
	_, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	raw, err := x509.MarshalPKCS8PrivateKey(sk)
	if err != nil {
		return nil, nil, err
	}
	return NewEd25519Signer(keyName, sk), raw, nil
}

// ParseEd25519 reconstructs a Signer from a PKCS8-encoded private key.
func ParseEd25519(keyName name.Name, pkcs8 []byte) (Signer, error) {
	pkey, err := x509.ParsePKCS8PrivateKey(pkcs8)
	if err != nil {
		return nil, err
	}
	sk, ok := pkey.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("sec: not an ed25519 private key")
	}
	return NewEd25519Signer(keyName, sk), nil
}

// VerifyEd25519 checks a detached Ed25519 signature with a known public
// key.
func VerifyEd25519(covered []byte, sig []byte, pub ed25519.PublicKey) bool {
	return ed25519.Verify(pub, covered, sig)
}
