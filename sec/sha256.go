package sec

import (
	"crypto/sha256"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// sha256Signer produces a bare content digest, used for locally generated
// (not cryptographically authenticated) Content Objects such as a
// forwarder's own status datasets, grounded on
// std/security/signer/sha256_signer.go.
type sha256Signer struct {
	keyName name.Name
}

func (s *sha256Signer) Type() SigType      { return SigTypeSHA256 }
func (s *sha256Signer) KeyName() name.Name { return s.keyName }
func (s *sha256Signer) Sign(covered []byte) ([]byte, error) {
	sum := sha256.Sum256(covered)
	return sum[:], nil
}

// NewSHA256Signer returns a digest-only Signer.
func NewSHA256Signer() Signer {
	return &sha256Signer{}
}

// VerifySHA256 recomputes the digest and compares.
func VerifySHA256(covered []byte, sig []byte) bool {
	sum := sha256.Sum256(covered)
	if len(sig) != len(sum) {
		return false
	}
	for i := range sum {
		if sum[i] != sig[i] {
			return false
		}
	}
	return true
}
