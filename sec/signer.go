// Package sec provides the signing and key-storage primitives used to sign
// Content Objects and registration replies, grounded on the teacher's
// std/security/signer and std/security/pib packages.
package sec

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// SigType identifies the signature algorithm carried by a Content Object.
type SigType uint8

const (
	SigTypeSHA256 SigType = iota
	SigTypeEd25519
	SigTypeHMACSHA256
)

// Signer produces signatures over the covered bytes of a message and
// reports the key name used as its KeyLocator, mirroring the teacher's
// ndn.Signer interface.
type Signer interface {
	Type() SigType
	KeyName() name.Name
	Sign(covered []byte) ([]byte, error)
}

// Verifier checks a signature of the given type against covered bytes.
type Verifier interface {
	Verify(sigType SigType, covered []byte, sig []byte) bool
}

// KeyDigest derives the PublisherPublicKeyDigest / daemon-key-digest used
// by the registration protocol (§4.10) and SignedInfo.PublisherKeyID: the
// SHA-256 digest of the signer's public key when one is exposed (as
// ed25519Signer does), falling back to a digest of the key name for
// signer kinds (e.g. HMAC, the digest-only sha256Signer) with no public
// component to digest.
func KeyDigest(s Signer) []byte {
	if pk, ok := s.(interface{ PublicKey() ed25519.PublicKey }); ok {
		sum := sha256.Sum256(pk.PublicKey())
		return sum[:]
	}
	sum := sha256.Sum256([]byte(s.KeyName().String()))
	return sum[:]
}
