package sec

import "crypto/ed25519"

// KeyRingVerifier verifies signatures against a fixed set of trusted
// Ed25519 public keys plus the bare SHA-256 digest scheme, a
// single-operator simplification of the teacher's certificate-chain trust
// schema (std/security/trust-config): no validity periods or delegation,
// just the set of keys this daemon has been told to accept. Suitable for
// the closed deployments (one forwarder, one repository, a handful of
// known publishers) this module targets.
type KeyRingVerifier struct {
	keys []ed25519.PublicKey
}

// NewKeyRingVerifier builds a verifier trusting the given keys.
func NewKeyRingVerifier(keys ...ed25519.PublicKey) *KeyRingVerifier {
	return &KeyRingVerifier{keys: keys}
}

// Trust adds a public key to the trusted set.
func (v *KeyRingVerifier) Trust(pub ed25519.PublicKey) {
	v.keys = append(v.keys, pub)
}

// TrustEd25519 adds signer's public key to verifier's trusted set, if
// signer exposes one (as ed25519Signer does). Signer kinds with no public
// component are silently skipped: there is nothing to trust.
func TrustEd25519(verifier *KeyRingVerifier, signer Signer) {
	if pk, ok := signer.(interface{ PublicKey() ed25519.PublicKey }); ok {
		verifier.Trust(pk.PublicKey())
	}
}

func (v *KeyRingVerifier) Verify(sigType SigType, covered []byte, sig []byte) bool {
	switch sigType {
	case SigTypeSHA256:
		return VerifySHA256(covered, sig)
	case SigTypeEd25519:
		for _, pub := range v.keys {
			if VerifyEd25519(covered, sig, pub) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
