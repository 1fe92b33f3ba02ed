package msg

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/wire"
)

// SignedInfo carries the metadata that, together with Name and Payload, is
// covered by a Content Object's Signature, per §3.
type SignedInfo struct {
	PublisherKeyID []byte
	Timestamp      time.Time
	Type           ContentType
	// FreshnessSeconds, if set, bounds how long the object may be served
	// from a cache before it is considered stale.
	FreshnessSeconds *uint64
	// FinalBlockID, if set, names the last segment component in a
	// sequence.
	FinalBlockID name.Component
	// KeyLocator points at (typically by name) the key that can verify
	// Signature.
	KeyLocator name.Name
}

// ContentObject is a signed named data unit, per §3. Name, SignedInfo, and
// Payload are covered by Signature; mutating any of them without re-signing
// violates the immutability invariant documented in §3.
type ContentObject struct {
	Name       Name
	SignedInfo SignedInfo
	Payload    []byte
	Signature  []byte
	// DigestAlgorithm names the hash used under Signature, e.g. "sha256".
	DigestAlgorithm string
}

// ParseOffsets exposes the byte ranges of the structural elements the
// forwarder needs for byte-exact re-emission without re-signing, per §4.1.
type ParseOffsets struct {
	NameStart, NameEnd             int
	SignedInfoStart, SignedInfoEnd int
	FinalBlockIDStart, FinalBlockIDEnd int
	SignatureStart, SignatureEnd   int
}

// Encode serializes the Content Object to ccnb and also returns the
// ParseOffsets describing where each structural element landed, so a
// caller that just signed the object can reuse the same encode path the
// parser would produce.
func (co *ContentObject) Encode() ([]byte, ParseOffsets) {
	w := wire.NewWriter(256 + len(co.Payload))
	var off ParseOffsets

	w.WriteStartDTag(wire.DTagContentObject)

	w.WriteStartDTag(wire.DTagSignature)
	sigStart := w.Len()
	if co.DigestAlgorithm != "" {
		w.WriteTaggedUData(wire.DTagDigestAlgorithm, co.DigestAlgorithm)
	}
	w.WriteTaggedBlob(wire.DTagSignatureBits, co.Signature)
	off.SignatureStart, off.SignatureEnd = sigStart, w.Len()
	w.WriteClose()

	off.NameStart = w.Len()
	co.Name.Encode(w)
	off.NameEnd = w.Len()

	w.WriteStartDTag(wire.DTagSignedInfo)
	off.SignedInfoStart = w.Len()
	if len(co.SignedInfo.PublisherKeyID) > 0 {
		w.WriteTaggedBlob(wire.DTagPublisherPublicKeyDigest, co.SignedInfo.PublisherKeyID)
	}
	w.WriteStartDTag(wire.DTagTimestamp)
	w.WriteUData(itoa(int(co.SignedInfo.Timestamp.UnixNano())))
	w.WriteClose()
	w.WriteStartDTag(wire.DTagContentType)
	w.WriteUData(itoa(int(co.SignedInfo.Type)))
	w.WriteClose()
	if co.SignedInfo.FreshnessSeconds != nil {
		w.WriteStartDTag(wire.DTagFreshnessSeconds)
		w.WriteUData(itoa(int(*co.SignedInfo.FreshnessSeconds)))
		w.WriteClose()
	}
	if co.SignedInfo.FinalBlockID != nil {
		w.WriteStartDTag(wire.DTagFinalBlockID)
		off.FinalBlockIDStart = w.Len()
		w.WriteBlob(co.SignedInfo.FinalBlockID)
		off.FinalBlockIDEnd = w.Len()
		w.WriteClose()
	}
	if len(co.SignedInfo.KeyLocator) > 0 {
		w.WriteStartDTag(wire.DTagKeyLocator)
		w.WriteStartDTag(wire.DTagKeyName)
		co.SignedInfo.KeyLocator.Encode(w)
		w.WriteClose()
		w.WriteClose()
	}
	off.SignedInfoEnd = w.Len()
	w.WriteClose()

	w.WriteTaggedBlob(wire.DTagContent, co.Payload)

	w.WriteClose()
	return w.Bytes(), off
}

// SignedBytes returns the byte ranges (Name || SignedInfo || Payload) that
// a signer must cover, per the invariant in §3 that Name, SignedInfo, and
// payload digest are covered by the signature. It re-encodes a signature-
// free placeholder so callers can compute Signature before the final
// Encode call.
func (co *ContentObject) SignedBytes() []byte {
	w := wire.NewWriter(256 + len(co.Payload))
	co.Name.Encode(w)
	w.WriteStartDTag(wire.DTagSignedInfo)
	if len(co.SignedInfo.PublisherKeyID) > 0 {
		w.WriteTaggedBlob(wire.DTagPublisherPublicKeyDigest, co.SignedInfo.PublisherKeyID)
	}
	w.WriteStartDTag(wire.DTagTimestamp)
	w.WriteUData(itoa(int(co.SignedInfo.Timestamp.UnixNano())))
	w.WriteClose()
	w.WriteStartDTag(wire.DTagContentType)
	w.WriteUData(itoa(int(co.SignedInfo.Type)))
	w.WriteClose()
	if co.SignedInfo.FreshnessSeconds != nil {
		w.WriteStartDTag(wire.DTagFreshnessSeconds)
		w.WriteUData(itoa(int(*co.SignedInfo.FreshnessSeconds)))
		w.WriteClose()
	}
	if co.SignedInfo.FinalBlockID != nil {
		w.WriteTaggedBlob(wire.DTagFinalBlockID, co.SignedInfo.FinalBlockID)
	}
	if len(co.SignedInfo.KeyLocator) > 0 {
		w.WriteStartDTag(wire.DTagKeyLocator)
		w.WriteStartDTag(wire.DTagKeyName)
		co.SignedInfo.KeyLocator.Encode(w)
		w.WriteClose()
		w.WriteClose()
	}
	w.WriteClose()
	w.WriteTaggedBlob(wire.DTagContent, co.Payload)
	return w.Bytes()
}

// ParseContentObject decodes a ccnb Content Object, returning the number
// of bytes consumed and the structural ParseOffsets.
func ParseContentObject(buf []byte) (*ContentObject, int, ParseOffsets, error) {
	r := wire.NewReader(buf)
	var off ParseOffsets

	tag, err := r.ReadStartDTag()
	if err != nil {
		return nil, 0, off, err
	}
	if tag != wire.DTagContentObject {
		return nil, 0, off, wire.ErrMalformed{Reason: "expected ContentObject"}
	}

	co := &ContentObject{}

	sigTag, err := r.ReadStartDTag()
	if err != nil {
		return nil, 0, off, err
	}
	if sigTag != wire.DTagSignature {
		return nil, 0, off, wire.ErrMalformed{Reason: "expected Signature"}
	}
	off.SignatureStart = r.Pos()
	// DigestAlgorithm is optional.
	if v, typ, err := r.PeekTT(); err == nil && typ == wire.TypeDTag && wire.DTag(v) == wire.DTagDigestAlgorithm {
		alg, err := r.ReadTaggedUDataString(wire.DTagDigestAlgorithm)
		if err != nil {
			return nil, 0, off, err
		}
		co.DigestAlgorithm = alg
	}
	sigBits, err := r.ReadTaggedBlob(wire.DTagSignatureBits)
	if err != nil {
		return nil, 0, off, err
	}
	co.Signature = append([]byte(nil), sigBits...)
	off.SignatureEnd = r.Pos()
	if err := r.ReadClose(); err != nil {
		return nil, 0, off, err
	}

	off.NameStart = r.Pos()
	co.Name, err = name.Decode(r)
	if err != nil {
		return nil, 0, off, err
	}
	off.NameEnd = r.Pos()

	siTag, err := r.ReadStartDTag()
	if err != nil {
		return nil, 0, off, err
	}
	if siTag != wire.DTagSignedInfo {
		return nil, 0, off, wire.ErrMalformed{Reason: "expected SignedInfo"}
	}
	off.SignedInfoStart = r.Pos()
	for {
		_, typ, err := r.PeekTT()
		if err != nil {
			return nil, 0, off, err
		}
		if typ == wire.TypeClose {
			break
		}
		dtag, err := r.ReadStartDTag()
		if err != nil {
			return nil, 0, off, err
		}
		switch dtag {
		case wire.DTagPublisherPublicKeyDigest:
			b, err := r.ReadBlob()
			if err != nil {
				return nil, 0, off, err
			}
			co.SignedInfo.PublisherKeyID = append([]byte(nil), b...)
			if err := r.ReadClose(); err != nil {
				return nil, 0, off, err
			}
		case wire.DTagTimestamp:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, off, err
			}
			co.SignedInfo.Timestamp = time.Unix(0, int64(v))
			if err := r.ReadClose(); err != nil {
				return nil, 0, off, err
			}
		case wire.DTagContentType:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, off, err
			}
			co.SignedInfo.Type = ContentType(v)
			if err := r.ReadClose(); err != nil {
				return nil, 0, off, err
			}
		case wire.DTagFreshnessSeconds:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, off, err
			}
			fs := uint64(v)
			co.SignedInfo.FreshnessSeconds = &fs
			if err := r.ReadClose(); err != nil {
				return nil, 0, off, err
			}
		case wire.DTagFinalBlockID:
			off.FinalBlockIDStart = r.Pos()
			b, err := r.ReadBlob()
			if err != nil {
				return nil, 0, off, err
			}
			co.SignedInfo.FinalBlockID = name.Component(append([]byte(nil), b...))
			off.FinalBlockIDEnd = r.Pos()
			if err := r.ReadClose(); err != nil {
				return nil, 0, off, err
			}
		case wire.DTagKeyLocator:
			knTag, err := r.ReadStartDTag()
			if err != nil {
				return nil, 0, off, err
			}
			if knTag == wire.DTagKeyName {
				kn, err := name.Decode(r)
				if err != nil {
					return nil, 0, off, err
				}
				co.SignedInfo.KeyLocator = kn
				if err := r.ReadClose(); err != nil { // KeyName
					return nil, 0, off, err
				}
			} else if err := skipToClose(r); err != nil {
				return nil, 0, off, err
			}
			if err := r.ReadClose(); err != nil { // KeyLocator
				return nil, 0, off, err
			}
		default:
			if wire.IsCriticalDTag(dtag) {
				return nil, 0, off, wire.ErrUnrecognizedCriticalTag{DTag: uint64(dtag)}
			}
			if err := skipToClose(r); err != nil {
				return nil, 0, off, err
			}
		}
	}
	off.SignedInfoEnd = r.Pos()
	if err := r.ReadClose(); err != nil {
		return nil, 0, off, err
	}

	payload, err := r.ReadTaggedBlob(wire.DTagContent)
	if err != nil {
		return nil, 0, off, err
	}
	co.Payload = append([]byte(nil), payload...)

	if err := r.ReadClose(); err != nil { // ContentObject
		return nil, 0, off, err
	}

	return co, r.Pos(), off, nil
}
