package wire

import "strconv"

// Predefined dtag table. Structural tags that a forwarder must never drop
// even when it does not otherwise understand the message are marked
// "critical" in IsCriticalDTag below.
const (
	DTagInvalid DTag = iota

	DTagInterest
	DTagName
	DTagComponent
	DTagNonce
	DTagMinSuffixComponents
	DTagMaxSuffixComponents
	DTagPublisherPublicKeyDigest
	DTagExclude
	DTagAny // wildcard component inside an Exclude filter
	DTagChildSelector
	DTagAnswerOriginKind
	DTagScope
	DTagInterestLifetime

	DTagContentObject
	DTagSignature
	DTagSignatureBits
	DTagDigestAlgorithm
	DTagSignedInfo
	DTagContent
	DTagTimestamp
	DTagContentType
	DTagFreshnessSeconds
	DTagFinalBlockID
	DTagKeyLocator
	DTagKeyName

	DTagForwardingEntry
	DTagAction
	DTagPrefix
	DTagFaceID
	DTagFlags
	DTagLifetime

	dTagMax
)

// DTag is a predefined tag number (ccnb's "dtag" type).
type DTag uint64

var dTagNames = map[DTag]string{
	DTagInterest:                 "Interest",
	DTagName:                     "Name",
	DTagComponent:                "Component",
	DTagNonce:                    "Nonce",
	DTagMinSuffixComponents:      "MinSuffixComponents",
	DTagMaxSuffixComponents:      "MaxSuffixComponents",
	DTagPublisherPublicKeyDigest: "PublisherPublicKeyDigest",
	DTagExclude:                  "Exclude",
	DTagAny:                      "Any",
	DTagChildSelector:            "ChildSelector",
	DTagAnswerOriginKind:         "AnswerOriginKind",
	DTagScope:                    "Scope",
	DTagInterestLifetime:         "InterestLifetime",
	DTagContentObject:            "ContentObject",
	DTagSignature:                "Signature",
	DTagSignatureBits:            "SignatureBits",
	DTagDigestAlgorithm:          "DigestAlgorithm",
	DTagSignedInfo:               "SignedInfo",
	DTagContent:                  "Content",
	DTagTimestamp:                "Timestamp",
	DTagContentType:              "Type",
	DTagFreshnessSeconds:         "FreshnessSeconds",
	DTagFinalBlockID:             "FinalBlockID",
	DTagKeyLocator:               "KeyLocator",
	DTagKeyName:                  "KeyName",
	DTagForwardingEntry:          "ForwardingEntry",
	DTagAction:                   "Action",
	DTagPrefix:                   "Prefix",
	DTagFaceID:                   "FaceID",
	DTagFlags:                    "Flags",
	DTagLifetime:                 "Lifetime",
}

// String returns the tag's mnemonic, or a numeric fallback for an unknown
// (extension-range) dtag.
func (d DTag) String() string {
	if name, ok := dTagNames[d]; ok {
		return name
	}
	return "dtag(" + strconv.FormatUint(uint64(d), 10) + ")"
}

// criticalDTags are structural elements a forwarder must not silently drop
// even when parsing a message type it otherwise does not recognize: doing
// so would desynchronize the reader's idea of Name/Content/Signature
// boundaries used for byte-exact re-emission.
var criticalDTags = map[DTag]bool{
	DTagName:          true,
	DTagContent:       true,
	DTagSignature:     true,
	DTagSignatureBits: true,
	DTagInterest:      true,
	DTagContentObject: true,
	DTagSignedInfo:    true,
}

// IsCriticalDTag reports whether d must not be skipped when unrecognized.
func IsCriticalDTag(d DTag) bool {
	return criticalDTags[d]
}
