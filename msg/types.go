// Package msg implements the Interest and Content Object message types and
// their ccnb encoding/decoding, built on top of the wire and name packages.
package msg

import "github.com/Atsuko87/ccnx-sub001/name"

// ContentType identifies the kind of payload a Content Object carries, per
// §3.
type ContentType uint8

const (
	ContentTypeData ContentType = iota
	ContentTypeEncr
	ContentTypeGone
	ContentTypeKey
	ContentTypeLink
	ContentTypeNack
)

func (t ContentType) String() string {
	switch t {
	case ContentTypeData:
		return "DATA"
	case ContentTypeEncr:
		return "ENCR"
	case ContentTypeGone:
		return "GONE"
	case ContentTypeKey:
		return "KEY"
	case ContentTypeLink:
		return "LINK"
	case ContentTypeNack:
		return "NACK"
	default:
		return "UNKNOWN"
	}
}

// AnswerOriginKind is a bitmask constraining which sources may satisfy an
// Interest.
type AnswerOriginKind uint8

const (
	AOKContentStore AnswerOriginKind = 1 << iota // a cached/stored object may answer
	AOKNewContent                                // a freshly generated object may answer
	AOKStale                                      // stale (past-freshness) cached objects are acceptable
	AOKExpire                                     // ask the content store to expire a matching entry
)

// DefaultAnswerOriginKind permits content-store and newly generated
// answers but not stale ones, matching ordinary consumer behavior.
const DefaultAnswerOriginKind = AOKContentStore | AOKNewContent

// Allows reports whether the mask permits the given kind.
func (a AnswerOriginKind) Allows(kind AnswerOriginKind) bool {
	return a&kind != 0
}

// ExcludeRange expresses a (possibly open-ended) run of excluded
// components between Low and High inclusive; a nil bound is unbounded on
// that side. This models the ccnb Exclude filter's "<Component/> <Any/>
// <Component/>" run-length pattern directly rather than expanding it.
type ExcludeRange struct {
	Low  name.Component
	High name.Component
}

// Exclude is an Interest selector that forbids specific next-components
// (Singles) and/or ranges of components (Ranges) from satisfying the
// Interest, per §3/§4.1.
type Exclude struct {
	Singles []name.Component
	Ranges  []ExcludeRange
}

// Excludes reports whether component c is forbidden by this filter.
func (e *Exclude) Excludes(c name.Component) bool {
	if e == nil {
		return false
	}
	for _, s := range e.Singles {
		if s.Equal(c) {
			return true
		}
	}
	for _, r := range e.Ranges {
		if r.Low != nil && c.Compare(r.Low) < 0 {
			continue
		}
		if r.High != nil && c.Compare(r.High) > 0 {
			continue
		}
		return true
	}
	return false
}
