package msg

import "bytes"

// Matches implements the Interest/Content-Object matching predicate from
// §3: the object's name must have the Interest's name as a prefix, the
// publisher key id (if set) must match, the exclude filter must not
// exclude the next name component, and the min/max suffix component count
// must be respected.
//
// Per the documented resolution of the precedence Open Question in §9,
// Exclude is evaluated before the suffix-count constraints.
func (it *Interest) Matches(co *ContentObject) bool {
	if !it.Name.IsPrefixOf(co.Name) {
		return false
	}

	if len(it.PublisherKeyID) > 0 && !bytes.Equal(it.PublisherKeyID, co.SignedInfo.PublisherKeyID) {
		return false
	}

	suffixLen := len(co.Name) - len(it.Name)

	if it.Exclude != nil && suffixLen > 0 {
		next := co.Name[len(it.Name)]
		if it.Exclude.Excludes(next) {
			return false
		}
	}

	if it.MinSuffixComponents != nil && suffixLen < *it.MinSuffixComponents {
		return false
	}
	if it.MaxSuffixComponents != nil && suffixLen > *it.MaxSuffixComponents {
		return false
	}

	return true
}
