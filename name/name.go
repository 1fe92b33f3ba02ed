package name

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Name is an ordered sequence of Components. Names are compared
// componentwise, shorter-is-smaller on a common prefix, per §4.2.
type Name []Component

// FromURI parses a "ccnx:/a/b/c" style URI into a Name. A bare "/a/b/c" is
// also accepted. Percent-encoded bytes are decoded per component.
func FromURI(uri string) (Name, error) {
	s := strings.TrimPrefix(uri, "ccnx:")
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Name{}, nil
	}
	parts := strings.Split(s, "/")
	out := make(Name, 0, len(parts))
	for _, p := range parts {
		c, err := ComponentFromURI(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// String renders the Name back into ccnx URI form.
func (n Name) String() string {
	var sb strings.Builder
	sb.WriteString("ccnx:")
	for _, c := range n {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	if len(n) == 0 {
		sb.WriteByte('/')
	}
	return sb.String()
}

// Clone deep-copies the Name and all its components.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = c.Clone()
	}
	return out
}

// Equal reports whether two names have the same components in the same
// order.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Compare implements the total order from §8: componentwise, bytewise
// within a component, shorter-is-smaller on a common prefix. Returns a
// negative number, zero, or a positive number.
func (n Name) Compare(o Name) int {
	for i := 0; i < len(n) && i < len(o); i++ {
		if c := n[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	return len(n) - len(o)
}

// IsPrefixOf reports whether n is a (non-strict) prefix of o; in
// particular a Name is a prefix of itself. Per §8, IsPrefixOf(a,b) implies
// a<=b under Compare.
func (n Name) IsPrefixOf(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Append returns a new Name with the given components appended; the
// receiver is not mutated.
func (n Name) Append(comps ...Component) Name {
	out := make(Name, len(n)+len(comps))
	copy(out, n)
	copy(out[len(n):], comps)
	return out
}

// TruncateAtIndex returns the first idx components of the Name (idx may
// equal len(n), returning a full copy).
func (n Name) TruncateAtIndex(idx int) Name {
	if idx > len(n) {
		idx = len(n)
	}
	out := make(Name, idx)
	copy(out, n[:idx])
	return out
}

// Hash returns an order-and-content-sensitive xxhash of the Name's
// length-prefixed components.
func (n Name) Hash() uint64 {
	d := xxhash.New()
	for _, c := range n {
		var lenBuf [8]byte
		l := len(c)
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(l >> (8 * i))
		}
		_, _ = d.Write(lenBuf[:])
		_, _ = d.Write(c)
	}
	return d.Sum64()
}

// IsLaterVersionOf reports whether a and b share every component except
// the last, both end in a version component, and a's version is strictly
// greater than b's, per §4.2.
func IsLaterVersionOf(a, b Name) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	if !a[:len(a)-1].Equal(b[:len(b)-1]) {
		return false
	}
	av, bv := a[len(a)-1], b[len(b)-1]
	if !av.IsVersion() || !bv.IsVersion() {
		return false
	}
	return av.NumberVal() > bv.NumberVal()
}
