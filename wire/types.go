// Package wire implements the ccnb tag-length binary encoding: a
// self-describing stream of typed tokens (tags, byte-strings, decimal
// numbers, close markers) that nest to form Interest and Content Object
// messages. The package is pure: it never performs I/O and never allocates
// more than the structure it is asked to produce.
package wire

import "fmt"

// Buffer is a contiguous run of bytes, never copied by the codec unless the
// caller asks for an owned copy.
type Buffer []byte

// Wire is a possibly-noncontiguous sequence of Buffers, used so a parsed
// message can be re-emitted byte-for-byte (e.g. a Content Object forwarded
// without re-signing) without joining into one allocation until required.
type Wire []Buffer

// Join concatenates every Buffer in the Wire into a single contiguous slice.
func (w Wire) Join() []byte {
	switch len(w) {
	case 0:
		return []byte{}
	case 1:
		return w[0]
	}
	n := 0
	for _, b := range w {
		n += len(b)
	}
	out := make([]byte, n)
	pos := 0
	for _, b := range w {
		pos += copy(out[pos:], b)
	}
	return out
}

// Length returns the total number of bytes across every Buffer in the Wire.
func (w Wire) Length() int {
	n := 0
	for _, b := range w {
		n += len(b)
	}
	return n
}

// TokenType is the 3-bit type discriminant carried by every ccnb token.
type TokenType uint8

const (
	TypeExtension TokenType = 0
	TypeTag       TokenType = 1
	TypeDTag      TokenType = 2
	TypeAttr      TokenType = 3
	TypeDAttr     TokenType = 4
	TypeBlob      TokenType = 5
	TypeUData     TokenType = 6
	TypeClose     TokenType = 7
)

// String returns the ccnb mnemonic for a token type, or a numeric fallback.
func (t TokenType) String() string {
	switch t {
	case TypeExtension:
		return "ext"
	case TypeTag:
		return "tag"
	case TypeDTag:
		return "dtag"
	case TypeAttr:
		return "attr"
	case TypeDAttr:
		return "dattr"
	case TypeBlob:
		return "blob"
	case TypeUData:
		return "udata"
	case TypeClose:
		return "close"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// ErrNeedMoreBytes is returned when the supplied buffer does not contain a
// complete token or element; callers should retry once more bytes arrive.
// It is distinguishable from ErrMalformed so a stream reader knows whether
// to wait or to give up and close the face.
type ErrNeedMoreBytes struct{}

func (ErrNeedMoreBytes) Error() string { return "ccnb: need more bytes" }

// ErrMalformed is returned for input that can never become valid regardless
// of how many more bytes arrive: bad token framing, length overflow, a
// close token with nonzero value, etc.
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string { return "ccnb: malformed input: " + e.Reason }

// ErrUnrecognizedCriticalTag is returned when a structural tag (Name,
// Content, Signature, ...) is not recognized and therefore cannot be safely
// skipped.
type ErrUnrecognizedCriticalTag struct {
	DTag uint64
}

func (e ErrUnrecognizedCriticalTag) Error() string {
	return fmt.Sprintf("ccnb: unrecognized critical dtag %d", e.DTag)
}
