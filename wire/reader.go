package wire

// Reader is a cursor over an in-memory buffer used while parsing ccnb
// tokens. It never copies the underlying bytes; callers that need an owned
// slice call Range and copy it themselves.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for token-by-token parsing starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Range returns the bytes between two absolute offsets without copying.
func (r *Reader) Range(start, end int) []byte {
	return r.buf[start:end]
}

// PeekTT parses the next type-tagged number without advancing the cursor,
// so callers can decide whether to consume it as a structural tag or
// report ErrNeedMoreBytes / ErrMalformed upward.
func (r *Reader) PeekTT() (value uint64, typ TokenType, err error) {
	value, typ, _, err = DecodeTT(r.buf[r.pos:])
	return
}

// ReadTT consumes the next type-tagged number and advances the cursor.
func (r *Reader) ReadTT() (value uint64, typ TokenType, err error) {
	value, typ, n, err := DecodeTT(r.buf[r.pos:])
	if err != nil {
		return 0, 0, err
	}
	r.pos += n
	return value, typ, nil
}

// ReadStartDTag expects the next token to open a dtag element, consumes it
// and returns its dtag; a token of any other type is an error. It does not
// check which dtag it is: the caller compares it with the one it expects
// and decides whether an unexpected one is a critical structural element
// (must reject) or safely skippable.
func (r *Reader) ReadStartDTag() (DTag, error) {
	value, typ, err := r.ReadTT()
	if err != nil {
		return 0, err
	}
	if typ != TypeDTag {
		return 0, ErrMalformed{Reason: "expected dtag token"}
	}
	return DTag(value), nil
}

// ReadClose expects and consumes a close token (type=close, value=0).
func (r *Reader) ReadClose() error {
	value, typ, err := r.ReadTT()
	if err != nil {
		return err
	}
	if typ != TypeClose || value != 0 {
		return ErrMalformed{Reason: "expected close token"}
	}
	return nil
}

// SkipElement consumes one complete element (a dtag/tag-opened subtree, or
// a blob/udata leaf) starting at the cursor, without interpreting its
// contents. Used to skip a non-critical unrecognized tag.
func (r *Reader) SkipElement() error {
	value, typ, err := r.ReadTT()
	if err != nil {
		return err
	}
	switch typ {
	case TypeBlob, TypeUData:
		if r.Len() < int(value) {
			return ErrNeedMoreBytes{}
		}
		r.pos += int(value)
		return nil
	case TypeTag, TypeDTag, TypeAttr, TypeDAttr:
		for {
			_, nt, err := r.PeekTT()
			if err != nil {
				return err
			}
			if nt == TypeClose {
				return r.ReadClose()
			}
			if err := r.SkipElement(); err != nil {
				return err
			}
		}
	default:
		return ErrMalformed{Reason: "unexpected token type while skipping"}
	}
}

// ReadBlob reads a blob (or udata) leaf token's raw value without copying.
func (r *Reader) ReadBlob() ([]byte, error) {
	value, typ, err := r.ReadTT()
	if err != nil {
		return nil, err
	}
	if typ != TypeBlob && typ != TypeUData {
		return nil, ErrMalformed{Reason: "expected blob/udata token"}
	}
	if r.Len() < int(value) {
		return nil, ErrNeedMoreBytes{}
	}
	start := r.pos
	r.pos += int(value)
	return r.buf[start:r.pos], nil
}

// ReadTaggedBlob reads `<dtag> blob </>` and returns the blob bytes.
func (r *Reader) ReadTaggedBlob(tag DTag) ([]byte, error) {
	got, err := r.ReadStartDTag()
	if err != nil {
		return nil, err
	}
	if got != tag {
		return nil, ErrMalformed{Reason: "unexpected tag: " + got.String()}
	}
	val, err := r.ReadBlob()
	if err != nil {
		return nil, err
	}
	return val, r.ReadClose()
}

// ReadTaggedUDataString reads `<dtag> udata </>` as a Go string.
func (r *Reader) ReadTaggedUDataString(tag DTag) (string, error) {
	b, err := r.ReadTaggedBlob(tag)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
