package msg

import (
	"crypto/rand"

	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/wire"
)

// Interest is a request naming desired content, with selectors narrowing
// which Content Object may satisfy it, per §3.
type Interest struct {
	Name Name
	// PublisherKeyID, if set, restricts matches to objects signed by (or
	// naming) this publisher key digest.
	PublisherKeyID []byte
	MinSuffixComponents *int
	MaxSuffixComponents *int
	// Scope limits propagation: 0=local host only, 1=local host+neighbors,
	// 2=unlimited. nil means unlimited.
	Scope            *int
	AnswerOriginKind AnswerOriginKind
	Exclude          *Exclude
	// Nonce uniquely identifies this Interest instance for loop
	// suppression; at most 12 bytes per §3.
	Nonce []byte
	// Lifetime is in milliseconds; nil uses the forwarder's configured
	// default.
	LifetimeMillis *uint64
}

// Name is a local alias so this file reads naturally without qualifying
// every reference as name.Name.
type Name = name.Name

// NewNonce returns a fresh random nonce of the maximum permitted length.
func NewNonce() []byte {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return b
}

// Clone deep-copies the Interest including its Name and byte-slice fields.
func (it *Interest) Clone() *Interest {
	if it == nil {
		return nil
	}
	out := *it
	out.Name = it.Name.Clone()
	if it.PublisherKeyID != nil {
		out.PublisherKeyID = append([]byte(nil), it.PublisherKeyID...)
	}
	if it.Nonce != nil {
		out.Nonce = append([]byte(nil), it.Nonce...)
	}
	return &out
}

// Encode serializes the Interest to ccnb.
func (it *Interest) Encode() []byte {
	w := wire.NewWriter(128 + len(it.Name)*16)
	w.WriteStartDTag(wire.DTagInterest)
	it.Name.Encode(w)

	if it.MinSuffixComponents != nil {
		w.WriteStartDTag(wire.DTagMinSuffixComponents)
		w.WriteUData(itoa(*it.MinSuffixComponents))
		w.WriteClose()
	}
	if it.MaxSuffixComponents != nil {
		w.WriteStartDTag(wire.DTagMaxSuffixComponents)
		w.WriteUData(itoa(*it.MaxSuffixComponents))
		w.WriteClose()
	}
	if len(it.PublisherKeyID) > 0 {
		w.WriteTaggedBlob(wire.DTagPublisherPublicKeyDigest, it.PublisherKeyID)
	}
	if it.Exclude != nil {
		encodeExclude(w, it.Exclude)
	}
	if it.AnswerOriginKind != 0 {
		w.WriteStartDTag(wire.DTagAnswerOriginKind)
		w.WriteUData(itoa(int(it.AnswerOriginKind)))
		w.WriteClose()
	}
	if it.Scope != nil {
		w.WriteStartDTag(wire.DTagScope)
		w.WriteUData(itoa(*it.Scope))
		w.WriteClose()
	}
	if len(it.Nonce) > 0 {
		w.WriteTaggedBlob(wire.DTagNonce, it.Nonce)
	}
	if it.LifetimeMillis != nil {
		w.WriteStartDTag(wire.DTagInterestLifetime)
		w.WriteUData(itoa(int(*it.LifetimeMillis)))
		w.WriteClose()
	}
	w.WriteClose()
	return w.Bytes()
}

func encodeExclude(w *wire.Writer, ex *Exclude) {
	w.WriteStartDTag(wire.DTagExclude)
	for _, s := range ex.Singles {
		w.WriteTaggedBlob(wire.DTagComponent, s)
	}
	for _, r := range ex.Ranges {
		if r.Low != nil {
			w.WriteTaggedBlob(wire.DTagComponent, r.Low)
		}
		w.WriteStartDTag(wire.DTagAny)
		w.WriteClose()
		if r.High != nil {
			w.WriteTaggedBlob(wire.DTagComponent, r.High)
		}
	}
	w.WriteClose()
}

// ParseInterest decodes a ccnb Interest and returns the number of bytes
// consumed.
func ParseInterest(buf []byte) (*Interest, int, error) {
	r := wire.NewReader(buf)
	tag, err := r.ReadStartDTag()
	if err != nil {
		return nil, 0, err
	}
	if tag != wire.DTagInterest {
		return nil, 0, wire.ErrMalformed{Reason: "expected Interest"}
	}

	it := &Interest{}
	it.Name, err = name.Decode(r)
	if err != nil {
		return nil, 0, err
	}

	for {
		_, typ, err := r.PeekTT()
		if err != nil {
			return nil, 0, err
		}
		if typ == wire.TypeClose {
			break
		}
		dtag, err := r.ReadStartDTag()
		if err != nil {
			return nil, 0, err
		}
		switch dtag {
		case wire.DTagMinSuffixComponents:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, err
			}
			it.MinSuffixComponents = &v
		case wire.DTagMaxSuffixComponents:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, err
			}
			it.MaxSuffixComponents = &v
		case wire.DTagPublisherPublicKeyDigest:
			b, err := r.ReadBlob()
			if err != nil {
				return nil, 0, err
			}
			it.PublisherKeyID = append([]byte(nil), b...)
			if err := r.ReadClose(); err != nil {
				return nil, 0, err
			}
			continue
		case wire.DTagExclude:
			ex, err := decodeExcludeBody(r)
			if err != nil {
				return nil, 0, err
			}
			it.Exclude = ex
			continue
		case wire.DTagAnswerOriginKind:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, err
			}
			it.AnswerOriginKind = AnswerOriginKind(v)
		case wire.DTagScope:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, err
			}
			it.Scope = &v
		case wire.DTagNonce:
			b, err := r.ReadBlob()
			if err != nil {
				return nil, 0, err
			}
			it.Nonce = append([]byte(nil), b...)
			if err := r.ReadClose(); err != nil {
				return nil, 0, err
			}
			continue
		case wire.DTagInterestLifetime:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, 0, err
			}
			lm := uint64(v)
			it.LifetimeMillis = &lm
		default:
			if wire.IsCriticalDTag(dtag) {
				return nil, 0, wire.ErrUnrecognizedCriticalTag{DTag: uint64(dtag)}
			}
			if err := skipToClose(r); err != nil {
				return nil, 0, err
			}
			continue
		}
		if err := r.ReadClose(); err != nil {
			return nil, 0, err
		}
	}
	if err := r.ReadClose(); err != nil {
		return nil, 0, err
	}
	return it, r.Pos(), nil
}

func decodeExcludeBody(r *wire.Reader) (*Exclude, error) {
	ex := &Exclude{}
	var pendingLow name.Component
	haveLow := false
	sawAny := false
	for {
		_, typ, err := r.PeekTT()
		if err != nil {
			return nil, err
		}
		if typ == wire.TypeClose {
			if sawAny {
				ex.Ranges = append(ex.Ranges, ExcludeRange{Low: orNil(haveLow, pendingLow), High: nil})
			} else if haveLow {
				ex.Singles = append(ex.Singles, pendingLow)
			}
			return ex, r.ReadClose()
		}
		dtag, err := r.ReadStartDTag()
		if err != nil {
			return nil, err
		}
		switch dtag {
		case wire.DTagAny:
			if err := r.ReadClose(); err != nil {
				return nil, err
			}
			sawAny = true
		case wire.DTagComponent:
			b, err := r.ReadBlob()
			if err != nil {
				return nil, err
			}
			comp := name.Component(append([]byte(nil), b...))
			if err := r.ReadClose(); err != nil {
				return nil, err
			}
			if sawAny {
				ex.Ranges = append(ex.Ranges, ExcludeRange{Low: orNil(haveLow, pendingLow), High: comp})
				sawAny, haveLow = false, false
			} else {
				// Might be the low bound of a future range, or a lone
				// exclusion; decided once we see what follows.
				if haveLow {
					ex.Singles = append(ex.Singles, pendingLow)
				}
				pendingLow, haveLow = comp, true
			}
		default:
			return nil, wire.ErrMalformed{Reason: "unexpected tag in Exclude"}
		}
	}
}

func orNil(have bool, c name.Component) name.Component {
	if !have {
		return nil
	}
	return c
}

func skipToClose(r *wire.Reader) error {
	_, typ, err := r.PeekTT()
	if err != nil {
		return err
	}
	if typ == wire.TypeClose {
		return r.ReadClose()
	}
	if err := r.SkipElement(); err != nil {
		return err
	}
	return skipToClose(r)
}

func readUDataInt(r *wire.Reader) (int, error) {
	b, err := r.ReadBlob()
	if err != nil {
		return 0, err
	}
	return atoi(b), nil
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func atoi(b []byte) int {
	neg := false
	i := 0
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		neg = b[i] == '-'
		i++
	}
	v := 0
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			break
		}
		v = v*10 + int(b[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}
