package name

import "github.com/Atsuko87/ccnx-sub001/wire"

// Encode appends `<Name> <Component>blob</>... </>` to w.
func (n Name) Encode(w *wire.Writer) {
	w.WriteStartDTag(wire.DTagName)
	for _, c := range n {
		w.WriteTaggedBlob(wire.DTagComponent, c)
	}
	w.WriteClose()
}

// Decode reads a `<Name>...</>` element from r.
func Decode(r *wire.Reader) (Name, error) {
	tag, err := r.ReadStartDTag()
	if err != nil {
		return nil, err
	}
	if tag != wire.DTagName {
		return nil, wire.ErrMalformed{Reason: "expected Name"}
	}
	var out Name
	for {
		val, typ, err := r.PeekTT()
		if err != nil {
			return nil, err
		}
		if typ == wire.TypeClose {
			_ = val
			if err := r.ReadClose(); err != nil {
				return nil, err
			}
			return out, nil
		}
		comp, err := r.ReadTaggedBlob(wire.DTagComponent)
		if err != nil {
			return nil, err
		}
		out = append(out, Component(comp))
	}
}
