package msg

import (
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/wire"
)

// FwAction is the action a registration message requests, per §4.10.
type FwAction uint8

const (
	ActionRegister FwAction = iota
	ActionSelfRegister
	ActionUnregister
)

func (a FwAction) String() string {
	switch a {
	case ActionRegister:
		return "register"
	case ActionSelfRegister:
		return "selfregister"
	case ActionUnregister:
		return "unregister"
	default:
		return "unknown"
	}
}

// ForwardingEntry is the payload of a registration Interest, per §4.10.
type ForwardingEntry struct {
	Action             FwAction
	Prefix             name.Name
	PublisherKeyDigest []byte
	FaceID             uint64
	Flags              uint32
	LifetimeSeconds    uint64
}

// Encode serializes the ForwardingEntry to ccnb, to be carried as the
// payload of a registration Interest/Content Object.
func (fe *ForwardingEntry) Encode() []byte {
	w := wire.NewWriter(64 + len(fe.Prefix)*8)
	w.WriteStartDTag(wire.DTagForwardingEntry)
	w.WriteTaggedUData(wire.DTagAction, fe.Action.String())
	fe.Prefix.Encode(w)
	if len(fe.PublisherKeyDigest) > 0 {
		w.WriteTaggedBlob(wire.DTagPublisherPublicKeyDigest, fe.PublisherKeyDigest)
	}
	w.WriteStartDTag(wire.DTagFaceID)
	w.WriteUData(itoa(int(fe.FaceID)))
	w.WriteClose()
	w.WriteStartDTag(wire.DTagFlags)
	w.WriteUData(itoa(int(fe.Flags)))
	w.WriteClose()
	w.WriteStartDTag(wire.DTagLifetime)
	w.WriteUData(itoa(int(fe.LifetimeSeconds)))
	w.WriteClose()
	w.WriteClose()
	return w.Bytes()
}

// ParseForwardingEntry decodes a ccnb ForwardingEntry.
func ParseForwardingEntry(buf []byte) (*ForwardingEntry, error) {
	r := wire.NewReader(buf)
	tag, err := r.ReadStartDTag()
	if err != nil {
		return nil, err
	}
	if tag != wire.DTagForwardingEntry {
		return nil, wire.ErrMalformed{Reason: "expected ForwardingEntry"}
	}
	fe := &ForwardingEntry{}

	actionStr, err := r.ReadTaggedUDataString(wire.DTagAction)
	if err != nil {
		return nil, err
	}
	switch actionStr {
	case "register":
		fe.Action = ActionRegister
	case "selfregister":
		fe.Action = ActionSelfRegister
	case "unregister":
		fe.Action = ActionUnregister
	default:
		return nil, wire.ErrMalformed{Reason: "unknown ForwardingEntry action: " + actionStr}
	}

	fe.Prefix, err = name.Decode(r)
	if err != nil {
		return nil, err
	}

	for {
		_, typ, err := r.PeekTT()
		if err != nil {
			return nil, err
		}
		if typ == wire.TypeClose {
			break
		}
		dtag, err := r.ReadStartDTag()
		if err != nil {
			return nil, err
		}
		switch dtag {
		case wire.DTagPublisherPublicKeyDigest:
			b, err := r.ReadBlob()
			if err != nil {
				return nil, err
			}
			fe.PublisherKeyDigest = append([]byte(nil), b...)
		case wire.DTagFaceID:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, err
			}
			fe.FaceID = uint64(v)
		case wire.DTagFlags:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, err
			}
			fe.Flags = uint32(v)
		case wire.DTagLifetime:
			v, err := readUDataInt(r)
			if err != nil {
				return nil, err
			}
			fe.LifetimeSeconds = uint64(v)
		default:
			if err := skipToClose(r); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.ReadClose(); err != nil {
			return nil, err
		}
	}
	return fe, r.ReadClose()
}
