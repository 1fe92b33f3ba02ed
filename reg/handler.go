// Package reg implements the registration protocol of §4.10: a face asks
// the forwarder to add, self-register, or remove a FIB next hop by sending
// a specially-named Interest whose last component carries a signed
// Content Object wrapping the requested ForwardingEntry.
package reg

import (
	"fmt"
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "reg"

// DefaultMaxLifetime is the ceiling Handle clamps a requested lifetime to
// before echoing it in the reply, absent an explicit configured maximum
// (config.Config.Registration.MaxLifetime overrides it). FIB next hops
// carry no expiry: a registration stays until it is unregistered or its
// face is removed.
const DefaultMaxLifetime = time.Hour

// Handler answers registration Interests addressed to DaemonPrefix, per
// §4.10. It is driven directly by forwarder.Forwarder (a registration
// Interest is recognized by name prefix before the ordinary PIT/FIB path
// runs), grounded on fw/mgmt's verb-dispatch shape (add-nexthop/
// remove-nexthop/list), here collapsed onto the single embedded-entry
// convention spec.md §4.10 prescribes.
type Handler struct {
	DaemonPrefix name.Name
	FIB          *fib.Table
	Signer       sec.Signer
	Verifier     sec.Verifier
	MaxLifetime  time.Duration
}

func NewHandler(daemonPrefix name.Name, fibTable *fib.Table, signer sec.Signer, verifier sec.Verifier) *Handler {
	return &Handler{
		DaemonPrefix: daemonPrefix,
		FIB:          fibTable,
		Signer:       signer,
		Verifier:     verifier,
		MaxLifetime:  DefaultMaxLifetime,
	}
}

// IsRegistration reports whether n falls under the daemon's command
// prefix, the test the forwarder core runs before handing an Interest to
// the ordinary content/PIT path.
func (h *Handler) IsRegistration(n name.Name) bool {
	return h.DaemonPrefix.IsPrefixOf(n) && len(n) >= len(h.DaemonPrefix)+3
}

// Handle decodes and applies a registration Interest, returning the signed
// Content Object reply to send back to arrivalFace. Per §4.10 the name
// follows <daemon-prefix>/<daemon-key-digest>/<action>/<embedded-entry>,
// where embedded-entry is a name component holding the ccnb encoding of a
// signed Content Object whose payload is the ForwardingEntry itself; this
// reuses the Content Object's existing Signature/KeyLocator machinery
// instead of inventing a second signing envelope.
func (h *Handler) Handle(it *msg.Interest, arrivalFace uint64) (*msg.ContentObject, error) {
	rel := it.Name[len(h.DaemonPrefix):]
	if len(rel) != 3 {
		return nil, fmt.Errorf("reg: malformed registration name %s", it.Name)
	}
	actionComp := rel[1].String()
	entryBytes := rel[2]

	co, n, _, err := msg.ParseContentObject(entryBytes)
	if err != nil || n != len(entryBytes) {
		return nil, fmt.Errorf("reg: malformed embedded entry: %w", err)
	}

	sigType, ok := sigTypeForAlgorithm(co.DigestAlgorithm)
	if !ok {
		return nil, fmt.Errorf("reg: unknown digest algorithm %q", co.DigestAlgorithm)
	}
	if h.Verifier == nil || !h.Verifier.Verify(sigType, co.SignedBytes(), co.Signature) {
		return nil, fmt.Errorf("reg: embedded entry signature does not verify")
	}

	entry, err := msg.ParseForwardingEntry(co.Payload)
	if err != nil {
		return nil, fmt.Errorf("reg: malformed ForwardingEntry: %w", err)
	}
	if entry.Action.String() != actionComp {
		return nil, fmt.Errorf("reg: action mismatch between name and entry: %s vs %s", actionComp, entry.Action)
	}

	effective, err := h.apply(entry, arrivalFace)
	if err != nil {
		return nil, err
	}

	return h.sign(it.Name, effective)
}

func (h *Handler) apply(entry *msg.ForwardingEntry, arrivalFace uint64) (*msg.ForwardingEntry, error) {
	lifetime := time.Duration(entry.LifetimeSeconds) * time.Second
	if lifetime <= 0 || lifetime > h.MaxLifetime {
		lifetime = h.MaxLifetime
	}

	switch entry.Action {
	case msg.ActionRegister, msg.ActionSelfRegister:
		faceID := entry.FaceID
		if entry.Action == msg.ActionSelfRegister {
			faceID = arrivalFace
		}
		h.FIB.Register(entry.Prefix, faceID, 0, fib.FlagActive|fib.Flag(entry.Flags))
		colog.Info(logSubsys, "registered nexthop", "prefix", entry.Prefix.String(), "face", faceID, "action", entry.Action.String())
		return &msg.ForwardingEntry{
			Action:             entry.Action,
			Prefix:             entry.Prefix,
			PublisherKeyDigest: entry.PublisherKeyDigest,
			FaceID:             faceID,
			Flags:              entry.Flags,
			LifetimeSeconds:    uint64(lifetime / time.Second),
		}, nil

	case msg.ActionUnregister:
		faceID := entry.FaceID
		if faceID == 0 {
			faceID = arrivalFace
		}
		h.FIB.Unregister(entry.Prefix, faceID)
		colog.Info(logSubsys, "unregistered nexthop", "prefix", entry.Prefix.String(), "face", faceID)
		return &msg.ForwardingEntry{
			Action:          msg.ActionUnregister,
			Prefix:          entry.Prefix,
			FaceID:          faceID,
			LifetimeSeconds: 0,
		}, nil

	default:
		return nil, fmt.Errorf("reg: unknown action %v", entry.Action)
	}
}

// sign builds the reply Content Object named after the registration
// Interest, carrying the effective ForwardingEntry as its payload, signed
// by the daemon's own key (§4.10's "replies with a signed Content Object
// echoing the effective entry").
func (h *Handler) sign(interestName name.Name, effective *msg.ForwardingEntry) (*msg.ContentObject, error) {
	co := &msg.ContentObject{
		Name: interestName.Clone(),
		SignedInfo: msg.SignedInfo{
			Timestamp:  time.Now(),
			Type:       msg.ContentTypeData,
			KeyLocator: h.Signer.KeyName(),
		},
		Payload:         effective.Encode(),
		DigestAlgorithm: algorithmForSigType(h.Signer.Type()),
	}
	sig, err := h.Signer.Sign(co.SignedBytes())
	if err != nil {
		return nil, fmt.Errorf("reg: signing reply: %w", err)
	}
	co.Signature = sig
	return co, nil
}

func sigTypeForAlgorithm(alg string) (sec.SigType, bool) {
	switch alg {
	case "", "sha256":
		return sec.SigTypeSHA256, true
	case "ed25519":
		return sec.SigTypeEd25519, true
	case "hmac-sha256":
		return sec.SigTypeHMACSHA256, true
	default:
		return 0, false
	}
}

func algorithmForSigType(t sec.SigType) string {
	switch t {
	case sec.SigTypeEd25519:
		return "ed25519"
	case sec.SigTypeHMACSHA256:
		return "hmac-sha256"
	default:
		return "sha256"
	}
}
