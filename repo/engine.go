// Package repo implements the repository engine of §4.9: a persistent,
// policy-gated Content Object store that presents itself to the forwarder
// as an ordinary CCN endpoint over a local IPC face, grounded on the
// teacher's std/object (producer-side storage) and std/repo-shaped
// retrieval packages, adapted from object-client semantics to the
// policy-admission/enumeration semantics spec.md §4.9 actually asks for.
package repo

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/reg"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "repo"

// childrenMarker flags an Interest as a name-enumeration request for the
// component sequence preceding it, built from the existing profile-marker
// convention (name.MarkerProfile) rather than inventing an unrelated byte.
var childrenMarker = name.Component(append([]byte{name.MarkerProfile}, []byte("children")...))

// pendingEnum is an enumeration Interest that found no children yet and is
// waiting for save_content to supply one under its prefix, per §4.9.
type pendingEnum struct {
	prefix name.Name
	it     *msg.Interest
}

// Engine is the repository engine. It owns a dedicated goroutine reading
// its local IPC face (its own "dedicated thread", per §5's "Repository
// concurrency": "repository workers run on a dedicated thread;
// communication with the forwarder is via the same face abstraction... no
// shared memory between them").
type Engine struct {
	mu     sync.Mutex
	policy *Policy
	store  *Store

	dataDir string
	conn    net.Conn
	faceID  uint64

	signer    sec.Signer
	verifier  sec.Verifier
	keyDigest []byte

	daemonPrefix name.Name
	recvBuf      []byte
	pending      []pendingEnum
}

// NewEngine wires a Store, an initial Policy, and the signing identity the
// engine uses both for self-registration and for producing its own
// Content Objects, per §4.9/§6.
func NewEngine(dataDir string, store *Store, policy *Policy, signer sec.Signer, verifier sec.Verifier, keyDigest []byte) *Engine {
	return &Engine{
		policy:    policy,
		store:     store,
		dataDir:   dataDir,
		signer:    signer,
		verifier:  verifier,
		keyDigest: keyDigest,
	}
}

// Attach connects the engine to ft as a local IPC face and self-registers
// every policy namespace and the policy's own LocalName, per §4.9's
// "registers a set of namespace prefixes with the forwarder".
func (e *Engine) Attach(ft *face.FaceTable, daemonPrefix name.Name) error {
	e.daemonPrefix = daemonPrefix
	conn, faceID := face.AddLocalPair(ft, func(_ uint64, frame []byte) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.handleFrame(frame)
	})
	e.conn = conn
	e.faceID = faceID

	for _, prefix := range e.policy.AllowedPrefixes {
		if err := e.selfRegister(prefix); err != nil {
			return fmt.Errorf("repo: registering %s: %w", prefix, err)
		}
	}
	return e.selfRegister(e.policy.LocalName)
}

func (e *Engine) selfRegister(prefix name.Name) error {
	entry := &msg.ForwardingEntry{
		Action:             msg.ActionSelfRegister,
		Prefix:             prefix,
		PublisherKeyDigest: e.keyDigest,
		LifetimeSeconds:    0, // clamped to the forwarder's configured maximum
	}
	it, err := reg.BuildRegistrationInterest(e.daemonPrefix, e.keyDigest, entry, e.signer)
	if err != nil {
		return err
	}
	_, err = e.conn.Write(it.Encode())
	return err
}

// Run is the engine's dedicated read loop: block on the local IPC
// connection, frame whatever arrives the same way a stream face does, and
// dispatch. It returns when the connection is closed.
func (e *Engine) Run() {
	buf := make([]byte, 64*1024)
	for {
		n, err := e.conn.Read(buf)
		if n > 0 {
			e.mu.Lock()
			e.recvBuf = append(e.recvBuf, buf[:n]...)
			e.drainLocked()
			e.mu.Unlock()
		}
		if err != nil {
			colog.Info(logSubsys, "local face closed", "err", err)
			return
		}
	}
}

func (e *Engine) drainLocked() {
	for {
		n, ok, err := face.ScanElement(e.recvBuf)
		if err != nil {
			colog.Warn(logSubsys, "malformed frame on local face, resetting buffer")
			e.recvBuf = e.recvBuf[:0]
			return
		}
		if !ok {
			return
		}
		frame := append([]byte(nil), e.recvBuf[:n]...)
		e.recvBuf = e.recvBuf[n:]
		// handleFrame takes e.mu itself where it needs it.
		e.mu.Unlock()
		e.handleFrame(frame)
		e.mu.Lock()
	}
}

func (e *Engine) handleFrame(frame []byte) {
	if it, n, err := msg.ParseInterest(frame); err == nil && n == len(frame) {
		e.handleInterest(it)
		return
	}
	if co, n, _, err := msg.ParseContentObject(frame); err == nil && n == len(frame) {
		if e.checkPolicyUpdate(co) {
			return
		}
		e.saveContent(co, frame)
		return
	}
	colog.Warn(logSubsys, "malformed frame on repository face")
}

func (e *Engine) handleInterest(it *msg.Interest) {
	if len(it.Name) > 0 && it.Name[len(it.Name)-1].Equal(childrenMarker) {
		e.respondChildren(it)
		return
	}
	wire, found := e.getContent(it)
	if !found {
		return // per §4.9: return none, no explicit negative response
	}
	if _, err := e.conn.Write(wire); err != nil {
		colog.Warn(logSubsys, "writing content reply", "err", err)
	}
}

// saveContent implements §4.9's save_content: admit co only if it falls
// within the policy's namespace, persist durably, then wake any
// enumeration Interest deferred on one of its ancestors.
func (e *Engine) saveContent(co *msg.ContentObject, wire []byte) bool {
	e.mu.Lock()
	policy := e.policy
	e.mu.Unlock()

	if !policy.Allows(co.Name) {
		colog.Debug(logSubsys, "rejected by policy", "name", co.Name.String())
		return false
	}
	if err := e.store.Put(co.Name, wire); err != nil {
		colog.Error(logSubsys, "persisting content failed", "name", co.Name.String(), "err", err)
		return false
	}
	colog.Info(logSubsys, "stored content", "name", co.Name.String())
	e.wakeEnumeration(co.Name)
	return true
}

// getContent implements get_content: it takes the object stored under the
// lexicographically last name having it.Name as a prefix and returns it
// only if it satisfies every Interest selector. No other stored object is
// tried, so a miss on that one object returns none.
func (e *Engine) getContent(it *msg.Interest) ([]byte, bool) {
	wire, found, err := e.store.Get(it.Name, true)
	if err != nil || !found {
		return nil, false
	}
	co, n, _, err := msg.ParseContentObject(wire)
	if err != nil || n != len(wire) || !it.Matches(co) {
		return nil, false
	}
	return wire, true
}

func (e *Engine) respondChildren(it *msg.Interest) {
	prefix := it.Name[:len(it.Name)-1]
	children, err := e.store.Children(prefix)
	if err != nil {
		colog.Error(logSubsys, "listing children failed", "prefix", prefix.String(), "err", err)
		return
	}
	children = filterNotStrictlyNewer(prefix, children)

	if len(children) == 0 {
		e.mu.Lock()
		e.pending = append(e.pending, pendingEnum{prefix: prefix.Clone(), it: it})
		e.mu.Unlock()
		return
	}
	e.sendChildrenReply(it, children)
}

// filterNotStrictlyNewer implements get_names_with_prefix's version rule:
// "excluding those whose last version (if the interest carries a version
// marker) is not strictly newer" — if prefix ends in a version component,
// only children whose own version exceeds it survive; an unmarked prefix
// returns every child unfiltered.
func filterNotStrictlyNewer(prefix name.Name, children []name.Component) []name.Component {
	if len(prefix) == 0 || !prefix[len(prefix)-1].IsVersion() {
		return children
	}
	floor := prefix[len(prefix)-1].NumberVal()
	out := children[:0]
	for _, c := range children {
		if c.IsVersion() && c.NumberVal() > floor {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) sendChildrenReply(it *msg.Interest, children []name.Component) {
	co := &msg.ContentObject{
		Name: it.Name.Clone(),
		SignedInfo: msg.SignedInfo{
			Timestamp:  time.Now(),
			Type:       msg.ContentTypeData,
			KeyLocator: e.signer.KeyName(),
		},
		Payload:         encodeChildren(children),
		DigestAlgorithm: algorithmForSigType(e.signer.Type()),
	}
	sig, err := e.signer.Sign(co.SignedBytes())
	if err != nil {
		colog.Error(logSubsys, "signing enumeration reply failed", "err", err)
		return
	}
	co.Signature = sig
	wire, _ := co.Encode()
	if _, err := e.conn.Write(wire); err != nil {
		colog.Warn(logSubsys, "writing enumeration reply", "err", err)
	}
}

// wakeEnumeration re-evaluates every deferred enumeration Interest whose
// prefix is an ancestor of name, emitting an updated response for any that
// now has children, per §4.9.
func (e *Engine) wakeEnumeration(n name.Name) {
	e.mu.Lock()
	var woken []pendingEnum
	remaining := e.pending[:0]
	for _, p := range e.pending {
		if p.prefix.IsPrefixOf(n) {
			woken = append(woken, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	e.pending = remaining
	e.mu.Unlock()

	for _, p := range woken {
		children, err := e.store.Children(p.prefix)
		if err != nil {
			continue
		}
		children = filterNotStrictlyNewer(p.prefix, children)
		if len(children) == 0 {
			e.mu.Lock()
			e.pending = append(e.pending, p)
			e.mu.Unlock()
			continue
		}
		e.sendChildrenReply(p.it, children)
	}
}

// encodeChildren serializes an enumeration response body as a sequence of
// 4-byte big-endian length-prefixed components, a minimal scheme local to
// this response kind (not a ccnb structure, since the components are
// carried as the Content Object's opaque Payload).
func encodeChildren(children []name.Component) []byte {
	var out []byte
	var lenBuf [4]byte
	for _, c := range children {
		be := uint32(len(c))
		lenBuf[0] = byte(be >> 24)
		lenBuf[1] = byte(be >> 16)
		lenBuf[2] = byte(be >> 8)
		lenBuf[3] = byte(be)
		out = append(out, lenBuf[:]...)
		out = append(out, c...)
	}
	return out
}

// checkPolicyUpdate implements §4.9's check_policy_update: a signed
// Content Object addressed to <LocalName>/policy-update whose payload is a
// policy.xml document with a strictly greater version replaces the
// current policy, durably, before being applied.
func (e *Engine) checkPolicyUpdate(co *msg.ContentObject) bool {
	e.mu.Lock()
	policy := e.policy
	e.mu.Unlock()

	want := policy.LocalName.Append(name.Component("policy-update"))
	if !co.Name.Equal(want) {
		return false
	}

	if e.verifier == nil || !e.verifier.Verify(sigTypeForDigestAlgorithm(co.DigestAlgorithm), co.SignedBytes(), co.Signature) {
		colog.Warn(logSubsys, "policy update signature invalid")
		return true
	}

	candidate, err := ParsePolicy(co.Payload)
	if err != nil {
		colog.Warn(logSubsys, "policy update malformed", "err", err)
		return true
	}
	if err := e.SetPolicy(candidate); err != nil {
		colog.Warn(logSubsys, "policy update rejected", "err", err)
	}
	return true
}

// SetPolicy implements set_policy: the new policy is written durably to
// <dataDir>/policy.xml (via a temp-file-then-rename, so a crash mid-write
// cannot corrupt the file an in-progress read sees) before being applied
// in memory.
func (e *Engine) SetPolicy(p *Policy) error {
	e.mu.Lock()
	current := e.policy
	e.mu.Unlock()

	if !p.Supersedes(current) {
		return fmt.Errorf("repo: policy version %d does not supersede current %d", p.Version, current.Version)
	}

	body, err := p.Encode()
	if err != nil {
		return err
	}
	path := filepath.Join(e.dataDir, "policy.xml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("repo: writing policy: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("repo: committing policy: %w", err)
	}

	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
	colog.Info(logSubsys, "policy updated", "version", p.Version)
	return nil
}

func sigTypeForDigestAlgorithm(alg string) sec.SigType {
	switch alg {
	case "ed25519":
		return sec.SigTypeEd25519
	case "hmac-sha256":
		return sec.SigTypeHMACSHA256
	default:
		return sec.SigTypeSHA256
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
