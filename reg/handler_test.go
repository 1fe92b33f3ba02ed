package reg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/reg"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func newSigner(t *testing.T, keyName string) sec.Signer {
	t.Helper()
	s, _, err := sec.KeygenEd25519(mustName(t, keyName))
	require.NoError(t, err)
	return s
}

func TestHandleRegisterAddsNextHop(t *testing.T) {
	daemon := mustName(t, "/local/ccnfwd")
	signer := newSigner(t, "/local/ccnfwd/KEY/default")
	verifier := sec.NewKeyRingVerifier()
	sec.TrustEd25519(verifier, signer)

	fibTable := fib.NewTable()
	h := reg.NewHandler(daemon, fibTable, signer, verifier)

	entry := &msg.ForwardingEntry{
		Action:          msg.ActionRegister,
		Prefix:          mustName(t, "/content"),
		FaceID:          7,
		LifetimeSeconds: 300,
	}
	it, err := reg.BuildRegistrationInterest(daemon, []byte{1, 2, 3}, entry, signer)
	require.NoError(t, err)
	require.True(t, h.IsRegistration(it.Name))

	reply, err := h.Handle(it, 99)
	require.NoError(t, err)
	require.True(t, reply.Name.Equal(it.Name))

	res := fibTable.Lookup(mustName(t, "/content/x"))
	require.Len(t, res.NextHops, 1)
	require.EqualValues(t, 7, res.NextHops[0].FaceID)
}

func TestHandleSelfRegisterUsesArrivalFace(t *testing.T) {
	daemon := mustName(t, "/local/ccnfwd")
	signer := newSigner(t, "/local/ccnfwd/KEY/default")
	verifier := sec.NewKeyRingVerifier()
	sec.TrustEd25519(verifier, signer)

	fibTable := fib.NewTable()
	h := reg.NewHandler(daemon, fibTable, signer, verifier)

	entry := &msg.ForwardingEntry{
		Action:          msg.ActionSelfRegister,
		Prefix:          mustName(t, "/repo"),
		LifetimeSeconds: 300,
	}
	it, err := reg.BuildRegistrationInterest(daemon, []byte{1}, entry, signer)
	require.NoError(t, err)

	_, err = h.Handle(it, 42)
	require.NoError(t, err)

	res := fibTable.Lookup(mustName(t, "/repo"))
	require.Len(t, res.NextHops, 1)
	require.EqualValues(t, 42, res.NextHops[0].FaceID)
}

func TestHandleUnregisterRemovesNextHop(t *testing.T) {
	daemon := mustName(t, "/local/ccnfwd")
	signer := newSigner(t, "/local/ccnfwd/KEY/default")
	verifier := sec.NewKeyRingVerifier()
	sec.TrustEd25519(verifier, signer)

	fibTable := fib.NewTable()
	h := reg.NewHandler(daemon, fibTable, signer, verifier)

	reg1 := &msg.ForwardingEntry{Action: msg.ActionRegister, Prefix: mustName(t, "/content"), FaceID: 7, LifetimeSeconds: 300}
	it1, err := reg.BuildRegistrationInterest(daemon, []byte{1}, reg1, signer)
	require.NoError(t, err)
	_, err = h.Handle(it1, 99)
	require.NoError(t, err)

	unreg := &msg.ForwardingEntry{Action: msg.ActionUnregister, Prefix: mustName(t, "/content"), FaceID: 7}
	it2, err := reg.BuildRegistrationInterest(daemon, []byte{1}, unreg, signer)
	require.NoError(t, err)
	_, err = h.Handle(it2, 99)
	require.NoError(t, err)

	res := fibTable.Lookup(mustName(t, "/content"))
	require.Empty(t, res.NextHops)
}

func TestHandleRejectsUntrustedSigner(t *testing.T) {
	daemon := mustName(t, "/local/ccnfwd")
	daemonSigner := newSigner(t, "/local/ccnfwd/KEY/default")
	untrusted := newSigner(t, "/attacker/KEY/default")
	verifier := sec.NewKeyRingVerifier()
	sec.TrustEd25519(verifier, daemonSigner)

	fibTable := fib.NewTable()
	h := reg.NewHandler(daemon, fibTable, daemonSigner, verifier)

	entry := &msg.ForwardingEntry{Action: msg.ActionRegister, Prefix: mustName(t, "/content"), FaceID: 7, LifetimeSeconds: 300}
	it, err := reg.BuildRegistrationInterest(daemon, []byte{1}, entry, untrusted)
	require.NoError(t, err)

	_, err = h.Handle(it, 99)
	require.Error(t, err)
}

func TestIsRegistrationRejectsUnrelatedName(t *testing.T) {
	daemon := mustName(t, "/local/ccnfwd")
	h := reg.NewHandler(daemon, fib.NewTable(), nil, nil)
	require.False(t, h.IsRegistration(mustName(t, "/content/x")))
}
