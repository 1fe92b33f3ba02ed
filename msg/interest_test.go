package msg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

// Codec round-trip (§8): parse(encode(x)) == x.
func TestInterestRoundTrip(t *testing.T) {
	minSuf, maxSuf, scope := 1, 3, 2
	lifetime := uint64(4000)
	it := &msg.Interest{
		Name:                mustName(t, "/a/b/c"),
		PublisherKeyID:      []byte{1, 2, 3, 4},
		MinSuffixComponents: &minSuf,
		MaxSuffixComponents: &maxSuf,
		Scope:               &scope,
		AnswerOriginKind:    msg.AOKContentStore | msg.AOKNewContent,
		Exclude: &msg.Exclude{
			Singles: []name.Component{name.Component("x")},
			Ranges:  []msg.ExcludeRange{{Low: name.Component("a"), High: name.Component("m")}},
		},
		Nonce:          msg.NewNonce(),
		LifetimeMillis: &lifetime,
	}

	wire := it.Encode()
	got, n, err := msg.ParseInterest(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), n)

	require.True(t, it.Name.Equal(got.Name))
	require.Equal(t, it.PublisherKeyID, got.PublisherKeyID)
	require.Equal(t, *it.MinSuffixComponents, *got.MinSuffixComponents)
	require.Equal(t, *it.MaxSuffixComponents, *got.MaxSuffixComponents)
	require.Equal(t, *it.Scope, *got.Scope)
	require.Equal(t, it.AnswerOriginKind, got.AnswerOriginKind)
	require.Equal(t, it.Nonce, got.Nonce)
	require.Equal(t, *it.LifetimeMillis, *got.LifetimeMillis)
	require.Len(t, got.Exclude.Singles, 1)
	require.Len(t, got.Exclude.Ranges, 1)
}

func TestInterestRoundTripMinimal(t *testing.T) {
	it := &msg.Interest{Name: mustName(t, "/a")}
	wire := it.Encode()
	got, n, err := msg.ParseInterest(wire)
	require.NoError(t, err)
	require.Equal(t, len(wire), n)
	require.True(t, it.Name.Equal(got.Name))
	require.Nil(t, got.Exclude)
	require.Nil(t, got.Scope)
}

func TestCloneIsIndependent(t *testing.T) {
	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	clone := it.Clone()
	clone.Name[0] = name.Component("z")
	clone.Nonce[0] ^= 0xFF

	require.False(t, it.Name.Equal(clone.Name))
	require.NotEqual(t, it.Nonce, clone.Nonce)
}

func TestNewNonceLength(t *testing.T) {
	n := msg.NewNonce()
	require.Len(t, n, 12)
}
