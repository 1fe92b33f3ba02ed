package msg_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
)

func TestMatchesPrefix(t *testing.T) {
	it := &msg.Interest{Name: mustName(t, "/a/b")}
	co := &msg.ContentObject{Name: mustName(t, "/a/b/c"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.True(t, it.Matches(co))

	unrelated := &msg.ContentObject{Name: mustName(t, "/x/y"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.False(t, it.Matches(unrelated))
}

func TestMatchesPublisherKeyID(t *testing.T) {
	it := &msg.Interest{Name: mustName(t, "/a"), PublisherKeyID: []byte{1, 2}}
	good := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0), PublisherKeyID: []byte{1, 2}},
	}
	bad := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0), PublisherKeyID: []byte{9, 9}},
	}
	require.True(t, it.Matches(good))
	require.False(t, it.Matches(bad))
}

// Exclude is evaluated before the suffix-count constraints, per the
// documented precedence resolution.
func TestExcludeBeforeSuffixCount(t *testing.T) {
	minSuf := 1
	it := &msg.Interest{
		Name:                mustName(t, "/a"),
		MinSuffixComponents: &minSuf,
		Exclude:             &msg.Exclude{Singles: []name.Component{name.Component("b")}},
	}
	excluded := &msg.ContentObject{Name: mustName(t, "/a/b"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.False(t, it.Matches(excluded))

	allowed := &msg.ContentObject{Name: mustName(t, "/a/c"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.True(t, it.Matches(allowed))
}

func TestExcludeRange(t *testing.T) {
	ex := &msg.Exclude{Ranges: []msg.ExcludeRange{{Low: name.Component("b"), High: name.Component("d")}}}
	require.True(t, ex.Excludes(name.Component("c")))
	require.False(t, ex.Excludes(name.Component("e")))
}

func TestMatchesSuffixComponentBounds(t *testing.T) {
	minSuf, maxSuf := 1, 1
	it := &msg.Interest{Name: mustName(t, "/a"), MinSuffixComponents: &minSuf, MaxSuffixComponents: &maxSuf}

	exact := &msg.ContentObject{Name: mustName(t, "/a/b"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.True(t, it.Matches(exact))

	tooLong := &msg.ContentObject{Name: mustName(t, "/a/b/c"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.False(t, it.Matches(tooLong))

	tooShort := &msg.ContentObject{Name: mustName(t, "/a"), SignedInfo: msg.SignedInfo{Timestamp: time.Unix(1, 0)}}
	require.False(t, it.Matches(tooShort))
}
