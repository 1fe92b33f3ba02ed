package name_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/name"
)

func TestFromURIRoundTrip(t *testing.T) {
	n, err := name.FromURI("ccnx:/a/b/c")
	require.NoError(t, err)
	require.Equal(t, "ccnx:/a/b/c", n.String())

	bare, err := name.FromURI("/a/b/c")
	require.NoError(t, err)
	require.True(t, n.Equal(bare))
}

func TestFromURIEmpty(t *testing.T) {
	n, err := name.FromURI("ccnx:/")
	require.NoError(t, err)
	require.Equal(t, 0, len(n))
	require.Equal(t, "ccnx:/", n.String())
}

// Name comparison totality (§8): for any two names, exactly one of
// a<b, a=b, a>b holds, and IsPrefixOf(a,b) implies a<=b.
func TestCompareTotality(t *testing.T) {
	names := []string{"/a", "/a/b", "/a/b/c", "/a/c", "/b", "/"}
	parsed := make([]name.Name, len(names))
	for i, s := range names {
		n, err := name.FromURI(s)
		require.NoError(t, err)
		parsed[i] = n
	}

	for i := range parsed {
		for j := range parsed {
			c := parsed[i].Compare(parsed[j])
			switch {
			case i == j:
				require.Zero(t, c, "%s vs itself", names[i])
			case c < 0:
				require.Positive(t, parsed[j].Compare(parsed[i]), "%s < %s should flip", names[i], names[j])
			case c > 0:
				require.Negative(t, parsed[j].Compare(parsed[i]), "%s > %s should flip", names[i], names[j])
			}
		}
	}
}

func TestIsPrefixOfImpliesLessOrEqual(t *testing.T) {
	a, _ := name.FromURI("/a/b")
	b, _ := name.FromURI("/a/b/c")
	require.True(t, a.IsPrefixOf(b))
	require.LessOrEqual(t, a.Compare(b), 0)

	require.True(t, a.IsPrefixOf(a))
	require.False(t, b.IsPrefixOf(a))
}

func TestAppendDoesNotMutateReceiver(t *testing.T) {
	base, _ := name.FromURI("/a/b")
	extended := base.Append(name.Component("c"))
	require.Equal(t, 2, len(base))
	require.Equal(t, 3, len(extended))
	require.True(t, base.IsPrefixOf(extended))
}

func TestIsLaterVersionOf(t *testing.T) {
	older, _ := name.FromURI("/a/b")
	older = append(older, name.VersionComponent(time.Unix(0, 1)))
	newer, _ := name.FromURI("/a/b")
	newer = append(newer, name.VersionComponent(time.Unix(0, 2)))

	require.True(t, name.IsLaterVersionOf(newer, older))
	require.False(t, name.IsLaterVersionOf(older, newer))
	require.False(t, name.IsLaterVersionOf(newer, newer))
}

func TestHashStable(t *testing.T) {
	a, _ := name.FromURI("/a/b/c")
	b, _ := name.FromURI("/a/b/c")
	c, _ := name.FromURI("/a/b/d")
	require.Equal(t, a.Hash(), b.Hash())
	require.NotEqual(t, a.Hash(), c.Hash())
}
