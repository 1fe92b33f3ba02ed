package repo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/repo"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func TestPolicyRoundTrip(t *testing.T) {
	p := &repo.Policy{
		Version:      3,
		LocalName:    mustName(t, "/local/ccnr"),
		GlobalPrefix: mustName(t, "/example/repo"),
		AllowedPrefixes: []name.Name{
			mustName(t, "/example/repo/docs"),
			mustName(t, "/example/repo/media"),
		},
	}

	body, err := p.Encode()
	require.NoError(t, err)

	got, err := repo.ParsePolicy(body)
	require.NoError(t, err)

	require.Equal(t, p.Version, got.Version)
	require.True(t, p.LocalName.Equal(got.LocalName))
	require.True(t, p.GlobalPrefix.Equal(got.GlobalPrefix))
	require.Len(t, got.AllowedPrefixes, 2)
	require.True(t, p.AllowedPrefixes[0].Equal(got.AllowedPrefixes[0]))
	require.True(t, p.AllowedPrefixes[1].Equal(got.AllowedPrefixes[1]))
}

func TestPolicyAllows(t *testing.T) {
	p := &repo.Policy{AllowedPrefixes: []name.Name{mustName(t, "/example/repo/docs")}}

	require.True(t, p.Allows(mustName(t, "/example/repo/docs/readme")))
	require.False(t, p.Allows(mustName(t, "/example/repo/media/x")))
}

func TestPolicySupersedesRequiresStrictlyGreaterVersion(t *testing.T) {
	current := &repo.Policy{Version: 5}

	require.True(t, (&repo.Policy{Version: 6}).Supersedes(current))
	require.False(t, (&repo.Policy{Version: 5}).Supersedes(current))
	require.False(t, (&repo.Policy{Version: 4}).Supersedes(current))
}

func TestParsePolicyRejectsMalformedXML(t *testing.T) {
	_, err := repo.ParsePolicy([]byte("not xml"))
	require.Error(t, err)
}

func TestParsePolicyRejectsBadURI(t *testing.T) {
	doc := []byte(`<Policy><Version>1</Version><LocalName>not a uri %zz</LocalName><GlobalPrefix>/a</GlobalPrefix></Policy>`)
	_, err := repo.ParsePolicy(doc)
	require.Error(t, err)
}
