package name_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/name"
)

func TestComponentURIRoundTrip(t *testing.T) {
	c := name.Component("a b/c%")
	s := c.String()
	decoded, err := name.ComponentFromURI(s)
	require.NoError(t, err)
	require.True(t, c.Equal(decoded))
}

func TestVersionSegmentMarkers(t *testing.T) {
	v := name.VersionComponent(time.Unix(0, 1234))
	require.True(t, v.IsVersion())
	require.False(t, v.IsSegment())
	require.EqualValues(t, 1234, v.NumberVal())

	s := name.SegmentComponent(7)
	require.True(t, s.IsSegment())
	require.False(t, s.IsVersion())
	require.EqualValues(t, 7, s.NumberVal())
}

func TestOrdinaryComponentHasNoMarker(t *testing.T) {
	c := name.Component("plain")
	_, ok := c.Marker()
	require.False(t, ok)
	require.EqualValues(t, 0, c.NumberVal())
}
