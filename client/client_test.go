package client_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/client"
	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/forwarder"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

func startTestForwarder(t *testing.T) string {
	t.Helper()
	f := forwarder.New()
	l, err := face.ListenStream("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go l.Run(f.Faces, f.FrameHandler())

	stop := make(chan struct{})
	go f.Run(stop)
	t.Cleanup(func() {
		close(stop)
		l.Close()
	})
	return l.Addr().String()
}

func TestClientPutThenGetRoundTrip(t *testing.T) {
	addr := startTestForwarder(t)

	signer, _, err := sec.KeygenEd25519(mustName(t, "/alice/KEY/default"))
	require.NoError(t, err)

	putConn, err := client.Dial(addr)
	require.NoError(t, err)
	defer putConn.Close()

	n := mustName(t, "/alice/docs/readme")
	require.NoError(t, putConn.Put(n, []byte("hello world"), nil, signer))

	// Give the forwarder's event loop a moment to ingest the publish into
	// its content store before the Get races it.
	time.Sleep(50 * time.Millisecond)

	getConn, err := client.Dial(addr)
	require.NoError(t, err)
	defer getConn.Close()

	payload, err := getConn.Get(n, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), payload)
}

func TestClientGetTimesOutWithNoPublisher(t *testing.T) {
	addr := startTestForwarder(t)

	getConn, err := client.Dial(addr)
	require.NoError(t, err)
	defer getConn.Close()

	_, err = getConn.Get(mustName(t, "/nobody/publishes/this"), 200*time.Millisecond)
	require.Error(t, err)
}
