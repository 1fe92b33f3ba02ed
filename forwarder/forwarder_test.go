package forwarder_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/forwarder"
	"github.com/Atsuko87/ccnx-sub001/msg"
	"github.com/Atsuko87/ccnx-sub001/name"
)

func mustName(t *testing.T, uri string) name.Name {
	t.Helper()
	n, err := name.FromURI(uri)
	require.NoError(t, err)
	return n
}

// newLinkedForwarder starts f's event loop and registers a t.Cleanup that
// stops it at test end.
func newLinkedForwarder(t *testing.T, f *forwarder.Forwarder) {
	t.Helper()
	stop := make(chan struct{})
	go f.Run(stop)
	t.Cleanup(func() { close(stop) })
}

func readFrame(t *testing.T, conn net.Conn, timeout time.Duration) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

// Echo (§8): a Content Object satisfying a pending Interest is relayed
// back out the exact face(s) the Interest arrived on.
func TestForwarderEchoesContentToArrivalFace(t *testing.T) {
	f := forwarder.New()
	newLinkedForwarder(t, f)

	consumer, consumerID := face.AddLocalPair(f.Faces, f.FrameHandler())
	producer, producerID := face.AddLocalPair(f.Faces, f.FrameHandler())

	f.FIB.Register(mustName(t, "/a"), producerID, 0, fib.FlagActive)

	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	_, err := consumer.Write(it.Encode())
	require.NoError(t, err)

	// The Interest must reach the producer side via the FIB next hop.
	fwd := readFrame(t, producer, time.Second)
	gotInterest, n, err := msg.ParseInterest(fwd)
	require.NoError(t, err)
	require.Equal(t, len(fwd), n)
	require.True(t, gotInterest.Name.Equal(it.Name))

	co := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now()},
		Payload:    []byte("hello"),
		Signature:  []byte{0xAA},
	}
	body, _ := co.Encode()
	_, err = producer.Write(body)
	require.NoError(t, err)

	reply := readFrame(t, consumer, time.Second)
	gotCO, n, _, err := msg.ParseContentObject(reply)
	require.NoError(t, err)
	require.Equal(t, len(reply), n)
	require.True(t, gotCO.Name.Equal(co.Name))
	require.Equal(t, co.Payload, gotCO.Payload)

	_ = consumerID
}

// Aggregation (§8): two Interests sharing a fingerprint produce only one
// outbound Interest, and the satisfying Content Object reaches both
// arrival faces.
func TestForwarderAggregatesIdenticalInterests(t *testing.T) {
	f := forwarder.New()
	newLinkedForwarder(t, f)

	consumerA, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	consumerB, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	producer, producerID := face.AddLocalPair(f.Faces, f.FrameHandler())

	f.FIB.Register(mustName(t, "/a"), producerID, 0, fib.FlagActive)

	itA := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	itB := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	_, err := consumerA.Write(itA.Encode())
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = consumerB.Write(itB.Encode())
	require.NoError(t, err)

	fwd := readFrame(t, producer, time.Second)
	_, _, err = msg.ParseInterest(fwd)
	require.NoError(t, err)

	// Only one Interest should ever reach the producer: a second read
	// within a short window must time out.
	require.NoError(t, producer.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	buf := make([]byte, 4096)
	_, err = producer.Read(buf)
	require.Error(t, err, "aggregated Interest must not be forwarded twice")

	co := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now()},
		Payload:    []byte("hi"),
		Signature:  []byte{0x01},
	}
	body, _ := co.Encode()
	_, err = producer.Write(body)
	require.NoError(t, err)

	replyA := readFrame(t, consumerA, time.Second)
	replyB := readFrame(t, consumerB, time.Second)
	require.Equal(t, body, replyA)
	require.Equal(t, body, replyB)
}

// Content cache hit (§8): an Interest matching a stored Content Object is
// answered directly, without ever reaching a next hop.
func TestForwarderContentStoreHit(t *testing.T) {
	f := forwarder.New()
	newLinkedForwarder(t, f)

	producer, producerID := face.AddLocalPair(f.Faces, f.FrameHandler())
	f.FIB.Register(mustName(t, "/a"), producerID, 0, fib.FlagActive)

	co := &msg.ContentObject{
		Name:       mustName(t, "/a/b"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now()},
		Payload:    []byte("cached"),
		Signature:  []byte{0x01},
	}
	body, _ := co.Encode()
	_, err := producer.Write(body)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond) // let the event loop ingest it into the store

	consumer, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	_, err = consumer.Write(it.Encode())
	require.NoError(t, err)

	reply := readFrame(t, consumer, time.Second)
	gotCO, _, _, err := msg.ParseContentObject(reply)
	require.NoError(t, err)
	require.Equal(t, []byte("cached"), gotCO.Payload)

	require.NoError(t, producer.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = producer.Read(make([]byte, 4096))
	require.Error(t, err, "a content-store hit must never reach a next hop")
}

// One Content Object can satisfy more than one pending fingerprint at once:
// CCN matching is prefix-based, so Interests for /a and /a/b are distinct
// PIT entries that are both legitimately satisfied by a Content Object
// named /a/b/c (§4.4 step 2).
func TestForwarderSatisfiesAllMatchingFingerprints(t *testing.T) {
	f := forwarder.New()
	newLinkedForwarder(t, f)

	consumerBroad, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	consumerNarrow, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	producer, producerID := face.AddLocalPair(f.Faces, f.FrameHandler())
	f.FIB.Register(mustName(t, "/a"), producerID, 0, fib.FlagActive)

	broad := &msg.Interest{Name: mustName(t, "/a"), Nonce: msg.NewNonce()}
	_, err := consumerBroad.Write(broad.Encode())
	require.NoError(t, err)
	readFrame(t, producer, time.Second)

	narrow := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: msg.NewNonce()}
	_, err = consumerNarrow.Write(narrow.Encode())
	require.NoError(t, err)
	readFrame(t, producer, time.Second)

	co := &msg.ContentObject{
		Name:       mustName(t, "/a/b/c"),
		SignedInfo: msg.SignedInfo{Timestamp: time.Now()},
		Payload:    []byte("shared"),
		Signature:  []byte{0x01},
	}
	body, _ := co.Encode()
	_, err = producer.Write(body)
	require.NoError(t, err)

	replyBroad := readFrame(t, consumerBroad, time.Second)
	replyNarrow := readFrame(t, consumerNarrow, time.Second)
	require.Equal(t, body, replyBroad, "the broader pending Interest /a must also be satisfied")
	require.Equal(t, body, replyNarrow)
}

// Loop suppression (§8): a looped Interest (same fingerprint and nonce
// seen twice) produces no second outbound Interest.
func TestForwarderSuppressesLoopedNonce(t *testing.T) {
	f := forwarder.New()
	newLinkedForwarder(t, f)

	consumer, _ := face.AddLocalPair(f.Faces, f.FrameHandler())
	producer, producerID := face.AddLocalPair(f.Faces, f.FrameHandler())
	f.FIB.Register(mustName(t, "/a"), producerID, 0, fib.FlagActive)

	nonce := msg.NewNonce()
	it := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: nonce}
	_, err := consumer.Write(it.Encode())
	require.NoError(t, err)
	readFrame(t, producer, time.Second)

	again := &msg.Interest{Name: mustName(t, "/a/b"), Nonce: nonce}
	_, err = consumer.Write(again.Encode())
	require.NoError(t, err)

	require.NoError(t, producer.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = producer.Read(make([]byte, 4096))
	require.Error(t, err, "a looped nonce must not be forwarded again")
}
