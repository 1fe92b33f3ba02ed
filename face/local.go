package face

import "net"

// AddLocalPair registers a new face backed by an in-memory net.Pipe and
// hands back the other end of the pipe for a co-resident, out-of-process-
// style component (the repository engine) to read and write ccnb frames
// on, per §5's "communication with the forwarder is via the same face
// abstraction (a local IPC face) — no shared memory between them." Reusing
// streamTransport over net.Pipe keeps the repository on the exact same
// framing/auto-detection path as a real TCP face, grounded on
// fw/face/unix-stream-transport.go.
func AddLocalPair(ft *FaceTable, onFrame FrameHandler) (peer net.Conn, faceID uint64) {
	forwarderSide, repoSide := net.Pipe()
	t := acceptStream(forwarderSide, PersistencyPersistent)
	f := ft.Add(t, false, onFrame)
	return repoSide, f.ID
}
