package face

import "github.com/Atsuko87/ccnx-sub001/wire"

// scanElement attempts to parse exactly one complete top-level ccnb element
// (an Interest, ContentObject, or ForwardingEntry wrapper) from the front of
// buf without interpreting its contents. It returns the element's length
// and true if a complete element is present, or false if more bytes are
// needed. A structurally invalid element returns a non-nil error.
//
// This is the stream-framing primitive for §4.6: because every ccnb
// element is self-delimiting (its opening dtag's matching close token
// marks the end), "length-prefixed sequence of ccnb messages" on a stream
// transport reduces to repeatedly calling scanElement on the accumulated
// read buffer, consuming each element as it completes.
func scanElement(buf []byte) (n int, ok bool, err error) {
	r := wire.NewReader(buf)
	if err := r.SkipElement(); err != nil {
		if _, needMore := err.(wire.ErrNeedMoreBytes); needMore {
			return 0, false, nil
		}
		return 0, false, err
	}
	return r.Pos(), true, nil
}

// ScanElement exposes scanElement to callers outside this package that
// frame their own stream, e.g. repo.Engine's local-IPC pipe connection.
func ScanElement(buf []byte) (n int, ok bool, err error) { return scanElement(buf) }
