package strategy

import (
	"time"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/pit"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "strategy"

// SuppressionWindow is the minimum spacing between retransmissions to the
// same next hop, grounded on fw/fw/multicast.go's
// MulticastSuppressionTime, preventing a storm on shared media per §4.5.
const SuppressionWindow = 500 * time.Millisecond

// Multicast is the default forwarding strategy (§4.5): forward to every
// ACTIVE next hop except the face the Interest most recently arrived on,
// pacing per-face retransmissions, grounded on fw/fw/multicast.go.
type Multicast struct{}

func (Multicast) SelectOutgoing(entry *pit.Entry, fibResult fib.LookupResult, arrivalFace uint64) []uint64 {
	if len(fibResult.NextHops) == 0 {
		colog.Debug(logSubsys, "no nexthop for interest")
		return nil
	}

	now := time.Now()
	var out []uint64
	for _, nh := range fibResult.NextHops {
		if nh.FaceID == arrivalFace {
			// Never echo an Interest back out the face it arrived on
			// (the arrival-face echo suppression supplemented into
			// SPEC_FULL.md §4.5).
			continue
		}
		if or, ok := entry.OutRecords[nh.FaceID]; ok && or.SentAt.Add(SuppressionWindow).After(now) {
			colog.Debug(logSubsys, "suppressed retransmission", "name", entry.Interest.Name.String(), "face", nh.FaceID)
			continue
		}
		out = append(out, nh.FaceID)
	}
	return out
}

func (Multicast) OnSatisfied(entry *pit.Entry, fromFace uint64) {
	colog.Trace(logSubsys, "interest satisfied", "name", entry.Interest.Name.String(), "face", fromFace)
}

func (Multicast) OnTimeout(entry *pit.Entry) {
	colog.Debug(logSubsys, "interest timed out", "name", entry.Interest.Name.String())
}
