// Package strategy implements the forwarder's pluggable forwarding
// strategy (§4.5), grounded on fw/fw/multicast.go's StrategyBase/Multicast
// shape, refit to spec.md's prescribed
// {select_outgoing, on_satisfied, on_timeout} interface.
package strategy

import (
	"github.com/Atsuko87/ccnx-sub001/fib"
	"github.com/Atsuko87/ccnx-sub001/pit"
)

// Strategy is the polymorphic forwarding decision interface of §4.5.
type Strategy interface {
	// SelectOutgoing chooses which faces to forward entry's Interest to,
	// given the FIB's next-hop set and the face it most recently arrived
	// on.
	SelectOutgoing(entry *pit.Entry, fibResult fib.LookupResult, arrivalFace uint64) []uint64
	// OnSatisfied is called once a Content Object has satisfied entry,
	// before it is forwarded to the arrival set.
	OnSatisfied(entry *pit.Entry, fromFace uint64)
	// OnTimeout is called when entry's expiry fires with no satisfying
	// Content Object, before the forwarder decides whether to retransmit.
	OnTimeout(entry *pit.Entry)
}
