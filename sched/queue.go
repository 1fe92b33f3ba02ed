// Package sched implements the forwarder's timer wheel: a min-priority
// queue of (deadline, token, callback) entries driving PIT expiry,
// periodic housekeeping, and Interest reexpression, per §4.7.
package sched

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// item is a single scheduled entry, grounded on the teacher's generic
// priority_queue.Item: a value, an orderable priority, and the heap index
// needed for in-place priority updates.
type item[V any, P constraints.Ordered] struct {
	value    V
	priority P
	index    int
}

type wrapper[V any, P constraints.Ordered] []*item[V, P]

func (w wrapper[V, P]) Len() int            { return len(w) }
func (w wrapper[V, P]) Less(i, j int) bool  { return w[i].priority < w[j].priority }
func (w *wrapper[V, P]) Swap(i, j int) {
	(*w)[i], (*w)[j] = (*w)[j], (*w)[i]
	(*w)[i].index = i
	(*w)[j].index = j
}

func (w *wrapper[V, P]) Push(x any) {
	it := x.(*item[V, P])
	it.index = len(*w)
	*w = append(*w, it)
}

func (w *wrapper[V, P]) Pop() any {
	old := *w
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*w = old[:n-1]
	return it
}

// Queue is a generic minimum-priority queue used as the backing store for
// the Wheel below; exposed separately because the content store's
// freshness-expiry index (§4.3) reuses it directly.
type Queue[V any, P constraints.Ordered] struct {
	items wrapper[V, P]
}

func (q *Queue[V, P]) Len() int { return q.items.Len() }

func (q *Queue[V, P]) Push(value V, priority P) *item[V, P] {
	it := &item[V, P]{value: value, priority: priority}
	heap.Push(&q.items, it)
	return it
}

func (q *Queue[V, P]) Peek() (V, P) {
	top := q.items[0]
	return top.value, top.priority
}

func (q *Queue[V, P]) Pop() V {
	return heap.Pop(&q.items).(*item[V, P]).value
}

// Remove deletes the given item from the queue in O(log n). The item
// pointer must have come from a prior Push on this same Queue.
func (q *Queue[V, P]) Remove(it *item[V, P]) {
	if it.index < 0 || it.index >= len(q.items) {
		return
	}
	heap.Remove(&q.items, it.index)
}

// Item is the exported handle type returned by Push, re-exported so
// callers outside the package can hold and later Remove it.
type Item[V any, P constraints.Ordered] = item[V, P]
