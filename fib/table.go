package fib

import "github.com/Atsuko87/ccnx-sub001/name"

// node is the FIB's prefix trie, the same component-keyed shape used by
// store.trieNode (itself grounded on store_memory.go's memoryStoreNode),
// here holding at most one Entry per node instead of an accessioned list.
type node struct {
	comp     name.Component
	children map[string]*node
	entry    *Entry
}

// Table is the forwarding information base.
type Table struct {
	root *node
}

func NewTable() *Table {
	return &Table{root: &node{}}
}

func (n *node) child(comp name.Component, create bool) *node {
	key := string(comp)
	if c, ok := n.children[key]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c := &node{comp: comp.Clone()}
	n.children[key] = c
	return c
}

// Register adds (or updates the cost/flags of) a next hop for prefix,
// creating the entry if this is the first registration under it, per
// §4.10's registration protocol.
func (t *Table) Register(prefix name.Name, faceID uint64, cost int, flags Flag) {
	cur := t.root
	for _, comp := range prefix {
		cur = cur.child(comp, true)
	}
	if cur.entry == nil {
		cur.entry = &Entry{Prefix: prefix.Clone()}
	}
	if nh := cur.entry.nextHop(faceID); nh != nil {
		nh.Cost = cost
		nh.Flags = flags
		return
	}
	cur.entry.NextHops = append(cur.entry.NextHops, &NextHop{FaceID: faceID, Cost: cost, Flags: flags})
}

// Unregister removes faceID as a next hop of prefix, pruning the entry
// (and any now-empty trie nodes) if it was the last one.
func (t *Table) Unregister(prefix name.Name, faceID uint64) {
	nodes := make([]*node, 1, len(prefix)+1)
	nodes[0] = t.root
	cur := t.root
	for _, comp := range prefix {
		cur = cur.child(comp, false)
		if cur == nil {
			return
		}
		nodes = append(nodes, cur)
	}
	if cur.entry == nil {
		return
	}
	cur.entry.removeNextHop(faceID)
	if len(cur.entry.NextHops) == 0 {
		cur.entry = nil
	}
	for i := len(nodes) - 1; i > 0; i-- {
		parent, child := nodes[i-1], nodes[i]
		if child.entry == nil && len(child.children) == 0 {
			delete(parent.children, string(child.comp))
		}
	}
}

// RemoveFace drops faceID from every entry in the FIB, e.g. on a dead-face
// sweep (§4.6).
func (t *Table) RemoveFace(faceID uint64) {
	var walk func(n *node)
	walk = func(n *node) {
		if n.entry != nil {
			n.entry.removeNextHop(faceID)
			if len(n.entry.NextHops) == 0 {
				n.entry = nil
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}

// LookupResult is the FIB's answer for a name: the deepest matching
// entry's own next hops, plus any additional next hops collected from
// CHILD_INHERIT ancestors.
type LookupResult struct {
	NextHops []*NextHop
}

// Lookup performs longest-prefix match for name, then walks back up
// collecting next hops from any ancestor entry flagged CHILD_INHERIT, per
// §4.5.
func (t *Table) Lookup(n name.Name) LookupResult {
	path := make([]*node, 1, len(n)+1)
	path[0] = t.root
	cur := t.root
	for _, comp := range n {
		next := cur.child(comp, false)
		if next == nil {
			break
		}
		path = append(path, next)
		cur = next
	}

	var result LookupResult
	deepestFound := false
	for i := len(path) - 1; i >= 0; i-- {
		e := path[i].entry
		if e == nil {
			continue
		}
		if !deepestFound {
			result.NextHops = append(result.NextHops, activeNextHops(e)...)
			deepestFound = true
			if !anyChildInherit(e) {
				break
			}
			continue
		}
		// Ancestor: only contributes if it has a CHILD_INHERIT-flagged
		// next hop.
		for _, nh := range e.NextHops {
			if nh.Flags&FlagChildInherit != 0 && nh.Flags&FlagActive != 0 {
				result.NextHops = append(result.NextHops, nh)
			}
		}
	}
	return result
}

func activeNextHops(e *Entry) []*NextHop {
	out := make([]*NextHop, 0, len(e.NextHops))
	for _, nh := range e.NextHops {
		if nh.Flags&FlagActive != 0 {
			out = append(out, nh)
		}
	}
	return out
}

func anyChildInherit(e *Entry) bool {
	for _, nh := range e.NextHops {
		if nh.Flags&FlagChildInherit != 0 {
			return true
		}
	}
	return false
}
