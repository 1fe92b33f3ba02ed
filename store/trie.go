package store

import (
	"sort"

	"github.com/Atsuko87/ccnx-sub001/name"
)

// trieNode mirrors the teacher's memoryStoreNode: a component-keyed trie of
// children. Unlike the teacher's single-value-per-leaf store, every node
// along the path to an entry's full name also keeps that entry in its own
// sorted `entries` list, so a lookup for a (possibly non-leaf) Interest name
// finds its full candidate set without walking the rest of the subtree,
// matching spec.md §4.3's "each trie node holds a sorted list of accessioned
// entries whose names pass through it."
type trieNode struct {
	comp     name.Component
	children map[string]*trieNode
	entries  []*Entry // sorted by (name, accession)
}

func newTrieNode() *trieNode { return &trieNode{} }

func (n *trieNode) child(comp name.Component, create bool) *trieNode {
	key := string(comp)
	if c, ok := n.children[key]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[string]*trieNode)
	}
	c := &trieNode{comp: comp.Clone()}
	n.children[key] = c
	return c
}

// insert walks to the node addressed by path (a full Name), creating nodes
// along the way, and inserts e in sorted position into every node's entries
// list from root to leaf.
func (n *trieNode) insert(path name.Name, e *Entry) {
	cur := n
	cur.insertHere(e)
	for _, comp := range path {
		cur = cur.child(comp, true)
		cur.insertHere(e)
	}
}

func (n *trieNode) insertHere(e *Entry) {
	i := sort.Search(len(n.entries), func(i int) bool { return !n.entries[i].less(e) })
	n.entries = append(n.entries, nil)
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = e
}

// removeAccession deletes e from every node's entries list on path, pruning
// empty children bottom-up.
func (n *trieNode) removeAccession(path name.Name, e *Entry) {
	nodes := make([]*trieNode, 1, len(path)+1)
	nodes[0] = n
	cur := n
	for _, comp := range path {
		cur = cur.child(comp, false)
		if cur == nil {
			break
		}
		nodes = append(nodes, cur)
	}
	for _, nd := range nodes {
		nd.removeHere(e)
	}
	for i := len(nodes) - 1; i > 0; i-- {
		parent, child := nodes[i-1], nodes[i]
		if len(child.entries) == 0 && len(child.children) == 0 {
			delete(parent.children, string(child.comp))
		}
	}
}

func (n *trieNode) removeHere(e *Entry) {
	for i, cand := range n.entries {
		if cand == e {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}

// walk locates the node at the given full-name path, without creating it.
func (n *trieNode) walk(path name.Name) *trieNode {
	cur := n
	for _, comp := range path {
		cur = cur.child(comp, false)
		if cur == nil {
			return nil
		}
	}
	return cur
}
