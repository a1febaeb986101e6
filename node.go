package ordix

import "sort"

// node is the in-memory shape of a B-tree node: an ordered key list
// plus the head of the key chain. Nodes never address each other
// directly; every child edge goes through a NodeRef.
type node[T any] struct {
	t     *Tree[T]
	keys  []*Key[T]
	first *Key[T]
}

// leaf reports whether this node has no children. Interior nodes carry
// both children on every key, so checking the first key suffices.
func (n *node[T]) leaf() bool {
	return len(n.keys) == 0 || !n.keys[0].hasChildren()
}

// lowerBound returns the index of the first key whose value is >= v.
func (n *node[T]) lowerBound(v T) int {
	return sort.Search(len(n.keys), func(i int) bool {
		return n.t.cmp(n.keys[i].value, v) >= 0
	})
}

// upperBound returns the index of the first key whose value is > v.
// Inserting here keeps equal values in arrival order.
func (n *node[T]) upperBound(v T) int {
	return sort.Search(len(n.keys), func(i int) bool {
		return n.t.cmp(n.keys[i].value, v) > 0
	})
}

// relink rebuilds the key chain, owner backrefs, and indices after any
// change to the key list.
func (n *node[T]) relink() {
	for i, k := range n.keys {
		k.owner = n
		k.index = i
		if i+1 < len(n.keys) {
			k.next = n.keys[i+1]
		} else {
			k.next = nil
		}
	}
	if len(n.keys) > 0 {
		n.first = n.keys[0]
	} else {
		n.first = nil
	}
}

// clone returns a copy of n whose keys are fresh objects carrying the
// same values, children, and tombstone flags. The writer mutates the
// clone and republishes it through the ref, so readers of the old node
// are never disturbed mid-operation.
func (n *node[T]) clone() *node[T] {
	c := &node[T]{t: n.t, keys: make([]*Key[T], len(n.keys))}
	for i, k := range n.keys {
		c.keys[i] = &Key[T]{
			value:   k.value,
			left:    k.left,
			right:   k.right,
			deleted: k.deleted,
		}
	}
	c.relink()
	return c
}

// insertKey places k into the sorted position, after any equal keys.
func (n *node[T]) insertKey(k *Key[T]) {
	idx := n.upperBound(k.value)
	n.keys = append(n.keys, nil)
	copy(n.keys[idx+1:], n.keys[idx:])
	n.keys[idx] = k
	n.relink()
}

// insertPromoted places a key promoted out of oldChild, which just
// split. The promoted key takes oldChild's slot so that every link to
// the dead node is replaced by the fresh siblings, keeping the
// shared-subtree adjacency intact. Positioning by child identity
// rather than by value matters when equal values span nodes.
func (n *node[T]) insertPromoted(k *Key[T], oldChild *NodeRef[T]) {
	idx := len(n.keys) // oldChild was the last key's right child
	for i, existing := range n.keys {
		if existing.left == oldChild {
			idx = i
			break
		}
	}
	n.keys = append(n.keys, nil)
	copy(n.keys[idx+1:], n.keys[idx:])
	n.keys[idx] = k
	if idx > 0 {
		n.keys[idx-1].right = k.left
	}
	if idx+1 < len(n.keys) {
		n.keys[idx+1].left = k.right
	}
	n.relink()
}

// adopt makes k this node's only key. Used for a fresh root after the
// old root split.
func (n *node[T]) adopt(k *Key[T]) {
	n.keys = append(n.keys[:0], k)
	n.relink()
}

// descendChild picks the child to follow for v: the left child of the
// first key >= v, or the last key's right child when all keys are
// smaller.
func (n *node[T]) descendChild(v T) *NodeRef[T] {
	idx := n.lowerBound(v)
	if idx < len(n.keys) {
		return n.keys[idx].left
	}
	return n.keys[len(n.keys)-1].right
}

// medianIndex is the key promoted when a node holding degree keys
// splits. Even degrees promote the lower median.
func medianIndex(degree int) int {
	if degree%2 == 1 {
		return degree / 2
	}
	return (degree - 1) / 2
}

// split breaks a full node into two fresh siblings around the median
// key and returns the median, now carrying the siblings as children.
// The siblings are queued for saving; the split node itself is
// abandoned and never rewritten.
func (n *node[T]) split() *Key[T] {
	m := medianIndex(len(n.keys))
	med := n.keys[m]

	leftRef, left := n.t.newNode()
	left.keys = append(left.keys, n.keys[:m]...)
	left.relink()

	rightRef, right := n.t.newNode()
	right.keys = append(right.keys, n.keys[m+1:]...)
	right.relink()

	// The median's old children survive inside the siblings via the
	// adjacency invariant, so its links can be repointed.
	med.next = nil
	med.owner = nil
	med.index = 0
	med.setLeft(leftRef)
	med.setRight(rightRef)

	n.t.enqueue(leftRef, left)
	n.t.enqueue(rightRef, right)
	return med
}
