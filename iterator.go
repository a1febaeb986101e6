package ordix

// frame is one level of the iterator's ascent stack: the key at idx in
// ref's node is the next to yield when the levels below are exhausted.
type frame[T any] struct {
	ref *NodeRef[T]
	idx int
}

// Iterator walks all live values in ascending order. It advances via
// the per-key chain inside a node and a small ascent stack across
// nodes, so it never holds more than one root-to-leaf path.
//
// Iteration may run concurrently with inserts. The values observed
// then depend on how far the iterator has advanced, but they are
// always non-decreasing; values the iterator has already passed are
// never revisited.
//
//	it := tree.Iterator()
//	for it.Next() {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	t     *Tree[T]
	cur   *NodeRef[T]
	idx   int
	stack []frame[T]

	started bool
	done    bool
	err     error
	val     T
	last    T
	hasLast bool
}

// Iterator returns an in-order iterator over the live values.
func (t *Tree[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{t: t}
}

// Next advances to the next live value. It returns false when the tree
// is exhausted or an error occurred; check Err afterwards.
func (it *Iterator[T]) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	for {
		k, ok, err := it.advance()
		if err != nil {
			it.err = err
			return false
		}
		if !ok {
			it.done = true
			return false
		}
		if k.deleted {
			continue
		}
		// A concurrent writer can shift keys under the handle; never
		// step backwards.
		if it.hasLast && it.t.cmp(k.value, it.last) < 0 {
			continue
		}
		it.val = k.value
		it.last = k.value
		it.hasLast = true
		return true
	}
}

// Value returns the value positioned by the last successful Next.
func (it *Iterator[T]) Value() T { return it.val }

// Err returns the first error hit while iterating, if any.
func (it *Iterator[T]) Err() error { return it.err }

func (it *Iterator[T]) advance() (*Key[T], bool, error) {
	if !it.started {
		it.started = true
		return it.descendLeft(it.t.root.Load())
	}
	n, err := it.cur.materialize()
	if err != nil {
		return nil, false, err
	}
	if it.idx >= len(n.keys) {
		return it.pop()
	}
	k := n.keys[it.idx]
	if k.hasChildren() {
		// Everything between this key and the next lives under the
		// right child; remember where to resume in this node.
		if k.next != nil {
			it.stack = append(it.stack, frame[T]{ref: it.cur, idx: it.idx + 1})
		}
		return it.descendLeft(k.right)
	}
	if k.next != nil {
		it.idx = k.next.index
		return k.next, true, nil
	}
	return it.pop()
}

// descendLeft walks to the bottom-left key reachable from ref, pushing
// a frame at each interior level passed through.
func (it *Iterator[T]) descendLeft(ref *NodeRef[T]) (*Key[T], bool, error) {
	for {
		n, err := ref.materialize()
		if err != nil {
			return nil, false, err
		}
		if len(n.keys) == 0 {
			return it.pop()
		}
		k := n.keys[0]
		if k.left == nil {
			it.cur = ref
			it.idx = 0
			return k, true, nil
		}
		it.stack = append(it.stack, frame[T]{ref: ref, idx: 0})
		ref = k.left
	}
}

// pop resumes at the nearest ancestor key not yet yielded.
func (it *Iterator[T]) pop() (*Key[T], bool, error) {
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		n, err := f.ref.materialize()
		if err != nil {
			return nil, false, err
		}
		if f.idx < len(n.keys) {
			it.cur = f.ref
			it.idx = f.idx
			return n.keys[f.idx], true, nil
		}
	}
	return nil, false, nil
}
