// Package ordix implements an ordered, disk-persistent B-tree index
// for comparable, serializable values.
//
// The index supports insertion, equality lookup, and lazy in-order
// traversal. Traversal can proceed concurrently with insertions; the
// observed values are always non-decreasing. Persistence is optional:
// with a metadata file configured, nodes are appended to a storage
// file and the index can be reopened across process lifetimes.
package ordix

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// CompareOp selects the boundary semantics of a range query.
type CompareOp int

const (
	OpLT CompareOp = iota
	OpLTE
	OpGT
	OpGTE
)

// Tree is an ordered index of values of type T. A single writer at a
// time mutates it; any number of readers may search and iterate
// concurrently.
type Tree[T any] struct {
	cmp    func(a, b T) int
	codec  Codec[T]
	degree int
	log    Logger

	writeMu sync.Mutex // serializes Add and Delete
	metaMu  sync.Mutex // serializes metadata rewrites
	root    atomic.Pointer[NodeRef[T]]

	storage  *Storage      // nil for a purely in-memory tree
	metaPath string        // empty when persistence is off
	cache    *nodeCache[T] // nil when unbounded

	// Dirty refs awaiting flush, in bottom-up order. Owned by the
	// writer; only touched under writeMu.
	saveQueue []saveEntry[T]

	closed atomic.Bool
}

type saveEntry[T any] struct {
	ref *NodeRef[T]
	n   *node[T]
}

// New builds a tree ordered by cmp, storing values through codec.
//
// With WithMetadata configured and the file already present, the
// degree recorded there overrides WithDegree and the existing tree is
// reopened. With the file absent, a fresh tree is created and its
// metadata written once. Without metadata the tree lives in memory
// (or, with WithStorage, persists nodes but no reopen handle).
func New[T any](cmp func(a, b T) int, codec Codec[T], opts ...Option) (*Tree[T], error) {
	if cmp == nil {
		return nil, ErrNilCompare
	}
	if codec == nil {
		return nil, ErrNilCodec
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.degree < 2 {
		return nil, ErrDegree
	}

	t := &Tree[T]{
		cmp:    cmp,
		codec:  codec,
		degree: o.degree,
		log:    o.logger,
	}
	if o.cacheSize > 0 {
		cache, err := newNodeCache[T](o.cacheSize)
		if err != nil {
			return nil, err
		}
		t.cache = cache
	}

	if o.metadataPath == "" {
		t.storage = o.storage
		ref, n := t.newNode()
		t.root.Store(ref)
		if t.storage != nil {
			t.enqueue(ref, n)
			if err := t.flushSaves(); err != nil {
				return nil, err
			}
		}
		return t, nil
	}

	t.metaPath = o.metadataPath
	if _, err := os.Stat(o.metadataPath); err == nil {
		return t.reopen(o)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Fresh persistent tree: flush the empty root, then write the
	// metadata exactly once.
	if o.storage != nil {
		t.storage = o.storage
	} else {
		dir := filepath.Dir(o.metadataPath)
		name := filepath.Base(o.metadataPath) + ".storage"
		storage, err := NewStorage(dir, name)
		if err != nil {
			return nil, err
		}
		t.storage = storage
	}
	ref, n := t.newNode()
	t.root.Store(ref)
	t.enqueue(ref, n)
	if err := t.flushSaves(); err != nil {
		return nil, err
	}
	if err := t.writeMetadata(); err != nil {
		return nil, err
	}
	t.log.Info("created index", "metadata", t.metaPath, "degree", t.degree)
	return t, nil
}

func (t *Tree[T]) reopen(o options) (*Tree[T], error) {
	m, err := readMetadata(o.metadataPath)
	if err != nil {
		return nil, err
	}
	t.degree = m.degree
	if o.storage != nil {
		t.storage = o.storage
	} else {
		storage, err := NewStorage(m.storageDir, m.storageName)
		if err != nil {
			return nil, err
		}
		t.storage = storage
	}
	t.root.Store(t.newPersistentRef(m.root))
	t.log.Info("opened index",
		"metadata", o.metadataPath, "degree", t.degree, "root", m.root.String())
	return t, nil
}

// Degree returns the effective degree, which for a reopened tree comes
// from the metadata file.
func (t *Tree[T]) Degree() int { return t.degree }

// Root returns the current root ref.
func (t *Tree[T]) Root() *NodeRef[T] { return t.root.Load() }

// Keys returns the root node's key list.
func (t *Tree[T]) Keys() ([]*Key[T], error) {
	return t.root.Load().Keys()
}

func (t *Tree[T]) newNode() (*NodeRef[T], *node[T]) {
	n := &node[T]{t: t}
	return t.newFreshRef(n), n
}

func (t *Tree[T]) enqueue(ref *NodeRef[T], n *node[T]) {
	t.saveQueue = append(t.saveQueue, saveEntry[T]{ref: ref, n: n})
}

// Add inserts one or more values. Each value is flushed before the
// next is inserted, so the on-disk image tracks the in-memory one
// insert by insert.
func (t *Tree[T]) Add(values ...T) error {
	if t.closed.Load() {
		return ErrClosed
	}
	for _, v := range values {
		if err := t.addOne(v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree[T]) addOne(v T) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	root := t.root.Load()
	promoted, err := t.insert(root, v)
	if err != nil {
		t.saveQueue = t.saveQueue[:0]
		return err
	}
	newRoot := root
	if promoted != nil {
		ref, n := t.newNode()
		n.adopt(promoted)
		t.enqueue(ref, n)
		newRoot = ref
	}
	if err := t.flushSaves(); err != nil {
		return err
	}
	// Publish only after the flush; readers that captured the old
	// root keep a consistent snapshot via the old positions.
	t.root.Store(newRoot)
	return nil
}

// insert descends to the leaf for v, inserts, and splits full nodes on
// the way back up. It returns the key promoted out of ref's node, if
// the node split. Mutated nodes are queued children first.
//
// Each touched node is cloned, mutated, and republished through its
// ref, so concurrent readers only ever observe complete node versions.
func (t *Tree[T]) insert(ref *NodeRef[T], v T) (*Key[T], error) {
	orig, err := ref.materialize()
	if err != nil {
		return nil, err
	}
	n := orig.clone()
	if n.leaf() {
		n.insertKey(newKey(v))
	} else {
		child := n.descendChild(v)
		promoted, err := t.insert(child, v)
		if err != nil {
			return nil, err
		}
		if promoted != nil {
			n.insertPromoted(promoted, child)
		}
	}
	if len(n.keys) == t.degree {
		// The clone is abandoned; its keys live on in the fresh
		// siblings and the old version stays published for readers
		// until the rewired ancestors take over.
		return n.split(), nil
	}
	ref.publish(n)
	t.enqueue(ref, n)
	return nil, nil
}

// flushSaves appends every queued node to storage in order. Children
// precede parents in the queue, so a parent always serializes its
// children's fresh positions.
func (t *Tree[T]) flushSaves() error {
	defer func() {
		t.saveQueue = t.saveQueue[:0]
	}()
	if t.storage == nil {
		return nil
	}
	for _, e := range t.saveQueue {
		b, err := t.encodeNode(e.n)
		if err != nil {
			return err
		}
		off, err := t.storage.append(b)
		if err != nil {
			return fmt.Errorf("append node: %w", err)
		}
		e.ref.setPosition(Position{File: 0, Offset: off})
		e.ref.publish(e.n)
	}
	if t.cache != nil {
		for _, e := range t.saveQueue {
			if pos, ok := e.ref.Position(); ok {
				t.cache.put(pos, e.ref)
			}
		}
	}
	return nil
}

// load reads and decodes the node at pos. Called from NodeRef
// materialization.
func (t *Tree[T]) load(pos Position) (*node[T], error) {
	if t.storage == nil {
		return nil, ErrNoStorage
	}
	return t.decodeNode(t.storage.readerAt(pos.Offset))
}

// announce lets the cache track a ref that just materialized.
func (t *Tree[T]) announce(ref *NodeRef[T]) {
	if t.cache == nil {
		return
	}
	if pos, ok := ref.Position(); ok {
		t.cache.put(pos, ref)
	}
}

// Find returns some live value equal to v.
func (t *Tree[T]) Find(v T) (T, bool, error) {
	var zero T
	if t.closed.Load() {
		return zero, false, ErrClosed
	}
	return t.findIn(t.root.Load(), v)
}

func (t *Tree[T]) findIn(ref *NodeRef[T], v T) (T, bool, error) {
	var zero T
	n, err := ref.materialize()
	if err != nil {
		return zero, false, err
	}
	if len(n.keys) == 0 {
		return zero, false, nil
	}
	idx := n.lowerBound(v)
	for j := idx; j < len(n.keys) && t.cmp(n.keys[j].value, v) == 0; j++ {
		if !n.keys[j].deleted {
			return n.keys[j].value, true, nil
		}
	}
	if n.leaf() {
		return zero, false, nil
	}
	var child *NodeRef[T]
	if idx < len(n.keys) {
		child = n.keys[idx].left
	} else {
		child = n.keys[len(n.keys)-1].right
	}
	if child == nil {
		return zero, false, nil
	}
	return t.findIn(child, v)
}

// FindAll returns every live value equal to v, in traversal order.
func (t *Tree[T]) FindAll(v T) ([]T, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	var out []T
	if err := t.findAllIn(t.root.Load(), v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree[T]) findAllIn(ref *NodeRef[T], v T, out *[]T) error {
	n, err := ref.materialize()
	if err != nil {
		return err
	}
	if len(n.keys) == 0 {
		return nil
	}
	idx := n.lowerBound(v)
	interior := !n.leaf()
	if interior {
		var child *NodeRef[T]
		if idx < len(n.keys) {
			child = n.keys[idx].left
		} else {
			child = n.keys[len(n.keys)-1].right
		}
		if child != nil {
			if err := t.findAllIn(child, v, out); err != nil {
				return err
			}
		}
	}
	for j := idx; j < len(n.keys) && t.cmp(n.keys[j].value, v) == 0; j++ {
		k := n.keys[j]
		if !k.deleted {
			*out = append(*out, k.value)
		}
		if interior && k.right != nil {
			if err := t.findAllIn(k.right, v, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindRange is declared for completeness but not implemented.
func (t *Tree[T]) FindRange(lo, hi T, loOp, hiOp CompareOp) (*Iterator[T], error) {
	return nil, ErrNotImplemented
}

// Delete marks every key equal to one of values as deleted and returns
// the number of keys marked. Tombstones stay in place; the tree is
// never rebalanced on delete.
func (t *Tree[T]) Delete(values ...T) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}
	total := 0
	for _, v := range values {
		count, err := t.deleteOne(v)
		total += count
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (t *Tree[T]) deleteOne(v T) (int, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	root := t.root.Load()
	count, dirty, err := t.deleteIn(root, v)
	if err != nil {
		t.saveQueue = t.saveQueue[:0]
		return 0, err
	}
	if !dirty {
		return count, nil
	}
	if err := t.flushSaves(); err != nil {
		return count, err
	}
	t.root.Store(root)
	return count, nil
}

// deleteIn marks matches in ref's subtree. Equal values can sit in the
// left child of the first equal key, between equal keys, and in the
// last equal key's right child; all are visited. Any node whose
// subtree changed is re-queued so its new child positions reach disk.
func (t *Tree[T]) deleteIn(ref *NodeRef[T], v T) (int, bool, error) {
	orig, err := ref.materialize()
	if err != nil {
		return 0, false, err
	}
	if len(orig.keys) == 0 {
		return 0, false, nil
	}
	n := orig.clone()
	count := 0
	dirty := false
	idx := n.lowerBound(v)
	interior := !n.leaf()
	if interior {
		var child *NodeRef[T]
		if idx < len(n.keys) {
			child = n.keys[idx].left
		} else {
			child = n.keys[len(n.keys)-1].right
		}
		if child != nil {
			c, d, err := t.deleteIn(child, v)
			if err != nil {
				return count, dirty, err
			}
			count += c
			dirty = dirty || d
		}
	}
	for j := idx; j < len(n.keys) && t.cmp(n.keys[j].value, v) == 0; j++ {
		k := n.keys[j]
		if !k.deleted {
			k.markDeleted()
			count++
			dirty = true
		}
		if interior && k.right != nil {
			c, d, err := t.deleteIn(k.right, v)
			if err != nil {
				return count, dirty, err
			}
			count += c
			dirty = dirty || d
		}
	}
	// Ancestors of a marked key are re-queued too: the child's next
	// flush gives it a new position the parent record must carry.
	if dirty {
		ref.publish(n)
		t.enqueue(ref, n)
	}
	return count, dirty, nil
}

// Flush rewrites the metadata file so a subsequent reopen sees the
// current root. A no-op without a metadata path.
func (t *Tree[T]) Flush() error {
	if t.closed.Load() {
		return ErrClosed
	}
	if t.metaPath == "" {
		return nil
	}
	return t.writeMetadata()
}

func (t *Tree[T]) writeMetadata() error {
	t.metaMu.Lock()
	defer t.metaMu.Unlock()

	pos, ok := t.root.Load().Position()
	if !ok {
		return ErrUnsavedChild
	}
	dir, err := filepath.Abs(t.storage.Dir())
	if err != nil {
		return err
	}
	m := metadata{
		storageDir:  dir,
		storageName: t.storage.Name(),
		root:        pos,
		degree:      t.degree,
	}
	if err := m.write(t.metaPath); err != nil {
		return err
	}
	return nil
}

// Sync forces appended node records to the device.
func (t *Tree[T]) Sync() error {
	if t.storage == nil {
		return nil
	}
	return t.storage.Sync()
}

// Close releases the storage file handle. The metadata file is not
// rewritten; call Flush first to pin the current root.
func (t *Tree[T]) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.storage != nil {
		return t.storage.Close()
	}
	return nil
}

// Dump walks the storage file from the start and writes one block per
// node record, including stale copies superseded by later appends.
func (t *Tree[T]) Dump(w io.Writer) error {
	if t.storage == nil {
		return ErrNoStorage
	}
	size := t.storage.Size()
	cr := &countingReader{r: t.storage.readerAt(0)}
	for cr.n < size {
		off := cr.n
		n, err := t.decodeNode(cr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "node %s\n", Position{File: 0, Offset: off})
		for _, k := range n.keys {
			tomb := ""
			if k.deleted {
				tomb = " deleted"
			}
			fmt.Fprintf(w, "    key %v L=%s R=%s%s\n",
				k.value, childPosString(k.left), childPosString(k.right), tomb)
		}
	}
	return nil
}

func childPosString[T any](ref *NodeRef[T]) string {
	if ref == nil {
		return "-"
	}
	pos, ok := ref.Position()
	if !ok {
		return "?"
	}
	return pos.String()
}
