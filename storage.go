package ordix

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Storage is an append-only file of serialized node records. Updating
// a node appends a new copy at a new position; stale copies are never
// reclaimed, which is what lets readers holding older positions keep a
// consistent view without locking.
type Storage struct {
	dir  string
	name string

	mu   sync.Mutex // guards file size and appends
	file *os.File
	size int64
}

// NewStorage opens or creates the storage file name under dir.
func NewStorage(dir, name string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open storage file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	return &Storage{
		dir:  dir,
		name: name,
		file: file,
		size: info.Size(),
	}, nil
}

// NewTempStorage creates storage under dir with a randomized file
// name. Handy for scratch indexes and benchmarks.
func NewTempStorage(dir string) (*Storage, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	name := "ordix-" + strings.Split(id.String(), "-")[0] + ".storage"
	return NewStorage(dir, name)
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

// Name returns the storage file name.
func (s *Storage) Name() string { return s.name }

// Path returns the full storage file path.
func (s *Storage) Path() string { return filepath.Join(s.dir, s.name) }

// Size returns the current append offset.
func (s *Storage) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// append writes b at the end of the file and returns its offset.
func (s *Storage) append(b []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off := s.size
	n, err := s.file.WriteAt(b, off)
	if err != nil {
		return 0, err
	}
	if n != len(b) {
		return 0, fmt.Errorf("short write: wrote %d bytes, expected %d", n, len(b))
	}
	s.size += int64(n)
	return off, nil
}

// readerAt returns a buffered reader over the bytes from off to the
// current end of file. Records are self-delimiting, so readers only
// touch offsets that were published to them.
func (s *Storage) readerAt(off int64) io.Reader {
	s.mu.Lock()
	size := s.size
	s.mu.Unlock()
	return bufio.NewReader(io.NewSectionReader(s.file, off, size-off))
}

// Sync flushes appended records to the device.
func (s *Storage) Sync() error {
	return datasync(s.file)
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Node record layout, all integers big-endian:
//
//	keyCount uint32
//	per key:
//	    valueLen uint32, value bytes
//	    left  file int64, offset int64   (-1,-1 when absent)
//	    right file int64, offset int64
//	    deleted byte
//
// No alignment, no checksums.

func (t *Tree[T]) encodeNode(n *node[T]) ([]byte, error) {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(n.keys)))
	for _, k := range n.keys {
		vb, err := t.codec.Encode(k.value)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
		writeUint32(&buf, uint32(len(vb)))
		buf.Write(vb)
		if err := writeChildPosition(&buf, k.left); err != nil {
			return nil, err
		}
		if err := writeChildPosition(&buf, k.right); err != nil {
			return nil, err
		}
		if k.deleted {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes(), nil
}

func (t *Tree[T]) decodeNode(r io.Reader) (*node[T], error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if int(count) >= t.degree {
		return nil, fmt.Errorf("%w: %d keys exceeds degree %d", ErrCorruptRecord, count, t.degree)
	}
	n := &node[T]{t: t}
	for i := 0; i < int(count); i++ {
		vlen, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		vb := make([]byte, vlen)
		if _, err := io.ReadFull(r, vb); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		v, err := t.codec.Decode(vb)
		if err != nil {
			return nil, fmt.Errorf("decode value: %w", err)
		}
		k := newKey(v)
		left, err := readChildPosition(r)
		if err != nil {
			return nil, err
		}
		right, err := readChildPosition(r)
		if err != nil {
			return nil, err
		}
		if left.isSet() {
			k.setLeft(t.newPersistentRef(left))
		}
		if right.isSet() {
			k.setRight(t.newPersistentRef(right))
		}
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		k.deleted = flag[0] != 0
		n.keys = append(n.keys, k)
	}
	n.relink()
	return n, nil
}

func writeChildPosition[T any](buf *bytes.Buffer, ref *NodeRef[T]) error {
	pos := NoPosition
	if ref != nil {
		p, ok := ref.Position()
		if !ok {
			return ErrUnsavedChild
		}
		pos = p
	}
	writeInt64(buf, pos.File)
	writeInt64(buf, pos.Offset)
	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func readChildPosition(r io.Reader) (Position, error) {
	file, err := readInt64(r)
	if err != nil {
		return NoPosition, err
	}
	off, err := readInt64(r)
	if err != nil {
		return NoPosition, err
	}
	return Position{File: file, Offset: off}, nil
}

// countingReader tracks consumed bytes so a storage walk can find the
// next record boundary.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
