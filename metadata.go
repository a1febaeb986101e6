package ordix

import (
	"bytes"
	"fmt"
	"os"
)

// metadata pins the storage identity, the root position, and the
// degree across process lifetimes. The file is tiny and rewritten as a
// whole: encode to a temp file, then rename over the old one.
//
// Field order, strings length-prefixed, integers big-endian:
//
//	storage directory (absolute path)
//	storage file name
//	root file number int64
//	root offset int64
//	degree int32
type metadata struct {
	storageDir  string
	storageName string
	root        Position
	degree      int
}

func readMetadata(path string) (*metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	r := bytes.NewReader(b)
	dir, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}
	name, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}
	file, err := readInt64(r)
	if err != nil {
		return nil, err
	}
	off, err := readInt64(r)
	if err != nil {
		return nil, err
	}
	degree, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if degree < 2 {
		return nil, fmt.Errorf("%w: metadata degree %d", ErrCorruptRecord, degree)
	}
	return &metadata{
		storageDir:  dir,
		storageName: name,
		root:        Position{File: file, Offset: off},
		degree:      int(degree),
	}, nil
}

func (m *metadata) encode() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(m.storageDir)))
	buf.WriteString(m.storageDir)
	writeUint32(&buf, uint32(len(m.storageName)))
	buf.WriteString(m.storageName)
	writeInt64(&buf, m.root.File)
	writeInt64(&buf, m.root.Offset)
	writeUint32(&buf, uint32(m.degree))
	return buf.Bytes()
}

func (m *metadata) write(path string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, m.encode(), 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

func readLengthPrefixed(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", fmt.Errorf("%w: string length %d exceeds remaining %d", ErrCorruptRecord, n, r.Len())
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return string(b), nil
}
