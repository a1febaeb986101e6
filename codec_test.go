package ordix

import (
	"strings"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64CodecRejectsBadLength(t *testing.T) {
	t.Parallel()

	_, err := Int64Codec{}.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestSnappyCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewSnappyCodec[string](StringCodec{})
	long := strings.Repeat("abcdefgh", 512)
	b, err := codec.Encode(long)
	require.NoError(t, err)
	assert.Less(t, len(b), len(long), "repetitive payload compresses")

	got, err := codec.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, long, got)

	_, err = codec.Decode([]byte("not snappy data"))
	assert.Error(t, err)
}

func TestStringTreeWithSnappyCodec(t *testing.T) {
	t.Parallel()

	metaPath := t.TempDir() + "/idx.meta"
	codec := NewSnappyCodec[string](StringCodec{})
	tr, err := New(strings.Compare, codec, WithDegree(5), WithMetadata(metaPath))
	require.NoError(t, err)

	words := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		words = append(words, faker.Word()+faker.Word())
	}
	require.NoError(t, tr.Add(words...))
	require.NoError(t, tr.Flush())
	require.NoError(t, tr.Close())

	reopened, err := New(strings.Compare, codec, WithMetadata(metaPath))
	require.NoError(t, err)
	defer reopened.Close()

	var got []string
	it := reopened.Iterator()
	for it.Next() {
		got = append(got, it.Value())
	}
	require.NoError(t, it.Err())
	require.Len(t, got, 100)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1], got[i])
	}
	for _, w := range words {
		_, ok, err := reopened.Find(w)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}
