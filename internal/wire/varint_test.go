package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadVarintSpecifics(t *testing.T) {
	value, consumed := ReadVarint([]byte{0xbd, 0x01})
	require.EqualValues(t, 189, value)
	require.Equal(t, 2, consumed)
}

func TestWriteVarintSpecifics(t *testing.T) {
	buf := make([]byte, 2)
	n := WriteVarint(189, buf)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0xbd, 0x01}, buf)
}

func TestWriteVarintTruncates(t *testing.T) {
	buf := make([]byte, 1)
	n := WriteVarint(189, buf)
	require.Equal(t, 1, n)
	require.Equal(t, byte(0xbd), buf[0])
}

func TestVarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, 127, 128, 189, 16384, 1 << 20, 1 << 40, (1 << 56) - 1}
	for _, v := range values {
		buf := make([]byte, 10)
		n := WriteVarint(v, buf)
		got, consumed := ReadVarint(buf[:n])
		require.Equal(t, v, got)
		require.Equal(t, n, consumed)
	}
}

func TestReadVarintEmptyBuffer(t *testing.T) {
	value, consumed := ReadVarint(nil)
	require.Zero(t, value)
	require.Zero(t, consumed)
}

func TestReadVarintCapsAtSixteenBytes(t *testing.T) {
	buf := make([]byte, 20)
	for i := range buf {
		buf[i] = 0x80
	}
	_, consumed := ReadVarint(buf)
	require.Equal(t, 16, consumed)
}

func TestIsASCIIStringAllPrintable(t *testing.T) {
	require.True(t, IsASCIIString([]byte("1234566789adfsdfsdfsdfSZZZZ ds ?? 1")))
	require.True(t, IsASCIIString(nil))
}

func TestIsASCIIStringRejectsControlBytes(t *testing.T) {
	require.False(t, IsASCIIString([]byte("12345667\x0589adf\x01sdfsdfsdfSZZZZ ds ?? 1")))
}
