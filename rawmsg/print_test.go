package rawmsg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintRepeatedStrings(t *testing.T) {
	// S2
	data := []byte{
		0x0a, 0x05, '0', '1', '2', '3', '4',
		0x0a, 0x04, 'a', 'b', 'c', 'd',
		0x0a, 0x03, 'X', 'Y', 'Z',
	}
	msg := Parse(data)
	require.NoError(t, msg.Err())

	var sb strings.Builder
	require.NoError(t, msg.Print(&sb))

	expected := "1 [\n" +
		"\t1: \"01234\"\n" +
		"\t2: \"abcd\"\n" +
		"\t3: \"XYZ\"\n" +
		"]\n"
	require.Equal(t, expected, sb.String())
}

func TestPrintPackedScalarsEscaping(t *testing.T) {
	// S5 -- exact byte escaping, including the 0x03/0x02 pass-through
	// (isascii, not isprint) and the zero-padded \005 escape.
	data := []byte{0x22, 0x06, 0x03, 0x8E, 0x02, 0x9E, 0xA7, 0x05}
	msg := Parse(data)
	require.NoError(t, msg.Err())

	var sb strings.Builder
	require.NoError(t, msg.Print(&sb))

	expected := "4: \"\x03\\142\x02\\158\\167\\005\"\n"
	require.Equal(t, expected, sb.String())
}

func TestPrintSingleMessage(t *testing.T) {
	inner := []byte{0x08, 42}
	data := append([]byte{0x0a, byte(len(inner))}, inner...)
	msg := Parse(data)
	require.NoError(t, msg.Err())

	var sb strings.Builder
	require.NoError(t, msg.Print(&sb))
	require.Equal(t, "1 {\n\t1: 42\n}\n", sb.String())
}
