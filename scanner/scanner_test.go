package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schdub/protodec/internal/wire"
	"github.com/stretchr/testify/require"
)

// addressbookCore is the literal FileDescriptorProto byte fixture for
// tutorial/addressbook.proto used by the reference test suite.
const addressbookCore = "\n\x11\x61\x64\x64ressbook.proto\x12\x08tutorial\"\xda\x01\n\x06Person\x12\x0c\n\x04name\x18\x01 \x02(\t\x12\n\n\x02id\x18\x02 \x02(\x05\x12\r\n\x05\x65mail\x18\x03 \x01(\t\x12+\n\x05phone\x18\x04 \x03(\x0b\x32\x1c.tutorial.Person.PhoneNumber\x1aM\n\x0bPhoneNumber\x12\x0e\n\x06number\x18\x01 \x02(\t\x12.\n\x04type\x18\x02 \x01(\x0e\x32\x1a.tutorial.Person.PhoneType:\x04HOME\"+\n\tPhoneType\x12\n\n\x06MOBILE\x10\x00\x12\x08\n\x04HOME\x10\x01\x12\x08\n\x04WORK\x10\x02\"/\n\x0b\x41\x64\x64ressBook\x12 \n\x06person\x18\x01 \x03(\x0b\x32\x10.tutorial.Person"

func TestFindSerializedPB(t *testing.T) {
	// S6: the descriptor is buried between two runs of garbage text,
	// with a NUL byte right after it.
	data := []byte("BEGINOFGARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGE" +
		"GARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGE" +
		addressbookCore +
		"\x00ENDOFGARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGE" +
		"GARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGEGARBIGE")

	start, end, ok := FindSerializedPB(data, 0)
	require.True(t, ok)
	require.True(t, wire.IsValidMessage(data[start:end]))

	rest := data[end+1:]
	require.True(t, len(rest) >= 12)
	require.Equal(t, "ENDOFGARBIGE", string(rest[:12]))
}

func TestFindSerializedPBNoCandidate(t *testing.T) {
	_, _, ok := FindSerializedPB([]byte("nothing protobuf-shaped here"), 0)
	require.False(t, ok)
}

func TestGrabWritesDescriptorFile(t *testing.T) {
	data := []byte("junk-before-" + addressbookCore + "\x00-junk-after")
	dir := t.TempDir()

	var sb strings.Builder
	count, err := Grab(data, dir, &sb)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	written, err := os.ReadFile(filepath.Join(dir, "addressbook.proto"))
	require.NoError(t, err)
	require.Contains(t, string(written), "package tutorial;\n")
	require.Contains(t, string(written), "message Person {\n")
	require.Contains(t, string(written), "message AddressBook {\n")
}
