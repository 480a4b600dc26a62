// Package scanner implements the descriptor scanner (spec component G):
// given an arbitrary byte blob, it finds byte ranges that look like a
// length-delimited FileDescriptorProto wrapped in unrelated data, parses
// each candidate, and writes out the .proto source it describes.
package scanner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schdub/protodec/descriptor"
	"github.com/schdub/protodec/internal/wire"
	"github.com/schdub/protodec/rawmsg"
)

// FindSerializedPB scans data starting at offset from for a byte range
// that looks like the start of a FileDescriptorProto: a tag-1 string
// field (the file name) immediately followed by a tag-2 string field
// (the package name), bounded below by the next NUL byte. Up to ten
// successive NUL boundaries are tried from the same anchor before giving
// up on it and advancing -- real descriptor bytes can themselves contain
// embedded NULs, so the first one found is not always the right end of
// message. Each candidate end is confirmed with the same ascending
// field-number dry run the rest of this tool uses to tell Bytes from
// Message. It returns the half-open [start, end) range of the first
// candidate found at or after from, or ok=false if none remains.
func FindSerializedPB(data []byte, from int) (start, end int, ok bool) {
	p := from
	e := len(data)
	for {
		for p < e && data[p] != 0x0a {
			p++
		}
		if p >= e {
			return 0, 0, false
		}

		endPtr := p + 1
		isValid := false
		for tr := 0; tr < 10 && endPtr < e; tr, endPtr = tr+1, endPtr+1 {
			for endPtr < e-1 && data[endPtr] != 0 {
				endPtr++
			}
			if endPtr >= e-1 {
				break
			}

			v, n := wire.ReadVarint(data[p+1 : endPtr])
			b := p + 1 + n
			if b >= endPtr || int64(b)+v >= int64(endPtr) {
				continue
			}
			if v <= 0 || data[b+int(v)] != 0x12 || !wire.IsASCIIString(data[b:b+int(v)]) {
				break
			}

			v2, n2 := wire.ReadVarint(data[b+int(v)+1 : endPtr])
			b2 := b + int(v) + 1 + n2
			if b2 >= endPtr || int64(b2)+v2 >= int64(endPtr) {
				continue
			}
			if v2 <= 0 || !wire.IsASCIIString(data[b2:b2+int(v2)]) {
				break
			}

			if wire.IsValidMessage(data[p:endPtr]) {
				isValid = true
				break
			}
		}

		if !isValid {
			p++
			continue
		}
		return p, endPtr, true
	}
}

// Grab scans data end to end for FileDescriptorProto candidates, renders
// each confirmed one to a .proto file under outDir named after the
// descriptor's own file name field, and writes a progress line per
// candidate to w. It returns how many files were written.
func Grab(data []byte, outDir string, w io.Writer) (count int, err error) {
	from := 0
	for from < len(data) {
		start, end, ok := FindSerializedPB(data, from)
		if !ok {
			break
		}

		if msg := rawmsg.Parse(data[start:end]); msg.Err() == nil && descriptor.LooksLikeFileDescriptor(msg.Root()) {
			nameNode, _ := msg.Root().Field(1)
			filename := filepath.FromSlash(string(nameNode.Bytes))

			var out bytes.Buffer
			if rerr := descriptor.Render(&out, msg); rerr != nil {
				fmt.Fprintf(w, " [-] %s ERROR: %v\n", filename, rerr)
			} else if werr := os.WriteFile(filepath.Join(outDir, filename), out.Bytes(), 0o644); werr != nil {
				fmt.Fprintf(w, " [-] %s ERROR: %v\n", filename, werr)
			} else {
				fmt.Fprintf(w, " [+] %s\n", filename)
				count++
			}
		}

		from = end + 1
	}
	return count, nil
}
