package rawmsg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/schdub/protodec/internal/wire"
)

// RawMessage holds the outcome of parsing a single buffer: either a
// populated root Node of KindMessage, or a latched error. Lifecycle:
// construct via Parse; read-only afterwards. A RawMessage value is never
// mutated after Parse returns it -- a second, independent call to Parse
// produces a new RawMessage rather than reusing the old one.
type RawMessage struct {
	root *Node
	err  error
}

// errDataCorrupted is the default error latched at the start of a parse
// and left in place when the failure path doesn't have anything more
// specific to say (e.g. a length-delimited field whose declared length
// runs past the end of its enclosing range).
var errDataCorrupted = errors.New("data corrupted")

// Parse decodes buf as a protobuf v2 wire-format message with no prior
// knowledge of its schema, building the tag-tree described in package
// rawmsg's doc comment. The caller is responsible for any lookahead
// padding its use case needs (e.g. the protodec command appends two
// trailing NUL bytes to the file contents before parsing or scanning
// them); Parse itself is
// bounds-strict and performs no padding of its own.
func Parse(buf []byte) *RawMessage {
	rm := &RawMessage{err: errDataCorrupted}
	rm.run(buf)
	return rm
}

// Err returns the latched parse error, or nil if the most recent Parse
// succeeded.
func (rm *RawMessage) Err() error {
	return rm.err
}

// Root returns the root KindMessage node. It is nil if parsing failed.
func (rm *RawMessage) Root() *Node {
	return rm.root
}

// run implements the iterative, explicit two-stack parse algorithm:
// tails holds one end-of-range sentinel per open submessage, maps holds
// the KindMessage node currently being populated at each level.
func (rm *RawMessage) run(buf []byte) {
	if len(buf) == 0 {
		return
	}

	root := &Node{Kind: KindMessage}
	tails := []int{len(buf)}
	msgs := []*Node{root}
	p := 0

	for len(tails) > 0 {
		end := tails[len(tails)-1]
		cur := msgs[len(msgs)-1]
		descended := false

		for p < end {
			tag, n := wire.ReadVarint(buf[p:])
			p += n
			if buf[p-1]&0x80 != 0 {
				// the tag varint ended without a terminating byte
				rm.err = fmt.Errorf("offset 0x%x", p)
				return
			}
			if tag == 0 {
				// protobuf tolerates padding zeros between fields
				continue
			}

			typ := int(tag & 7)
			idx := int(tag >> 3)

			if p >= end {
				rm.err = fmt.Errorf("offset 0x%x", p)
				return
			}

			switch typ {
			case wire.WireVarint:
				v, n2 := wire.ReadVarint(buf[p:])
				p += n2
				mapInsert(cur, idx, &Node{Kind: KindVarint, Varint: v})

			case wire.WireFixed64:
				if p+8 > len(buf) {
					rm.err = fmt.Errorf("offset 0x%x", p)
					return
				}
				bits := binary.LittleEndian.Uint64(buf[p : p+8])
				p += 8
				mapInsert(cur, idx, &Node{Kind: KindFixed64, Fixed64: math.Float64frombits(bits)})

			case wire.WireFixed32:
				if p+4 > len(buf) {
					rm.err = fmt.Errorf("offset 0x%x", p)
					return
				}
				bits := binary.LittleEndian.Uint32(buf[p : p+4])
				p += 4
				mapInsert(cur, idx, &Node{Kind: KindFixed32, Fixed32: math.Float32frombits(bits)})

			case wire.WireBytes:
				length, n2 := wire.ReadVarint(buf[p:])
				p += n2
				if length < 0 || p+int(length) > end {
					return
				}
				payload := buf[p : p+int(length)]
				if wire.IsASCIIString(payload) || !wire.IsValidMessage(payload) {
					b := make([]byte, len(payload))
					copy(b, payload)
					mapInsert(cur, idx, &Node{Kind: KindBytes, Bytes: b})
					p += int(length)
				} else {
					sub := &Node{Kind: KindMessage}
					tails = append(tails, p+int(length))
					msgs = append(msgs, sub)
					mapInsert(cur, idx, sub)
					descended = true
				}

			default:
				rm.err = fmt.Errorf("unknown data type\noffset 0x%x\ntype = %d\nidx = %d", p, typ, idx)
				return
			}

			if descended {
				break
			}
		}

		if !descended {
			tails = tails[:len(tails)-1]
			msgs = msgs[:len(msgs)-1]
		}
	}

	rm.root = root
	rm.err = nil
}

// mapInsert stores child at field number idx within parent (a
// KindMessage or KindRepeated node). The first occurrence of a field
// number is stored directly; the second and later occurrences
// synthesize a KindRepeated container holding every occurrence seen so
// far, keyed by 1-based sequence number. child.Index is always set to
// idx, regardless of which container ultimately holds it.
func mapInsert(parent *Node, idx int, child *Node) {
	child.Index = idx

	i := parent.indexOfKey(idx)
	if i == -1 {
		parent.insertChild(idx, child)
		return
	}

	existing := parent.children[i].node
	if existing.Kind != KindRepeated {
		rep := &Node{Kind: KindRepeated}
		rep.insertChild(1, existing)
		parent.replaceChild(i, idx, rep)
		existing = rep
	}
	existing.insertChild(existing.NumChildren()+1, child)
}
