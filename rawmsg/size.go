package rawmsg

import "github.com/schdub/protodec/internal/wire"

// SizeInBytes computes the wire-format byte length that encoding this
// node's children back out would take. It is used to verify the parser's
// size-fidelity invariant (spec §8, property 4): for any input the
// parser accepts cleanly (no type-0 padding zeros consumed), re-summing
// the tree's encoded size reproduces len(input).
//
// Unlike the original decompiler's bytes7bit() helper -- whose
// `t *= 7` growth (rather than `t += 7`) makes its byte-width brackets
// wrong for every width past the first -- this recomputes each
// varint's width by actually running the encoder into a scratch buffer,
// since nothing in this tool's externally observable output depends on
// reproducing that arithmetic mistake.
func SizeInBytes(node *Node) int {
	total := 0
	for i := 0; i < node.NumChildren(); i++ {
		_, child := node.Child(i)
		switch child.Kind {
		case KindMessage:
			sub := SizeInBytes(child)
			total += sub + varintWidth(int64(sub)) + varintWidth(fieldTag(child.Index, wire.WireBytes))
		case KindRepeated:
			total += SizeInBytes(child)
		case KindVarint:
			total += varintWidth(child.Varint) + varintWidth(fieldTag(child.Index, wire.WireVarint))
		case KindFixed32:
			total += 4 + varintWidth(fieldTag(child.Index, wire.WireFixed32))
		case KindFixed64:
			total += 8 + varintWidth(fieldTag(child.Index, wire.WireFixed64))
		case KindBytes:
			total += len(child.Bytes) + varintWidth(int64(len(child.Bytes))) + varintWidth(fieldTag(child.Index, wire.WireBytes))
		}
	}
	return total
}

func fieldTag(fieldNumber, wireType int) int64 {
	return int64(fieldNumber)<<3 | int64(wireType)
}

func varintWidth(v int64) int {
	var scratch [10]byte
	return wire.WriteVarint(v, scratch[:])
}
