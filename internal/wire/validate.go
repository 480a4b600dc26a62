package wire

// Wire types understood by this decompiler. Types 3 and 4 (group
// start/end) are deliberately unsupported, per spec.
const (
	WireVarint    = 0
	WireFixed64   = 1
	WireBytes     = 2
	WireFixed32   = 5
)

// IsValidMessage dry-runs buf as a sequence of protobuf tag/value pairs
// without allocating anything. It is a heuristic, not a guarantee of
// well-formedness: it additionally rejects any buffer whose field
// numbers are not non-decreasing, since real descriptors emit fields in
// ascending order in practice and this is what lets the tag-tree parser
// (rawmsg.Parse) tell a nested message apart from an opaque byte string.
// This heuristic is load-bearing for the descriptor scanner and must not
// be relaxed to accept decreasing field numbers.
func IsValidMessage(buf []byte) bool {
	prevIdx := -1
	p := 0
	end := len(buf)
	for {
		if p < end {
			tag, n := ReadVarint(buf[p:])
			p += n
			if tag == 0 {
				continue
			}

			typ := int(tag & 7)
			idx := int(tag >> 3)

			if idx < prevIdx {
				break
			}
			prevIdx = idx

			if p >= end {
				break
			}

			switch typ {
			case WireVarint, WireBytes:
				v, n := ReadVarint(buf[p:])
				p += n
				if typ == WireBytes {
					p += int(v)
				}
			case WireFixed32:
				p += 4
			case WireFixed64:
				p += 8
			default:
				return false
			}
		}

		if p == end {
			return true
		}
		if p > end {
			break
		}
	}
	return false
}
