// Package schema implements the schema inferer (spec component E): it
// walks a parsed tag-tree, deduplicates identical message shapes by
// their rendered signature text, and emits a synthetic .proto file
// naming every distinct shape MSG<n>.
package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/schdub/protodec/rawmsg"
)

// packageName is the literal package name every inferred schema is
// printed under; there is no way to recover the original package name
// from an unstructured tag-tree, so the inferer always uses this
// placeholder.
const packageName = "ProtodecMessages"

// context tracks the post-order dedup state for one inference run: the
// rendered signature text of every distinct message shape seen so far,
// in order of first assignment, plus the reverse lookup used to detect
// repeats.
type context struct {
	messages []string
	lookup   map[string]int
}

// Print infers and writes a synthetic .proto schema for msg's tag-tree
// to w.
func Print(w io.Writer, msg *rawmsg.RawMessage) error {
	ctx := &context{lookup: make(map[string]int)}
	fill(msg.Root(), ctx)

	var sb strings.Builder
	fmt.Fprintf(&sb, "package %s;\n", packageName)
	for i, text := range ctx.messages {
		fmt.Fprintf(&sb, "\nmessage MSG%d {\n", i+1)
		sb.WriteString(text)
		sb.WriteString("}\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// fill computes node's signature text, recursing into any child (or,
// for a Repeated child, its first occurrence) that is itself a message
// shape so that a child's global id is always assigned before its
// parent's signature references it.
func fill(node *rawmsg.Node, ctx *context) {
	var sb strings.Builder
	for i := 0; i < node.NumChildren(); i++ {
		key, child := node.Child(i)
		sb.WriteByte('\t')

		var label, typeName string
		if child.Kind != rawmsg.KindRepeated {
			if child.Kind == rawmsg.KindMessage {
				fill(child, ctx)
			}
			label = "required"
			typeName = dataType(child)
		} else {
			_, first := child.Child(0)
			if first.Kind == rawmsg.KindMessage || first.Kind == rawmsg.KindRepeated {
				fill(first, ctx)
			}
			label = "repeated"
			typeName = dataType(first)
		}

		fmt.Fprintf(&sb, "%s %s fld%d = %d;\n", label, typeName, key, key)
	}

	text := sb.String()
	if id, ok := ctx.lookup[text]; ok {
		node.GlobalID = id
		return
	}
	ctx.messages = append(ctx.messages, text)
	node.GlobalID = len(ctx.messages)
	ctx.lookup[text] = node.GlobalID
}

func dataType(n *rawmsg.Node) string {
	switch n.Kind {
	case rawmsg.KindVarint:
		return "int64"
	case rawmsg.KindFixed64:
		return "double"
	case rawmsg.KindFixed32:
		return "float"
	case rawmsg.KindBytes:
		return "string"
	default:
		return fmt.Sprintf("MSG%d", n.GlobalID)
	}
}
