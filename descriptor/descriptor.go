// Package descriptor interprets a parsed tag-tree as a FileDescriptorProto
// (spec component F): it recognizes the field layout protoc emits for
// .proto descriptors and renders it back out as approximate .proto source,
// without ever depending on the real descriptor.proto schema at parse
// time -- the recognition is itself heuristic, the same way the rest of
// this tool treats every message as schema-free.
package descriptor

import (
	"fmt"
	"io"

	descpb "github.com/golang/protobuf/protoc-gen-go/descriptor"
	"github.com/schdub/protodec/rawmsg"
)

// Field numbers fixed by descriptor.proto itself. A FileDescriptorProto
// wire-compatible message uses these regardless of the names a real
// protoc build would carry, so they can be hard-coded the way a
// schema-free reader must.
const (
	fileName     = 1
	filePackage  = 2
	fileImport   = 3
	fileMessage  = 4
	fileEnum     = 5

	msgName    = 1
	msgField   = 2
	msgNested  = 3
	msgEnum    = 4

	fieldName    = 1
	fieldNumber  = 3
	fieldLabel   = 4
	fieldType    = 5
	fieldTypeName = 6
	fieldDefault = 7

	enumName  = 1
	enumValue = 2

	enumValName   = 1
	enumValNumber = 2
)

// MismatchError reports that a node did not have the shape this package
// expects of a descriptor.proto message -- a missing required field, or
// a field present with the wrong kind. The original decompiler asserts
// in this situation; here it is an ordinary returned error so a caller
// can fall back to --print or --schema instead of crashing.
type MismatchError struct {
	Context string
	Field   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("descriptor: %s: missing or malformed field %d", e.Context, e.Field)
}

var typeNames = map[descpb.FieldDescriptorProto_Type]string{
	descpb.FieldDescriptorProto_TYPE_DOUBLE:   "double",
	descpb.FieldDescriptorProto_TYPE_FLOAT:    "float",
	descpb.FieldDescriptorProto_TYPE_INT64:    "int64",
	descpb.FieldDescriptorProto_TYPE_UINT64:   "uint64",
	descpb.FieldDescriptorProto_TYPE_INT32:    "int32",
	descpb.FieldDescriptorProto_TYPE_FIXED64:  "fixed64",
	descpb.FieldDescriptorProto_TYPE_FIXED32:  "fixed32",
	descpb.FieldDescriptorProto_TYPE_BOOL:     "bool",
	descpb.FieldDescriptorProto_TYPE_STRING:   "string",
	descpb.FieldDescriptorProto_TYPE_GROUP:    "group",
	descpb.FieldDescriptorProto_TYPE_MESSAGE:  "message",
	descpb.FieldDescriptorProto_TYPE_BYTES:    "bytes",
	descpb.FieldDescriptorProto_TYPE_UINT32:   "uint32",
	descpb.FieldDescriptorProto_TYPE_ENUM:     "enum",
	descpb.FieldDescriptorProto_TYPE_SFIXED32: "sfixed32",
	descpb.FieldDescriptorProto_TYPE_SFIXED64: "sfixed64",
	descpb.FieldDescriptorProto_TYPE_SINT32:   "sint32",
	descpb.FieldDescriptorProto_TYPE_SINT64:   "sint64",
}

var labelNames = map[descpb.FieldDescriptorProto_Label]string{
	descpb.FieldDescriptorProto_LABEL_OPTIONAL: "optional",
	descpb.FieldDescriptorProto_LABEL_REQUIRED: "required",
	descpb.FieldDescriptorProto_LABEL_REPEATED: "repeated",
}

// isComplexType reports whether t is one of the two
// FieldDescriptorProto.type values whose rendered name comes from the
// field's type_name (field 6) rather than the builtin types table:
// TYPE_MESSAGE and TYPE_ENUM.
func isComplexType(t descpb.FieldDescriptorProto_Type) bool {
	return t == descpb.FieldDescriptorProto_TYPE_MESSAGE || t == descpb.FieldDescriptorProto_TYPE_ENUM
}

// LooksLikeFileDescriptor reports whether node has the field shape a
// FileDescriptorProto carries on the wire: a string filename (1), a
// string package (2), and a message-or-repeated messages list (4).
// This is the same recognition the descriptor scanner uses to decide
// whether a candidate buffer is worth rendering at all.
func LooksLikeFileDescriptor(node *rawmsg.Node) bool {
	name, ok := node.Field(fileName)
	if !ok || (name.Kind != rawmsg.KindBytes) {
		return false
	}
	pkg, ok := node.Field(filePackage)
	if !ok || pkg.Kind != rawmsg.KindBytes {
		return false
	}
	msgs, ok := node.Field(fileMessage)
	if !ok || (msgs.Kind != rawmsg.KindMessage && msgs.Kind != rawmsg.KindRepeated) {
		return false
	}
	return true
}

// Render interprets msg's tag-tree as a FileDescriptorProto and writes
// its approximate .proto source to w.
func Render(w io.Writer, msg *rawmsg.RawMessage) error {
	root := msg.Root()
	var out fmtWriter
	out.w = w

	if pkg, ok := root.Field(filePackage); ok {
		if pkg.Kind != rawmsg.KindBytes {
			return &MismatchError{Context: "file", Field: filePackage}
		}
		out.printf("package %s;\n", string(pkg.Bytes))
	}

	if imp, ok := root.Field(fileImport); ok {
		if err := renderRepeatedOrSingle(&out, imp, func(n *rawmsg.Node) error {
			if n.Kind != rawmsg.KindBytes {
				return &MismatchError{Context: "import", Field: fileImport}
			}
			out.printf("import %q;\n", string(n.Bytes))
			return nil
		}); err != nil {
			return err
		}
	}

	if enums, ok := root.Field(fileEnum); ok {
		if err := renderRepeatedOrSingle(&out, enums, func(n *rawmsg.Node) error {
			return renderEnum(&out, n, 0)
		}); err != nil {
			return err
		}
	}

	if msgs, ok := root.Field(fileMessage); ok {
		if err := renderRepeatedOrSingle(&out, msgs, func(n *rawmsg.Node) error {
			return renderMessage(&out, n, 0)
		}); err != nil {
			return err
		}
	}

	return out.err
}

// renderRepeatedOrSingle applies fn to every element of a field that may
// have been inferred as KindRepeated (more than one occurrence on the
// wire) or as a single KindMessage/KindBytes (exactly one occurrence) --
// the same ambiguity every repeated field in this tool's data model
// carries, since nothing on the wire distinguishes "repeated, one
// element so far" from "optional, present."
func renderRepeatedOrSingle(out *fmtWriter, node *rawmsg.Node, fn func(*rawmsg.Node) error) error {
	if node.Kind != rawmsg.KindRepeated {
		return fn(node)
	}
	for i := 0; i < node.NumChildren(); i++ {
		_, child := node.Child(i)
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}

func renderEnum(out *fmtWriter, node *rawmsg.Node, indent int) error {
	name, ok := node.Field(enumName)
	if !ok || name.Kind != rawmsg.KindBytes {
		return &MismatchError{Context: "enum", Field: enumName}
	}
	out.tabs(indent)
	out.printf("enum %s {\n", string(name.Bytes))

	values, ok := node.Field(enumValue)
	if !ok {
		return &MismatchError{Context: "enum " + string(name.Bytes), Field: enumValue}
	}
	err := renderRepeatedOrSingle(out, values, func(v *rawmsg.Node) error {
		vname, ok := v.Field(enumValName)
		if !ok || vname.Kind != rawmsg.KindBytes {
			return &MismatchError{Context: "enum value", Field: enumValName}
		}
		vnum, ok := v.Field(enumValNumber)
		if !ok || vnum.Kind != rawmsg.KindVarint {
			return &MismatchError{Context: "enum value", Field: enumValNumber}
		}
		out.tabs(indent + 1)
		out.printf("%s = %d;\n", string(vname.Bytes), vnum.Varint)
		return nil
	})
	if err != nil {
		return err
	}

	out.tabs(indent)
	out.printf("}\n")
	return nil
}

func renderMessage(out *fmtWriter, node *rawmsg.Node, indent int) error {
	name, ok := node.Field(msgName)
	if !ok || name.Kind != rawmsg.KindBytes {
		return &MismatchError{Context: "message", Field: msgName}
	}
	out.tabs(indent)
	out.printf("message %s {\n", string(name.Bytes))

	if enums, ok := node.Field(msgEnum); ok {
		if err := renderRepeatedOrSingle(out, enums, func(n *rawmsg.Node) error {
			return renderEnum(out, n, indent+1)
		}); err != nil {
			return err
		}
	}

	if nested, ok := node.Field(msgNested); ok {
		if err := renderRepeatedOrSingle(out, nested, func(n *rawmsg.Node) error {
			return renderMessage(out, n, indent+1)
		}); err != nil {
			return err
		}
	}

	if fields, ok := node.Field(msgField); ok {
		if err := renderRepeatedOrSingle(out, fields, func(n *rawmsg.Node) error {
			return renderField(out, n, indent+1)
		}); err != nil {
			return err
		}
	}

	out.tabs(indent)
	out.printf("}\n")
	return nil
}

func renderField(out *fmtWriter, node *rawmsg.Node, indent int) error {
	name, ok := node.Field(fieldName)
	if !ok || name.Kind != rawmsg.KindBytes {
		return &MismatchError{Context: "field", Field: fieldName}
	}
	num, ok := node.Field(fieldNumber)
	if !ok || num.Kind != rawmsg.KindVarint {
		return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldNumber}
	}
	labelNode, ok := node.Field(fieldLabel)
	if !ok || labelNode.Kind != rawmsg.KindVarint {
		return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldLabel}
	}
	label, ok := labelNames[descpb.FieldDescriptorProto_Label(labelNode.Varint)]
	if !ok {
		return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldLabel}
	}

	typeNode, ok := node.Field(fieldType)
	if !ok || typeNode.Kind != rawmsg.KindVarint {
		return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldType}
	}
	t := descpb.FieldDescriptorProto_Type(typeNode.Varint)

	var typeName string
	if isComplexType(t) {
		tn, ok := node.Field(fieldTypeName)
		if !ok || tn.Kind != rawmsg.KindBytes {
			return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldTypeName}
		}
		typeName = string(tn.Bytes)
	} else {
		tn, ok := typeNames[t]
		if !ok {
			return &MismatchError{Context: "field " + string(name.Bytes), Field: fieldType}
		}
		typeName = tn
	}

	var def string
	if d, ok := node.Field(fieldDefault); ok && d.Kind == rawmsg.KindBytes {
		def = fmt.Sprintf(" [default = %s]", string(d.Bytes))
	}

	out.tabs(indent)
	out.printf("%s %s %s = %d%s;\n", label, typeName, string(name.Bytes), num.Varint, def)
	return nil
}

// fmtWriter collects the first write error instead of threading one
// through every recursive render call.
type fmtWriter struct {
	w   io.Writer
	err error
}

func (f *fmtWriter) printf(format string, args ...interface{}) {
	if f.err != nil {
		return
	}
	_, f.err = fmt.Fprintf(f.w, format, args...)
}

func (f *fmtWriter) tabs(n int) {
	for i := 0; i < n; i++ {
		f.printf("\t")
	}
}
