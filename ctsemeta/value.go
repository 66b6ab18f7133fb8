package ctsemeta

import (
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xerrors"
)

// maxTypeDepth bounds TypeDef-chasing and struct-base recursion so a
// cyclic or pathological type table cannot overflow the stack; the format
// only requires tolerating genuine nesting up to a few dozen levels.
const maxTypeDepth = 256

// Value is the tagged union mirroring a type's shape (spec section 3.4).
// Each variant is a concrete Go type rather than one struct with unused
// fields, matching the TypeShape design in types.go.
type Value interface {
	isValue()
}

type PointerValue struct{ To int32 }
type CStringValue struct{ S string }
type IdentValue struct{ V uint32 }
type UByteValue struct{ V uint8 }
type ULongValue struct{ V uint32 }
type SLongValue struct{ V int32 }
type UQuadValue struct{ V uint64 }
type SQuadValue struct{ V int64 }
type FloatValue struct{ V float32 }

// PrimitiveValue is the opaque fallback for a primitive whose name isn't
// one of the special-cased native types above.
type PrimitiveValue struct{ Bytes []byte }

// SLongEnumValue is a 4-byte enum, stored as a signed integer for easier
// JSON editing; any other enum size falls back to EnumValue.
type SLongEnumValue struct{ V int32 }
type EnumValue struct{ Bytes []byte }

type ArrayValue struct{ Elements []Value }

// StructValue's Base is nil when the struct has no base type.
type StructValue struct {
	Base    Value
	Members []Value
}

// CSyncedSLONGValue is the special case for a zero-member struct literally
// named CSyncedSLONG: the whole value collapses to a plain i32.
type CSyncedSLONGValue struct{ V int32 }

type StaticStackArrayValue struct{ Elements []Value }
type DynamicContainerValue struct{ Refs []uint32 }

func (PointerValue) isValue()           {}
func (CStringValue) isValue()           {}
func (IdentValue) isValue()             {}
func (UByteValue) isValue()             {}
func (ULongValue) isValue()             {}
func (SLongValue) isValue()             {}
func (UQuadValue) isValue()             {}
func (SQuadValue) isValue()             {}
func (FloatValue) isValue()             {}
func (PrimitiveValue) isValue()         {}
func (SLongEnumValue) isValue()         {}
func (EnumValue) isValue()              {}
func (ArrayValue) isValue()             {}
func (StructValue) isValue()            {}
func (CSyncedSLONGValue) isValue()      {}
func (StaticStackArrayValue) isValue()  {}
func (DynamicContainerValue) isValue()  {}

// readValue decodes the value of typeID against types, recursing through
// TypeDef and struct-base chains up to maxTypeDepth.
func readValue(r io.Reader, e endian.Engine, typeID uint32, types typeTable, logger *log.Helper, depth int) (Value, error) {
	if depth > maxTypeDepth {
		return nil, xerrors.New(xerrors.InvariantViolated, "type nesting exceeds maximum depth")
	}
	dt, ok := types[typeID]
	if !ok {
		return nil, xerrors.New(xerrors.UnknownType, "value references external type id")
	}

	switch shape := dt.Shape.(type) {
	case PrimitiveShape:
		return readPrimitiveValue(r, e, dt, shape, logger)
	case EnumShape:
		if shape.Bytes == 4 {
			v, err := wire.ReadInt32(r, e)
			if err != nil {
				return nil, err
			}
			return SLongEnumValue{V: v}, nil
		}
		buf := make([]byte, shape.Bytes)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, xerrors.Wrap(xerrors.UnexpectedEof, "enum bytes", err)
		}
		return EnumValue{Bytes: buf}, nil
	case PointerShape:
		v, err := wire.ReadInt32(r, e)
		if err != nil {
			return nil, err
		}
		return PointerValue{To: v}, nil
	case ArrayShape:
		elements := make([]Value, shape.Cols)
		for i := range elements {
			v, err := readValue(r, e, shape.Of, types, logger, depth+1)
			if err != nil {
				return nil, err
			}
			elements[i] = v
		}
		return ArrayValue{Elements: elements}, nil
	case StructShape:
		if dt.Name == "CSyncedSLONG" && len(shape.Members) == 0 {
			v, err := wire.ReadInt32(r, e)
			if err != nil {
				return nil, err
			}
			return CSyncedSLONGValue{V: v}, nil
		}
		var base Value
		if shape.Base != -1 {
			var err error
			base, err = readValue(r, e, uint32(shape.Base), types, logger, depth+1)
			if err != nil {
				return nil, err
			}
		}
		members := make([]Value, len(shape.Members))
		for i, m := range shape.Members {
			v, err := readValue(r, e, m.Type, types, logger, depth+1)
			if err != nil {
				return nil, err
			}
			members[i] = v
		}
		return StructValue{Base: base, Members: members}, nil
	case StaticStackArrayShape:
		if err := readMagic(r, "SSAR"); err != nil {
			return nil, err
		}
		count, err := wire.ReadUint32(r, e)
		if err != nil {
			return nil, err
		}
		elements := make([]Value, count)
		for i := range elements {
			v, err := readValue(r, e, shape.Of, types, logger, depth+1)
			if err != nil {
				return nil, err
			}
			elements[i] = v
		}
		return StaticStackArrayValue{Elements: elements}, nil
	case DynamicContainerShape:
		if err := readMagic(r, "DCON"); err != nil {
			return nil, err
		}
		count, err := wire.ReadUint32(r, e)
		if err != nil {
			return nil, err
		}
		refs := make([]uint32, count)
		for i := range refs {
			v, err := wire.ReadUint32(r, e)
			if err != nil {
				return nil, err
			}
			refs[i] = v
		}
		return DynamicContainerValue{Refs: refs}, nil
	case TypeDefShape:
		return readValue(r, e, shape.For, types, logger, depth+1)
	default:
		return nil, xerrors.New(xerrors.InvariantViolated, "unhandled type shape")
	}
}

func readPrimitiveValue(r io.Reader, e endian.Engine, dt *DataType, shape PrimitiveShape, logger *log.Helper) (Value, error) {
	switch dt.Name {
	case "CString":
		s, err := wire.ReadString(r, e)
		if err != nil {
			return nil, err
		}
		return CStringValue{S: s}, nil
	case "IDENT":
		v, err := wire.ReadUint32(r, e)
		if err != nil {
			return nil, err
		}
		return IdentValue{V: v}, nil
	case "UBYTE":
		v, err := wire.ReadUint8(r)
		if err != nil {
			return nil, err
		}
		return UByteValue{V: v}, nil
	case "ULONG":
		v, err := wire.ReadUint32(r, e)
		if err != nil {
			return nil, err
		}
		return ULongValue{V: v}, nil
	case "SLONG":
		v, err := wire.ReadInt32(r, e)
		if err != nil {
			return nil, err
		}
		return SLongValue{V: v}, nil
	case "UQUAD":
		v, err := wire.ReadUint64(r, e)
		if err != nil {
			return nil, err
		}
		return UQuadValue{V: v}, nil
	case "SQUAD":
		v, err := wire.ReadInt64(r, e)
		if err != nil {
			return nil, err
		}
		return SQuadValue{V: v}, nil
	case "FLOAT":
		v, err := wire.ReadFloat32(r, e)
		if err != nil {
			return nil, err
		}
		return FloatValue{V: v}, nil
	default:
		logger.Warnf("unknown primitive type: id %d, name %s, size %d, format %d", dt.ID, dt.Name, shape.Bytes, dt.Format)
		buf := make([]byte, shape.Bytes)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, xerrors.Wrap(xerrors.UnexpectedEof, "opaque primitive bytes", err)
		}
		return PrimitiveValue{Bytes: buf}, nil
	}
}

// writeValue encodes v to w. It needs no type table: the Value tree
// already carries every decision a type lookup would have made.
func writeValue(w io.Writer, e endian.Engine, v Value) error {
	switch val := v.(type) {
	case PointerValue:
		return wire.WriteInt32(w, e, val.To)
	case CStringValue:
		return wire.WriteString(w, e, val.S)
	case IdentValue:
		return wire.WriteUint32(w, e, val.V)
	case UByteValue:
		return wire.WriteUint8(w, val.V)
	case ULongValue:
		return wire.WriteUint32(w, e, val.V)
	case SLongValue:
		return wire.WriteInt32(w, e, val.V)
	case UQuadValue:
		return wire.WriteUint64(w, e, val.V)
	case SQuadValue:
		return wire.WriteInt64(w, e, val.V)
	case FloatValue:
		return wire.WriteFloat32(w, e, val.V)
	case PrimitiveValue:
		_, err := w.Write(val.Bytes)
		if err != nil {
			return xerrors.Wrap(xerrors.Io, "opaque primitive bytes", err)
		}
		return nil
	case SLongEnumValue:
		return wire.WriteInt32(w, e, val.V)
	case EnumValue:
		_, err := w.Write(val.Bytes)
		if err != nil {
			return xerrors.Wrap(xerrors.Io, "enum bytes", err)
		}
		return nil
	case ArrayValue:
		for _, el := range val.Elements {
			if err := writeValue(w, e, el); err != nil {
				return err
			}
		}
		return nil
	case StructValue:
		if val.Base != nil {
			if err := writeValue(w, e, val.Base); err != nil {
				return err
			}
		}
		for _, m := range val.Members {
			if err := writeValue(w, e, m); err != nil {
				return err
			}
		}
		return nil
	case CSyncedSLONGValue:
		return wire.WriteInt32(w, e, val.V)
	case StaticStackArrayValue:
		if err := writeMagic(w, "SSAR"); err != nil {
			return err
		}
		if err := wire.WriteUint32(w, e, uint32(len(val.Elements))); err != nil {
			return err
		}
		for _, el := range val.Elements {
			if err := writeValue(w, e, el); err != nil {
				return err
			}
		}
		return nil
	case DynamicContainerValue:
		if err := writeMagic(w, "DCON"); err != nil {
			return err
		}
		if err := wire.WriteUint32(w, e, uint32(len(val.Refs))); err != nil {
			return err
		}
		for _, ref := range val.Refs {
			if err := wire.WriteUint32(w, e, ref); err != nil {
				return err
			}
		}
		return nil
	default:
		return xerrors.New(xerrors.InvariantViolated, "unhandled value type")
	}
}
