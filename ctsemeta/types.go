package ctsemeta

import (
	"io"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xerrors"
)

// ShapeTag is the wire discriminant of a DataType's TypeShape.
type ShapeTag uint32

const (
	ShapePrimitive        ShapeTag = 0
	ShapeEnum             ShapeTag = 1
	ShapePointer          ShapeTag = 2
	ShapeArray            ShapeTag = 4
	ShapeStruct           ShapeTag = 5
	ShapeStaticStackArray ShapeTag = 7
	ShapeDynamicContainer ShapeTag = 8
	ShapeTypeDef          ShapeTag = 13
)

// TypeShape is the tagged union of what an internal type definition can be
// (spec section 3.4). Each variant is a distinct Go type rather than one
// struct with unused fields, so a type switch in value.go picks the
// decode/encode path directly off the shape.
type TypeShape interface {
	Tag() ShapeTag
}

type PrimitiveShape struct {
	Bytes uint32
	LBE   uint32
}

func (PrimitiveShape) Tag() ShapeTag { return ShapePrimitive }

type EnumShape struct {
	Bytes uint32
}

func (EnumShape) Tag() ShapeTag { return ShapeEnum }

type PointerShape struct {
	To uint32
}

func (PointerShape) Tag() ShapeTag { return ShapePointer }

// ArrayShape's wire form also carries a rows field that must always equal
// 1 (spec section 3.4); it is validated on read and not retained.
type ArrayShape struct {
	Of   uint32
	Cols uint32
}

func (ArrayShape) Tag() ShapeTag { return ShapeArray }

type StructMember struct {
	ID   uint32
	Type uint32
}

// StructShape's Base is -1 when the struct has no base type.
type StructShape struct {
	Base    int32
	Members []StructMember
}

func (StructShape) Tag() ShapeTag { return ShapeStruct }

type StaticStackArrayShape struct {
	Of uint32
}

func (StaticStackArrayShape) Tag() ShapeTag { return ShapeStaticStackArray }

type DynamicContainerShape struct {
	Of uint32
}

func (DynamicContainerShape) Tag() ShapeTag { return ShapeDynamicContainer }

// TypeDefShape aliases another type transparently: a value of this type is
// decoded and encoded exactly like a value of the aliased type, with no
// wrapper of its own.
type TypeDefShape struct {
	For uint32
}

func (TypeDefShape) Tag() ShapeTag { return ShapeTypeDef }

// DataType is one entry of the INTY section: an internal type definition
// naming its own wire shape.
type DataType struct {
	ID     uint32
	Name   string
	Format uint32
	Shape  TypeShape
}

func readDataType(r io.Reader, e endian.Engine) (DataType, error) {
	var d DataType
	if err := readMagic(r, "DTTY"); err != nil {
		return d, err
	}
	var err error
	if d.ID, err = wire.ReadUint32(r, e); err != nil {
		return d, err
	}
	if d.Name, err = wire.ReadString(r, e); err != nil {
		return d, err
	}
	if d.Format, err = wire.ReadUint32(r, e); err != nil {
		return d, err
	}
	tag, err := wire.ReadUint32(r, e)
	if err != nil {
		return d, err
	}
	switch ShapeTag(tag) {
	case ShapePrimitive:
		var s PrimitiveShape
		if s.Bytes, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		if s.LBE, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeEnum:
		var s EnumShape
		if s.Bytes, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapePointer:
		var s PointerShape
		if s.To, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeArray:
		var s ArrayShape
		if s.Of, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		if err := readMagic(r, "ADIM"); err != nil {
			return d, err
		}
		rows, err := wire.ReadUint32(r, e)
		if err != nil {
			return d, err
		}
		if rows != 1 {
			return d, xerrors.New(xerrors.InvariantViolated, "array rows must equal 1")
		}
		if s.Cols, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeStruct:
		var s StructShape
		base, err := wire.ReadInt32(r, e)
		if err != nil {
			return d, err
		}
		s.Base = base
		if err := readMagic(r, "STMB"); err != nil {
			return d, err
		}
		s.Members, err = wire.ReadVector(r, e, readStructMember)
		if err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeStaticStackArray:
		var s StaticStackArrayShape
		if s.Of, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeDynamicContainer:
		var s DynamicContainerShape
		if s.Of, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	case ShapeTypeDef:
		var s TypeDefShape
		if s.For, err = wire.ReadUint32(r, e); err != nil {
			return d, err
		}
		d.Shape = s
	default:
		return d, xerrors.New(xerrors.InvariantViolated, "unknown type shape tag")
	}
	return d, nil
}

func writeDataType(w io.Writer, e endian.Engine, d DataType) error {
	if err := writeMagic(w, "DTTY"); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, d.ID); err != nil {
		return err
	}
	if err := wire.WriteString(w, e, d.Name); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, d.Format); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, uint32(d.Shape.Tag())); err != nil {
		return err
	}
	switch s := d.Shape.(type) {
	case PrimitiveShape:
		if err := wire.WriteUint32(w, e, s.Bytes); err != nil {
			return err
		}
		return wire.WriteUint32(w, e, s.LBE)
	case EnumShape:
		return wire.WriteUint32(w, e, s.Bytes)
	case PointerShape:
		return wire.WriteUint32(w, e, s.To)
	case ArrayShape:
		if err := wire.WriteUint32(w, e, s.Of); err != nil {
			return err
		}
		if err := writeMagic(w, "ADIM"); err != nil {
			return err
		}
		if err := wire.WriteUint32(w, e, 1); err != nil {
			return err
		}
		return wire.WriteUint32(w, e, s.Cols)
	case StructShape:
		if err := wire.WriteInt32(w, e, s.Base); err != nil {
			return err
		}
		if err := writeMagic(w, "STMB"); err != nil {
			return err
		}
		return wire.WriteVector(w, e, s.Members, writeStructMember)
	case StaticStackArrayShape:
		return wire.WriteUint32(w, e, s.Of)
	case DynamicContainerShape:
		return wire.WriteUint32(w, e, s.Of)
	case TypeDefShape:
		return wire.WriteUint32(w, e, s.For)
	default:
		return xerrors.New(xerrors.InvariantViolated, "unknown type shape value")
	}
}

func readStructMember(r io.Reader, e endian.Engine) (StructMember, error) {
	var m StructMember
	var err error
	if m.ID, err = wire.ReadUint32(r, e); err != nil {
		return m, err
	}
	if m.Type, err = wire.ReadUint32(r, e); err != nil {
		return m, err
	}
	return m, nil
}

func writeStructMember(w io.Writer, e endian.Engine, m StructMember) error {
	if err := wire.WriteUint32(w, e, m.ID); err != nil {
		return err
	}
	return wire.WriteUint32(w, e, m.Type)
}

// typeTable indexes internal types by id for the duration of one object
// set's decode/encode, per spec section 4.7 and the design note on
// mutually dependent sections (OBJS depends on the already-parsed INTY).
type typeTable map[uint32]*DataType

func newTypeTable(types []DataType) typeTable {
	t := make(typeTable, len(types))
	for i := range types {
		t[types[i].ID] = &types[i]
	}
	return t
}
