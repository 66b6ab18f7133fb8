package ctsemeta

import (
	"io"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/wire"
	"github.com/widberg/serioussave/internal/xlog"
)

// Ident is one entry of the IDNT section: a named identifier the type
// table or object graph can reference by id.
type Ident struct {
	ID   uint32
	Name string
}

// ExternalType is one entry of the EXTY section: a type id this file
// references but does not itself define. Any value actually encoded
// against an external type id is an error (UnknownType) — only internal
// types carry decodable shapes.
type ExternalType struct {
	ID   uint32
	Name string
}

// ObjectTypeBinding is one entry of the OBTY section, binding an object id
// to the internal type id it was encoded with.
type ObjectTypeBinding struct {
	Object uint32
	Type   uint32
}

// Object is one entry of the OBJS section: an object id, the internal
// type it was encoded as, and its decoded value tree.
type Object struct {
	ID    uint32
	Type  uint32
	Value Value
}

// CTSEMeta is the full parsed structural model of §3.3: every section in
// wire order, with the reserved always-empty sections (MSGS, RFIL, EXOB,
// EDTY, EDOB) and the derived INFO section validated/emitted but not
// stored — they carry no information beyond their own presence and the
// ground truth already available from the sections that are stored.
type CTSEMeta struct {
	Version       uint32
	VersionString string // meaningful only if Version >= 2
	Idents        []Ident
	ExternalTypes []ExternalType
	InternalTypes []DataType
	ObjectTypes   []ObjectTypeBinding
	Objects       []Object
}

// Read parses a full CTSEMETA byte stream in the given endianness.
func Read(r io.Reader, e endian.Engine, logger *log.Helper) (*CTSEMeta, error) {
	logger = xlog.Or(logger)
	m := &CTSEMeta{}

	if err := readMagic(r, "CTSEMETA"); err != nil {
		return nil, err
	}
	if err := readEndianCookie(r, e); err != nil {
		return nil, err
	}
	var err error
	if m.Version, err = wire.ReadUint32(r, e); err != nil {
		return nil, err
	}
	if m.Version >= 2 {
		if m.VersionString, err = wire.ReadString(r, e); err != nil {
			return nil, err
		}
	}

	if err := readMagic(r, "MSGS"); err != nil {
		return nil, err
	}
	if err := wire.ReadEmptyVector(r, e, "MSGS"); err != nil {
		return nil, err
	}

	if err := readMagic(r, "INFO"); err != nil {
		return nil, err
	}
	for i := 0; i < 5; i++ {
		if _, err := wire.ReadUint32(r, e); err != nil {
			return nil, err
		}
	}

	if err := readMagic(r, "RFIL"); err != nil {
		return nil, err
	}
	if err := wire.ReadEmptyVector(r, e, "RFIL"); err != nil {
		return nil, err
	}

	if err := readMagic(r, "IDNT"); err != nil {
		return nil, err
	}
	if m.Idents, err = wire.ReadVector(r, e, readIdent); err != nil {
		return nil, err
	}

	if err := readMagic(r, "EXTY"); err != nil {
		return nil, err
	}
	if m.ExternalTypes, err = wire.ReadVector(r, e, readExternalType); err != nil {
		return nil, err
	}

	if err := readMagic(r, "INTY"); err != nil {
		return nil, err
	}
	if m.InternalTypes, err = wire.ReadVector(r, e, readDataType); err != nil {
		return nil, err
	}

	if err := readMagic(r, "EXOB"); err != nil {
		return nil, err
	}
	if err := wire.ReadEmptyVector(r, e, "EXOB"); err != nil {
		return nil, err
	}

	if err := readMagic(r, "OBTY"); err != nil {
		return nil, err
	}
	if m.ObjectTypes, err = wire.ReadVector(r, e, readObjectTypeBinding); err != nil {
		return nil, err
	}

	if err := readMagic(r, "EDTY"); err != nil {
		return nil, err
	}
	if err := wire.ReadEmptyVector(r, e, "EDTY"); err != nil {
		return nil, err
	}

	if err := readMagic(r, "OBJS"); err != nil {
		return nil, err
	}
	types := newTypeTable(m.InternalTypes)
	count, err := wire.ReadUint32(r, e)
	if err != nil {
		return nil, err
	}
	m.Objects = make([]Object, count)
	for i := range m.Objects {
		obj, err := readObject(r, e, types, logger)
		if err != nil {
			return nil, err
		}
		m.Objects[i] = obj
	}

	if err := readMagic(r, "EDOB"); err != nil {
		return nil, err
	}
	if err := wire.ReadEmptyVector(r, e, "EDOB"); err != nil {
		return nil, err
	}

	if err := readMagic(r, "METAEND "); err != nil {
		return nil, err
	}

	return m, nil
}

// Write emits m as a full CTSEMETA byte stream, synthesizing INFO from the
// stored sections (spec invariant P6).
func (m *CTSEMeta) Write(w io.Writer, e endian.Engine) error {
	if err := writeMagic(w, "CTSEMETA"); err != nil {
		return err
	}
	if err := writeEndianCookie(w, e); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, m.Version); err != nil {
		return err
	}
	if m.Version >= 2 {
		if err := wire.WriteString(w, e, m.VersionString); err != nil {
			return err
		}
	}

	if err := writeMagic(w, "MSGS"); err != nil {
		return err
	}
	if err := wire.WriteEmptyVector(w, e); err != nil {
		return err
	}

	if err := writeMagic(w, "INFO"); err != nil {
		return err
	}
	info := [5]uint32{
		1, // EditDataStripped
		0, // ResourceFiles
		uint32(len(m.Idents)),
		uint32(len(m.ExternalTypes) + len(m.InternalTypes)),
		uint32(len(m.Objects)),
	}
	for _, v := range info {
		if err := wire.WriteUint32(w, e, v); err != nil {
			return err
		}
	}

	if err := writeMagic(w, "RFIL"); err != nil {
		return err
	}
	if err := wire.WriteEmptyVector(w, e); err != nil {
		return err
	}

	if err := writeMagic(w, "IDNT"); err != nil {
		return err
	}
	if err := wire.WriteVector(w, e, m.Idents, writeIdent); err != nil {
		return err
	}

	if err := writeMagic(w, "EXTY"); err != nil {
		return err
	}
	if err := wire.WriteVector(w, e, m.ExternalTypes, writeExternalType); err != nil {
		return err
	}

	if err := writeMagic(w, "INTY"); err != nil {
		return err
	}
	if err := wire.WriteVector(w, e, m.InternalTypes, writeDataType); err != nil {
		return err
	}

	if err := writeMagic(w, "EXOB"); err != nil {
		return err
	}
	if err := wire.WriteEmptyVector(w, e); err != nil {
		return err
	}

	if err := writeMagic(w, "OBTY"); err != nil {
		return err
	}
	if err := wire.WriteVector(w, e, m.ObjectTypes, writeObjectTypeBinding); err != nil {
		return err
	}

	if err := writeMagic(w, "EDTY"); err != nil {
		return err
	}
	if err := wire.WriteEmptyVector(w, e); err != nil {
		return err
	}

	if err := writeMagic(w, "OBJS"); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, uint32(len(m.Objects))); err != nil {
		return err
	}
	for _, obj := range m.Objects {
		if err := writeObject(w, e, obj); err != nil {
			return err
		}
	}

	if err := writeMagic(w, "EDOB"); err != nil {
		return err
	}
	if err := wire.WriteEmptyVector(w, e); err != nil {
		return err
	}

	return writeMagic(w, "METAEND ")
}

func readIdent(r io.Reader, e endian.Engine) (Ident, error) {
	var id Ident
	var err error
	if id.ID, err = wire.ReadUint32(r, e); err != nil {
		return id, err
	}
	if id.Name, err = wire.ReadString(r, e); err != nil {
		return id, err
	}
	return id, nil
}

func writeIdent(w io.Writer, e endian.Engine, id Ident) error {
	if err := wire.WriteUint32(w, e, id.ID); err != nil {
		return err
	}
	return wire.WriteString(w, e, id.Name)
}

func readExternalType(r io.Reader, e endian.Engine) (ExternalType, error) {
	var t ExternalType
	var err error
	if t.ID, err = wire.ReadUint32(r, e); err != nil {
		return t, err
	}
	if t.Name, err = wire.ReadString(r, e); err != nil {
		return t, err
	}
	return t, nil
}

func writeExternalType(w io.Writer, e endian.Engine, t ExternalType) error {
	if err := wire.WriteUint32(w, e, t.ID); err != nil {
		return err
	}
	return wire.WriteString(w, e, t.Name)
}

func readObjectTypeBinding(r io.Reader, e endian.Engine) (ObjectTypeBinding, error) {
	var b ObjectTypeBinding
	var err error
	if b.Object, err = wire.ReadUint32(r, e); err != nil {
		return b, err
	}
	if b.Type, err = wire.ReadUint32(r, e); err != nil {
		return b, err
	}
	return b, nil
}

func writeObjectTypeBinding(w io.Writer, e endian.Engine, b ObjectTypeBinding) error {
	if err := wire.WriteUint32(w, e, b.Object); err != nil {
		return err
	}
	return wire.WriteUint32(w, e, b.Type)
}

func readObject(r io.Reader, e endian.Engine, types typeTable, logger *log.Helper) (Object, error) {
	var o Object
	var err error
	if o.ID, err = wire.ReadUint32(r, e); err != nil {
		return o, err
	}
	if o.Type, err = wire.ReadUint32(r, e); err != nil {
		return o, err
	}
	o.Value, err = readValue(r, e, o.Type, types, logger, 0)
	if err != nil {
		return o, err
	}
	return o, nil
}

func writeObject(w io.Writer, e endian.Engine, o Object) error {
	if err := wire.WriteUint32(w, e, o.ID); err != nil {
		return err
	}
	if err := wire.WriteUint32(w, e, o.Type); err != nil {
		return err
	}
	return writeValue(w, e, o.Value)
}
