package ctsemeta

import (
	"bytes"
	"testing"

	"github.com/widberg/serioussave/internal/endian"
	"github.com/widberg/serioussave/internal/xlog"
)

const (
	slongTypeID      = 1
	cSyncedSLONGType = 2
	staticArrayType  = 3
)

func baseTypes() []DataType {
	return []DataType{
		{ID: slongTypeID, Name: "SLONG", Format: 0, Shape: PrimitiveShape{Bytes: 4, LBE: 1}},
		{ID: cSyncedSLONGType, Name: "CSyncedSLONG", Format: 0, Shape: StructShape{Base: -1}},
		{ID: staticArrayType, Name: "CStaticArray", Format: 0, Shape: StaticStackArrayShape{Of: slongTypeID}},
	}
}

// TestCSyncedSLONGCollapse pins S3: a zero-member CSyncedSLONG struct
// containing -7 encodes as the plain i32 0xFFFFFFF9, with no struct
// framing at all.
func TestCSyncedSLONGCollapse(t *testing.T) {
	e := endian.Little()
	var buf bytes.Buffer
	if err := writeValue(&buf, e, CSyncedSLONGValue{V: -7}); err != nil {
		t.Fatalf("writeValue: %v", err)
	}
	want := []byte{0xF9, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("encoded CSyncedSLONG = % x, want % x", buf.Bytes(), want)
	}

	types := newTypeTable(baseTypes())
	got, err := readValue(bytes.NewReader(buf.Bytes()), e, cSyncedSLONGType, types, xlog.Default(), 0)
	if err != nil {
		t.Fatalf("readValue: %v", err)
	}
	v, ok := got.(CSyncedSLONGValue)
	if !ok || v.V != -7 {
		t.Fatalf("readValue = %#v, want CSyncedSLONGValue{-7}", got)
	}
}

// TestStaticStackArrayEncoding pins S5: a StaticStackArray of SLONG holding
// [10, 20] encodes as "SSAR" 00000002 0000000A 00000014 (little-endian).
func TestStaticStackArrayEncoding(t *testing.T) {
	e := endian.Little()
	var buf bytes.Buffer
	val := StaticStackArrayValue{Elements: []Value{SLongValue{V: 10}, SLongValue{V: 20}}}
	if err := writeValue(&buf, e, val); err != nil {
		t.Fatalf("writeValue: %v", err)
	}
	want := []byte{
		'S', 'S', 'A', 'R',
		0x02, 0x00, 0x00, 0x00,
		0x0A, 0x00, 0x00, 0x00,
		0x14, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("encoded StaticStackArray = % x, want % x", buf.Bytes(), want)
	}

	types := newTypeTable(baseTypes())
	got, err := readValue(bytes.NewReader(buf.Bytes()), e, staticArrayType, types, xlog.Default(), 0)
	if err != nil {
		t.Fatalf("readValue: %v", err)
	}
	arr, ok := got.(StaticStackArrayValue)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("readValue = %#v, want a 2-element StaticStackArrayValue", got)
	}
	if arr.Elements[0].(SLongValue).V != 10 || arr.Elements[1].(SLongValue).V != 20 {
		t.Fatalf("elements = %#v, want [10, 20]", arr.Elements)
	}
}

func TestEndianCookieMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := writeEndianCookie(&buf, endian.Little()); err != nil {
		t.Fatalf("writeEndianCookie: %v", err)
	}
	if err := readEndianCookie(bytes.NewReader(buf.Bytes()), endian.Big()); err == nil {
		t.Fatalf("readEndianCookie under the wrong endianness should fail")
	}
	if err := readEndianCookie(bytes.NewReader(buf.Bytes()), endian.Little()); err != nil {
		t.Fatalf("readEndianCookie under the right endianness: %v", err)
	}
}

func buildDocument() *CTSEMeta {
	return &CTSEMeta{
		Version: 3,
		Idents:  []Ident{{ID: 1, Name: "PlayerHealth"}},
		InternalTypes: append(baseTypes(), DataType{
			ID: 4, Name: "CPlayerState", Format: 0,
			Shape: StructShape{Base: -1, Members: []StructMember{{ID: 1, Type: slongTypeID}}},
		}),
		ObjectTypes: []ObjectTypeBinding{{Object: 1, Type: 4}},
		Objects: []Object{
			{ID: 1, Type: 4, Value: StructValue{Members: []Value{SLongValue{V: 42}}}},
		},
	}
}

func TestCTSEMetaRoundTrip(t *testing.T) {
	e := endian.Little()
	m := buildDocument()

	var buf bytes.Buffer
	if err := m.Write(&buf, e); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(bytes.NewReader(buf.Bytes()), e, xlog.Default())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != m.Version {
		t.Errorf("Version = %d, want %d", got.Version, m.Version)
	}
	if len(got.Objects) != 1 {
		t.Fatalf("Objects = %#v, want 1 entry", got.Objects)
	}
	sv, ok := got.Objects[0].Value.(StructValue)
	if !ok || len(sv.Members) != 1 {
		t.Fatalf("decoded object value = %#v", got.Objects[0].Value)
	}
	if sv.Members[0].(SLongValue).V != 42 {
		t.Fatalf("decoded member = %#v, want SLongValue{42}", sv.Members[0])
	}
}

// TestWholeDocumentJSONRoundTrip pins P3: the whole file, not just a single
// Value, survives a binary -> JSON -> binary round trip.
func TestWholeDocumentJSONRoundTrip(t *testing.T) {
	e := endian.Little()
	m := buildDocument()

	js, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	restored, err := FromJSON(js)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	var original, roundTripped bytes.Buffer
	if err := m.Write(&original, e); err != nil {
		t.Fatalf("Write original: %v", err)
	}
	if err := restored.Write(&roundTripped, e); err != nil {
		t.Fatalf("Write restored: %v", err)
	}
	if !bytes.Equal(original.Bytes(), roundTripped.Bytes()) {
		t.Fatalf("binary-JSON-binary round trip mismatch:\noriginal:  % x\nrestored:  % x", original.Bytes(), roundTripped.Bytes())
	}
}

func TestRecursionDepthGuard(t *testing.T) {
	e := endian.Little()
	types := typeTable{
		1: {ID: 1, Name: "Loop", Shape: TypeDefShape{For: 1}},
	}
	var buf bytes.Buffer
	_, err := readValue(bytes.NewReader(buf.Bytes()), e, 1, types, xlog.Default(), 0)
	if err == nil {
		t.Fatalf("a self-referential TypeDef chain should fail instead of overflowing the stack")
	}
}
