package ctsemeta

import (
	"encoding/json"

	"github.com/widberg/serioussave/internal/xerrors"
)

// jsonDataType and its helpers extend the C8 JSON bridge to the type table
// itself: the spec only names the tagged scheme for values, but a lossless
// binary-JSON-binary round trip (P3) requires the whole file, type table
// included, to survive the trip.

type jsonStructMember struct {
	ID   uint32 `json:"id"`
	Type uint32 `json:"type"`
}

func shapeToJSON(s TypeShape) (string, interface{}) {
	switch shape := s.(type) {
	case PrimitiveShape:
		return "Primitive", map[string]interface{}{"bytes": shape.Bytes, "lbe": shape.LBE}
	case EnumShape:
		return "Enum", map[string]interface{}{"bytes": shape.Bytes}
	case PointerShape:
		return "Pointer", map[string]interface{}{"to": shape.To}
	case ArrayShape:
		return "Array", map[string]interface{}{"of": shape.Of, "cols": shape.Cols}
	case StructShape:
		members := make([]jsonStructMember, len(shape.Members))
		for i, m := range shape.Members {
			members[i] = jsonStructMember{ID: m.ID, Type: m.Type}
		}
		return "Struct", map[string]interface{}{"base": shape.Base, "members": members}
	case StaticStackArrayShape:
		return "StaticStackArray", map[string]interface{}{"of": shape.Of}
	case DynamicContainerShape:
		return "DynamicContainer", map[string]interface{}{"of": shape.Of}
	case TypeDefShape:
		return "TypeDef", map[string]interface{}{"for": shape.For}
	default:
		return "", nil
	}
}

func shapeFromJSON(tag string, payload json.RawMessage) (TypeShape, error) {
	switch tag {
	case "Primitive":
		var p struct {
			Bytes uint32 `json:"bytes"`
			LBE   uint32 `json:"lbe"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Primitive shape", err)
		}
		return PrimitiveShape{Bytes: p.Bytes, LBE: p.LBE}, nil
	case "Enum":
		var p struct {
			Bytes uint32 `json:"bytes"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Enum shape", err)
		}
		return EnumShape{Bytes: p.Bytes}, nil
	case "Pointer":
		var p struct {
			To uint32 `json:"to"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Pointer shape", err)
		}
		return PointerShape{To: p.To}, nil
	case "Array":
		var p struct {
			Of   uint32 `json:"of"`
			Cols uint32 `json:"cols"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Array shape", err)
		}
		return ArrayShape{Of: p.Of, Cols: p.Cols}, nil
	case "Struct":
		var p struct {
			Base    int32              `json:"base"`
			Members []jsonStructMember `json:"members"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Struct shape", err)
		}
		members := make([]StructMember, len(p.Members))
		for i, m := range p.Members {
			members[i] = StructMember{ID: m.ID, Type: m.Type}
		}
		return StructShape{Base: p.Base, Members: members}, nil
	case "StaticStackArray":
		var p struct {
			Of uint32 `json:"of"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "StaticStackArray shape", err)
		}
		return StaticStackArrayShape{Of: p.Of}, nil
	case "DynamicContainer":
		var p struct {
			Of uint32 `json:"of"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "DynamicContainer shape", err)
		}
		return DynamicContainerShape{Of: p.Of}, nil
	case "TypeDef":
		var p struct {
			For uint32 `json:"for"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "TypeDef shape", err)
		}
		return TypeDefShape{For: p.For}, nil
	default:
		return nil, xerrors.New(xerrors.BadEncoding, "unknown type shape tag "+tag)
	}
}

type jsonDataType struct {
	ID     uint32                 `json:"id"`
	Name   string                 `json:"name"`
	Format uint32                 `json:"format"`
	Shape  map[string]interface{} `json:"shape"`
}

func dataTypeToJSON(d DataType) jsonDataType {
	tag, payload := shapeToJSON(d.Shape)
	return jsonDataType{ID: d.ID, Name: d.Name, Format: d.Format, Shape: map[string]interface{}{tag: payload}}
}

func dataTypeFromJSON(j jsonDataType) (DataType, error) {
	if len(j.Shape) != 1 {
		return DataType{}, xerrors.New(xerrors.BadEncoding, "type shape must have exactly one tag key")
	}
	for tag, payload := range j.Shape {
		raw, err := json.Marshal(payload)
		if err != nil {
			return DataType{}, xerrors.Wrap(xerrors.BadEncoding, "re-encoding type shape", err)
		}
		shape, err := shapeFromJSON(tag, raw)
		if err != nil {
			return DataType{}, err
		}
		return DataType{ID: j.ID, Name: j.Name, Format: j.Format, Shape: shape}, nil
	}
	panic("unreachable")
}

type jsonObject struct {
	ID    uint32          `json:"id"`
	Type  uint32          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type jsonDocument struct {
	Version       uint32              `json:"version"`
	VersionString string              `json:"versionString,omitempty"`
	Idents        []Ident             `json:"idents"`
	ExternalTypes []ExternalType      `json:"externalTypes"`
	InternalTypes []jsonDataType      `json:"internalTypes"`
	ObjectTypes   []ObjectTypeBinding `json:"objectTypes"`
	Objects       []jsonObject        `json:"objects"`
}

// ToJSON renders the full document as the human-editable JSON tree (spec
// section 8, C8).
func (m *CTSEMeta) ToJSON() ([]byte, error) {
	doc := jsonDocument{
		Version:       m.Version,
		VersionString: m.VersionString,
		Idents:        m.Idents,
		ExternalTypes: m.ExternalTypes,
		ObjectTypes:   m.ObjectTypes,
	}
	doc.InternalTypes = make([]jsonDataType, len(m.InternalTypes))
	for i, t := range m.InternalTypes {
		doc.InternalTypes[i] = dataTypeToJSON(t)
	}
	doc.Objects = make([]jsonObject, len(m.Objects))
	for i, o := range m.Objects {
		raw, err := MarshalValue(o.Value)
		if err != nil {
			return nil, err
		}
		doc.Objects[i] = jsonObject{ID: o.ID, Type: o.Type, Value: raw}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FromJSON parses the JSON tree produced by ToJSON back into a CTSEMeta.
func FromJSON(data []byte) (*CTSEMeta, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, xerrors.Wrap(xerrors.BadEncoding, "ctsemeta json document", err)
	}
	m := &CTSEMeta{
		Version:       doc.Version,
		VersionString: doc.VersionString,
		Idents:        doc.Idents,
		ExternalTypes: doc.ExternalTypes,
		ObjectTypes:   doc.ObjectTypes,
	}
	m.InternalTypes = make([]DataType, len(doc.InternalTypes))
	for i, jt := range doc.InternalTypes {
		t, err := dataTypeFromJSON(jt)
		if err != nil {
			return nil, err
		}
		m.InternalTypes[i] = t
	}
	m.Objects = make([]Object, len(doc.Objects))
	for i, jo := range doc.Objects {
		v, err := UnmarshalValue(jo.Value)
		if err != nil {
			return nil, err
		}
		m.Objects[i] = Object{ID: jo.ID, Type: jo.Type, Value: v}
	}
	return m, nil
}
