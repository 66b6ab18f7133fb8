package ctsemeta

import (
	"encoding/json"
	"fmt"

	"github.com/widberg/serioussave/internal/xerrors"
)

// MarshalValue renders v as the tagged tree the JSON bridge exposes (spec
// section 4.8): a single-key object naming the value's variant, with the
// payload as that key's value. No type table is needed in this direction —
// the Value tree already carries every decision a type lookup would make.
func MarshalValue(v Value) (json.RawMessage, error) {
	tag, payload, err := valueToJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{tag: payload})
}

// UnmarshalValue parses a tagged tree produced by MarshalValue back into a
// Value. Like MarshalValue, this needs no type table: the tag name fully
// determines the variant.
func UnmarshalValue(data []byte) (Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, xerrors.Wrap(xerrors.BadEncoding, "json value", err)
	}
	if len(obj) != 1 {
		return nil, xerrors.New(xerrors.BadEncoding, "json value must have exactly one tag key")
	}
	for tag, payload := range obj {
		return valueFromJSON(tag, payload)
	}
	panic("unreachable")
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func intsToBytes(raw json.RawMessage) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, xerrors.Wrap(xerrors.BadEncoding, "byte array", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return nil, xerrors.New(xerrors.BadEncoding, "byte value out of range")
		}
		out[i] = byte(v)
	}
	return out, nil
}

func valueToJSON(v Value) (string, interface{}, error) {
	switch val := v.(type) {
	case PointerValue:
		return "Pointer", val.To, nil
	case CStringValue:
		return "CString", val.S, nil
	case IdentValue:
		return "IDENT", val.V, nil
	case UByteValue:
		return "UBYTE", val.V, nil
	case ULongValue:
		return "ULONG", val.V, nil
	case SLongValue:
		return "SLONG", val.V, nil
	case UQuadValue:
		return "UQUAD", val.V, nil
	case SQuadValue:
		return "SQUAD", val.V, nil
	case FloatValue:
		return "FLOAT", val.V, nil
	case PrimitiveValue:
		return "Primitive", bytesToInts(val.Bytes), nil
	case SLongEnumValue:
		return "SLONGEnum", val.V, nil
	case EnumValue:
		return "Enum", bytesToInts(val.Bytes), nil
	case ArrayValue:
		elements, err := marshalValueSlice(val.Elements)
		if err != nil {
			return "", nil, err
		}
		return "Array", elements, nil
	case StructValue:
		var base json.RawMessage
		if val.Base != nil {
			b, err := MarshalValue(val.Base)
			if err != nil {
				return "", nil, err
			}
			base = b
		}
		members, err := marshalValueSlice(val.Members)
		if err != nil {
			return "", nil, err
		}
		return "Struct", map[string]interface{}{"Base": base, "members": members}, nil
	case CSyncedSLONGValue:
		return "CSyncedSLONG", val.V, nil
	case StaticStackArrayValue:
		elements, err := marshalValueSlice(val.Elements)
		if err != nil {
			return "", nil, err
		}
		return "StaticStackArray", elements, nil
	case DynamicContainerValue:
		return "DynamicContainer", val.Refs, nil
	default:
		return "", nil, xerrors.New(xerrors.InvariantViolated, "unhandled value type for json")
	}
}

func marshalValueSlice(values []Value) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(values))
	for i, v := range values {
		raw, err := MarshalValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func valueFromJSON(tag string, payload json.RawMessage) (Value, error) {
	switch tag {
	case "Pointer":
		var v int32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Pointer", err)
		}
		return PointerValue{To: v}, nil
	case "CString":
		var v string
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "CString", err)
		}
		return CStringValue{S: v}, nil
	case "IDENT":
		var v uint32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "IDENT", err)
		}
		return IdentValue{V: v}, nil
	case "UBYTE":
		var v uint8
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "UBYTE", err)
		}
		return UByteValue{V: v}, nil
	case "ULONG":
		var v uint32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "ULONG", err)
		}
		return ULongValue{V: v}, nil
	case "SLONG":
		var v int32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "SLONG", err)
		}
		return SLongValue{V: v}, nil
	case "UQUAD":
		var v uint64
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "UQUAD", err)
		}
		return UQuadValue{V: v}, nil
	case "SQUAD":
		var v int64
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "SQUAD", err)
		}
		return SQuadValue{V: v}, nil
	case "FLOAT":
		var v float32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "FLOAT", err)
		}
		return FloatValue{V: v}, nil
	case "Primitive":
		b, err := intsToBytes(payload)
		if err != nil {
			return nil, err
		}
		return PrimitiveValue{Bytes: b}, nil
	case "SLONGEnum":
		var v int32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "SLONGEnum", err)
		}
		return SLongEnumValue{V: v}, nil
	case "Enum":
		b, err := intsToBytes(payload)
		if err != nil {
			return nil, err
		}
		return EnumValue{Bytes: b}, nil
	case "Array":
		elements, err := unmarshalValueSlice(payload)
		if err != nil {
			return nil, err
		}
		return ArrayValue{Elements: elements}, nil
	case "Struct":
		var obj struct {
			Base    json.RawMessage
			Members []json.RawMessage `json:"members"`
		}
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "Struct", err)
		}
		var base Value
		if len(obj.Base) > 0 && string(obj.Base) != "null" {
			b, err := UnmarshalValue(obj.Base)
			if err != nil {
				return nil, err
			}
			base = b
		}
		members := make([]Value, len(obj.Members))
		for i, raw := range obj.Members {
			m, err := UnmarshalValue(raw)
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return StructValue{Base: base, Members: members}, nil
	case "CSyncedSLONG":
		var v int32
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "CSyncedSLONG", err)
		}
		return CSyncedSLONGValue{V: v}, nil
	case "StaticStackArray":
		elements, err := unmarshalValueSlice(payload)
		if err != nil {
			return nil, err
		}
		return StaticStackArrayValue{Elements: elements}, nil
	case "DynamicContainer":
		var refs []uint32
		if err := json.Unmarshal(payload, &refs); err != nil {
			return nil, xerrors.Wrap(xerrors.BadEncoding, "DynamicContainer", err)
		}
		return DynamicContainerValue{Refs: refs}, nil
	default:
		return nil, xerrors.New(xerrors.BadEncoding, fmt.Sprintf("unknown value tag %q", tag))
	}
}

func unmarshalValueSlice(payload json.RawMessage) ([]Value, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, xerrors.Wrap(xerrors.BadEncoding, "value array", err)
	}
	out := make([]Value, len(raws))
	for i, raw := range raws {
		v, err := UnmarshalValue(raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
