// Package endian provides a runtime-selectable byte-order engine.
//
// Unlike most binary formats, a signature-stream / CTSEMETA save has no
// self-identifying endianness at the container level: the caller (normally
// the CLI's -e flag) decides and every primitive read or write downstream
// must agree. This package wraps encoding/binary's ByteOrder so that
// decision can be threaded as a single value instead of branching on a bool
// at every call site.
package endian

import "encoding/binary"

// Engine is a binary.ByteOrder chosen at runtime rather than compile time.
type Engine = binary.ByteOrder

// Little returns the little-endian engine, the CLI default.
func Little() Engine { return binary.LittleEndian }

// Big returns the big-endian engine.
func Big() Engine { return binary.BigEndian }

// Select returns Big() if big is true, otherwise Little().
func Select(big bool) Engine {
	if big {
		return Big()
	}
	return Little()
}
