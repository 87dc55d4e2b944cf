package unified2

import (
	"encoding/binary"
	"fmt"
)

type fieldKind int

const (
	fieldU8 fieldKind = iota
	fieldU16
	fieldU32
	fieldBytes
	fieldTrailing // remainder of the buffer, must come last
)

type fieldValue struct {
	num uint32
	raw []byte
}

// field is one entry of a record's static field table.
type field[T any] struct {
	name   string
	length int
	kind   fieldKind
	set    func(*T, fieldValue)
}

func u8[T any](name string, set func(*T, uint8)) field[T] {
	return field[T]{name, 1, fieldU8, func(r *T, v fieldValue) { set(r, uint8(v.num)) }}
}

func u16[T any](name string, set func(*T, uint16)) field[T] {
	return field[T]{name, 2, fieldU16, func(r *T, v fieldValue) { set(r, uint16(v.num)) }}
}

func u32[T any](name string, set func(*T, uint32)) field[T] {
	return field[T]{name, 4, fieldU32, func(r *T, v fieldValue) { set(r, v.num) }}
}

func fixedBytes[T any](name string, length int, set func(*T, []byte)) field[T] {
	return field[T]{name, length, fieldBytes, func(r *T, v fieldValue) { set(r, v.raw) }}
}

func trailing[T any](name string, set func(*T, []byte)) field[T] {
	return field[T]{name, 0, fieldTrailing, func(r *T, v fieldValue) { set(r, v.raw) }}
}

func padding[T any](name string, length int) field[T] {
	return field[T]{name: name, length: length, kind: fieldBytes}
}

// layout is the unpacking plan derived from a field table.
type layout[T any] struct {
	fields   []field[T]
	fixedLen int
}

func newLayout[T any](fields []field[T]) *layout[T] {
	l := &layout[T]{fields: fields}
	for i, f := range fields {
		if f.kind == fieldTrailing && i != len(fields)-1 {
			panic(fmt.Sprintf("unified2: trailing field %q is not last", f.name))
		}
		l.fixedLen += f.length
	}
	return l
}

// unpack decodes buf into rec, big-endian, in table order. Byte fields
// reference buf.
func (l *layout[T]) unpack(buf []byte, rec *T) error {
	if len(buf) < l.fixedLen {
		return fmt.Errorf("%w: %d byte payload, want at least %d", ErrMalformed, len(buf), l.fixedLen)
	}
	off := 0
	for _, f := range l.fields {
		var v fieldValue
		switch f.kind {
		case fieldU8:
			v.num = uint32(buf[off])
		case fieldU16:
			v.num = uint32(binary.BigEndian.Uint16(buf[off:]))
		case fieldU32:
			v.num = binary.BigEndian.Uint32(buf[off:])
		case fieldBytes:
			v.raw = buf[off : off+f.length : off+f.length]
		case fieldTrailing:
			v.raw = buf[off:]
		}
		off += f.length
		if f.set != nil {
			f.set(rec, v)
		}
	}
	return nil
}
