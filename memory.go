package bitpack

import (
	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/layout"
)

// Memory is a byte-addressed store packed buffers can be persisted into,
// such as WASM linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// MemorySizer provides the current size of a Memory in bytes.
type MemorySizer interface {
	Size() uint32
}

func (s *Struct) memoryError(err error, addr, length uint32, detail string) error {
	return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
		Path(pathOf(s.layout)...).
		Value(addr).
		Cause(err).
		Detail("%s %d bytes at %#x", detail, length, addr).
		Build()
}

// StoreTo writes the packed buffer to mem at addr.
func (s *Struct) StoreTo(mem Memory, addr uint32) error {
	if err := mem.Write(addr, s.buf); err != nil {
		return s.memoryError(err, addr, uint32(len(s.buf)), "store")
	}
	return nil
}

// LoadFrom replaces the packed buffer with the bytes at addr.
func (s *Struct) LoadFrom(mem Memory, addr uint32) error {
	data, err := mem.Read(addr, uint32(len(s.buf)))
	if err != nil {
		return s.memoryError(err, addr, uint32(len(s.buf)), "load")
	}
	if len(data) != len(s.buf) {
		return errors.SizeMismatch(errors.PhaseMemory, pathOf(s.layout), uint32(len(data))*8, s.layout.TotalBits())
	}
	copy(s.buf, data)
	return nil
}

// Load reads an instance of l from mem at addr.
func Load(l *layout.Layout, mem Memory, addr uint32) (*Struct, error) {
	s := New(l)
	if err := s.LoadFrom(mem, addr); err != nil {
		return nil, err
	}
	return s, nil
}

// StoreField writes only the bytes the named field touches to the instance
// stored at addr. Bits sharing those bytes with neighbouring fields are
// kept from the stored copy.
func (s *Struct) StoreField(mem Memory, addr uint32, name string) error {
	f, err := s.field(errors.PhaseMemory, name)
	if err != nil {
		return err
	}
	first, last := f.ByteSpan()
	span := last - first + 1

	stored, err := mem.Read(addr+first, span)
	if err != nil {
		return s.memoryError(err, addr+first, span, "load")
	}
	window := append([]byte(nil), stored...)
	for i := range window {
		window[i] = s.mergeByte(f, first+uint32(i), window[i])
	}
	if err := mem.Write(addr+first, window); err != nil {
		return s.memoryError(err, addr+first, span, "store")
	}
	return nil
}

// mergeByte takes the bits of byte i that belong to f from the instance and
// the rest from old.
func (s *Struct) mergeByte(f layout.Field, i uint32, old byte) byte {
	var mask byte
	for b := max(f.Offset, i*8); b < min(f.End(), i*8+8); b++ {
		_, bit := codec.Locate(b, s.layout.Order())
		mask |= 1 << bit
	}
	return old&^mask | s.buf[i]&mask
}
