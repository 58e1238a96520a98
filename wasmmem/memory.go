package wasmmem

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/bitpack/errors"
)

// PageSize is the size of a WASM memory page in bytes.
const PageSize = 65536

// Memory adapts wazero linear memory to bitpack.Memory.
type Memory struct {
	mem api.Memory
}

func New(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Value(offset).
			Detail("read out of bounds: offset=%d, length=%d, size=%d", offset, length, m.mem.Size()).
			Build()
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Value(offset).
			Detail("write out of bounds: offset=%d, length=%d, size=%d", offset, len(data), m.mem.Size()).
			Build()
	}
	return nil
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Instantiate instantiates a module that only exports a memory of the given
// number of pages and returns that memory. Closing the module releases it.
func Instantiate(ctx context.Context, rt wazero.Runtime, name string, pages uint32) (*Memory, api.Module, error) {
	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(pages), cfg)
	if err != nil {
		return nil, nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidInput, err, "instantiate memory module")
	}
	mem := mod.Memory()
	if mem == nil {
		_ = mod.Close(ctx)
		return nil, nil, errors.Unsupported(errors.PhaseMemory, "module exports no memory")
	}
	return New(mem), mod, nil
}

// memoryModule encodes (module (memory (export "memory") pages)).
func memoryModule(pages uint32) []byte {
	limits := append([]byte{0x00}, uleb128(pages)...)
	memSection := append([]byte{0x01}, limits...)

	exportName := []byte("memory")
	export := []byte{0x01, byte(len(exportName))}
	export = append(export, exportName...)
	export = append(export, 0x02, 0x00) // memory index 0

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = appendSection(out, 0x05, memSection)
	out = appendSection(out, 0x07, export)
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = append(out, uleb128(uint32(len(body)))...)
	return append(out, body...)
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
