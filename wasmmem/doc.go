// Package wasmmem stores packed bitfield buffers in WebAssembly linear memory.
//
// Memory adapts a wazero api.Memory to the bitpack.Memory interface, so any
// instance can be written to or read from a guest's memory:
//
//	mem := wasmmem.New(mod.Memory())
//	err := s.StoreTo(mem, ptr)
//
// Instantiate creates a standalone memory for hosts that need scratch space
// without a guest module.
package wasmmem
