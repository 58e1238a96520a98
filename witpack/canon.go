package witpack

// flagsBytes returns the canonical ABI size of a flags type with n flags.
func flagsBytes(n int) uint32 {
	switch {
	case n == 0:
		return 0
	case n <= 8:
		return 1
	case n <= 16:
		return 2
	case n <= 32:
		return 4
	case n <= 64:
		return 8
	}
	// >64 flags: multiple u32s
	return uint32((n + 31) / 32 * 4)
}

// discriminantBytes returns the canonical ABI size of an enum discriminant.
func discriminantBytes(cases int) uint32 {
	if cases <= 256 {
		return 1
	} else if cases <= 65536 {
		return 2
	}
	return 4
}
