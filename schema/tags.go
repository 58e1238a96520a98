package schema

import (
	"strconv"
	"strings"

	"github.com/wippyai/bitpack/codec"
	"github.com/wippyai/bitpack/errors"
	"github.com/wippyai/bitpack/layout"
)

// TagName is the struct tag key read by the compiler.
const TagName = "bitfield"

// tag is a parsed `bitfield:"..."` value: an optional leading width followed
// by key=value options.
type tag struct {
	name  string
	opts  []layout.Option
	width uint32
	skip  bool
}

func parseTag(raw string, path []string) (tag, error) {
	var t tag
	if raw == "-" {
		t.skip = true
		return t, nil
	}
	if raw == "" {
		return t, nil
	}

	for i, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		key, value, hasValue := strings.Cut(part, "=")
		if !hasValue {
			if i != 0 {
				return t, badTag(path, raw, "width must come first")
			}
			w, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				return t, badTag(path, raw, "width is not a number")
			}
			t.width = uint32(w)
			if t.width == 0 {
				return t, errors.ZeroWidthField(path)
			}
			continue
		}

		switch strings.TrimSpace(key) {
		case "bits":
			n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
			if err != nil {
				return t, badTag(path, raw, "bits is not a number")
			}
			t.opts = append(t.opts, layout.WithTotalBits(uint32(n)))
		case "order":
			o, err := codec.ParseOrder(value)
			if err != nil {
				return t, errors.WithPath(err, path...)
			}
			t.opts = append(t.opts, layout.WithOrder(o))
		case "name":
			t.name = strings.TrimSpace(value)
		default:
			return t, badTag(path, raw, "unknown option "+strconv.Quote(key))
		}
	}
	return t, nil
}

func badTag(path []string, raw, detail string) error {
	return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
		Path(path...).
		Value(raw).
		Detail("tag %q: %s", raw, detail).
		Build()
}
