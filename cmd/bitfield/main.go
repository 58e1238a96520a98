package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/bitpack"
	"github.com/wippyai/bitpack/internal/config"
	"github.com/wippyai/bitpack/internal/render"
	"github.com/wippyai/bitpack/layout"
	"github.com/wippyai/bitpack/wasmmem"
)

func main() {
	var (
		layoutFile  = flag.String("layout", "", "Path to YAML layout declarations")
		name        = flag.String("name", "", "Layout to use (default: first declared)")
		value       = flag.String("value", "", "Whole-struct integer (decimal or 0x hex)")
		rawBytes    = flag.String("bytes", "", "Packed bytes as hex")
		sets        = flag.String("set", "", "Field assignments (a=1,b=0x3)")
		truncate    = flag.Bool("truncate", false, "Truncate assigned values to the field width")
		memAddr     = flag.Int("mem", -1, "Store the struct in wasm linear memory at this address and read it back")
		list        = flag.Bool("list", false, "List declared layouts and exit")
		plain       = flag.Bool("plain", false, "Disable colors")
		verbose     = flag.Bool("v", false, "Log layout resolution")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *layoutFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bitfield -layout <file.yaml> [-name Layout] [-value N | -bytes HEX] [-set a=1,b=2]")
		fmt.Fprintln(os.Stderr, "       bitfield -layout <file.yaml> -list")
		fmt.Fprintln(os.Stderr, "       bitfield -layout <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			layout.SetLogger(logger)
			defer logger.Sync() //nolint:errcheck // stderr sync fails on terminals
		}
	}

	set, err := config.LoadFile(*layoutFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		for _, n := range set.Names() {
			l, _ := set.Get(n)
			fmt.Println(l)
		}
		return
	}

	l, err := pick(set, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := render.Options{Plain: *plain || !term.IsTerminal(int(os.Stdout.Fd()))}

	if *interactive {
		if err := runInteractive(l, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(l, *value, *rawBytes, *sets, *truncate, *memAddr, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func pick(set *config.Set, name string) (*layout.Layout, error) {
	if name == "" {
		name = set.Names()[0]
	}
	l, ok := set.Get(name)
	if !ok {
		return nil, fmt.Errorf("layout %q not declared (have %s)", name, strings.Join(set.Names(), ", "))
	}
	return l, nil
}

func run(l *layout.Layout, value, rawBytes, sets string, truncate bool, memAddr int, opts render.Options) error {
	s, err := build(l, value, rawBytes)
	if err != nil {
		return err
	}
	if err := assign(s, sets, truncate); err != nil {
		return err
	}

	if memAddr >= 0 {
		if s, err = roundTrip(s, uint32(memAddr)); err != nil {
			return err
		}
	}

	fmt.Print(render.Diagram(s, opts))
	fmt.Printf("\n%s\n", s)
	fmt.Printf("integer: %s (0x%s)\n", s.Big(), s.Big().Text(16))
	return nil
}

func build(l *layout.Layout, value, rawBytes string) (*bitpack.Struct, error) {
	switch {
	case value != "" && rawBytes != "":
		return nil, fmt.Errorf("use either -value or -bytes")
	case value != "":
		v, ok := new(big.Int).SetString(value, 0)
		if !ok {
			return nil, fmt.Errorf("parse value %q", value)
		}
		return bitpack.FromBig(l, v)
	case rawBytes != "":
		b, err := hex.DecodeString(strings.ReplaceAll(rawBytes, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("parse bytes: %w", err)
		}
		return bitpack.FromBytes(l, b)
	}
	return bitpack.New(l), nil
}

// assign applies comma-separated name=value pairs in order.
func assign(s *bitpack.Struct, sets string, truncate bool) error {
	if sets == "" {
		return nil
	}
	for _, kv := range strings.Split(sets, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("assignment %q: want name=value", kv)
		}
		if err := setField(s, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), truncate); err != nil {
			return err
		}
	}
	return nil
}

// setField parses text for the named field: true or false for bools, a case
// name or number for enums, and a decimal or 0x integer otherwise.
func setField(s *bitpack.Struct, name, text string, truncate bool) error {
	f, ok := s.Layout().Lookup(name)
	if ok {
		switch f.Type.Tag {
		case layout.TagBool:
			if b, err := strconv.ParseBool(text); err == nil {
				return s.SetBool(name, b)
			}
		case layout.TagEnum:
			for i, c := range f.Type.CaseNames {
				if c == text {
					return s.Set(name, uint64(i))
				}
			}
		}
	}

	v, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return fmt.Errorf("field %s: parse %q", name, text)
	}
	if truncate {
		return s.SetBigTruncating(name, v)
	}
	return s.SetBig(name, v)
}

// roundTrip stores s into a fresh wasm memory and loads it back.
func roundTrip(s *bitpack.Struct, addr uint32) (*bitpack.Struct, error) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	pages := (addr+uint32(s.Layout().ByteLen()))/wasmmem.PageSize + 1
	mem, _, err := wasmmem.Instantiate(ctx, rt, "bitfield", pages)
	if err != nil {
		return nil, fmt.Errorf("instantiate memory: %w", err)
	}
	if err := s.StoreTo(mem, addr); err != nil {
		return nil, err
	}
	fmt.Printf("stored %d bytes at 0x%x of %d byte memory\n", s.Layout().ByteLen(), addr, mem.Size())
	return bitpack.Load(s.Layout(), mem, addr)
}
