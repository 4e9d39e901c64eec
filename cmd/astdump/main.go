package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kg/design/astpack"
	"github.com/kg/design/compress"
	pkgerrors "github.com/kg/design/errors"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to packed module file")
		funcName    = flag.String("func", "", "Print one function's body tree and exit")
		workers     = flag.Int("workers", 0, "Decode function bodies with N goroutines")
		verbose     = flag.Bool("v", false, "Verbose decode logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: astdump -in <file> [-func name] [-workers n] [-v]")
		fmt.Fprintln(os.Stderr, "       astdump -in <file> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		astpack.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(*inFile, *workers); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*inFile, *funcName, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inFile, funcName string, workers int) error {
	data, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	raw, err := compress.MaybeDecompress(data)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	m, err := astpack.DecodeWithOptions(raw, astpack.DecodeOptions{Workers: workers})
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if funcName != "" {
		return dumpFunction(raw, m, funcName)
	}

	fmt.Printf("Module: %s\n", inFile)
	if compress.IsCompressed(data) {
		fmt.Printf("Compressed: %d -> %d bytes\n", len(data), len(raw))
	}
	if m.Memory != nil {
		fmt.Printf("Memory: 2^%d..2^%d bytes", m.Memory.MinExponent, m.Memory.MaxExponent)
		if m.Memory.Exported {
			fmt.Printf(" (exported)")
		}
		fmt.Println()
	}
	fmt.Printf("Signatures: %d\n", len(m.Signatures))
	fmt.Printf("Functions: %d\n", len(m.Functions))
	fmt.Printf("Globals: %d\n", len(m.Globals))
	fmt.Printf("Data segments: %d\n", len(m.DataSegments))
	fmt.Printf("Function table: %d entries\n", len(m.FunctionTable))
	if len(m.WLL) > 0 {
		fmt.Printf("WLL payload: %d bytes\n", len(m.WLL))
	}

	if len(m.Functions) > 0 {
		fmt.Printf("\nFunctions:\n")
		for i := range m.Functions {
			fn := &m.Functions[i]
			fmt.Printf("  [%d] %s\n", i, formatFunction(raw, fn, m.Signatures))
		}
	}
	return nil
}

func dumpFunction(container []byte, m *astpack.Module, funcName string) error {
	for i := range m.Functions {
		fn := &m.Functions[i]
		if !fn.HasName() {
			continue
		}
		name, err := astpack.NameAt(container, fn.NameOffset)
		if err != nil || name != funcName {
			continue
		}
		fmt.Println(formatFunction(container, fn, m.Signatures))
		var b strings.Builder
		for _, n := range fn.Body {
			renderTree(&b, n, 1)
		}
		fmt.Print(b.String())
		return nil
	}
	return pkgerrors.NotFound(pkgerrors.PhaseInspect, "function", funcName)
}

func formatFunction(container []byte, fn *astpack.Function, sigs []astpack.FunctionSignature) string {
	name := fmt.Sprintf("func@%d", fn.SignatureIndex)
	if fn.HasName() {
		if s, err := astpack.NameAt(container, fn.NameOffset); err == nil {
			name = s
		}
	}

	sig := "?"
	if int(fn.SignatureIndex) < len(sigs) {
		sig = formatSignature(sigs[fn.SignatureIndex])
	}

	var attrs []string
	if fn.IsImport() {
		attrs = append(attrs, "import")
	}
	if fn.IsExported() {
		attrs = append(attrs, "exported")
	}
	if fn.HasLocals() {
		attrs = append(attrs, fmt.Sprintf("locals i32=%d i64=%d f32=%d f64=%d",
			fn.Locals.I32, fn.Locals.I64, fn.Locals.F32, fn.Locals.F64))
	}
	if !fn.IsImport() {
		attrs = append(attrs, fmt.Sprintf("%d stmts", len(fn.Body)))
	}

	out := name + " " + sig
	if len(attrs) > 0 {
		out += " [" + strings.Join(attrs, ", ") + "]"
	}
	return out
}

func formatSignature(sig astpack.FunctionSignature) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + sig.Return.String()
}
