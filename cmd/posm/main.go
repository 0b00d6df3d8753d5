// posm - the Pocol assembler. Translates assembly source into a binary
// object file runnable by pm.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/John-fried/PocolVM/compiler"
	"github.com/John-fried/PocolVM/manifest"
	"github.com/John-fried/PocolVM/pkg/bytecode"
	"github.com/John-fried/PocolVM/pkg/debuginfo"
	"github.com/John-fried/PocolVM/symdb"
)

var log = commonlog.GetLogger("posm")

// ioError prints an I/O diagnostic in the assembler's no-position form.
func ioError(path string, err error) {
	fmt.Fprintf(os.Stderr, "\x1b[1m%s: \x1b[31merror\x1b[0m: %v\n", path, err)
}

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	debug := flag.Bool("g", false, "Write the debug-info sidecar next to the object")
	listing := flag.Bool("d", false, "Print a disassembly listing after assembling")
	index := flag.String("index", "", "Symbol index database (overrides pocol.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: posm [options] <input> [<output>]\n\n")
		fmt.Fprintf(os.Stderr, "Assembles Pocol assembly into an object file (default out.pob).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  posm prog.posm              # Assemble to out.pob\n")
		fmt.Fprintf(os.Stderr, "  posm prog.posm prog.pob     # Assemble to prog.pob\n")
		fmt.Fprintf(os.Stderr, "  posm -g -d prog.posm        # Keep debug info, print listing\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	args := flag.Args()
	if len(args) == 0 {
		ioError("posm", fmt.Errorf("no input files"))
		os.Exit(1)
	}
	input := args[0]

	mf := manifest.LoadOrDefault(".")
	output := mf.Build.Output
	if len(args) > 1 {
		output = args[1]
	}
	indexPath := mf.Build.SymbolIndex
	if *index != "" {
		indexPath = *index
	}
	wantDebug := *debug || mf.Build.DebugInfo

	src, err := os.ReadFile(input)
	if err != nil {
		ioError(input, err)
		os.Exit(1)
	}

	asm := compiler.NewAssembler(input, string(src))
	asm.Debug = wantDebug

	obj, err := asm.Assemble()
	if err != nil {
		// Diagnostics already went to stderr.
		os.Exit(1)
	}

	if err := compiler.WriteObject(output, obj); err != nil {
		ioError(input, err)
		os.Exit(1)
	}
	symbols := asm.Symbols()
	log.Infof("wrote %s: %d bytes, %d symbols", output, len(obj), len(symbols))

	if wantDebug {
		if err := debuginfo.WriteFile(debuginfo.Path(output), asm.DebugInfo()); err != nil {
			ioError(input, err)
			os.Exit(1)
		}
	}

	if indexPath != "" {
		if err := recordBuild(indexPath, output, input, obj, symbols); err != nil {
			// The index is advisory; a failed update is not a build
			// failure.
			log.Warningf("symbol index update failed: %v", err)
		}
	}

	if *listing {
		byAddr := make(map[uint64]string, len(symbols))
		for name, addr := range symbols {
			byAddr[addr] = name
		}
		s, err := bytecode.Disassemble(obj, byAddr)
		if err != nil {
			ioError(output, err)
			os.Exit(1)
		}
		fmt.Print(s)
	}
}

func recordBuild(indexPath, object, source string, obj []byte, symbols map[string]uint64) error {
	hdr, err := bytecode.DecodeHeader(obj)
	if err != nil {
		return err
	}
	db, err := symdb.Open(indexPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.RecordBuild(object, source, hdr.Entry, hdr.CodeSize, symbols)
}
