// pm - the Pocol machine. Loads an object file produced by posm and
// executes it. The exit status is the runtime trap kind (0 = ok).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/John-fried/PocolVM/manifest"
	"github.com/John-fried/PocolVM/symdb"
	"github.com/John-fried/PocolVM/vm"
)

var log = commonlog.GetLogger("pm")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	index := flag.String("index", "", "Symbol index database for trap annotation (overrides pocol.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pm [options] <object> [<limit>]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Pocol object file. limit bounds the number of executed\n")
		fmt.Fprintf(os.Stderr, "instructions; a negative limit means unbounded.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pm out.pob            # Run to completion\n")
		fmt.Fprintf(os.Stderr, "  pm out.pob 10000      # Run at most 10000 instructions\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "pm: no input files")
		os.Exit(1)
	}
	path := args[0]

	mf := manifest.LoadOrDefault(".")
	limit := mf.Run.Limit
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "pm: bad limit `%s`: %v\n", args[1], err)
			os.Exit(1)
		}
		limit = n
	}
	indexPath := mf.Build.SymbolIndex
	if *index != "" {
		indexPath = *index
	}

	m, err := vm.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pm: %v\n", err)
		os.Exit(1)
	}

	if err := m.Run(limit); err != nil {
		var trap *vm.Trap
		if errors.As(err, &trap) {
			msg := fmt.Sprintf("pm: %s: %v", path, trap)
			if name, addr, ok := nearestLabel(indexPath, path, trap.PC); ok {
				msg += fmt.Sprintf(" (near %s+0x%X)", name, trap.PC-addr)
			}
			fmt.Fprintln(os.Stderr, msg)
			os.Exit(int(trap.Kind))
		}
		fmt.Fprintf(os.Stderr, "pm: %v\n", err)
		os.Exit(1)
	}
}

// nearestLabel resolves the closest label at or before addr from the
// build index. Best effort: any index problem just disables the
// annotation.
func nearestLabel(indexPath, object string, addr uint64) (string, uint64, bool) {
	if indexPath == "" {
		return "", 0, false
	}
	db, err := symdb.Open(indexPath)
	if err != nil {
		log.Debugf("symbol index unavailable: %v", err)
		return "", 0, false
	}
	defer db.Close()
	name, at, ok, err := db.NearestSymbol(object, addr)
	if err != nil || !ok {
		return "", 0, false
	}
	return name, at, true
}
