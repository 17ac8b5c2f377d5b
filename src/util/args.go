package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the compiler's run configuration, gathered either by util.ParseArgs or by the
// cobra-based CLI in cmd/iotac.
type Options struct {
	Src        string // Path to the .iota source's compiled class-file-like input.
	OutDir     string // -d: destination directory for the .marv output file.
	Threads    int    // Number of methods to compile in parallel. 0 or 1 means sequential.
	GraphColor bool   // -g: use the graph-coloring register allocator instead of the naive circular one.
	Verbose    bool   // -v: dump tuple/HIR/LIR/liveness stages to stdout as each method compiles.
}

// ---------------------
// ----- Constants -----
// ---------------------

const appVersion = "iotac 1.0"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments into an Options structure. This hand-rolled scanner mirrors
// the shape of the cobra-based CLI in cmd/iotac and exists so tests and other callers can build an
// Options value without depending on cobra.
func ParseArgs(args []string) (Options, error) {
	opt := Options{}
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--help":
			printHelp()
			os.Exit(0)
		case "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-g":
			opt.GraphColor = true
		case "-v":
			opt.Verbose = true
		case "-d":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected output directory, got new flag %s", args[i1+1])
			}
			opt.OutDir = args[i1+1]
			i1++
		case "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			n, err := strconv.Atoi(args[i1+1])
			if err != nil {
				return opt, fmt.Errorf("expected thread count, got %q: %w", args[i1+1], err)
			}
			opt.Threads = n
			i1++
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = args[i1]
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, --help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-g\tUse the graph-coloring register allocator instead of the naive circular allocator.")
	_, _ = fmt.Fprintln(w, "-d\tDirectory to write the compiled .marv file into.")
	_, _ = fmt.Fprintln(w, "-v\tVerbose mode: dump tuple/HIR/LIR/liveness stages to stdout.")
	_, _ = fmt.Fprintln(w, "-t\tNumber of methods to compile in parallel.")
	_, _ = fmt.Fprintln(w, "--version\tPrints application version and exits.")
	_ = w.Flush()
}
