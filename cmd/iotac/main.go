// Command iotac is the CLI entry point for the backend pipeline (spec §6): it reads a class-file-like
// structure, compiles every non-builtin method to Marvin assembly, links the result into one program and
// writes it as a ".marv" text file. The lexer/parser/semantic-analysis front end that would produce the
// class-file-like structure from an ".iota" source file is out of scope (spec §1) -- this binary expects
// its input already in that form (see src/classfile.Decode).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"iotac/src/backend/marvin"
	"iotac/src/classfile"
	"iotac/src/pipeline"
	"iotac/src/util"
)

func main() {
	opt := util.Options{}

	root := &cobra.Command{
		Use:   "iotac [source]",
		Short: "Compile an iota class file to Marvin assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt.Src = args[0]
			return run(opt)
		},
	}
	root.Flags().BoolVarP(&opt.GraphColor, "graph", "g", false, "use the graph-coloring register allocator instead of the naive circular one")
	root.Flags().StringVarP(&opt.OutDir, "outdir", "d", "", "directory to write the compiled .marv file into")
	root.Flags().BoolVarP(&opt.Verbose, "verbose", "v", false, "dump tuple/HIR/LIR/liveness stages to stdout")
	root.Flags().IntVarP(&opt.Threads, "threads", "t", 1, "number of methods to compile in parallel")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires util.Options into the pipeline package's CompileAll and emits the resulting program,
// mirroring the teacher's main.go run(opt) staging function's shape (spec §6/§7: abort the whole run,
// write nothing, on any error).
func run(opt util.Options) error {
	raw, err := util.ReadClassFile(opt)
	if err != nil {
		return fmt.Errorf("could not read source: %w", err)
	}
	class, err := classfile.Decode(raw)
	if err != nil {
		return fmt.Errorf("malformed class file: %w", err)
	}

	prog, err := pipeline.CompileAll(class, opt, os.Stdout)
	if err != nil {
		return fmt.Errorf("compilation error: %w", err)
	}

	outPath := outputPath(opt)
	f, err := os.OpenFile(outPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}
	defer f.Close()

	wg := sync.WaitGroup{}
	util.ListenWrite(opt, f, &wg)
	defer util.Close()

	w := util.NewWriter()
	marvin.Emit(&w, prog)
	w.Close()
	wg.Wait()
	return nil
}

// outputPath derives the ".marv" output file path from the source path and -d flag, per spec §6.
func outputPath(opt util.Options) string {
	base := filepath.Base(opt.Src)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ".marv"
	if opt.OutDir == "" {
		return base
	}
	return filepath.Join(opt.OutDir, base)
}
