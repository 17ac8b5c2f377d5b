// Package pipeline drives one class file's methods through the full backend (spec §2): tuple decoding,
// CFG/HIR/LIR construction, liveness, register allocation, Marvin selection, frame synthesis and
// process-wide linking. It is the orchestration layer the teacher repo's main.go and
// backend/lir/regalloc.go inline directly; here it is split out so cmd/iotac and tests can both drive it
// without going through a CLI.
package pipeline

import (
	"fmt"
	"io"
	"sync"

	backendlir "iotac/src/backend/lir"
	"iotac/src/backend/marvin"
	"iotac/src/classfile"
	"iotac/src/ir/cfg"
	"iotac/src/liveness"
	"iotac/src/tuple"
	"iotac/src/util"
)

// Compile runs every stage of the backend pipeline over one non-builtin method's bytecode, per spec
// §4.1-§4.10: tuple decode, CFG build, HIR construction and phi cleanup, lowering to LIR, phi
// resolution, renumbering, liveness, register allocation, instruction selection and frame synthesis.
// Linking is deliberately excluded since it is a whole-program, not per-method, concern (spec §5).
func Compile(m classfile.Method, graphColor bool) (*cfg.ControlFlowGraph, error) {
	tuples, err := tuple.Decode(m.Code)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}

	g := cfg.NewControlFlowGraph(m)
	cfg.Build(g, tuples)
	if err := cfg.BuildHIR(g); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}
	cfg.ResolvePhis(g)
	if err := cfg.LowerToLIR(g); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}
	if err := cfg.ResolveCopies(g); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}
	cfg.Renumber(g)

	liveness.Analyze(g)

	if err := backendlir.AllocateRegisters(g, graphColor); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}

	marvin.Select(g)
	marvin.BuildFrame(g)
	if err := marvin.CheckFrameBalance(g); err != nil {
		return nil, fmt.Errorf("method %s: %w", m.NameAndDesc(), err)
	}
	return g, nil
}

// CompileAll compiles every non-builtin method in c, in parallel across opt.Threads goroutines when
// opt.Threads > 1, then links the results into a single Program (spec §5: "parallelizing across methods
// is permissible because no mutable state flows between them"). Linking always runs sequentially, after
// every per-method pipeline has completed, since it owns the single process-wide pc counter and method
// address table (spec §4.10, §5).
func CompileAll(c classfile.Class, opt util.Options, dump io.Writer) (*marvin.Program, error) {
	var methods []classfile.Method
	for _, m := range c.Methods {
		if classfile.IsBuiltin(m.Name, m.Desc.String()) {
			continue
		}
		methods = append(methods, m)
	}

	graphs := make([]*cfg.ControlFlowGraph, len(methods))
	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > len(methods) {
		threads = len(methods)
	}

	if threads <= 1 {
		for i1, m := range methods {
			g, err := Compile(m, opt.GraphColor)
			if err != nil {
				return nil, err
			}
			if opt.Verbose && dump != nil {
				dumpStages(dump, g)
			}
			graphs[i1] = g
		}
	} else {
		n := len(methods) / threads
		res := len(methods) % threads
		perr := util.NewPerror(threads)
		wg := sync.WaitGroup{}
		wg.Add(threads)

		start := 0
		for i1 := 0; i1 < threads; i1++ {
			end := start + n
			if i1 < res {
				end++
			}
			go func(start, end int) {
				defer wg.Done()
				for i2 := start; i2 < end; i2++ {
					g, err := Compile(methods[i2], opt.GraphColor)
					if err != nil {
						perr.Append(err)
						continue
					}
					graphs[i2] = g
				}
			}(start, end)
			start = end
		}
		wg.Wait()
		perr.Stop()
		if perr.Len() > 0 {
			for e1 := range perr.Errors() {
				return nil, e1
			}
		}
		if opt.Verbose && dump != nil {
			for _, g := range graphs {
				dumpStages(dump, g)
			}
		}
	}

	return marvin.Link(graphs)
}

// dumpStages writes the tuple/HIR/LIR/liveness textual dumps for g, the "optional textual dumps"
// -v surface (spec §2, SPEC_FULL "-v intermediate dumps").
func dumpStages(w io.Writer, g *cfg.ControlFlowGraph) {
	cfg.DumpTuples(w, g)
	cfg.DumpHIR(w, g)
	cfg.DumpLIR(w, g)
	cfg.DumpLiveness(w, g)
}
