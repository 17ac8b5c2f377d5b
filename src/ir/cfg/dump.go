package cfg

import (
	"fmt"
	"io"
)

// DumpTuples writes one line per decoded tuple, for -v diagnostics (SPEC_FULL's supplemented verbose
// output). It only reads from BasicBlock.Tuples, so it can run before any later stage exists.
func DumpTuples(w io.Writer, g *ControlFlowGraph) {
	fmt.Fprintf(w, "-- tuples: %s --\n", g.Method.NameAndDesc())
	for _, b := range g.blocks {
		fmt.Fprintf(w, "%s:\n", b.Name())
		for _, t := range b.Tuples {
			fmt.Fprintf(w, "  %d: op=%d\n", t.PC, t.Op)
		}
	}
}

// DumpHIR writes every block's HIR instructions in program order, resolving phi-cleanup indirection so
// collapsed phis print as whatever they were rewritten to.
func DumpHIR(w io.Writer, g *ControlFlowGraph) {
	fmt.Fprintf(w, "-- hir: %s --\n", g.Method.NameAndDesc())
	for _, b := range g.blocks {
		fmt.Fprintf(w, "%s (preds=%s):\n", b.Name(), predNames(b))
		for _, hv := range b.HIR {
			if g.HIR(hv.ID()) != hv {
				continue // Collapsed away by phi cleanup.
			}
			fmt.Fprintf(w, "  %s\n", hv.String())
		}
	}
}

// DumpLIR writes every block's LIR instructions with their (possibly stride-5 renumbered) ids.
func DumpLIR(w io.Writer, g *ControlFlowGraph) {
	fmt.Fprintf(w, "-- lir: %s --\n", g.Method.NameAndDesc())
	for _, b := range g.blocks {
		fmt.Fprintf(w, "%s:\n", b.Name())
		for _, lv := range b.LIR {
			fmt.Fprintf(w, "  %-4d %s\n", lv.ID(), lv.String())
		}
	}
}

// DumpLiveness writes each register's merged live ranges, once liveness analysis has populated
// ControlFlowGraph.Intervals.
func DumpLiveness(w io.Writer, g *ControlFlowGraph) {
	fmt.Fprintf(w, "-- liveness: %s --\n", g.Method.NameAndDesc())
	for _, b := range g.blocks {
		fmt.Fprintf(w, "%s: use=%s def=%s in=%s out=%s\n", b.Name(), b.LiveUse, b.LiveDef, b.LiveIn, b.LiveOut)
	}
	for reg, iv := range g.Intervals {
		fmt.Fprintf(w, "%s:", RegName(reg))
		for _, r := range iv.Ranges {
			fmt.Fprintf(w, " [%d,%d]", r.Start, r.Stop)
		}
		fmt.Fprintln(w)
	}
}

func predNames(b *BasicBlock) string {
	s := ""
	for i1, p := range b.Predecessors {
		if i1 > 0 {
			s += ","
		}
		s += p.Name()
	}
	return s
}
