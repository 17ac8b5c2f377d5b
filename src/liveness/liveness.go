// Package liveness computes local and global liveness sets and per-register live intervals over a
// lowered method's LIR, per spec §4.7. It is grounded on the teacher repo's ir/lir/live.go, generalized
// from ARM/RISC-V's fixed register banks to the Marvin model's unbounded virtual registers.
package liveness

import "iotac/src/ir/cfg"

// Analyze runs the full liveness pipeline over g: local liveUse/liveDef, the backward liveIn/liveOut
// fixpoint, and per-register Interval construction. LowerToLIR and Renumber must already have run.
func Analyze(g *cfg.ControlFlowGraph) {
	computeLocal(g)
	computeGlobal(g)
	computeIntervals(g)
}

// computeLocal scans each block once: liveUse collects registers read before any same-block
// redefinition, liveDef collects registers written in the block (spec §4.7).
func computeLocal(g *cfg.ControlFlowGraph) {
	for _, b := range g.Blocks() {
		use := cfg.NewRegSet()
		def := cfg.NewRegSet()
		defined := cfg.NewRegSet()
		for _, lv := range b.LIR {
			for _, r := range readsOf(lv) {
				if physicalFixed(r) {
					continue
				}
				if !defined.Has(r) {
					use.Add(r)
				}
			}
			if w := lv.Reg(); w >= 0 && !physicalFixed(w) {
				defined.Add(w)
				def.Add(w)
			}
		}
		b.LiveUse = use
		b.LiveDef = def
		b.LiveIn = cfg.NewRegSet()
		b.LiveOut = cfg.NewRegSet()
	}
}

// computeGlobal iterates liveIn/liveOut to a fixed point: out[B] = union(in[S]) over successors S,
// in[B] = use[B] ∪ (out[B] \ def[B]) (spec §4.7). Blocks are walked in reverse program order each
// iteration, which converges in fewer passes for the mostly-forward CFGs this module builds.
func computeGlobal(g *cfg.ControlFlowGraph) {
	blocks := g.Blocks()
	changed := true
	for changed {
		changed = false
		for i1 := len(blocks) - 1; i1 >= 0; i1-- {
			b := blocks[i1]
			out := cfg.NewRegSet()
			for _, s := range b.Successors {
				out.Union(s.LiveIn)
			}
			in := cfg.NewRegSet()
			for _, r := range b.LiveUse.Slice() {
				in.Add(r)
			}
			for _, r := range out.Slice() {
				if !b.LiveDef.Has(r) {
					in.Add(r)
				}
			}
			if !in.Equal(b.LiveIn) {
				b.LiveIn = in
				changed = true
			}
			if !out.Equal(b.LiveOut) {
				b.LiveOut = out
				changed = true
			}
		}
	}
}

type span struct{ start, stop int }

// computeIntervals visits the blocks last to first, so that AddRange's prepending leaves each Interval's
// Ranges earliest first, and walks each block's LIR in reverse, extending a register's live span backward from
// its last use (or the block's liveOut boundary) to its defining instruction, and records every id that
// reads or writes the register (spec §4.7). The resulting per-block span is merged into the register's
// Interval, whose AddRange already knows how to fold in adjacent or overlapping spans across blocks.
func computeIntervals(g *cfg.ControlFlowGraph) {
	blocks := g.Blocks()
	for bi := len(blocks) - 1; bi >= 0; bi-- {
		b := blocks[bi]
		if len(b.LIR) == 0 {
			continue
		}
		first := b.LIR[0].ID()
		last := b.LIR[len(b.LIR)-1].ID()

		spans := make(map[int]*span)
		for r := range b.LiveOut {
			spans[r] = &span{start: first, stop: last}
		}

		for i1 := len(b.LIR) - 1; i1 >= 0; i1-- {
			lv := b.LIR[i1]
			id := lv.ID()
			if w := lv.Reg(); w >= 0 && !physicalFixed(w) {
				interval(g, w).RecordUse(id, cfg.Write)
				if s, ok := spans[w]; ok {
					s.start = id
				} else {
					spans[w] = &span{start: id, stop: id}
				}
			}
			for _, r := range readsOf(lv) {
				if physicalFixed(r) {
					continue
				}
				interval(g, r).RecordUse(id, cfg.Read)
				if s, ok := spans[r]; ok {
					if id < s.start {
						s.start = id
					}
					if id > s.stop {
						s.stop = id
					}
				} else {
					spans[r] = &span{start: id, stop: id}
				}
			}
		}

		for r, s := range spans {
			interval(g, r).AddRange(cfg.Range{Start: s.start, Stop: s.stop})
		}
	}
}

func interval(g *cfg.ControlFlowGraph, r int) *cfg.Interval {
	if iv, ok := g.Intervals[r]; ok {
		return iv
	}
	iv := cfg.NewInterval(r)
	g.Intervals[r] = iv
	return iv
}

func physicalFixed(r int) bool {
	return r == cfg.RA || r == cfg.RV || r == cfg.FP || r == cfg.SP
}

// readsOf returns the registers an LIR instruction reads, excluding any fixed-purpose base register used
// only for frame-relative addressing.
func readsOf(lv cfg.LIRValue) []int {
	switch v := lv.(type) {
	case *cfg.LIRArith:
		return []int{v.LHS, v.RHS}
	case *cfg.LIRCopy:
		return []int{v.Src}
	case *cfg.LIRJump:
		if v.FalseBlock == nil {
			return nil
		}
		return []int{v.LHS, v.RHS}
	case *cfg.LIRStore:
		return []int{v.Src}
	case *cfg.LIRCall:
		return append([]int(nil), v.Args...)
	case *cfg.LIRReturn:
		if v.Value < 0 {
			return nil
		}
		return []int{v.Value}
	case *cfg.LIRWrite:
		return []int{v.Src}
	}
	return nil
}
