// Package lir assigns Marvin physical registers to the virtual registers LIR lowering produced, per
// spec §4.8. It is grounded on the teacher repo's backend/lir/regalloc.go: the same retry-bounded
// simplify/color loop over a register interference graph, generalized from ARM/RISC-V's configurable
// register files to the fixed 12-temporary Marvin file, and given a real spill path where the teacher
// left one as a TODO.
package lir

import (
	"fmt"

	"iotac/src/backend/regfile"
	"iotac/src/ir/cfg"
)

// AllocateRegisters assigns every virtual register used by g's LIR a physical Marvin temporary,
// spilling to the frame where pressure or interference forces it. graphColor selects the Chaitin-style
// interference-graph allocator (enabled with -g); the default is the naive circular allocator (spec
// §4.8).
func AllocateRegisters(g *cfg.ControlFlowGraph, graphColor bool) error {
	if graphColor {
		return allocateGraphColor(g)
	}
	return allocateNaive(g)
}

// virtualsInUse returns every virtual register number that has a liveness interval, i.e. that was
// actually read or written somewhere in g's LIR, in ascending order.
func virtualsInUse(g *cfg.ControlFlowGraph) []int {
	regs := make([]int, 0, len(g.Intervals))
	for r := range g.Intervals {
		if r >= cfg.FirstVirtual {
			regs = append(regs, r)
		}
	}
	for i1 := 1; i1 < len(regs); i1++ {
		for j := i1; j > 0 && regs[j-1] > regs[j]; j-- {
			regs[j-1], regs[j] = regs[j], regs[j-1]
		}
	}
	return regs
}

func overlaps(a, b *cfg.Interval) bool {
	for _, ra := range a.Ranges {
		for _, rb := range b.Ranges {
			if ra.Start <= rb.Stop && rb.Start <= ra.Stop {
				return true
			}
		}
	}
	return false
}

// ----------------------------
// ----- Naive allocator -----
// ----------------------------

// allocateNaive hands out physical registers in order of appearance, holding a FIFO of currently
// resident virtuals, per spec §4.8's "naive circular" default. Once all twelve temporaries are handed
// out, the oldest resident is dequeued and its physical register is reused for the current write, but
// both the dequeued virtual and the current write are marked spilled, so neither stays resident in a
// slot the other also claims; a spilled virtual is always reloaded before each read and stored after its
// write (spill.go's Realize), never trusted to still hold its value across the next allocation that
// reuses its physical.
func allocateNaive(g *cfg.ControlFlowGraph) error {
	regs := virtualsInUse(g)

	free := make([]int, cfg.NumTemps)
	for i1 := range free {
		free[i1] = i1
	}
	var resident []int // FIFO of virtual register numbers currently holding a physical, oldest first.
	spillSlot := 0

	for _, r := range regs {
		if len(free) > 0 {
			p := free[0]
			free = free[1:]
			g.Registers[r] = &cfg.RegInfo{Physical: p, Assigned: true}
			g.UseTempRegister(p)
			resident = append(resident, r)
			continue
		}

		oldest := resident[0]
		resident = resident[1:]
		oldInfo := g.Registers[oldest]
		if !oldInfo.Spilled {
			oldInfo.Spilled = true
			oldInfo.SpillOffset = spillSlot
			spillSlot++
		}

		g.Registers[r] = &cfg.RegInfo{Physical: oldInfo.Physical, Assigned: true, Spilled: true, SpillOffset: spillSlot}
		spillSlot++
		resident = append(resident, r)
	}

	Realize(g)
	return nil
}

// ---------------------------------
// ----- Graph-coloring allocator -----
// ---------------------------------

// node is one register-interference-graph vertex, mirroring the teacher's allocateRegisterFunc node
// type: a wrapped value (here, a virtual register) with its neighbour list and an enabled flag used to
// "remove" it from the graph during simplification.
type node struct {
	reg        int
	neighbours []*node
	enabled    bool
}

func (n *node) enabledNeighbours() []*node {
	res := make([]*node, 0, len(n.neighbours))
	for _, e1 := range n.neighbours {
		if e1.enabled {
			res = append(res, e1)
		}
	}
	return res
}

// retry bounds how many simplification passes allocateGraphColor attempts before giving up, exactly as
// the teacher's regalloc.go does.
const retry = 128

// allocateGraphColor builds the interference graph from g.Intervals and colors it with Marvin's twelve
// temporaries using simplify-then-select, per spec §4.8's optional allocator. A simplify pass that finds
// no node with fewer than NumTemps neighbours pushes one remaining node anyway as a potential spill. A node
// that select cannot color is spilled onto physical spillSlot mod NumTemps, and any interfering resident
// holder of that physical is spilled with it.
func allocateGraphColor(g *cfg.ControlFlowGraph) error {
	regs := virtualsInUse(g)
	nodes := make(map[int]*node, len(regs))
	for _, r := range regs {
		nodes[r] = &node{reg: r, enabled: true}
	}
	for i1, r1 := range regs {
		for _, r2 := range regs[i1+1:] {
			if overlaps(g.Intervals[r1], g.Intervals[r2]) {
				nodes[r1].neighbours = append(nodes[r1].neighbours, nodes[r2])
				nodes[r2].neighbours = append(nodes[r2].neighbours, nodes[r1])
			}
		}
	}

	var order []*node
	rt := retry
	for len(order) < len(regs) && rt > 0 {
		before := len(order)
		var cand *node
		for i1 := len(regs) - 1; i1 >= 0; i1-- {
			n := nodes[regs[i1]]
			if !n.enabled {
				continue
			}
			cand = n
			if len(n.enabledNeighbours()) < cfg.NumTemps {
				n.enabled = false
				order = append(order, n)
			}
		}
		if len(order) == before && cand != nil {
			cand.enabled, order = false, append(order, cand)
		}
		rt--
	}
	if rt < 1 {
		return fmt.Errorf("internal error: could not untangle register interference graph within %d retries", retry)
	}

	rf := regfile.New()
	spillSlot := 0
	for i1 := len(order) - 1; i1 >= 0; i1-- {
		n := order[i1]
		n.enabled = true
		excluded := make(map[int]bool)
		for _, nb := range n.enabledNeighbours() {
			if info, ok := g.Registers[nb.reg]; ok && info.Assigned && !info.Spilled {
				excluded[info.Physical] = true
			}
		}
		p, ok := pickFree(rf, excluded)
		if !ok {
			p = spillSlot % cfg.NumTemps
			for _, nb := range n.enabledNeighbours() {
				if info := g.Registers[nb.reg]; info.Assigned && info.Physical == p && !info.Spilled {
					info.Spilled, info.SpillOffset = true, spillSlot
					spillSlot++
				}
			}
			g.Registers[n.reg] = &cfg.RegInfo{Physical: p, Assigned: true, Spilled: true, SpillOffset: spillSlot}
			spillSlot++
			continue
		}
		rf.Reserve(p)
		g.Registers[n.reg] = &cfg.RegInfo{Physical: p, Assigned: true}
		g.UseTempRegister(p)
	}

	Realize(g)
	return nil
}

func pickFree(rf *regfile.File, excluded map[int]bool) (int, bool) {
	for i1 := 0; i1 < rf.K(); i1++ {
		if excluded[i1] || rf.InUse(i1) {
			continue
		}
		return i1, true
	}
	return -1, false
}
