package cfg

// ResolvePhis finishes SSA construction after every block has been visited once by BuildHIR (spec §4.3,
// §9): it fills in any phi argument left as -1 by a not-yet-processed predecessor, then collapses
// redundant phis using the id-map indirection instead of rewriting their users.
func ResolvePhis(g *ControlFlowGraph) {
	fillPendingArgs(g)

	changed := true
	for changed {
		changed = false
		for _, b := range g.blocks {
			for _, hv := range b.HIR {
				phi, ok := hv.(*HIRPhi)
				if !ok {
					continue
				}
				if g.HIR(phi.id) != HIRValue(phi) {
					continue // Already collapsed onto another value.
				}
				if simplifyPhi(g, phi) {
					changed = true
				}
			}
		}
	}
}

// fillPendingArgs resolves every "?" phi argument to the id the corresponding predecessor actually held
// for that local (or stack slot) once its own processing finished.
func fillPendingArgs(g *ControlFlowGraph) {
	for _, b := range g.blocks {
		for _, hv := range b.HIR {
			phi, ok := hv.(*HIRPhi)
			if !ok {
				continue
			}
			for i1, a := range phi.Args {
				if a >= 0 {
					continue
				}
				p := b.Predecessors[i1]
				if phi.BoundLocal >= 0 {
					phi.Args[i1] = p.Locals[phi.BoundLocal]
				} else {
					phi.Args[i1] = p.StackSlot
				}
			}
		}
	}
}

// simplifyPhi applies both cleanup rules at once: a loop-head phi's self-referential back-edge argument
// (spec §9) is simply an argument equal to the phi's own id, so ignoring self-references before checking
// for a single distinct remaining value handles the non-loop-head "all identical arguments" rule and the
// loop-head rule with the same logic. When exactly one distinct value remains, phi.id is rebound to point
// directly at it, so every existing reference to phi.id resolves transparently through ControlFlowGraph.HIR.
func simplifyPhi(g *ControlFlowGraph, phi *HIRPhi) bool {
	var distinct []int
	for _, a := range phi.Args {
		if a == phi.id {
			continue
		}
		found := false
		for _, d := range distinct {
			if d == a {
				found = true
				break
			}
		}
		if !found {
			distinct = append(distinct, a)
		}
	}
	if len(distinct) != 1 {
		return false
	}
	g.SetHIR(phi.id, g.HIR(distinct[0]))
	return true
}
