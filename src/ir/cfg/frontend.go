package cfg

import "iotac/src/tuple"

// RunFrontend drives one method's tuples through every stage this package owns: CFG construction, SSA
// HIR, lowering to LIR, phi resolution, and stride-5 renumbering (spec §4.1-§4.6). The caller still has
// to run liveness, register allocation and Marvin selection from their own packages afterward.
func RunFrontend(g *ControlFlowGraph, tuples []tuple.Tuple) error {
	Build(g, tuples)
	if err := BuildHIR(g); err != nil {
		return err
	}
	ResolvePhis(g)
	if err := LowerToLIR(g); err != nil {
		return err
	}
	if err := ResolveCopies(g); err != nil {
		return err
	}
	Renumber(g)
	return nil
}
