package lir

import "iotac/src/ir/cfg"

// Realize rewrites every LIR operand and destination from its virtual register number to the physical
// register allocation assigned it, and materializes spills: a spilled virtual still owns the physical
// slot the allocator gave it, but that slot is shared with whatever it collided with, so every read is
// preceded by a reload and every write is followed by a spill store (spec §4.8). The reload/store ids
// are slotted into the gaps stride-5 renumbering left on either side of the instruction they guard.
func Realize(g *cfg.ControlFlowGraph) {
	for _, b := range g.Blocks() {
		var out []cfg.LIRValue
		for _, lv := range b.LIR {
			for _, r := range readOperands(lv) {
				info, ok := g.Registers[*r]
				if !ok {
					continue
				}
				if info.Spilled {
					out = append(out, cfg.NewLIRLoad(lv.ID()-1, info.Physical, cfg.SP, info.SpillOffset))
				}
				*r = info.Physical
			}

			w := lv.Reg()
			info, spilled := g.Registers[w]
			if info != nil {
				lv.SetReg(info.Physical)
			}
			out = append(out, lv)
			if spilled && info.Spilled {
				out = append(out, cfg.NewLIRStore(lv.ID()+1, cfg.SP, info.SpillOffset, info.Physical))
			}
		}
		b.LIR = out
	}
}

// readOperands returns pointers to every register-valued read operand on lv, so callers can both inspect
// and rewrite them in place.
func readOperands(lv cfg.LIRValue) []*int {
	switch v := lv.(type) {
	case *cfg.LIRArith:
		return []*int{&v.LHS, &v.RHS}
	case *cfg.LIRCopy:
		return []*int{&v.Src}
	case *cfg.LIRJump:
		if v.FalseBlock == nil {
			return nil
		}
		return []*int{&v.LHS, &v.RHS}
	case *cfg.LIRStore:
		return []*int{&v.Src}
	case *cfg.LIRCall:
		res := make([]*int, len(v.Args))
		for i1 := range v.Args {
			res[i1] = &v.Args[i1]
		}
		return res
	case *cfg.LIRReturn:
		if v.Value < 0 {
			return nil
		}
		return []*int{&v.Value}
	case *cfg.LIRWrite:
		return []*int{&v.Src}
	}
	return nil
}
