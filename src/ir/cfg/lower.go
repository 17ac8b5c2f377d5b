package cfg

import "fmt"

// LowerToLIR translates every block's HIR into register-transfer LIR, per spec §4.4. Each block is
// translated in its own HIR list order, which BuildHIR already produced in a valid define-before-use
// order for everything except a phi's back-edge argument: those are left unresolved here (a phi only
// reserves its destination register) and are filled in later by ResolveCopies, which runs only after
// every block in the CFG has been lowered, so every predecessor it needs to read from is available.
func LowerToLIR(g *ControlFlowGraph) error {
	for _, b := range g.blocks {
		for _, hv := range b.HIR {
			if err := lowerOne(g, b, hv); err != nil {
				return err
			}
		}
	}
	return nil
}

func lowerOne(g *ControlFlowGraph, b *BasicBlock, hv HIRValue) error {
	switch v := hv.(type) {
	case *HIRConst:
		reg := g.NextVirtualReg()
		lv := &LIRSetConst{lirBase: lirBase{id: g.nextLIRId(), reg: reg}, Value: v.Value}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRParam:
		reg := g.NextVirtualReg()
		lv := &LIRLoad{lirBase: lirBase{id: g.nextLIRId(), reg: reg}, Base: FP, Offset: -(v.Index + 3)}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRArith:
		lhs, err := operandReg(g, v.LHS)
		if err != nil {
			return err
		}
		rhs, err := operandReg(g, v.RHS)
		if err != nil {
			return err
		}
		reg := g.NextVirtualReg()
		lv := &LIRArith{lirBase: lirBase{id: g.nextLIRId(), reg: reg}, Op: v.Op, LHS: lhs, RHS: rhs}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRCall:
		args := make([]int, len(v.Args))
		for i1, a := range v.Args {
			r, err := operandReg(g, a)
			if err != nil {
				return err
			}
			args[i1] = r
		}
		if v.IsIO && v.Name == "read" {
			reg := g.NextVirtualReg()
			lv := &LIRRead{lirBase: lirBase{id: g.nextLIRId(), reg: reg}}
			v.SetLIR(lv)
			b.LIR = append(b.LIR, lv)
			return nil
		}
		if v.IsIO && v.Name == "write" {
			lv := &LIRWrite{lirBase: lirBase{id: g.nextLIRId(), reg: -1}, Src: args[0]}
			v.SetLIR(lv)
			b.LIR = append(b.LIR, lv)
			return nil
		}
		reg := -1
		hasResult := v.RetType != "V"
		if hasResult {
			reg = g.NextVirtualReg()
		}
		lv := &LIRCall{lirBase: lirBase{id: g.nextLIRId(), reg: reg}, Name: v.Name, Desc: v.Desc, Args: args, HasResult: hasResult}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRJump:
		if v.FalseBlock == nil {
			lv := &LIRJump{lirBase: lirBase{id: g.nextLIRId(), reg: -1}, LHS: -1, RHS: -1, TrueBlock: v.TrueBlock}
			v.SetLIR(lv)
			b.LIR = append(b.LIR, lv)
			return nil
		}
		lhs, err := operandReg(g, v.LHS)
		if err != nil {
			return err
		}
		rhs, err := operandReg(g, v.RHS)
		if err != nil {
			return err
		}
		lv := &LIRJump{lirBase: lirBase{id: g.nextLIRId(), reg: -1}, Op: v.Op, LHS: lhs, RHS: rhs, TrueBlock: v.TrueBlock, FalseBlock: v.FalseBlock}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRReturn:
		val := -1
		if v.Value >= 0 {
			r, err := operandReg(g, v.Value)
			if err != nil {
				return err
			}
			val = r
		}
		lv := &LIRReturn{lirBase: lirBase{id: g.nextLIRId(), reg: -1}, Value: val}
		v.SetLIR(lv)
		b.LIR = append(b.LIR, lv)

	case *HIRPhi:
		reg := g.NextVirtualReg()
		v.SetLIR(&LIRPhiReg{lirBase: lirBase{id: g.nextLIRId(), reg: reg}})
		// No instruction is appended: a phi computes nothing by itself. Its value arrives through the
		// copies ResolveCopies inserts at each predecessor's tail (spec §4.5).
	}
	return nil
}

// operandReg resolves id's canonical HIR value (following any phi-cleanup indirection) and returns the
// register it was lowered into. Every id reachable here was either defined earlier in the same block or
// belongs to an already-lowered ancestor block; only a phi's back-edge argument can still be unresolved
// at this point, and such arguments are never read directly here (ResolveCopies reads them instead).
func operandReg(g *ControlFlowGraph, id int) (int, error) {
	hv := g.HIR(id)
	if hv == nil {
		return 0, fmt.Errorf("internal error: operand %%%d has no HIR binding", id)
	}
	if hv.LIR() == nil {
		return 0, fmt.Errorf("internal error: operand %%%d used before it was lowered", id)
	}
	return hv.LIR().Reg(), nil
}

// LIRPhiReg caches the register a phi's value lives in. It performs no operation and is never emitted;
// ResolveCopies and instruction selection consult it only through HIRPhi.LIR().
type LIRPhiReg struct {
	lirBase
}

func (v *LIRPhiReg) String() string { return fmt.Sprintf("phi-slot %s", RegName(v.reg)) }
