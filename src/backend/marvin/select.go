// Package marvin lowers register-realized LIR into Marvin instructions, synthesizes per-method frames,
// links every method into one process-wide address space and emits the textual .marv program (spec
// §4.9, §4.10, §6). It is grounded on the teacher repo's backend/arm and backend/riscv print.go: a
// mechanical one-LIR-instruction-to-one-or-few-target-instructions translation, generalized from two
// register machines with stack-based calling conventions to Marvin's single sixteen-register machine.
package marvin

import (
	"fmt"

	"iotac/src/ir/cfg"
)

// Select translates every block's (already register-realized) LIR into Marvin instructions, appended to
// BasicBlock.Marvin in the same order, per spec §4.9. Jump and call targets are left unresolved
// (MarvinInst.JumpTarget/CallTarget) for Link to fill in once every method has a known entry PC.
func Select(g *cfg.ControlFlowGraph) {
	for _, b := range g.Blocks() {
		for _, lv := range b.LIR {
			b.Marvin = append(b.Marvin, selectOne(lv)...)
		}
	}
}

func selectOne(lv cfg.LIRValue) []cfg.MarvinInst {
	switch v := lv.(type) {
	case *cfg.LIRSetConst:
		switch v.Value {
		case 0:
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemSet0, Operands: []string{reg(v.Reg())}}}
		case 1:
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemSet1, Operands: []string{reg(v.Reg())}}}
		default:
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemSetn, Operands: []string{reg(v.Reg()), fmt.Sprint(v.Value)}}}
		}

	case *cfg.LIRArith:
		return []cfg.MarvinInst{{
			Mnemonic: arithMnemonic(v.Op),
			Operands: []string{reg(v.Reg()), reg(v.LHS), reg(v.RHS)},
		}}

	case *cfg.LIRCopy:
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemCopy, Operands: []string{reg(v.Reg()), reg(v.Src)}}}

	case *cfg.LIRIncConst:
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemAddn, Operands: []string{reg(v.Reg()), fmt.Sprint(v.Delta)}}}

	case *cfg.LIRLoad:
		if v.Base == cfg.SP && v.Offset == 0 {
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemPopr, Operands: []string{reg(v.Reg())}}}
		}
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemLoadn, Operands: []string{reg(v.Reg()), reg(v.Base), fmt.Sprint(v.Offset)}}}

	case *cfg.LIRStore:
		if v.Base == cfg.SP && v.Offset == 0 {
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemPushr, Operands: []string{reg(v.Src)}}}
		}
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemStoren, Operands: []string{reg(v.Base), fmt.Sprint(v.Offset), reg(v.Src)}}}

	case *cfg.LIRJump:
		if v.FalseBlock == nil {
			return []cfg.MarvinInst{{Mnemonic: cfg.MnemJumpn, JumpTarget: v.TrueBlock}}
		}
		return []cfg.MarvinInst{{
			Mnemonic:   jumpMnemonic(v.Op),
			Operands:   []string{reg(v.LHS), reg(v.RHS)},
			JumpTarget: v.TrueBlock,
		}}

	case *cfg.LIRCall:
		insts := make([]cfg.MarvinInst, 0, len(v.Args)+2)
		// Pushed right-to-left so that argument 0 ends up nearest FP: the callee addresses parameter k at
		// FP-(k+3) regardless of argument count (spec §3, §4.10), which only holds if arg 0 is pushed last.
		for i1 := len(v.Args) - 1; i1 >= 0; i1-- {
			insts = append(insts, cfg.MarvinInst{Mnemonic: cfg.MnemPushr, Operands: []string{reg(v.Args[i1])}})
		}
		insts = append(insts, cfg.MarvinInst{
			Mnemonic:   cfg.MnemCalln,
			Operands:   []string{reg(cfg.RA)},
			CallTarget: v.Name + v.Desc,
			Comment:    v.Name + v.Desc,
		})
		if v.HasResult {
			insts = append(insts, cfg.MarvinInst{Mnemonic: cfg.MnemCopy, Operands: []string{reg(v.Reg()), reg(cfg.RV)}})
		}
		if len(v.Args) > 0 {
			// Caller-cleanup: drop the pushed argument slots the callee addressed via FP (spec §4.10) by
			// moving SP directly. A popr sequence would write into a temporary, clobbering it -- including
			// the result register the copy above just wrote when the allocator happens to assign it R0.
			insts = append(insts, cfg.MarvinInst{Mnemonic: cfg.MnemAddn, Operands: []string{reg(cfg.SP), fmt.Sprint(-len(v.Args))}})
		}
		return insts

	case *cfg.LIRReturn:
		insts := make([]cfg.MarvinInst, 0, 2)
		if v.Value >= 0 {
			insts = append(insts, cfg.MarvinInst{Mnemonic: cfg.MnemCopy, Operands: []string{reg(cfg.RV), reg(v.Value)}})
		}
		insts = append(insts, cfg.MarvinInst{Mnemonic: cfg.MnemReturn})
		return insts

	case *cfg.LIRRead:
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemRead, Operands: []string{reg(v.Reg())}}}

	case *cfg.LIRWrite:
		return []cfg.MarvinInst{{Mnemonic: cfg.MnemWrite, Operands: []string{reg(v.Src)}}}
	}
	return nil
}

func reg(r int) string {
	return cfg.RegName(r)
}

func arithMnemonic(op string) string {
	switch op {
	case cfg.OpIAdd:
		return cfg.MnemAdd
	case cfg.OpISub:
		return cfg.MnemSub
	case cfg.OpIMul:
		return cfg.MnemMul
	case cfg.OpIDiv:
		return cfg.MnemDiv
	case cfg.OpIRem:
		return cfg.MnemRem
	}
	return op
}

func jumpMnemonic(op string) string {
	switch op {
	case cfg.CmpEq:
		return cfg.MnemJeqn
	case cfg.CmpNe:
		return cfg.MnemJnen
	case cfg.CmpLt:
		return cfg.MnemJltn
	case cfg.CmpLe:
		return cfg.MnemJlen
	case cfg.CmpGt:
		return cfg.MnemJgtn
	case cfg.CmpGe:
		return cfg.MnemJgen
	}
	return cfg.MnemJumpn
}
