package marvin

import (
	"fmt"
	"strconv"

	"iotac/src/ir/cfg"
)

// BuildFrame prepends the method's prologue to its entry block and splices its epilogue in front of
// every return point, per spec §4.10: push RA and FP, set FP to the incoming SP, then push every
// callee temporary the method actually used; the epilogue pops the same registers in reverse.
func BuildFrame(g *cfg.ControlFlowGraph) {
	entry := g.Blocks()[0]
	prologue := []cfg.MarvinInst{
		{Mnemonic: cfg.MnemPushr, Operands: []string{reg(cfg.RA)}},
		{Mnemonic: cfg.MnemPushr, Operands: []string{reg(cfg.FP)}},
		{Mnemonic: cfg.MnemCopy, Operands: []string{reg(cfg.FP), reg(cfg.SP)}},
	}
	for _, p := range g.PRegisters {
		prologue = append(prologue, cfg.MarvinInst{Mnemonic: cfg.MnemPushr, Operands: []string{reg(p)}})
	}
	entry.Marvin = append(prologue, entry.Marvin...)

	epilogue := buildEpilogue(g)
	for _, b := range g.Blocks() {
		b.Marvin = spliceBeforeReturns(b.Marvin, epilogue)
	}
}

func buildEpilogue(g *cfg.ControlFlowGraph) []cfg.MarvinInst {
	var out []cfg.MarvinInst
	for i1 := len(g.PRegisters) - 1; i1 >= 0; i1-- {
		out = append(out, cfg.MarvinInst{Mnemonic: cfg.MnemPopr, Operands: []string{reg(g.PRegisters[i1])}})
	}
	out = append(out,
		cfg.MarvinInst{Mnemonic: cfg.MnemPopr, Operands: []string{reg(cfg.FP)}},
		cfg.MarvinInst{Mnemonic: cfg.MnemPopr, Operands: []string{reg(cfg.RA)}},
	)
	return out
}

// spliceBeforeReturns replaces every "return" marker Select left behind with the epilogue followed by
// the actual Marvin return-from-method instruction, "jumpr RA" (spec §3, §4.10): the marker exists only
// so BuildFrame has a splice point, since Select runs before frame layout is known.
func spliceBeforeReturns(insts []cfg.MarvinInst, epilogue []cfg.MarvinInst) []cfg.MarvinInst {
	var out []cfg.MarvinInst
	for _, in := range insts {
		if in.Mnemonic == cfg.MnemReturn {
			out = append(out, epilogue...)
			out = append(out, cfg.MarvinInst{Mnemonic: cfg.MnemJumpr, Operands: []string{reg(cfg.RA)}})
			continue
		}
		out = append(out, in)
	}
	return out
}

// CheckFrameBalance verifies that every path from the method's entry to a return instruction pushes and
// pops the stack in balance, a self-check the original Java reference left implicit in its stack
// discipline. It walks the CFG once, tracking net pushr/popr/addn-SP depth per block and propagating it
// to successors, and reports an error at the first block where two predecessors disagree or at the
// first block without successors that is left at a non-zero depth.
func CheckFrameBalance(g *cfg.ControlFlowGraph) error {
	depthAtEntry := make(map[*cfg.BasicBlock]int)
	var walk func(b *cfg.BasicBlock, depth int) error
	visited := make(map[*cfg.BasicBlock]bool)
	walk = func(b *cfg.BasicBlock, depth int) error {
		if prev, ok := depthAtEntry[b]; ok {
			if prev != depth {
				return fmt.Errorf("internal error: unbalanced stack depth entering %s (%d vs %d)", b.Name(), prev, depth)
			}
			if visited[b] {
				return nil
			}
		}
		depthAtEntry[b] = depth
		visited[b] = true
		d := depth
		for _, in := range b.Marvin {
			switch in.Mnemonic {
			case cfg.MnemPushr:
				d++
			case cfg.MnemPopr:
				d--
			case cfg.MnemAddn:
				if len(in.Operands) == 2 && in.Operands[0] == reg(cfg.SP) {
					if n, err := strconv.Atoi(in.Operands[1]); err == nil {
						d += n
					}
				}
			}
		}
		if len(b.Successors) == 0 && d != 0 {
			return fmt.Errorf("internal error: stack depth %d leaving %s, want 0", d, b.Name())
		}
		for _, s := range b.Successors {
			if err := walk(s, d); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(g.Blocks()[0], 0)
}
