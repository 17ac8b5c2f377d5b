package cfg

import (
	"fmt"
	"iotac/src/classfile"
	"iotac/src/tuple"
)

// BuildHIR translates every block's tuples into SSA-form HIR, per spec §4.3. Blocks are visited in
// ascending id order, which for a CFG built from structured bytecode (spec §4.2) is already a valid
// topological order except across back edges: a loop head is therefore processed before its tail. Phi
// operands that would come from a not-yet-processed predecessor are left as -1 ("?") and resolved by
// ResolvePhis once every block has been visited.
//
// Locals are modeled exactly as the bytecode verifier sees them: a per-block vector of "current
// definition" ids, cloned from a single predecessor or merged with a synthesized phi at any block with
// more than one predecessor (spec §9: phi placement without dominance computation). The interpreter
// operand stack is modeled the same way through a single extra carried slot, StackSlot, used only to let
// a value computed in one block survive into IRETURN in a successor when the bytecode leaves it on the
// stack across the edge instead of stashing it in a local — the one sanctioned cross-block stack
// transfer (spec §9).
func BuildHIR(g *ControlFlowGraph) error {
	maxLocals := g.Method.MaxLocals
	params := g.Method.Desc.Params

	for _, b := range g.blocks {
		b.Locals = make([]int, maxLocals)
		for i1 := range b.Locals {
			b.Locals[i1] = -1
		}
	}

	entry := g.blocks[0]
	for i1, p := range params {
		hv := &HIRParam{base: base{id: g.nextHIRId(), blk: entry}, Index: i1, Typ: typeName(p)}
		g.SetHIR(hv.id, hv)
		entry.HIR = append(entry.HIR, hv)
		entry.Locals[i1] = hv.id
	}
	entry.StackSlot = -1
	entry.visited2 = true

	zeroByBlock := make(map[*BasicBlock]int)

	for bi := 1; bi < len(g.blocks); bi++ {
		b := g.blocks[bi]
		mergeLocals(g, b, maxLocals)

		stack := []int{b.StackSlot}
		if b.StackSlot < 0 {
			stack = stack[:0]
		}
		push := func(id int) { stack = append(stack, id) }
		pop := func() int {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			return v
		}
		zero := func() int {
			if id, ok := zeroByBlock[b]; ok {
				return id
			}
			hv := &HIRConst{base: base{id: g.nextHIRId(), blk: b}, Value: 0}
			g.SetHIR(hv.id, hv)
			b.HIR = append(b.HIR, hv)
			zeroByBlock[b] = hv.id
			return hv.id
		}

		for _, t := range b.Tuples {
			switch t.Category {
			case tuple.ConstLoad:
				hv := &HIRConst{base: base{id: g.nextHIRId(), blk: b}, Value: t.IntValue}
				g.SetHIR(hv.id, hv)
				b.HIR = append(b.HIR, hv)
				push(hv.id)
			case tuple.LocalSlot:
				if t.Op == classfile.OpILoad {
					push(b.Locals[t.IntValue])
				} else {
					b.Locals[t.IntValue] = pop()
				}
			case tuple.NoArg:
				switch t.Op {
				case classfile.OpDup:
					v := pop()
					push(v)
					push(v)
				case classfile.OpPop:
					pop()
				case classfile.OpINeg:
					v := pop()
					neg := constNegOne(g, b)
					hv := &HIRArith{base: base{id: g.nextHIRId(), blk: b}, Op: OpIMul, LHS: neg, RHS: v}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
					push(hv.id)
				case classfile.OpIAdd, classfile.OpISub, classfile.OpIMul, classfile.OpIDiv, classfile.OpIRem:
					rhs := pop()
					lhs := pop()
					hv := &HIRArith{base: base{id: g.nextHIRId(), blk: b}, Op: arithOp(t.Op), LHS: lhs, RHS: rhs}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
					push(hv.id)
				case classfile.OpReturn:
					hv := &HIRReturn{base: base{id: g.nextHIRId(), blk: b}, Value: -1}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
				case classfile.OpIReturn:
					var v int
					if len(stack) > 0 {
						v = pop()
					} else {
						v = b.StackSlot // Tie-break: value was left on the stack by a predecessor.
					}
					hv := &HIRReturn{base: base{id: g.nextHIRId(), blk: b}, Value: v, Typ: "I"}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
				}
			case tuple.Branch:
				true_ := targetBlock(g, b, t.Target)
				switch t.Op {
				case classfile.OpGoto:
					hv := &HIRJump{base: base{id: g.nextHIRId(), blk: b}, LHS: -1, RHS: -1, TrueBlock: true_}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
				case classfile.OpIfEq, classfile.OpIfNe:
					v := pop()
					op := CmpEq
					if t.Op == classfile.OpIfNe {
						op = CmpNe
					}
					false_ := fallthroughBlock(b)
					hv := &HIRJump{base: base{id: g.nextHIRId(), blk: b}, Op: op, LHS: v, RHS: zero(), TrueBlock: true_, FalseBlock: false_}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
				default: // IF_ICMP*
					rhs := pop()
					lhs := pop()
					false_ := fallthroughBlock(b)
					hv := &HIRJump{base: base{id: g.nextHIRId(), blk: b}, Op: cmpOp(t.Op), LHS: lhs, RHS: rhs, TrueBlock: true_, FalseBlock: false_}
					g.SetHIR(hv.id, hv)
					b.HIR = append(b.HIR, hv)
				}
			case tuple.StaticCall:
				desc, err := classfile.ParseDescriptor(t.CallDesc)
				if err != nil {
					return fmt.Errorf("internal error: %w", err)
				}
				args := make([]int, len(desc.Params))
				for i1 := len(args) - 1; i1 >= 0; i1-- {
					args[i1] = pop()
				}
				hv := &HIRCall{
					base: base{id: g.nextHIRId(), blk: b}, Name: t.CallName, Desc: t.CallDesc,
					Args: args, RetType: typeName(desc.Return), IsIO: t.IsBuiltin,
				}
				g.SetHIR(hv.id, hv)
				b.HIR = append(b.HIR, hv)
				if desc.Return != classfile.Void {
					push(hv.id)
				}
			}
		}

		if len(b.HIR) == 0 || !isTerminator(b.HIR[len(b.HIR)-1]) {
			if len(b.Successors) != 1 {
				return fmt.Errorf("internal error: block %s falls through without exactly one successor", b.Name())
			}
			hv := &HIRJump{base: base{id: g.nextHIRId(), blk: b}, LHS: -1, RHS: -1, TrueBlock: b.Successors[0]}
			g.SetHIR(hv.id, hv)
			b.HIR = append(b.HIR, hv)
		}

		if len(stack) > 0 {
			b.StackSlot = stack[len(stack)-1]
		} else {
			b.StackSlot = -1
		}
		b.visited2 = true
	}
	return nil
}

// mergeLocals gives b its entry local/stack state: a direct clone when it has a single predecessor.
// With more than one, a local slot (or StackSlot) whose predecessors all carry the same known id takes
// that id directly, and every other slot gets a phi. Predecessors not yet visited contribute -1,
// resolved later by ResolvePhis.
func mergeLocals(g *ControlFlowGraph, b *BasicBlock, maxLocals int) {
	preds := b.Predecessors
	if len(preds) == 1 {
		p := preds[0]
		copy(b.Locals, p.Locals)
		b.StackSlot = p.StackSlot
		return
	}
	if len(preds) == 0 {
		return // Unreachable block already pruned away; defensive only.
	}
	for local := 0; local < maxLocals; local++ {
		args := make([]int, len(preds))
		allSame := true
		for i1, p := range preds {
			if p.visited2 {
				args[i1] = p.Locals[local]
			} else {
				args[i1] = -1
			}
			if i1 > 0 && args[i1] != args[0] {
				allSame = false
			}
		}
		if allSame && args[0] >= 0 {
			b.Locals[local] = args[0]
			continue
		}
		hv := &HIRPhi{base: base{id: g.nextHIRId(), blk: b}, Args: args, BoundLocal: local, Typ: "I"}
		g.SetHIR(hv.id, hv)
		b.HIR = append(b.HIR, hv)
		b.Locals[local] = hv.id
	}

	stackArgs := make([]int, len(preds))
	needPhi := false
	for i1, p := range preds {
		if p.visited2 {
			stackArgs[i1] = p.StackSlot
		} else {
			stackArgs[i1] = -1
		}
		if i1 > 0 && stackArgs[i1] != stackArgs[0] {
			needPhi = true
		}
	}
	if needPhi {
		hv := &HIRPhi{base: base{id: g.nextHIRId(), blk: b}, Args: stackArgs, BoundLocal: -1, Typ: "I"}
		g.SetHIR(hv.id, hv)
		b.HIR = append(b.HIR, hv)
		b.StackSlot = hv.id
	} else {
		b.StackSlot = stackArgs[0]
	}
}

func constNegOne(g *ControlFlowGraph, b *BasicBlock) int {
	hv := &HIRConst{base: base{id: g.nextHIRId(), blk: b}, Value: -1}
	g.SetHIR(hv.id, hv)
	b.HIR = append(b.HIR, hv)
	return hv.id
}

func arithOp(op byte) string {
	switch op {
	case classfile.OpIAdd:
		return OpIAdd
	case classfile.OpISub:
		return OpISub
	case classfile.OpIMul:
		return OpIMul
	case classfile.OpIDiv:
		return OpIDiv
	case classfile.OpIRem:
		return OpIRem
	}
	return ""
}

func cmpOp(op byte) string {
	switch op {
	case classfile.OpIfICmpEq:
		return CmpEq
	case classfile.OpIfICmpNe:
		return CmpNe
	case classfile.OpIfICmpLt:
		return CmpLt
	case classfile.OpIfICmpLe:
		return CmpLe
	case classfile.OpIfICmpGt:
		return CmpGt
	case classfile.OpIfICmpGe:
		return CmpGe
	}
	return ""
}

func typeName(t classfile.Type) string {
	switch t {
	case classfile.Void:
		return "V"
	default:
		return "I"
	}
}

func isTerminator(v HIRValue) bool {
	switch v.(type) {
	case *HIRJump, *HIRReturn:
		return true
	}
	return false
}

// targetBlock finds the block whose first tuple is at pc.
func targetBlock(g *ControlFlowGraph, from *BasicBlock, pc int) *BasicBlock {
	for _, s := range from.Successors {
		if len(s.Tuples) > 0 && s.Tuples[0].PC == pc {
			return s
		}
	}
	return nil
}

// fallthroughBlock returns b's non-branch-target successor: for a conditional jump this is always
// Successors[1] because wireEdges always appends the taken target first, then the fall-through (spec
// §4.2).
func fallthroughBlock(b *BasicBlock) *BasicBlock {
	if len(b.Successors) < 2 {
		return nil
	}
	return b.Successors[1]
}
