package cfg

import (
	"iotac/src/classfile"
	"iotac/src/tuple"
)

// Build constructs the control-flow graph for one method's decoded tuples, per spec §4.2: identify
// leaders, split into maximal blocks, then wire fall-through and taken-branch edges. A synthetic empty
// entry block 0 is created and wired to the first real block so every method has a single predecessor-
// free entry point, even when the first real block is itself a branch target.
func Build(g *ControlFlowGraph, tuples []tuple.Tuple) *ControlFlowGraph {
	entry := g.CreateBlock() // Block 0: synthetic, empty, no predecessors.

	markLeaders(tuples)
	blocks := splitBlocks(g, tuples)
	if len(blocks) > 0 {
		entry.AddSuccessor(blocks[0])
	}

	wireEdges(g, blocks)
	detectLoops(g)
	pruneUnreachable(g)
	return g
}

// markLeaders flags every tuple that begins a basic block: the first tuple, every branch target, and
// every tuple immediately following a branch or return (spec §4.2).
func markLeaders(tuples []tuple.Tuple) {
	if len(tuples) == 0 {
		return
	}
	tuples[0].IsLeader = true
	byPC := make(map[int]int, len(tuples))
	for i1, t := range tuples {
		byPC[t.PC] = i1
	}
	for i1, t := range tuples {
		switch {
		case t.Category == tuple.Branch:
			if idx, ok := byPC[t.Target]; ok {
				tuples[idx].IsLeader = true
			}
			if i1+1 < len(tuples) {
				tuples[i1+1].IsLeader = true
			}
		case t.Op == classfile.OpIReturn, t.Op == classfile.OpReturn:
			if i1+1 < len(tuples) {
				tuples[i1+1].IsLeader = true
			}
		}
	}
}

// splitBlocks groups tuples into BasicBlocks at each leader boundary and returns the blocks in program
// order.
func splitBlocks(g *ControlFlowGraph, tuples []tuple.Tuple) []*BasicBlock {
	var blocks []*BasicBlock
	var cur *BasicBlock
	for _, t := range tuples {
		if t.IsLeader || cur == nil {
			cur = g.CreateBlock()
			blocks = append(blocks, cur)
		}
		cur.Tuples = append(cur.Tuples, t)
	}
	return blocks
}

// wireEdges connects each block to its fall-through and/or taken-branch successor(s), per spec §4.2.
func wireEdges(g *ControlFlowGraph, blocks []*BasicBlock) {
	byLeaderPC := make(map[int]*BasicBlock, len(blocks))
	for _, b := range blocks {
		byLeaderPC[b.Tuples[0].PC] = b
	}
	for i1, b := range blocks {
		last := b.Tuples[len(b.Tuples)-1]
		switch {
		case last.Category == tuple.Branch && isUnconditional(last.Op):
			b.AddSuccessor(byLeaderPC[last.Target])
		case last.Category == tuple.Branch:
			b.AddSuccessor(byLeaderPC[last.Target])
			if i1+1 < len(blocks) {
				b.AddSuccessor(blocks[i1+1])
			}
		case isReturn(last.Op):
			// No successors: method exit.
		default:
			if i1+1 < len(blocks) {
				b.AddSuccessor(blocks[i1+1])
			}
		}
	}
}

func isUnconditional(op byte) bool {
	return op == classfile.OpGoto
}

func isReturn(op byte) bool {
	return op == classfile.OpIReturn || op == classfile.OpReturn
}
