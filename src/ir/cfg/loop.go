package cfg

// detectLoops walks the CFG depth-first from the entry block, flagging natural loops by their back
// edges: an edge from an "active" (currently on the DFS stack) block to an ancestor is a back edge, and
// its target is a loop head, its source a loop tail (spec §4.2). No dominance computation is performed;
// this is the same shortcut the HIR builder takes for phi placement (spec §9).
func detectLoops(g *ControlFlowGraph) {
	if len(g.blocks) == 0 {
		return
	}
	var walk func(b *BasicBlock)
	walk = func(b *BasicBlock) {
		b.visited = true
		b.active = true
		for _, s := range b.Successors {
			if s.active {
				s.IsLoopHead = true
				b.IsLoopTail = true
				continue
			}
			if !s.visited {
				walk(s)
			}
		}
		b.active = false
	}
	walk(g.blocks[0])
}

// pruneUnreachable removes, from every remaining block's predecessor list, any predecessor that DFS
// never reached from the entry block. Dead code can appear after GOTOs to other dead code, and such
// blocks must never contribute a phi operand (spec §4.2).
func pruneUnreachable(g *ControlFlowGraph) {
	reachable := make(map[*BasicBlock]bool, len(g.blocks))
	for _, b := range g.blocks {
		if b.visited {
			reachable[b] = true
		}
	}
	var kept []*BasicBlock
	for _, b := range g.blocks {
		if !reachable[b] {
			continue
		}
		var preds []*BasicBlock
		for _, p := range b.Predecessors {
			if reachable[p] {
				preds = append(preds, p)
			}
		}
		b.Predecessors = preds
		kept = append(kept, b)
	}
	g.blocks = kept
}
