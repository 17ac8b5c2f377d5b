package cfg

// ResolveCopies inserts the register copies that give every surviving phi its value, per spec §4.5. It
// must run after LowerToLIR has processed every block in the CFG, since a loop-head phi's back-edge
// argument only becomes lowerable once its loop tail has been visited.
func ResolveCopies(g *ControlFlowGraph) error {
	for _, b := range g.blocks {
		for _, hv := range b.HIR {
			phi, ok := hv.(*HIRPhi)
			if !ok {
				continue
			}
			if g.HIR(phi.id) != HIRValue(phi) {
				continue // Collapsed by phi cleanup; nothing to resolve.
			}
			dst := phi.LIR().Reg()
			for i1, arg := range phi.Args {
				pred := b.Predecessors[i1]
				src, err := operandReg(g, arg)
				if err != nil {
					return err
				}
				if src == dst {
					continue
				}
				cp := &LIRCopy{lirBase: lirBase{id: g.nextLIRId(), reg: dst}, Src: src}
				insertBeforeTerminator(pred, cp)
			}
		}
	}
	return nil
}

// insertBeforeTerminator appends lv to b's LIR list, or splices it in immediately before b's terminating
// jump/return when it has one, so the copy always executes on every path out of b (spec §4.5: "before
// any terminating jump").
func insertBeforeTerminator(b *BasicBlock, lv LIRValue) {
	n := len(b.LIR)
	if n > 0 {
		switch b.LIR[n-1].(type) {
		case *LIRJump, *LIRReturn:
			spliced := make([]LIRValue, 0, n+1)
			spliced = append(spliced, b.LIR[:n-1]...)
			spliced = append(spliced, lv, b.LIR[n-1])
			b.LIR = spliced
			return
		}
	}
	b.LIR = append(b.LIR, lv)
}
