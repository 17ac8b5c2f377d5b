package marvin

import (
	"fmt"

	"iotac/src/ir/cfg"
)

// trampolineSize is the number of instructions reserved for the program header: a call into main and a
// halt, at PCs 0 and 1 (spec §4.10).
const trampolineSize = 2

// mainNameAndDesc is the entry point the trampoline calls into.
const mainNameAndDesc = "main()V"

// Program is a fully linked set of methods: every instruction carries its final process-wide PC and
// every jump/call operand has been resolved to an absolute address (spec §4.10).
type Program struct {
	Trampoline []cfg.MarvinInst
	Methods    []*cfg.ControlFlowGraph
}

// Link assigns a single monotonically increasing PC counter across every method's instructions, starting
// after the trampoline, then resolves every pending jump and call target against the address table it
// built along the way. Linking only runs once every method has been through Select and BuildFrame.
func Link(methods []*cfg.ControlFlowGraph) (*Program, error) {
	pc := trampolineSize
	methodEntry := make(map[string]int, len(methods))
	blockPC := make(map[*cfg.BasicBlock]int)

	for _, g := range methods {
		nameAndDesc := g.Method.NameAndDesc()
		for bi, b := range g.Blocks() {
			if len(b.Marvin) == 0 {
				continue
			}
			blockPC[b] = pc
			if bi == 0 {
				methodEntry[nameAndDesc] = pc
			}
			for i1 := range b.Marvin {
				b.Marvin[i1].PC = pc
				pc++
			}
		}
	}

	for _, g := range methods {
		for _, b := range g.Blocks() {
			for i1 := range b.Marvin {
				in := &b.Marvin[i1]
				if in.JumpTarget != nil {
					target, ok := blockPC[in.JumpTarget]
					if !ok {
						return nil, fmt.Errorf("internal error: jump target %s has no assigned address", in.JumpTarget.Name())
					}
					in.Operands = append(in.Operands, fmt.Sprint(target))
				}
				if in.CallTarget != "" {
					target, ok := methodEntry[in.CallTarget]
					if !ok {
						return nil, fmt.Errorf("internal error: call to undefined method %s", in.CallTarget)
					}
					in.Operands = append(in.Operands, fmt.Sprint(target))
				}
			}
		}
	}

	mainPC, ok := methodEntry[mainNameAndDesc]
	if !ok {
		return nil, fmt.Errorf("internal error: program has no %s entry point", mainNameAndDesc)
	}
	trampoline := []cfg.MarvinInst{
		{PC: 0, Mnemonic: cfg.MnemCalln, Operands: []string{reg(cfg.RA), fmt.Sprint(mainPC)}, Comment: mainNameAndDesc},
		{PC: 1, Mnemonic: cfg.MnemHalt},
	}

	return &Program{Trampoline: trampoline, Methods: methods}, nil
}
