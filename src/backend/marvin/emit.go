package marvin

import "iotac/src/util"

// Emit writes a linked Program as the textual .marv program spec §6 describes: the trampoline, then
// each method under a "# name+desc" header, each of its blocks under a "# Bk" header, one instruction
// per line with its PC, mnemonic, operands and an optional trailing comment.
func Emit(w *util.Writer, p *Program) {
	for _, in := range p.Trampoline {
		w.Inst(in.PC, in.Mnemonic, in.Comment, in.Operands...)
	}
	w.Blank()

	for _, g := range p.Methods {
		w.MethodHeader(g.Method.NameAndDesc())
		for _, b := range g.Blocks() {
			if len(b.Marvin) == 0 {
				continue
			}
			w.BlockHeader(b.Name())
			for _, in := range b.Marvin {
				w.Inst(in.PC, in.Mnemonic, in.Comment, in.Operands...)
			}
		}
		w.Blank()
	}
	w.Flush()
}
