package cfg

import (
	"fmt"
	"strings"
)

// Marvin mnemonics, per spec §3/§4.9. Arithmetic and copy address three or two registers; the "n"
// suffix marks an immediate operand (a constant or an absolute PC) in place of a register.
const (
	MnemAdd   = "add"
	MnemSub   = "sub"
	MnemMul   = "mul"
	MnemDiv   = "div"
	MnemRem   = "rem"
	MnemCopy  = "copy"
	MnemSet0  = "set0"
	MnemSet1  = "set1"
	MnemSetn  = "setn"
	MnemAddn  = "addn"
	MnemJumpr = "jumpr"
	MnemJumpn = "jumpn"
	MnemJeqn  = "jeqn"
	MnemJnen  = "jnen"
	MnemJltn  = "jltn"
	MnemJlen  = "jlen"
	MnemJgtn  = "jgtn"
	MnemJgen  = "jgen"
	MnemLoadn = "loadn"
	MnemPopr  = "popr"
	MnemStoren = "storen"
	MnemPushr = "pushr"
	MnemCalln  = "calln"
	MnemRead   = "read"
	MnemWrite  = "write"
	MnemReturn = "return"
	MnemHalt   = "halt"
)

// MarvinInst is one assembled instruction in the final program, addressed by its process-wide PC (spec
// §3, §4.10). Operands are pre-rendered register/immediate/label text, ready for textual emission.
// JumpTarget and CallTarget are resolved by the linker: until then Operands omits the immediate they
// will eventually contribute.
type MarvinInst struct {
	PC         int
	Mnemonic   string
	Operands   []string
	Comment    string
	JumpTarget *BasicBlock // Non-nil for an unresolved jump; linker appends its block's PC to Operands.
	CallTarget string       // Non-empty "name+desc" for an unresolved call; linker appends the method's entry PC.
}

func (m MarvinInst) String() string {
	s := fmt.Sprintf("%-6d %-8s%s", m.PC, m.Mnemonic, strings.Join(m.Operands, ", "))
	if m.Comment != "" {
		s += "\t# " + m.Comment
	}
	return s
}
