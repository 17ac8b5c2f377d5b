// Package tuple implements the flat bytecode-to-tuple decoding pass (spec §4.1): a single linear walk
// over a method's bytecode array that emits one positional Tuple per instruction, keyed by its PC.
package tuple

import (
	"fmt"
	"iotac/src/classfile"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Category classifies a Tuple by its operand shape, per spec §3.
type Category int

const (
	NoArg      Category = iota // No operand: DUP, POP, INEG, IADD, ISUB, IMUL, IDIV, IREM, RETURN, IRETURN.
	ConstLoad                  // Constant load: ICONST_0, ICONST_1, LDC.
	LocalSlot                  // Load/store with a local variable index: ILOAD, ISTORE.
	Branch                     // Branch with a resolved absolute target PC: GOTO, IFEQ, IFNE, IF_ICMP*.
	StaticCall                 // Resolved static call: INVOKESTATIC.
)

// Tuple is the positional decoding of one bytecode instruction. isLeader is mutated only by the CFG
// builder (spec §3); every other field is fixed at decode time.
type Tuple struct {
	PC       int
	Op       byte
	Category Category
	IntValue int    // Constant value (ConstLoad) or local index (LocalSlot).
	Target   int    // Absolute target PC (Branch only); resolved here, never re-resolved later.
	CallName string // StaticCall only.
	CallDesc string // StaticCall only.
	IsBuiltin bool  // StaticCall only: true if (CallName, CallDesc) identifies read()/write().
	IsLeader bool
}

// ---------------------
// ----- functions -----
// ---------------------

// Decode walks the bytecode array of a method and returns its tuples in program order. Malformed
// bytecode is an internal-compiler error (spec §7): the front end is assumed to have already validated
// the method, so decode failures here indicate a bug in this module's caller, not user input.
func Decode(code []byte) ([]Tuple, error) {
	tuples := make([]Tuple, 0, len(code))
	for pc := 0; pc < len(code); {
		op := code[pc]
		switch op {
		case classfile.OpIConst0:
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: ConstLoad, IntValue: 0})
			pc++
		case classfile.OpIConst1:
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: ConstLoad, IntValue: 1})
			pc++
		case classfile.OpLdc:
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("internal error: truncated LDC at pc %d", pc)
			}
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: ConstLoad, IntValue: int(int8(code[pc+1]))})
			pc += 2
		case classfile.OpILoad, classfile.OpIStore:
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("internal error: truncated local-index opcode at pc %d", pc)
			}
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: LocalSlot, IntValue: int(code[pc+1])})
			pc += 2
		case classfile.OpDup, classfile.OpPop, classfile.OpINeg,
			classfile.OpIAdd, classfile.OpISub, classfile.OpIMul, classfile.OpIDiv, classfile.OpIRem,
			classfile.OpReturn, classfile.OpIReturn:
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: NoArg})
			pc++
		case classfile.OpGoto, classfile.OpIfEq, classfile.OpIfNe,
			classfile.OpIfICmpEq, classfile.OpIfICmpNe, classfile.OpIfICmpLt,
			classfile.OpIfICmpLe, classfile.OpIfICmpGt, classfile.OpIfICmpGe:
			if pc+2 >= len(code) {
				return nil, fmt.Errorf("internal error: truncated branch at pc %d", pc)
			}
			off := int16(uint16(code[pc+1])<<8 | uint16(code[pc+2]))
			tuples = append(tuples, Tuple{PC: pc, Op: op, Category: Branch, Target: pc + int(off)})
			pc += 3
		case classfile.OpInvokeStatic:
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("internal error: truncated INVOKESTATIC at pc %d", pc)
			}
			nlen := int(code[pc+1])
			start := pc + 2
			if start+nlen >= len(code) {
				return nil, fmt.Errorf("internal error: truncated INVOKESTATIC name at pc %d", pc)
			}
			name := string(code[start : start+nlen])
			dlenIdx := start + nlen
			dlen := int(code[dlenIdx])
			dstart := dlenIdx + 1
			if dstart+dlen > len(code) {
				return nil, fmt.Errorf("internal error: truncated INVOKESTATIC descriptor at pc %d", pc)
			}
			desc := string(code[dstart : dstart+dlen])
			tuples = append(tuples, Tuple{
				PC: pc, Op: op, Category: StaticCall,
				CallName: name, CallDesc: desc,
				IsBuiltin: classfile.IsBuiltin(name, desc),
			})
			pc = dstart + dlen
		default:
			return nil, fmt.Errorf("internal error: unexpected opcode %d at pc %d", op, pc)
		}
	}
	return tuples, nil
}
