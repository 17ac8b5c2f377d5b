package cfg

import "fmt"

// LIRValue is one register-transfer instruction produced by lowering HIR (spec §3, §4.4). Unlike HIR,
// LIR operands name registers directly rather than indirecting through ids, since by this stage the
// value numbering that phi cleanup needed to rewrite is already finished.
type LIRValue interface {
	ID() int
	SetID(id int)
	Reg() int       // Destination register, or -1 for instructions that write no register (jumps, store, etc).
	SetReg(reg int) // Rewrites the destination register; used once allocation resolves a virtual to a physical register.
	String() string
}

type lirBase struct {
	id  int
	reg int
}

func (l *lirBase) ID() int        { return l.id }
func (l *lirBase) SetID(id int)   { l.id = id }
func (l *lirBase) Reg() int       { return l.reg }
func (l *lirBase) SetReg(reg int) { l.reg = reg }

// LIRSetConst loads an immediate value into a register (spec §4.4: HIRConst).
type LIRSetConst struct {
	lirBase
	Value int
}

func (v *LIRSetConst) String() string { return fmt.Sprintf("set %s, %d", RegName(v.reg), v.Value) }

// LIRArith performs a binary arithmetic op between two source registers, writing Reg() (spec §4.4:
// HIRArith).
type LIRArith struct {
	lirBase
	Op       string
	LHS, RHS int // Source registers.
}

func (v *LIRArith) String() string {
	return fmt.Sprintf("%s %s, %s, %s", v.Op, RegName(v.reg), RegName(v.LHS), RegName(v.RHS))
}

// LIRCopy moves Src into Reg(), used both for phi resolution's copy insertion (spec §4.5) and for
// trivial register-to-register moves during lowering.
type LIRCopy struct {
	lirBase
	Src int
}

func (v *LIRCopy) String() string { return fmt.Sprintf("copy %s, %s", RegName(v.reg), RegName(v.Src)) }

// LIRIncConst adds a compile-time constant to Reg() in place. No pass in this module constructs one;
// instruction selection lowers it to addn.
type LIRIncConst struct {
	lirBase
	Delta int
}

func (v *LIRIncConst) String() string { return fmt.Sprintf("addn %s, %d", RegName(v.reg), v.Delta) }

// LIRJump is an unconditional or conditional control transfer (spec §4.4: HIRJump).
type LIRJump struct {
	lirBase
	Op         string // "" for unconditional.
	LHS, RHS   int    // Source registers, -1 when unconditional.
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock // nil when unconditional.
}

func (v *LIRJump) String() string {
	if v.FalseBlock == nil {
		return fmt.Sprintf("jump %s", v.TrueBlock.Name())
	}
	return fmt.Sprintf("%s %s, %s, %s", v.Op, RegName(v.LHS), RegName(v.RHS), v.TrueBlock.Name())
}

// LIRLoad reads a value from a parameter/spill slot at a fixed frame offset into Reg() (spec §4.4,
// §4.10: parameters addressed at FP-(k+3); spills addressed relative to SP by the allocator).
type LIRLoad struct {
	lirBase
	Base   int // FP or SP.
	Offset int
}

func (v *LIRLoad) String() string {
	return fmt.Sprintf("load %s, %s[%d]", RegName(v.reg), RegName(v.Base), v.Offset)
}

// NewLIRLoad builds a spill reload at a specific LIR id, for insertion into the gap stride-5 renumbering
// left beside the instruction it feeds (spec §4.8).
func NewLIRLoad(id, reg, base, offset int) *LIRLoad {
	return &LIRLoad{lirBase: lirBase{id: id, reg: reg}, Base: base, Offset: offset}
}

// LIRStore writes Src to a fixed frame offset (spec §4.4, §4.8: spill stores).
type LIRStore struct {
	lirBase
	Base   int
	Offset int
	Src    int
}

func (v *LIRStore) String() string {
	return fmt.Sprintf("store %s[%d], %s", RegName(v.Base), v.Offset, RegName(v.Src))
}

// NewLIRStore builds a spill store at a specific LIR id, for insertion into the gap stride-5 renumbering
// left beside the instruction it guards (spec §4.8).
func NewLIRStore(id, base, offset, src int) *LIRStore {
	return &LIRStore{lirBase: lirBase{id: id, reg: -1}, Base: base, Offset: offset, Src: src}
}

// LIRCall is a resolved static call; Args are source registers in declared order, and Reg() receives the
// callee's return value unless the call is value-less (spec §4.4: HIRCall).
type LIRCall struct {
	lirBase
	Name, Desc string
	Args       []int
	HasResult  bool
}

func (v *LIRCall) String() string {
	return fmt.Sprintf("call %s%s -> %s", v.Name, v.Desc, RegName(v.reg))
}

// LIRReturn terminates the method, optionally moving Value into RV first (spec §4.4: HIRReturn).
type LIRReturn struct {
	lirBase
	Value int // -1 for a value-less return.
}

func (v *LIRReturn) String() string {
	if v.Value < 0 {
		return "return"
	}
	return fmt.Sprintf("return %s", RegName(v.Value))
}

// LIRRead is the built-in read()I: reads one integer from the program's input stream into Reg().
type LIRRead struct {
	lirBase
}

func (v *LIRRead) String() string { return fmt.Sprintf("read %s", RegName(v.reg)) }

// LIRWrite is the built-in write(I)V/write(Z)V: writes Src to the program's output stream.
type LIRWrite struct {
	lirBase
	Src int
}

func (v *LIRWrite) String() string { return fmt.Sprintf("write %s", RegName(v.Src)) }
