package cfg

import (
	"fmt"
	"strings"
)

// HIRValue is one SSA-form HIR instruction (spec §3, §4.3). Every operand is referenced by id through
// the owning ControlFlowGraph's HIR map, never by direct pointer, so that phi cleanup's map-rewrite
// indirection (spec §4.3, §9) transparently rewires every user.
type HIRValue interface {
	ID() int
	Block() *BasicBlock
	DataType() string // "I", "V", or "" when the instruction produces no value.
	LIR() LIRValue     // Cached LIR back-link, set once by HIR->LIR lowering (spec §4.4).
	SetLIR(v LIRValue)
	String() string
}

// base carries the fields shared by every HIR variant.
type base struct {
	id  int
	blk *BasicBlock
	lir LIRValue
}

func (b *base) ID() int           { return b.id }
func (b *base) Block() *BasicBlock { return b.blk }
func (b *base) LIR() LIRValue     { return b.lir }
func (b *base) SetLIR(v LIRValue) { b.lir = v }

// HIRConst is an integer constant (spec §4.3: ICONST_0/ICONST_1/LDC).
type HIRConst struct {
	base
	Value int
}

func (c *HIRConst) DataType() string { return "I" }
func (c *HIRConst) String() string   { return fmt.Sprintf("%%%d = const %d", c.id, c.Value) }

// HIRParam is a formal-parameter load, materialized once per parameter in the entry block (spec §4.3).
type HIRParam struct {
	base
	Index int
	Typ   string
}

func (p *HIRParam) DataType() string { return p.Typ }
func (p *HIRParam) String() string   { return fmt.Sprintf("%%%d = param %d", p.id, p.Index) }

// Arithmetic opcode names used by HIRArith; these mirror the bytecode mnemonics from spec §4.3.
const (
	OpIAdd = "IADD"
	OpISub = "ISUB"
	OpIMul = "IMUL"
	OpIDiv = "IDIV"
	OpIRem = "IREM"
)

// HIRArith is a binary arithmetic instruction. INEG is rewritten at translation time into
// ((-1) * operand), per spec §4.3, so there is no unary HIR variant.
type HIRArith struct {
	base
	Op       string
	LHS, RHS int // Operand HIR ids.
}

func (a *HIRArith) DataType() string { return "I" }
func (a *HIRArith) String() string {
	return fmt.Sprintf("%%%d = %s %%%d, %%%d", a.id, a.Op, a.LHS, a.RHS)
}

// Relational opcodes for HIRJump's conditional form, mirroring spec §4.3's IF_ICMP family plus the
// compare-with-zero rewrite of IFEQ/IFNE.
const (
	CmpEq = "IF_ICMPEQ"
	CmpNe = "IF_ICMPNE"
	CmpLt = "IF_ICMPLT"
	CmpLe = "IF_ICMPLE"
	CmpGt = "IF_ICMPGT"
	CmpGe = "IF_ICMPGE"
)

// HIRJump is a control-flow transfer: unconditional (FalseBlock is nil, LHS/RHS are -1) or conditional.
type HIRJump struct {
	base
	Op                  string // "" for unconditional (GOTO).
	LHS, RHS            int    // -1 when unconditional.
	TrueBlock           *BasicBlock
	FalseBlock          *BasicBlock // nil when unconditional.
}

func (j *HIRJump) DataType() string { return "V" }
func (j *HIRJump) String() string {
	if j.FalseBlock == nil {
		return fmt.Sprintf("goto %s", j.TrueBlock.Name())
	}
	return fmt.Sprintf("if %s %%%d, %%%d -> %s else %s", j.Op, j.LHS, j.RHS, j.TrueBlock.Name(), j.FalseBlock.Name())
}

// HIRCall is a resolved static method call, possibly an I/O builtin (spec §4.3).
type HIRCall struct {
	base
	Name, Desc string
	Args       []int // Argument HIR ids, in declared order.
	RetType    string
	IsIO       bool
}

func (c *HIRCall) DataType() string { return c.RetType }
func (c *HIRCall) String() string {
	parts := make([]string, len(c.Args))
	for i1, a := range c.Args {
		parts[i1] = fmt.Sprintf("%%%d", a)
	}
	prefix := ""
	if c.RetType != "V" {
		prefix = fmt.Sprintf("%%%d = ", c.id)
	}
	return fmt.Sprintf("%scall %s%s(%s)", prefix, c.Name, c.Desc, strings.Join(parts, ", "))
}

// HIRPhi merges a local's value at a control-flow join (spec §3, §4.3). Args is parallel to
// Block().Predecessors: Args[i] is the value flowing in from Predecessors[i], or -1 ("?") until
// resolved.
type HIRPhi struct {
	base
	Args       []int
	BoundLocal int // Local slot index this phi was synthesized for.
	Typ        string
}

func (p *HIRPhi) DataType() string { return p.Typ }
func (p *HIRPhi) String() string {
	parts := make([]string, len(p.Args))
	for i1, a := range p.Args {
		if a < 0 {
			parts[i1] = "?"
		} else {
			parts[i1] = fmt.Sprintf("%%%d", a)
		}
	}
	return fmt.Sprintf("%%%d = phi(%s)", p.id, strings.Join(parts, ", "))
}

// HIRReturn terminates a method, optionally carrying a value (spec §4.3).
type HIRReturn struct {
	base
	Value int // -1 for a value-less return.
	Typ   string
}

func (r *HIRReturn) DataType() string { return "V" }
func (r *HIRReturn) String() string {
	if r.Value < 0 {
		return "return"
	}
	return fmt.Sprintf("return %%%d", r.Value)
}
