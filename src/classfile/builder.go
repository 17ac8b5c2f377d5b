package classfile

import "encoding/binary"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder assembles one method's linear bytecode, mirroring the teacher's block-builder style
// (CreateAdd/CreateSub/... in ir/lir/block.go) but for raw opcode bytes instead of LIR values.
// It exists to let the CLI and tests produce class-file-like input without a real JVM-bytecode
// emitter, which spec §1 places out of scope.
type Builder struct {
	code []byte
}

// ---------------------
// ----- functions -----
// ---------------------

// NewBuilder returns an empty method bytecode builder.
func NewBuilder() *Builder {
	return &Builder{code: make([]byte, 0, 64)}
}

// PC returns the current byte offset, i.e. the PC the next emitted instruction will receive.
func (b *Builder) PC() int {
	return len(b.code)
}

func (b *Builder) op(code byte) {
	b.code = append(b.code, code)
}

func (b *Builder) op1(code, arg byte) {
	b.code = append(b.code, code, arg)
}

func (b *Builder) branch(code byte, target int) {
	off := int16(target - len(b.code))
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(off))
	b.code = append(b.code, code, buf[0], buf[1])
}

// IConst0/IConst1 push the integer constants 0 and 1.
func (b *Builder) IConst0() { b.op(OpIConst0) }
func (b *Builder) IConst1() { b.op(OpIConst1) }

// Ldc pushes the integer constant i (assumed resolved out-of-band; only the value is kept here).
func (b *Builder) Ldc(i int) { b.op1(OpLdc, byte(i)) }

// ILoad/IStore push/pop local slot i.
func (b *Builder) ILoad(i int)  { b.op1(OpILoad, byte(i)) }
func (b *Builder) IStore(i int) { b.op1(OpIStore, byte(i)) }

// Dup/Pop duplicate/discard the top of the operand stack.
func (b *Builder) Dup() { b.op(OpDup) }
func (b *Builder) Pop() { b.op(OpPop) }

// INeg/IAdd/ISub/IMul/IDiv/IRem are the arithmetic opcodes.
func (b *Builder) INeg() { b.op(OpINeg) }
func (b *Builder) IAdd() { b.op(OpIAdd) }
func (b *Builder) ISub() { b.op(OpISub) }
func (b *Builder) IMul() { b.op(OpIMul) }
func (b *Builder) IDiv() { b.op(OpIDiv) }
func (b *Builder) IRem() { b.op(OpIRem) }

// Goto/IfEq/IfNe/IfICmp* emit branches to an absolute target PC.
func (b *Builder) Goto(target int)      { b.branch(OpGoto, target) }
func (b *Builder) IfEq(target int)      { b.branch(OpIfEq, target) }
func (b *Builder) IfNe(target int)      { b.branch(OpIfNe, target) }
func (b *Builder) IfICmpEq(target int)  { b.branch(OpIfICmpEq, target) }
func (b *Builder) IfICmpNe(target int)  { b.branch(OpIfICmpNe, target) }
func (b *Builder) IfICmpLt(target int)  { b.branch(OpIfICmpLt, target) }
func (b *Builder) IfICmpLe(target int)  { b.branch(OpIfICmpLe, target) }
func (b *Builder) IfICmpGt(target int)  { b.branch(OpIfICmpGt, target) }
func (b *Builder) IfICmpGe(target int)  { b.branch(OpIfICmpGe, target) }

// InvokeStatic emits a resolved static call; nargs is derived by the caller from the descriptor.
func (b *Builder) InvokeStatic(name, desc string) {
	b.code = append(b.code, OpInvokeStatic)
	nameBytes := []byte(name)
	descBytes := []byte(desc)
	b.code = append(b.code, byte(len(nameBytes)))
	b.code = append(b.code, nameBytes...)
	b.code = append(b.code, byte(len(descBytes)))
	b.code = append(b.code, descBytes...)
}

// Return/IReturn terminate the method.
func (b *Builder) Return()  { b.op(OpReturn) }
func (b *Builder) IReturn() { b.op(OpIReturn) }

// Code returns the assembled bytecode.
func (b *Builder) Code() []byte {
	return b.code
}

// Raw appends an already-assembled byte sequence verbatim, for splicing a sub-sequence whose length had
// to be known in advance to compute an enclosing branch target.
func (b *Builder) Raw(code []byte) {
	b.code = append(b.code, code...)
}
