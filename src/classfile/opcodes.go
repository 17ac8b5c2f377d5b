package classfile

// Opcode identifies one JVM-subset bytecode instruction consumed by the tuple decoder (spec §4.1).
// Values are arbitrary but stable within this module; they do not need to match real JVM opcode bytes
// since there is no binary .class reader in this module (see classfile.Builder).
const (
	OpNop byte = iota
	OpIConst0
	OpIConst1
	OpLdc
	OpILoad
	OpIStore
	OpDup
	OpPop
	OpINeg
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpIRem
	OpGoto
	OpIfEq
	OpIfNe
	OpIfICmpEq
	OpIfICmpNe
	OpIfICmpLt
	OpIfICmpLe
	OpIfICmpGt
	OpIfICmpGe
	OpInvokeStatic
	OpReturn
	OpIReturn
)
