package pipeline_test

import (
	"testing"

	"iotac/src/backend/marvin"
	"iotac/src/classfile"
	"iotac/src/ir/cfg"
	"iotac/src/pipeline"
	"iotac/src/util"
)

func desc(t *testing.T, s string) classfile.Descriptor {
	t.Helper()
	d, err := classfile.ParseDescriptor(s)
	if err != nil {
		t.Fatalf("ParseDescriptor(%q): %v", s, err)
	}
	return d
}

// TestCompileAllLinksStraightLineProgram exercises S1: void main(){ write(1+2); }. The linked program
// must carry the two-instruction trampoline calling main()V, followed by a prologue, the add, a write,
// an epilogue and a jumpr RA.
func TestCompileAllLinksStraightLineProgram(t *testing.T) {
	b := classfile.NewBuilder()
	b.Ldc(1)
	b.Ldc(2)
	b.IAdd()
	b.InvokeStatic("write", "(I)V")
	b.Return()

	class := classfile.Class{Methods: []classfile.Method{
		{Name: "main", Desc: desc(t, "()V"), RawDesc: "()V", MaxLocals: 0, Code: b.Code()},
	}}

	prog, err := pipeline.CompileAll(class, util.Options{}, nil)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(prog.Trampoline) != 2 {
		t.Fatalf("trampoline has %d instructions, want 2", len(prog.Trampoline))
	}
	if prog.Trampoline[0].Mnemonic != cfg.MnemCalln || prog.Trampoline[1].Mnemonic != cfg.MnemHalt {
		t.Fatalf("trampoline = %+v, want calln then halt", prog.Trampoline)
	}

	mnems := allMnemonics(prog.Methods[0])
	requireContains(t, mnems, cfg.MnemAdd)
	requireContains(t, mnems, cfg.MnemWrite)
	requireContains(t, mnems, cfg.MnemJumpr) // return-from-method
	requirePCsMonotonic(t, prog)
}

// TestCompileAllResolvesCallAcrossMethods exercises S4: int g(int a){ return a+a; } void main(){
// write(g(3)); }. The caller's calln must resolve to g's entry PC (property 8), and both methods must
// balance their stacks (property 9, checked inline by pipeline.Compile via CheckFrameBalance).
func TestCompileAllResolvesCallAcrossMethods(t *testing.T) {
	gBuilder := classfile.NewBuilder()
	gBuilder.ILoad(0)
	gBuilder.ILoad(0)
	gBuilder.IAdd()
	gBuilder.IReturn()

	mainBuilder := classfile.NewBuilder()
	mainBuilder.Ldc(3)
	mainBuilder.InvokeStatic("g", "(I)I")
	mainBuilder.InvokeStatic("write", "(I)V")
	mainBuilder.Return()

	class := classfile.Class{Methods: []classfile.Method{
		{Name: "g", Desc: desc(t, "(I)I"), RawDesc: "(I)I", MaxLocals: 1, Code: gBuilder.Code()},
		{Name: "main", Desc: desc(t, "()V"), RawDesc: "()V", MaxLocals: 0, Code: mainBuilder.Code()},
	}}

	prog, err := pipeline.CompileAll(class, util.Options{}, nil)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}

	var gEntryPC int
	for _, g := range prog.Methods {
		if g.Method.NameAndDesc() == "g(I)I" {
			gEntryPC = g.Blocks()[0].Marvin[0].PC
		}
	}
	if gEntryPC == 0 {
		t.Fatal("could not find g(I)I's entry PC")
	}

	var sawCallToG bool
	for _, g := range prog.Methods {
		if g.Method.NameAndDesc() != "main()V" {
			continue
		}
		for _, b := range g.Blocks() {
			for _, in := range b.Marvin {
				if in.Mnemonic == cfg.MnemCalln && in.Comment == "g(I)I" {
					sawCallToG = true
					if len(in.Operands) < 2 {
						t.Fatalf("calln to g(I)I has no resolved target operand: %+v", in)
					}
					if in.Operands[1] != itoa(gEntryPC) {
						t.Errorf("calln to g(I)I resolved to %s, want %d", in.Operands[1], gEntryPC)
					}
				}
			}
		}
	}
	if !sawCallToG {
		t.Fatal("main()V never called g(I)I")
	}
}

// TestCompileAllThreaded exercises the parallel per-method compilation path (SPEC_FULL "Multi-method
// parallel compilation"): the same two-method program compiled with opt.Threads > 1 must still compile
// and link both methods.
func TestCompileAllThreaded(t *testing.T) {
	gBuilder := classfile.NewBuilder()
	gBuilder.ILoad(0)
	gBuilder.ILoad(0)
	gBuilder.IAdd()
	gBuilder.IReturn()

	mainBuilder := classfile.NewBuilder()
	mainBuilder.Ldc(3)
	mainBuilder.InvokeStatic("g", "(I)I")
	mainBuilder.InvokeStatic("write", "(I)V")
	mainBuilder.Return()

	class := classfile.Class{Methods: []classfile.Method{
		{Name: "g", Desc: desc(t, "(I)I"), RawDesc: "(I)I", MaxLocals: 1, Code: gBuilder.Code()},
		{Name: "main", Desc: desc(t, "()V"), RawDesc: "()V", MaxLocals: 0, Code: mainBuilder.Code()},
	}}

	prog, err := pipeline.CompileAll(class, util.Options{Threads: 2}, nil)
	if err != nil {
		t.Fatalf("CompileAll(threads=2): %v", err)
	}
	if len(prog.Methods) != 2 {
		t.Fatalf("got %d compiled methods, want 2", len(prog.Methods))
	}
}

// TestCompileAllBuiltinsNeverCompiled verifies spec §6: read()/write() bodies are never compiled even
// when present in the input class.
func TestCompileAllBuiltinsNeverCompiled(t *testing.T) {
	mainBuilder := classfile.NewBuilder()
	mainBuilder.Return()

	class := classfile.Class{Methods: []classfile.Method{
		{Name: "main", Desc: desc(t, "()V"), RawDesc: "()V", MaxLocals: 0, Code: mainBuilder.Code()},
		{Name: "write", Desc: desc(t, "(I)V"), RawDesc: "(I)V", MaxLocals: 1, Code: []byte{0xFF}}, // malformed: would fail decode if compiled.
	}}

	prog, err := pipeline.CompileAll(class, util.Options{}, nil)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	for _, g := range prog.Methods {
		if g.Method.NameAndDesc() == "write(I)V" {
			t.Fatal("write(I)V builtin was compiled; it must be skipped entirely")
		}
	}
}

func allMnemonics(g *cfg.ControlFlowGraph) map[string]bool {
	out := make(map[string]bool)
	for _, b := range g.Blocks() {
		for _, in := range b.Marvin {
			out[in.Mnemonic] = true
		}
	}
	return out
}

func requireContains(t *testing.T, set map[string]bool, mnem string) {
	t.Helper()
	if !set[mnem] {
		t.Errorf("expected mnemonic %q in compiled output, got %v", mnem, set)
	}
}

func requirePCsMonotonic(t *testing.T, prog *marvin.Program) {
	t.Helper()
	prev := -1
	for _, in := range prog.Trampoline {
		if in.PC <= prev {
			t.Fatalf("trampoline PC %d did not increase from %d", in.PC, prev)
		}
		prev = in.PC
	}
	for _, g := range prog.Methods {
		for _, b := range g.Blocks() {
			for _, in := range b.Marvin {
				if in.PC <= prev {
					t.Fatalf("instruction PC %d did not increase from %d", in.PC, prev)
				}
				prev = in.PC
			}
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i1 := len(buf)
	for n > 0 {
		i1--
		buf[i1] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i1--
		buf[i1] = '-'
	}
	return string(buf[i1:])
}
