package cfg_test

import (
	"testing"

	"iotac/src/classfile"
	"iotac/src/ir/cfg"
	"iotac/src/tuple"
)

func mustDesc(t *testing.T, s string) classfile.Descriptor {
	t.Helper()
	d, err := classfile.ParseDescriptor(s)
	if err != nil {
		t.Fatalf("ParseDescriptor(%q): %v", s, err)
	}
	return d
}

func buildMethod(t *testing.T, name, desc string, maxLocals int, code []byte) classfile.Method {
	t.Helper()
	return classfile.Method{Name: name, Desc: mustDesc(t, desc), RawDesc: desc, MaxLocals: maxLocals, Code: code}
}

func runFrontend(t *testing.T, m classfile.Method) *cfg.ControlFlowGraph {
	t.Helper()
	tuples, err := tuple.Decode(m.Code)
	if err != nil {
		t.Fatalf("tuple.Decode: %v", err)
	}
	g := cfg.NewControlFlowGraph(m)
	if err := cfg.RunFrontend(g, tuples); err != nil {
		t.Fatalf("RunFrontend: %v", err)
	}
	return g
}

// checkWellFormed verifies testable property 1: predecessor/successor edges agree both ways, and every
// block is reachable from block 0.
func checkWellFormed(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	blocks := g.Blocks()
	index := make(map[*cfg.BasicBlock]int, len(blocks))
	for i1, b := range blocks {
		index[b] = i1
	}
	for _, b := range blocks {
		for _, s := range b.Successors {
			found := false
			for _, p := range s.Predecessors {
				if p == b {
					found = true
				}
			}
			if !found {
				t.Errorf("%s -> %s but %s not in %s.Predecessors", b.Name(), s.Name(), b.Name(), s.Name())
			}
		}
		for _, p := range b.Predecessors {
			found := false
			for _, s := range p.Successors {
				if s == b {
					found = true
				}
			}
			if !found {
				t.Errorf("%s has predecessor %s but %s not in %s.Successors", b.Name(), p.Name(), b.Name(), p.Name())
			}
		}
	}
	reachable := map[*cfg.BasicBlock]bool{blocks[0]: true}
	queue := []*cfg.BasicBlock{blocks[0]}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range b.Successors {
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	for _, b := range blocks {
		if !reachable[b] {
			t.Errorf("block %s survived pruning but is not reachable from entry", b.Name())
		}
	}
}

// checkLeaderContract verifies testable property 2: exactly the first tuple of each non-empty block is
// a leader.
func checkLeaderContract(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	for _, b := range g.Blocks() {
		for i1, tup := range b.Tuples {
			if i1 == 0 && !tup.IsLeader {
				t.Errorf("%s: first tuple (pc=%d) is not marked leader", b.Name(), tup.PC)
			}
			if i1 > 0 && tup.IsLeader {
				t.Errorf("%s: non-first tuple (pc=%d) is marked leader", b.Name(), tup.PC)
			}
		}
	}
}

// S1: void main(){ write(1+2); } -- straight line, no branches.
func TestStraightLineNoBranches(t *testing.T) {
	b := classfile.NewBuilder()
	b.Ldc(1)
	b.Ldc(2)
	b.IAdd()
	b.InvokeStatic("write", "(I)V")
	b.Return()
	g := runFrontend(t, buildMethod(t, "main", "()V", 0, b.Code()))

	checkWellFormed(t, g)
	checkLeaderContract(t, g)

	if len(g.Blocks()) != 2 {
		t.Fatalf("expected synthetic entry + one real block, got %d blocks", len(g.Blocks()))
	}
	real := g.Blocks()[1]
	var gotCall, gotAdd bool
	for _, hv := range real.HIR {
		switch v := hv.(type) {
		case *cfg.HIRCall:
			gotCall = v.IsIO && v.Name == "write"
		case *cfg.HIRArith:
			gotAdd = v.Op == cfg.OpIAdd
		}
	}
	if !gotAdd {
		t.Error("expected an IADD HIR instruction")
	}
	if !gotCall {
		t.Error("expected a write() IO call HIR instruction")
	}
}

// S2: int f(int x){ if (x==0) return 1; else return 2; } -- conditional, no phi over the two IRETURNs
// since each arm leaves exactly one value on the stack before returning, and each return is in its own
// block.
func TestConditionalReturnsNoPhi(t *testing.T) {
	b := classfile.NewBuilder()
	b.ILoad(0)
	pc := b.PC()
	target := pc + 3 + 2 + 1 // ifeq + ldc + ireturn
	b.IfEq(target)
	b.Ldc(2)
	b.IReturn()
	b.Ldc(1)
	b.IReturn()

	g := runFrontend(t, buildMethod(t, "f", "(I)I", 1, b.Code()))
	checkWellFormed(t, g)
	checkLeaderContract(t, g)

	returns := 0
	for _, bl := range g.Blocks() {
		for _, hv := range bl.HIR {
			if _, ok := hv.(*cfg.HIRPhi); ok {
				t.Errorf("unexpected phi in %s: S2 must not synthesize a phi over the two IRETURNs", bl.Name())
			}
			if _, ok := hv.(*cfg.HIRReturn); ok {
				returns++
			}
		}
	}
	if returns != 2 {
		t.Errorf("expected 2 HIRReturn instructions, got %d", returns)
	}
}

// S3: int sum(int n){ int i=0; int s=0; while(i<n){ s=s+i; i=i+1; } return s; } -- loop head has two
// predecessors (entry and back edge); two phis survive cleanup (for i and s).
func TestLoopCarriesPhis(t *testing.T) {
	b := classfile.NewBuilder()
	// locals: 0=n (param), 1=i, 2=s
	b.Ldc(0)
	b.IStore(1) // i=0
	b.Ldc(0)
	b.IStore(2) // s=0
	headPC := b.PC()

	// Lay out the loop body bytes separately to learn its length before emitting the branch that
	// skips over it (i >= n exits the loop, the JVM-style complement of "while (i < n)").
	body := classfile.NewBuilder()
	body.ILoad(2)
	body.ILoad(1)
	body.IAdd()
	body.IStore(2) // s = s + i
	body.ILoad(1)
	body.Ldc(1)
	body.IAdd()
	body.IStore(1) // i = i + 1
	bodyLen := len(body.Code())

	condLen := 2 + 2 + 3 // iload, iload, ifICmpGe
	bodyStart := headPC + condLen
	afterBody := bodyStart + bodyLen
	gotoHeadLen := 3
	exitTarget := afterBody + gotoHeadLen

	b.ILoad(1)
	b.ILoad(0)
	b.IfICmpGe(exitTarget)
	b.Raw(body.Code())
	b.Goto(headPC)
	b.ILoad(2)
	b.IReturn()

	g := runFrontend(t, buildMethod(t, "sum", "(I)I", 3, b.Code()))
	checkWellFormed(t, g)
	checkLeaderContract(t, g)

	var loopHeads int
	var survivingPhis int
	for _, bl := range g.Blocks() {
		if bl.IsLoopHead {
			loopHeads++
			if len(bl.Predecessors) != 2 {
				t.Errorf("loop head %s has %d predecessors, want 2", bl.Name(), len(bl.Predecessors))
			}
		}
		for _, hv := range bl.HIR {
			if phi, ok := hv.(*cfg.HIRPhi); ok {
				if g.HIR(phi.ID()) == cfg.HIRValue(phi) {
					survivingPhis++
				}
			}
		}
	}
	if loopHeads == 0 {
		t.Fatal("expected at least one loop head to be detected")
	}
	if survivingPhis < 2 {
		t.Errorf("expected at least 2 surviving phis (i and s), got %d", survivingPhis)
	}
}

// S5: code after an unconditional return is unreachable and must be pruned before HIR construction.
func TestDeadCodeAfterReturnIsPruned(t *testing.T) {
	b := classfile.NewBuilder()
	b.Return()
	deadPC := b.PC()
	b.Ldc(1)
	b.Pop()
	b.Return()
	_ = deadPC

	g := runFrontend(t, buildMethod(t, "main", "()V", 0, b.Code()))
	checkWellFormed(t, g)

	for _, bl := range g.Blocks() {
		for _, tup := range bl.Tuples {
			if tup.PC >= deadPC {
				t.Errorf("dead tuple at pc=%d survived pruning in %s", tup.PC, bl.Name())
			}
		}
	}
}
