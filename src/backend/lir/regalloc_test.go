package lir_test

import (
	"testing"

	backendlir "iotac/src/backend/lir"
	"iotac/src/classfile"
	"iotac/src/ir/cfg"
	"iotac/src/liveness"
	"iotac/src/tuple"
)

// manyLiveConstants builds a method that pushes sixteen constants before consuming any of them (a
// reduction sum), so all sixteen are simultaneously live right before the first IADD -- more than
// Marvin's twelve temporaries, per spec §8 property/scenario S6.
func manyLiveConstants(t *testing.T) classfile.Method {
	t.Helper()
	b := classfile.NewBuilder()
	for i1 := 0; i1 < 16; i1++ {
		b.Ldc(i1)
	}
	for i1 := 0; i1 < 15; i1++ {
		b.IAdd()
	}
	b.IReturn()
	d, err := classfile.ParseDescriptor("()I")
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	return classfile.Method{Name: "sum16", Desc: d, RawDesc: "()I", MaxLocals: 0, Code: b.Code()}
}

func compile(t *testing.T, m classfile.Method) *cfg.ControlFlowGraph {
	t.Helper()
	tuples, err := tuple.Decode(m.Code)
	if err != nil {
		t.Fatalf("tuple.Decode: %v", err)
	}
	g := cfg.NewControlFlowGraph(m)
	if err := cfg.RunFrontend(g, tuples); err != nil {
		t.Fatalf("RunFrontend: %v", err)
	}
	liveness.Analyze(g)
	return g
}

// TestNaiveAllocatorSpillsUnderPressure verifies testable properties 6 and 7 for the default naive
// circular allocator: every virtual register ends up assigned a physical register, at least one is
// spilled when pressure exceeds twelve temporaries, and at least one spill load or store materializes.
func TestNaiveAllocatorSpillsUnderPressure(t *testing.T) {
	g := compile(t, manyLiveConstants(t))
	if err := backendlir.AllocateRegisters(g, false); err != nil {
		t.Fatalf("AllocateRegisters: %v", err)
	}
	checkAllocationTotal(t, g)
	checkAtLeastOneSpill(t, g)
	checkSpillMaterialized(t, g)
}

// TestGraphColorAllocatorSpillsUnderPressure exercises the -g alternative allocator (SPEC_FULL's
// implemented Chaitin-style stand-in for the spec's declared-but-empty graph-coloring strategy) against
// the same contract.
func TestGraphColorAllocatorSpillsUnderPressure(t *testing.T) {
	g := compile(t, manyLiveConstants(t))
	if err := backendlir.AllocateRegisters(g, true); err != nil {
		t.Fatalf("AllocateRegisters(graphColor): %v", err)
	}
	checkAllocationTotal(t, g)
	checkAtLeastOneSpill(t, g)
	checkSpillMaterialized(t, g)
}

// TestNaiveAllocatorNeverLeavesResidentSharingPhysicalWithSpill guards against a miscompile: a spilled
// virtual is reloaded into its assigned Physical immediately before each use, so if another virtual with
// an overlapping live range still holds that same Physical and is NOT itself spilled, the reload
// clobbers the resident's value. Every colliding pair must therefore be spilled on both sides.
func TestNaiveAllocatorNeverLeavesResidentSharingPhysicalWithSpill(t *testing.T) {
	g := compile(t, manyLiveConstants(t))
	if err := backendlir.AllocateRegisters(g, false); err != nil {
		t.Fatalf("AllocateRegisters: %v", err)
	}
	checkNoResidentSharesSpilledPhysical(t, g)
}

// TestGraphColorAllocatorNeverLeavesResidentSharingPhysicalWithSpill exercises the same contract against
// the -g allocator, whose select phase gives interfering colored nodes disjoint physicals and, when a node
// cannot be colored, spills it together with any interfering resident holder of the physical it reloads into.
func TestGraphColorAllocatorNeverLeavesResidentSharingPhysicalWithSpill(t *testing.T) {
	g := compile(t, manyLiveConstants(t))
	if err := backendlir.AllocateRegisters(g, true); err != nil {
		t.Fatalf("AllocateRegisters(graphColor): %v", err)
	}
	checkNoResidentSharesSpilledPhysical(t, g)
}

func checkNoResidentSharesSpilledPhysical(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	regs := make([]int, 0, len(g.Registers))
	for r := range g.Registers {
		regs = append(regs, r)
	}
	for i1 := 0; i1 < len(regs); i1++ {
		for j := i1 + 1; j < len(regs); j++ {
			r1, r2 := regs[i1], regs[j]
			info1, info2 := g.Registers[r1], g.Registers[r2]
			if !info1.Assigned || !info2.Assigned || info1.Physical != info2.Physical {
				continue
			}
			iv1, iv2 := g.Intervals[r1], g.Intervals[r2]
			if iv1 == nil || iv2 == nil || !intervalsOverlap(iv1, iv2) {
				continue
			}
			if !info1.Spilled || !info2.Spilled {
				t.Errorf("virtuals %d and %d share physical %d and overlap, but only one is spilled (spilled1=%v, spilled2=%v): a reload of the spilled one would clobber the resident", r1, r2, info1.Physical, info1.Spilled, info2.Spilled)
			}
		}
	}
}

// intervalsOverlap mirrors the allocator's own overlap test (regalloc.go's unexported overlaps), kept
// separate here since this file lives in the external lir_test package.
func intervalsOverlap(a, b *cfg.Interval) bool {
	for _, ra := range a.Ranges {
		for _, rb := range b.Ranges {
			if ra.Start <= rb.Stop && rb.Start <= ra.Stop {
				return true
			}
		}
	}
	return false
}

func checkAllocationTotal(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	for reg, info := range g.Registers {
		if reg < cfg.FirstVirtual {
			continue
		}
		if _, used := g.Intervals[reg]; !used {
			continue
		}
		if !info.Assigned && !info.Spilled {
			t.Errorf("virtual register %d has neither a physical assignment nor a spill slot", reg)
		}
	}
}

func checkAtLeastOneSpill(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	for _, info := range g.Registers {
		if info.Spilled {
			return
		}
	}
	t.Error("expected at least one spill with 16 simultaneously live registers and 12 temporaries")
}

func checkSpillMaterialized(t *testing.T, g *cfg.ControlFlowGraph) {
	t.Helper()
	var loads, stores int
	for _, b := range g.Blocks() {
		for _, lv := range b.LIR {
			switch lv.(type) {
			case *cfg.LIRLoad:
				loads++
			case *cfg.LIRStore:
				stores++
			}
		}
	}
	if loads == 0 && stores == 0 {
		t.Error("expected at least one spill load or store to be materialized into the LIR stream")
	}
}
