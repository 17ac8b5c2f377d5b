// Package regfile models Marvin's fixed 16-register file (spec §3): twelve general-purpose temporaries
// plus RA, RV, FP and SP. It replaces the teacher's per-architecture RegisterFile interface (which had
// to abstract over ARM/RISC-V's larger, integer-and-float register banks) with a single concrete type,
// since Marvin has exactly one register class and exactly one layout.
package regfile

import "iotac/src/ir/cfg"

// File tracks which of Marvin's twelve general-purpose temporaries are currently allocated. It backs
// the graph-coloring allocator in backend/lir; the naive circular allocator keeps its own free list.
type File struct {
	used [cfg.NumTemps]bool
	next int // Circular cursor from which Alloc resumes its search.
}

// New returns a File with every temporary free.
func New() *File {
	return &File{}
}

// K is the number of usable general-purpose registers.
func (f *File) K() int {
	return cfg.NumTemps
}

// InUse reports whether temporary i is currently allocated.
func (f *File) InUse(i int) bool {
	return i >= 0 && i < cfg.NumTemps && f.used[i]
}

// Alloc returns the next free temporary in circular order starting from the cursor left by the previous
// call, or ok=false when every temporary is in use and the caller must spill.
func (f *File) Alloc() (reg int, ok bool) {
	for i1 := 0; i1 < cfg.NumTemps; i1++ {
		idx := (f.next + i1) % cfg.NumTemps
		if !f.used[idx] {
			f.used[idx] = true
			f.next = (idx + 1) % cfg.NumTemps
			return idx, true
		}
	}
	return -1, false
}

// Reserve marks temporary i as allocated, used when the graph-coloring allocator assigns a specific
// color rather than taking whatever Alloc hands out.
func (f *File) Reserve(i int) {
	if i >= 0 && i < cfg.NumTemps {
		f.used[i] = true
	}
}

// Free releases temporary i back to the pool.
func (f *File) Free(i int) {
	if i >= 0 && i < cfg.NumTemps {
		f.used[i] = false
	}
}

// SP, FP, RA and RV are Marvin's fixed-purpose registers; they are never allocated out of this file.
func SP() int { return cfg.SP }
func FP() int { return cfg.FP }
func RA() int { return cfg.RA }
func RV() int { return cfg.RV }
