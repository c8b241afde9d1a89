package proc

import (
	"testing"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/vmm"
)

func TestSetEnqueueUnlink(t *testing.T) {
	var set Set

	geo := mm.DefaultGeometry()
	for _, pid := range []mm.PID{3, 1, 7} {
		set.Enqueue(New(pid, geo))
	}

	if exp, got := 3, set.Len(); got != exp {
		t.Fatalf("expected set length %d; got %d", exp, got)
	}

	if !set.Contains(mm.PID(1)) {
		t.Fatal("expected set to contain PID 1")
	}

	if got := set.Unlink(mm.PID(9)); got != nil {
		t.Fatal("expected Unlink of an unknown PID to return nil")
	}

	proc := set.Unlink(mm.PID(1))
	if proc == nil || proc.PID != mm.PID(1) {
		t.Fatalf("expected Unlink to return the process with PID 1; got %v", proc)
	}

	if set.Contains(mm.PID(1)) {
		t.Fatal("expected PID 1 to no longer be a member")
	}

	// Remaining members keep their insertion order.
	var order []mm.PID
	set.Each(func(p *Process) { order = append(order, p.PID) })

	if len(order) != 2 || order[0] != mm.PID(3) || order[1] != mm.PID(7) {
		t.Fatalf("expected remaining order [3 7]; got %v", order)
	}
}

func TestNewProcessHasEmptyTable(t *testing.T) {
	proc := New(mm.PID(1), mm.Geometry{PagesPerTable: 4, Frames: 8})

	if proc.Table == nil {
		t.Fatal("expected new process to own a page table")
	}

	presentCount := 0
	proc.Table.Walk(func(page mm.Page, pte *vmm.Entry) bool {
		presentCount++
		return true
	})

	if presentCount != 0 {
		t.Fatalf("expected a new address space to have no present entries; got %d", presentCount)
	}
}
