// Package mmu implements the hardware side of the simulation: the page
// walk the translator performs on every access and the fault-then-retry
// protocol it follows when a walk fails.
package mmu

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/vmm"
)

var (
	// ErrDirectoryAbsent is returned by Translate when the outer
	// directory covering the page has never been allocated.
	ErrDirectoryAbsent = &mm.Error{Module: "mmu", Message: "outer directory entry is absent"}

	// ErrNotPresent is returned by Translate when the entry exists but
	// holds no live mapping.
	ErrNotPresent = &mm.Error{Module: "mmu", Message: "page table entry is not present"}

	// ErrNotWritable is returned by Translate when a write access hits
	// an entry without write permission.
	ErrNotWritable = &mm.Error{Module: "mmu", Message: "write access to a non-writable page"}

	// ErrFaultNotHandled is returned by Access when the core reports a
	// fault as unresolvable.
	ErrFaultNotHandled = &mm.Error{Module: "mmu", Message: "page fault could not be handled"}
)

// Core is the slice of the virtual memory manager the translator needs:
// the active page table to walk and the fault handler to report failed
// walks to.
type Core interface {
	ActiveTable() *vmm.PageTable
	HandlePageFault(page mm.Page, access mm.Access) bool
}

// Translate walks table and returns the frame backing page, checking
// write permission against the access intent. Failures carry the fault
// reason the walk stopped at.
func Translate(table *vmm.PageTable, page mm.Page, access mm.Access) (mm.Frame, error) {
	pte := table.Lookup(page)
	if pte == nil {
		return mm.InvalidFrame, ErrDirectoryAbsent
	}

	if !pte.HasFlags(vmm.FlagPresent) {
		return mm.InvalidFrame, ErrNotPresent
	}

	if access.IsWrite() && !pte.HasFlags(vmm.FlagWritable) {
		return mm.InvalidFrame, ErrNotWritable
	}

	return pte.Frame(), nil
}

// Access performs one full memory access against core: translate the
// page, and on a fault give the core a chance to resolve it before
// retrying the translation exactly once. An access whose fault the core
// does not resolve fails with ErrFaultNotHandled.
func Access(core Core, page mm.Page, access mm.Access) (mm.Frame, error) {
	frame, err := Translate(core.ActiveTable(), page, access)
	if err == nil {
		return frame, nil
	}

	if !core.HandlePageFault(page, access) {
		return mm.InvalidFrame, ErrFaultNotHandled
	}

	return Translate(core.ActiveTable(), page, access)
}
