// Package vm implements the virtual memory manager: page allocation,
// page free, copy-on-write fault resolution and process switching with
// copy-on-write forking.
package vm

import (
	"sync"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/pmm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/vmm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/proc"
)

var (
	// ErrUnknownPID is returned by inspection methods when no process
	// with the requested PID is registered with the machine.
	ErrUnknownPID = &mm.Error{Module: "vm", Message: "no process with this PID is registered"}
)

// Machine holds the complete state of one simulation session: the frame
// pool, the current process, the ready set and the active-mapping
// pointer. Sessions are independent; any number of machines can coexist
// without sharing state.
//
// A single mutex protects the whole machine. The four core operations
// mutate the pool, the ready set and the active-mapping pointer together,
// so they form one mutual-exclusion domain for concurrent observers such
// as the state monitor.
type Machine struct {
	mu sync.Mutex

	geo  mm.Geometry
	pool *pmm.Pool

	current *proc.Process
	ready   proc.Set

	// active is the page table the translator consults. It always
	// points at the current process's table; switches repoint it.
	active *vmm.PageTable
}

// NewMachine returns a machine with an empty frame pool and a single
// initial process carrying the given PID.
func NewMachine(geo mm.Geometry, initialPID mm.PID) (*Machine, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}

	machine := &Machine{
		geo:     geo,
		pool:    pmm.NewPool(geo.Frames),
		current: proc.New(initialPID, geo),
	}
	machine.active = machine.current.Table

	return machine, nil
}

// Geometry returns the simulation constants this machine was built with.
func (m *Machine) Geometry() mm.Geometry {
	return m.geo
}

// ActiveTable returns the page table of the current process. This is the
// reference the translator walks on every access.
func (m *Machine) ActiveTable() *vmm.PageTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// CurrentPID returns the PID of the running process.
func (m *Machine) CurrentPID() mm.PID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.PID
}

// HasProcess returns true if a process with the given PID is registered,
// either running or ready.
func (m *Machine) HasProcess(pid mm.PID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.PID == pid || m.ready.Contains(pid)
}

// FreeFrames returns the number of frames with a zero reference count.
func (m *Machine) FreeFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.FreeFrames()
}

// AllocatePage maps page in the current process's address space and
// returns the physical frame backing it. Frames are handed out in
// ascending order: the lowest-numbered free frame always wins, which
// keeps allocation sequences reproducible.
//
// The entry is made writable when the access intent includes a write.
// Read-only allocations are flagged copy-on-write so that a later fork
// can share them and a later write fault can upgrade or duplicate them.
//
// AllocatePage returns pmm.ErrNoFreeFrame without touching the page
// table when the pool is exhausted.
func (m *Machine) AllocatePage(page mm.Page, access mm.Access) (mm.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.geo.Contains(page) {
		return mm.InvalidFrame, vmm.ErrPageOutOfRange
	}

	// Reserve the frame before mutating the table so that an exhausted
	// pool leaves no partial state behind.
	frame, err := m.pool.Allocate()
	if err != nil {
		return mm.InvalidFrame, err
	}

	pte, err := m.active.Ensure(page)
	if err != nil {
		m.pool.DecRef(frame)
		return mm.InvalidFrame, err
	}

	pte.SetFrame(frame)
	if access.IsWrite() {
		pte.SetFlags(vmm.FlagPresent | vmm.FlagWritable)
	} else {
		pte.SetFlags(vmm.FlagPresent | vmm.FlagCopyOnWrite)
	}

	return frame, nil
}

// FreePage unmaps page from the current process's address space and
// drops one reference from the frame it held. Other processes sharing
// the frame keep their mappings; the frame becomes free only when its
// last reference is dropped.
//
// Freeing a page that is not mapped returns vmm.ErrNotMapped and mutates
// nothing.
func (m *Machine) FreePage(page mm.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pte := m.active.Lookup(page)
	if pte == nil || !pte.HasFlags(vmm.FlagPresent) {
		return vmm.ErrNotMapped
	}

	// Read the frame out of the entry before zeroing it.
	if err := m.pool.DecRef(pte.Frame()); err != nil {
		return err
	}

	*pte = vmm.Entry(0)
	return nil
}

// HandlePageFault attempts to resolve a fault reported by the translator
// for the given page and access intent. Only write faults on
// copy-on-write entries are resolvable:
//
//   - an exclusively owned frame is upgraded in place by setting the
//     writable bit;
//   - a shared frame is duplicated: the entry is rebound to the lowest
//     free frame, the old frame loses one reference and the other
//     sharers are left untouched.
//
// The copy-on-write flag stays set after resolution so that a later fork
// can re-share the page. HandlePageFault reports false for absent
// entries, for entries outside the copy-on-write discipline and when the
// pool cannot supply a frame for the shared case; a false outcome mutates
// no state.
func (m *Machine) HandlePageFault(page mm.Page, access mm.Access) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !access.IsWrite() {
		return false
	}

	pte := m.active.Lookup(page)
	if pte == nil {
		return false
	}

	switch pte.State(m.pool.RefCount(pte.Frame())) {
	case vmm.MappingCowExclusive:
		pte.SetFlags(vmm.FlagWritable)
		return true

	case vmm.MappingCowShared:
		frame, err := m.pool.Allocate()
		if err != nil {
			return false
		}

		m.pool.DecRef(pte.Frame())
		pte.SetFrame(frame)
		pte.SetFlags(vmm.FlagWritable)
		return true

	default:
		return false
	}
}

// SwitchProcess makes the process with the given PID current. A PID found
// in the ready set triggers a plain context switch: the target is
// unlinked, the old current process is enqueued and the active-mapping
// pointer is repointed. No reference counts change.
//
// An unknown PID triggers a fork of the current process. The child gets
// an independent page table mirroring every present entry of the parent
// with the same frame and copy-on-write eligibility; both sides are
// forced non-writable and every shared frame gains one reference. Parent
// directories that were never allocated stay absent in the child. The
// parent is enqueued and the child becomes current.
//
// Switching to the PID of the running process is a no-op; forking it
// would mint a duplicate PID.
func (m *Machine) SwitchProcess(pid mm.PID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pid == m.current.PID {
		return
	}

	next := m.ready.Unlink(pid)
	if next == nil {
		next = m.forkLocked(pid)
	}

	m.ready.Enqueue(m.current)
	m.current = next
	m.active = next.Table
}

// forkLocked builds a copy-on-write child of the current process. Caller
// must hold m.mu.
func (m *Machine) forkLocked(pid mm.PID) *proc.Process {
	child := proc.New(pid, m.geo)

	m.current.Table.Walk(func(page mm.Page, parentPTE *vmm.Entry) bool {
		childPTE, err := child.Table.Ensure(page)
		if err != nil {
			// Unreachable: the parent table holds only addressable pages.
			return false
		}

		parentPTE.ClearFlags(vmm.FlagWritable)

		childPTE.SetFrame(parentPTE.Frame())
		childPTE.SetFlags(vmm.FlagPresent)
		if parentPTE.HasFlags(vmm.FlagCopyOnWrite) {
			childPTE.SetFlags(vmm.FlagCopyOnWrite)
		}

		m.pool.IncRef(parentPTE.Frame())
		return true
	})

	return child
}
