package vm

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/vmm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/proc"
)

// MappingView is the plain-data view of one present page table entry.
type MappingView struct {
	Page        mm.Page  `json:"page"`
	Frame       mm.Frame `json:"frame"`
	Writable    bool     `json:"writable"`
	CopyOnWrite bool     `json:"copy_on_write"`
}

// ProcessView is the plain-data view of one process's address space.
type ProcessView struct {
	PID      mm.PID        `json:"pid"`
	Mappings []MappingView `json:"mappings"`
}

// Snapshot is a consistent, JSON-marshalable copy of a machine's state.
// It shares no memory with the machine, so observers can hold on to it
// while the simulation keeps running.
type Snapshot struct {
	Geometry   mm.Geometry   `json:"geometry"`
	FrameRefs  []uint32      `json:"frame_refs"`
	FreeFrames int           `json:"free_frames"`
	Current    ProcessView   `json:"current"`
	Ready      []ProcessView `json:"ready"`
}

// Snapshot captures the machine state under the machine mutex.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Geometry:   m.geo,
		FrameRefs:  m.pool.Counts(),
		FreeFrames: m.pool.FreeFrames(),
		Current:    viewOf(m.current),
	}

	m.ready.Each(func(p *proc.Process) {
		snap.Ready = append(snap.Ready, viewOf(p))
	})

	return snap
}

// Process returns the address-space view of one registered process.
func (m *Machine) Process(pid mm.PID) (ProcessView, error) {
	snap := m.Snapshot()
	if snap.Current.PID == pid {
		return snap.Current, nil
	}

	for _, view := range snap.Ready {
		if view.PID == pid {
			return view, nil
		}
	}

	return ProcessView{}, ErrUnknownPID
}

func viewOf(p *proc.Process) ProcessView {
	view := ProcessView{PID: p.PID}

	p.Table.Walk(func(page mm.Page, pte *vmm.Entry) bool {
		view.Mappings = append(view.Mappings, MappingView{
			Page:        page,
			Frame:       pte.Frame(),
			Writable:    pte.HasFlags(vmm.FlagWritable),
			CopyOnWrite: pte.HasFlags(vmm.FlagCopyOnWrite),
		})
		return true
	})

	return view
}
