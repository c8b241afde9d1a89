// Package proc defines the simulated process and the set of processes
// that are not currently scheduled.
package proc

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm/vmm"
)

// Process couples a PID with the page table that describes its address
// space. Each process owns its table exclusively; sharing happens only at
// the frame level through reference counts.
type Process struct {
	PID   mm.PID
	Table *vmm.PageTable
}

// New returns a process with an empty address space laid out for the
// given geometry.
func New(pid mm.PID, geo mm.Geometry) *Process {
	return &Process{
		PID:   pid,
		Table: vmm.New(geo),
	}
}

// Set holds the processes that are ready but not running. Processes are
// kept in insertion order; the running process is never a member.
type Set struct {
	ready []*Process
}

// Enqueue appends proc at the tail of the set.
func (s *Set) Enqueue(proc *Process) {
	s.ready = append(s.ready, proc)
}

// Unlink removes and returns the process with the given PID, or nil when
// no member carries it. The relative order of the remaining members is
// preserved.
func (s *Set) Unlink(pid mm.PID) *Process {
	for i, proc := range s.ready {
		if proc.PID != pid {
			continue
		}

		s.ready = append(s.ready[:i], s.ready[i+1:]...)
		return proc
	}

	return nil
}

// Contains returns true if a process with the given PID is a member.
func (s *Set) Contains(pid mm.PID) bool {
	for _, proc := range s.ready {
		if proc.PID == pid {
			return true
		}
	}

	return false
}

// Len returns the number of member processes.
func (s *Set) Len() int {
	return len(s.ready)
}

// Each invokes visitFn for every member in insertion order.
func (s *Set) Each(visitFn func(proc *Process)) {
	for _, proc := range s.ready {
		visitFn(proc)
	}
}
