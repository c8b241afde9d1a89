package trace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/mmu"
	"github.com/jins0704/OS-Simulator-VirtualMemory/stats"
	"github.com/jins0704/OS-Simulator-VirtualMemory/vm"
)

// Runner executes parsed trace commands against one machine. Simulation
// failures (unhandled faults, pool exhaustion, freeing unmapped pages)
// are outcomes of the run, not runner errors: they are logged, counted
// and the run continues. Runner errors are reserved for writer I/O.
type Runner struct {
	machine  *vm.Machine
	counters *stats.Counters
	log      *slog.Logger
	out      io.Writer
}

// NewRunner returns a runner driving machine, dumping show output to out
// and logging command outcomes through logger.
func NewRunner(machine *vm.Machine, counters *stats.Counters, logger *slog.Logger, out io.Writer) *Runner {
	return &Runner{
		machine:  machine,
		counters: counters,
		log:      logger,
		out:      out,
	}
}

// Counters returns the statistics collected so far.
func (r *Runner) Counters() *stats.Counters {
	return r.counters
}

// Run executes the commands in order.
func (r *Runner) Run(commands []Command) error {
	for _, cmd := range commands {
		if err := r.step(cmd); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) step(cmd Command) error {
	pid := r.machine.CurrentPID()

	switch cmd.Op {
	case OpAlloc:
		r.counters.TouchPage(cmd.Page)

		frame, err := r.machine.AllocatePage(cmd.Page, cmd.Access)
		if err != nil {
			r.counters.AllocationFailures++
			r.log.Warn("allocation failed", "pid", pid, "page", cmd.Page, "err", err)
			return nil
		}

		r.counters.Allocations++
		r.counters.TouchFrame(frame)
		r.log.Info("allocated", "pid", pid, "page", cmd.Page, "frame", frame, "access", cmd.Access)

	case OpFree:
		r.counters.TouchPage(cmd.Page)

		if err := r.machine.FreePage(cmd.Page); err != nil {
			r.counters.FreeMisses++
			r.log.Warn("free failed", "pid", pid, "page", cmd.Page, "err", err)
			return nil
		}

		r.counters.Frees++
		r.log.Info("freed", "pid", pid, "page", cmd.Page)

	case OpRead, OpWrite:
		access := mm.AccessRead
		if cmd.Op == OpWrite {
			access = mm.AccessWrite
		}

		r.counters.TouchPage(cmd.Page)
		r.access(pid, cmd.Page, access)

	case OpSwitch:
		if r.machine.HasProcess(cmd.PID) {
			r.counters.Switches++
			r.log.Info("switching", "from", pid, "to", cmd.PID)
		} else {
			r.counters.Forks++
			r.log.Info("forking", "parent", pid, "child", cmd.PID)
		}

		r.machine.SwitchProcess(cmd.PID)

	case OpShow:
		if err := r.dump(); err != nil {
			return fmt.Errorf("trace: write dump: %w", err)
		}
	}

	return nil
}

// access runs the full translate/fault/retry protocol and classifies the
// outcome for the counters. The fault kind is recovered by comparing the
// free-frame count around the access: a resolved fault that consumed a
// frame was a shared-frame copy, one that did not was an in-place
// upgrade.
func (r *Runner) access(pid mm.PID, page mm.Page, access mm.Access) {
	freeBefore := r.machine.FreeFrames()
	faulted := func() bool {
		_, err := mmu.Translate(r.machine.ActiveTable(), page, access)
		return err != nil
	}()

	frame, err := mmu.Access(r.machine, page, access)
	if err != nil {
		if errors.Is(err, mmu.ErrFaultNotHandled) {
			r.counters.FaultsUnhandled++
		}
		r.log.Warn("access failed", "pid", pid, "page", page, "access", access, "err", err)
		return
	}

	if faulted {
		if r.machine.FreeFrames() < freeBefore {
			r.counters.FaultsByCopy++
		} else {
			r.counters.FaultsInPlace++
		}
	}

	if access.IsWrite() {
		r.counters.Writes++
	} else {
		r.counters.Reads++
	}

	r.counters.TouchFrame(frame)
	r.log.Info("accessed", "pid", pid, "page", page, "access", access, "frame", frame, "faulted", faulted)
}

// dump writes a fixed-width rendition of the machine state: the frame
// pool reference counts followed by one mapping table per process.
func (r *Runner) dump() error {
	snap := r.machine.Snapshot()

	if _, err := fmt.Fprintf(r.out, "frames (%d free):", snap.FreeFrames); err != nil {
		return err
	}
	for frame, refCount := range snap.FrameRefs {
		if refCount == 0 {
			continue
		}
		if _, err := fmt.Fprintf(r.out, " %d:%d", frame, refCount); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(r.out); err != nil {
		return err
	}

	views := append([]vm.ProcessView{snap.Current}, snap.Ready...)
	for i, view := range views {
		state := "ready"
		if i == 0 {
			state = "running"
		}

		if _, err := fmt.Fprintf(r.out, "pid %d (%s):\n", view.PID, state); err != nil {
			return err
		}

		for _, mapping := range view.Mappings {
			perm := "r-"
			if mapping.Writable {
				perm = "rw"
			}

			cow := "  "
			if mapping.CopyOnWrite {
				cow = " c"
			}

			if _, err := fmt.Fprintf(r.out, "  page %3d -> frame %3d %s%s\n",
				mapping.Page, mapping.Frame, perm, cow); err != nil {
				return err
			}
		}
	}

	return nil
}
