package pmm

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

var (
	// ErrNoFreeFrame is returned by Allocate when every frame in the
	// pool is referenced by at least one mapping.
	ErrNoFreeFrame = &mm.Error{Module: "pmm", Message: "no free frames available"}

	// ErrFrameOutOfRange is returned when a frame number falls outside
	// the pool.
	ErrFrameOutOfRange = &mm.Error{Module: "pmm", Message: "frame number is outside the pool"}

	// ErrFrameUnused is returned by DecRef when the frame has no
	// references left to drop.
	ErrFrameUnused = &mm.Error{Module: "pmm", Message: "frame has a zero reference count"}
)

// Pool tracks the reference count of every physical frame in one
// simulation. The counts are the ownership ground truth: a zero count
// marks a free frame, a count of one an exclusively owned frame and a
// higher count a frame shared between address spaces.
//
// Pool methods are not safe for concurrent use; the machine that owns the
// pool serializes access to it.
type Pool struct {
	// refs holds the per-frame reference counts, indexed by frame
	// number.
	refs []uint32

	// freeCount tracks the number of frames with a zero reference
	// count.
	freeCount int
}

// NewPool returns a pool of size frames, all free.
func NewPool(size int) *Pool {
	return &Pool{
		refs:      make([]uint32, size),
		freeCount: size,
	}
}

// Allocate reserves the lowest-numbered free frame and returns it with a
// reference count of one. The ascending scan makes allocation order
// reproducible for any sequence of pool operations.
//
// Allocate returns ErrNoFreeFrame if every frame is referenced.
func (p *Pool) Allocate() (mm.Frame, error) {
	for frameIndex, refCount := range p.refs {
		if refCount != 0 {
			continue
		}

		p.refs[frameIndex]++
		p.freeCount--
		return mm.Frame(frameIndex), nil
	}

	return mm.InvalidFrame, ErrNoFreeFrame
}

// IncRef adds one reference to frame. It is used when a fork installs an
// extra mapping to an already-owned frame.
func (p *Pool) IncRef(frame mm.Frame) error {
	if int(frame) >= len(p.refs) {
		return ErrFrameOutOfRange
	}

	if p.refs[frame] == 0 {
		p.freeCount--
	}
	p.refs[frame]++
	return nil
}

// DecRef drops one reference from frame. A frame whose count reaches zero
// becomes available to the next Allocate call.
func (p *Pool) DecRef(frame mm.Frame) error {
	if int(frame) >= len(p.refs) {
		return ErrFrameOutOfRange
	}

	if p.refs[frame] == 0 {
		return ErrFrameUnused
	}

	p.refs[frame]--
	if p.refs[frame] == 0 {
		p.freeCount++
	}
	return nil
}

// RefCount returns the number of mappings that reference frame. Frames
// outside the pool report a zero count.
func (p *Pool) RefCount(frame mm.Frame) uint32 {
	if int(frame) >= len(p.refs) {
		return 0
	}

	return p.refs[frame]
}

// FreeFrames returns the number of frames with a zero reference count.
func (p *Pool) FreeFrames() int {
	return p.freeCount
}

// Size returns the total number of frames in the pool.
func (p *Pool) Size() int {
	return len(p.refs)
}

// Counts returns a copy of the per-frame reference counts.
func (p *Pool) Counts() []uint32 {
	counts := make([]uint32, len(p.refs))
	copy(counts, p.refs)
	return counts
}
