package vmm

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

// EntryFlag describes a flag that can be applied to a page table entry.
type EntryFlag uint32

const (
	// FlagPresent is set when the entry holds a live mapping.
	FlagPresent EntryFlag = 1 << iota

	// FlagWritable is set if the page can be written to. This is the
	// permission bit the translator checks on write accesses.
	FlagWritable

	// FlagCopyOnWrite marks an entry whose frame may be shared under
	// the copy-on-write discipline. A write fault on such an entry is
	// resolved by granting write access or by duplication, depending
	// on how many mappings share the frame.
	FlagCopyOnWrite
)

const (
	// entryFrameShift is the position of the frame number inside an
	// entry. The bits below it hold the entry flags.
	entryFrameShift = 8

	// entryFrameMask selects the frame number bits of an entry.
	entryFrameMask = ^uint32(0) >> entryFrameShift << entryFrameShift
)

// Entry describes a page table entry. Entries encode a physical frame
// number and a set of flags in a single integer. A zero entry is not
// present and carries no stale frame or permission bits.
type Entry uint32

// HasFlags returns true if this entry has all the input flags set.
func (pte Entry) HasFlags(flags EntryFlag) bool {
	return (uint32(pte) & uint32(flags)) == uint32(flags)
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte Entry) HasAnyFlag(flags EntryFlag) bool {
	return (uint32(pte) & uint32(flags)) != 0
}

// SetFlags sets the input list of flags to the page table entry.
func (pte *Entry) SetFlags(flags EntryFlag) {
	*pte = (Entry)(uint32(*pte) | uint32(flags))
}

// ClearFlags unsets the input list of flags from the page table entry.
func (pte *Entry) ClearFlags(flags EntryFlag) {
	*pte = (Entry)(uint32(*pte) &^ uint32(flags))
}

// Frame returns the physical frame that this page table entry points to.
func (pte Entry) Frame() mm.Frame {
	return mm.Frame(uint32(pte) >> entryFrameShift)
}

// SetFrame updates the page table entry to point to the given physical frame.
func (pte *Entry) SetFrame(frame mm.Frame) {
	*pte = (Entry)((uint32(*pte) &^ entryFrameMask) | uint32(frame)<<entryFrameShift)
}

// MappingState is the copy-on-write protocol state of an entry,
// classified together with the reference count of the frame it maps. The
// fault handler switches on this state instead of re-deriving it from
// raw flag bits at each call site.
type MappingState uint8

const (
	// MappingAbsent means the entry holds no live mapping.
	MappingAbsent MappingState = iota

	// MappingDirect means the entry maps a frame outside the
	// copy-on-write discipline; faults on it are not resolvable.
	MappingDirect

	// MappingCowExclusive means the entry maps a copy-on-write frame
	// with a single owner; a write fault is resolved in place.
	MappingCowExclusive

	// MappingCowShared means the entry maps a copy-on-write frame with
	// more than one sharer; a write fault is resolved by duplication.
	MappingCowShared
)

// String returns a human-readable description of the mapping state.
func (s MappingState) String() string {
	switch s {
	case MappingAbsent:
		return "absent"
	case MappingDirect:
		return "direct"
	case MappingCowExclusive:
		return "cow-exclusive"
	case MappingCowShared:
		return "cow-shared"
	default:
		return "unknown"
	}
}

// State classifies the entry given the reference count of the frame it
// points to.
func (pte Entry) State(refCount uint32) MappingState {
	switch {
	case !pte.HasFlags(FlagPresent):
		return MappingAbsent
	case !pte.HasFlags(FlagCopyOnWrite):
		return MappingDirect
	case refCount > 1:
		return MappingCowShared
	default:
		return MappingCowExclusive
	}
}
