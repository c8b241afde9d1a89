package mm

import "math"

// Frame describes a physical page frame index.
type Frame uint32

const (
	// InvalidFrame is returned by allocation paths when they fail to
	// reserve a frame.
	InvalidFrame = Frame(math.MaxUint32)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Page describes a virtual page index.
type Page uint32

// PID identifies a simulated process. PIDs are unique for as long as the
// process is registered with a machine.
type PID uint32

// Access describes the intent of a memory access.
type Access uint8

const (
	// AccessRead is set when the access reads the page contents.
	AccessRead Access = 1 << iota

	// AccessWrite is set when the access mutates the page contents.
	AccessWrite
)

// IsWrite returns true if this access intends to mutate the page.
func (a Access) IsWrite() bool {
	return a&AccessWrite != 0
}

// String returns the trace mnemonic for this access intent.
func (a Access) String() string {
	switch {
	case a.IsWrite() && a&AccessRead != 0:
		return "rw"
	case a.IsWrite():
		return "w"
	default:
		return "r"
	}
}
