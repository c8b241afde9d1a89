// Package stats collects per-run counters and footprint bitmaps for a
// simulation session.
package stats

import (
	"fmt"

	"github.com/Workiva/go-datastructures/bitarray"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

// Counters accumulates the outcomes of one trace run. The zero value is
// not usable; construct with New so the footprint bitmaps are sized to
// the session geometry.
type Counters struct {
	Allocations        uint64 `json:"allocations"`
	AllocationFailures uint64 `json:"allocation_failures"`
	Frees              uint64 `json:"frees"`
	FreeMisses         uint64 `json:"free_misses"`
	FaultsInPlace      uint64 `json:"faults_in_place"`
	FaultsByCopy       uint64 `json:"faults_by_copy"`
	FaultsUnhandled    uint64 `json:"faults_unhandled"`
	Switches           uint64 `json:"switches"`
	Forks              uint64 `json:"forks"`
	Reads              uint64 `json:"reads"`
	Writes             uint64 `json:"writes"`

	// frameFootprint marks every frame that backed a mapping at some
	// point of the run; vpnFootprint marks every page ever touched.
	frameFootprint bitarray.BitArray
	vpnFootprint   bitarray.BitArray
}

// New returns counters with footprint bitmaps sized for geo.
func New(geo mm.Geometry) *Counters {
	return &Counters{
		frameFootprint: bitarray.NewBitArray(uint64(geo.Frames)),
		vpnFootprint:   bitarray.NewBitArray(uint64(geo.TotalPages())),
	}
}

// TouchFrame records that frame backed a mapping during the run.
func (c *Counters) TouchFrame(frame mm.Frame) {
	if !frame.Valid() {
		return
	}
	c.frameFootprint.SetBit(uint64(frame))
}

// TouchPage records that page was the target of a command during the run.
func (c *Counters) TouchPage(page mm.Page) {
	c.vpnFootprint.SetBit(uint64(page))
}

// FrameFootprint returns the number of distinct frames ever allocated.
func (c *Counters) FrameFootprint() int {
	return len(c.frameFootprint.ToNums())
}

// PageFootprint returns the number of distinct pages ever touched.
func (c *Counters) PageFootprint() int {
	return len(c.vpnFootprint.ToNums())
}

// FrameTouched returns true if frame backed a mapping at some point.
func (c *Counters) FrameTouched(frame mm.Frame) bool {
	touched, err := c.frameFootprint.GetBit(uint64(frame))
	return err == nil && touched
}

// PageTouched returns true if page was targeted at some point.
func (c *Counters) PageTouched(page mm.Page) bool {
	touched, err := c.vpnFootprint.GetBit(uint64(page))
	return err == nil && touched
}

// Summary is the plain-data report of one run.
type Summary struct {
	Counters       Counters `json:"counters"`
	FrameFootprint int      `json:"frame_footprint"`
	PageFootprint  int      `json:"page_footprint"`
}

// Summarize returns the report for the run so far.
func (c *Counters) Summarize() Summary {
	return Summary{
		Counters:       *c,
		FrameFootprint: c.FrameFootprint(),
		PageFootprint:  c.PageFootprint(),
	}
}

// String renders the summary as a short fixed layout report.
func (s Summary) String() string {
	return fmt.Sprintf(
		"allocs=%d(+%d failed) frees=%d(+%d missed) faults: in-place=%d copied=%d unhandled=%d "+
			"switches=%d forks=%d reads=%d writes=%d footprint: frames=%d pages=%d",
		s.Counters.Allocations, s.Counters.AllocationFailures,
		s.Counters.Frees, s.Counters.FreeMisses,
		s.Counters.FaultsInPlace, s.Counters.FaultsByCopy, s.Counters.FaultsUnhandled,
		s.Counters.Switches, s.Counters.Forks,
		s.Counters.Reads, s.Counters.Writes,
		s.FrameFootprint, s.PageFootprint,
	)
}
