package vmm

import (
	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

var (
	// ErrNotMapped is returned when an operation targets a virtual page
	// that does not map to a physical frame.
	ErrNotMapped = &mm.Error{Module: "vmm", Message: "virtual page does not map to a physical frame"}

	// ErrPageOutOfRange is returned when a page cannot be expressed by
	// the two-level index scheme.
	ErrPageOutOfRange = &mm.Error{Module: "vmm", Message: "page is outside the addressable range"}
)

// directory is one inner page table holding the entries for a contiguous
// run of fanOut pages.
type directory struct {
	entries []Entry
}

// PageTable describes the two-level mapping structure owned by a single
// process. The outer level holds one optional inner directory per page
// range; a directory stays nil until a page in its range is first mapped.
type PageTable struct {
	fanOut int
	dirs   []*directory
}

// New returns an empty page table laid out for the given geometry.
func New(geo mm.Geometry) *PageTable {
	return &PageTable{
		fanOut: geo.PagesPerTable,
		dirs:   make([]*directory, geo.PagesPerTable),
	}
}

// split returns the outer and inner table indices for page.
func (pt *PageTable) split(page mm.Page) (dirIndex, entryIndex int) {
	return int(page) / pt.fanOut, int(page) % pt.fanOut
}

// Lookup returns the entry for page, or nil when the page is outside the
// addressable range or its directory has not been allocated. The entry is
// returned even when it is not present so that callers can classify it.
func (pt *PageTable) Lookup(page mm.Page) *Entry {
	dirIndex, entryIndex := pt.split(page)
	if dirIndex >= len(pt.dirs) || pt.dirs[dirIndex] == nil {
		return nil
	}

	return &pt.dirs[dirIndex].entries[entryIndex]
}

// Ensure returns the entry for page, allocating the owning inner
// directory on first use. It returns ErrPageOutOfRange when page cannot
// be expressed by the two-level index scheme.
func (pt *PageTable) Ensure(page mm.Page) (*Entry, error) {
	dirIndex, entryIndex := pt.split(page)
	if dirIndex >= len(pt.dirs) {
		return nil, ErrPageOutOfRange
	}

	if pt.dirs[dirIndex] == nil {
		pt.dirs[dirIndex] = &directory{entries: make([]Entry, pt.fanOut)}
	}

	return &pt.dirs[dirIndex].entries[entryIndex], nil
}

// Walker is a function that can be passed to the Walk method. The
// function receives each present entry together with the page it maps.
// If the function returns false, the walk is aborted.
type Walker func(page mm.Page, pte *Entry) bool

// Walk visits every present entry in ascending page order and invokes
// walkFn for each one.
func (pt *PageTable) Walk(walkFn Walker) {
	for dirIndex, dir := range pt.dirs {
		if dir == nil {
			continue
		}

		for entryIndex := range dir.entries {
			pte := &dir.entries[entryIndex]
			if !pte.HasFlags(FlagPresent) {
				continue
			}

			if !walkFn(mm.Page(dirIndex*pt.fanOut+entryIndex), pte) {
				return
			}
		}
	}
}
