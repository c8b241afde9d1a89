package mm

const (
	// DefaultPagesPerTable is the fan-out used when no geometry is
	// configured.
	DefaultPagesPerTable = 16

	// DefaultFrames is the physical frame count used when no geometry
	// is configured.
	DefaultFrames = 128

	// maxPagesPerTable bounds the fan-out so that the square of the
	// fan-out (the total page count) still fits in a Page handle.
	maxPagesPerTable = 1 << 12

	// maxFrames bounds the pool size so that any frame number fits in
	// the frame bits of a page table entry.
	maxFrames = 1<<24 - 1
)

var (
	// ErrInvalidGeometry is returned by Validate when the configured
	// values cannot be expressed by the two-level index scheme.
	ErrInvalidGeometry = &Error{Module: "mm", Message: "geometry values are out of range"}
)

// Geometry fixes the simulation constants that the translator and the
// memory manager must agree on: the fan-out shared by both paging levels
// and the number of physical frames in the pool. The addressable page
// range is the square of the fan-out.
type Geometry struct {
	PagesPerTable int `json:"pages_per_table"`
	Frames        int `json:"frames"`
}

// DefaultGeometry returns the geometry used when no configuration is
// supplied.
func DefaultGeometry() Geometry {
	return Geometry{PagesPerTable: DefaultPagesPerTable, Frames: DefaultFrames}
}

// TotalPages returns the number of addressable virtual pages.
func (g Geometry) TotalPages() int {
	return g.PagesPerTable * g.PagesPerTable
}

// Contains returns true if page falls inside the addressable range.
func (g Geometry) Contains(page Page) bool {
	return int(page) < g.TotalPages()
}

// Validate returns an error if the geometry cannot be represented.
func (g Geometry) Validate() error {
	if g.PagesPerTable < 1 || g.PagesPerTable > maxPagesPerTable {
		return ErrInvalidGeometry
	}

	if g.Frames < 1 || g.Frames > maxFrames {
		return ErrInvalidGeometry
	}

	return nil
}
