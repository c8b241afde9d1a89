// Package viz renders a simulation snapshot as a PNG image: a frame
// pool strip colored by reference count and one address-space grid per
// process.
package viz

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/stats"
	"github.com/jins0704/OS-Simulator-VirtualMemory/vm"
)

const (
	cellSize = 24
	cellGap  = 2
	margin   = 16
	labelPad = 18
)

// rgb is a fill color in the 0..1 range.
type rgb struct{ r, g, b float64 }

var (
	colorFree      = rgb{0.92, 0.92, 0.92}
	colorExclusive = rgb{0.35, 0.65, 0.35}
	colorShared    = rgb{0.85, 0.55, 0.2}
	colorAbsent    = rgb{0.95, 0.95, 0.95}
	colorWritable  = rgb{0.25, 0.45, 0.8}
	colorCow       = rgb{0.75, 0.35, 0.75}
	colorReadOnly  = rgb{0.55, 0.55, 0.55}
)

// dimmed washes c out toward white; used for cells the run never touched.
func (c rgb) dimmed() rgb {
	blend := func(v float64) float64 { return (v + 2) / 3 }
	return rgb{blend(c.r), blend(c.g), blend(c.b)}
}

// Render draws snap into a PNG at path. counters may be nil; when
// present, never-touched cells are dimmed so the run's footprint stands
// out.
func Render(snap vm.Snapshot, counters *stats.Counters, path string) error {
	fanOut := snap.Geometry.PagesPerTable
	frameRows := (len(snap.FrameRefs) + fanOut - 1) / fanOut
	processes := append([]vm.ProcessView{snap.Current}, snap.Ready...)

	width := margin*2 + fanOut*(cellSize+cellGap)
	height := margin + labelPad + frameRows*(cellSize+cellGap) +
		len(processes)*(labelPad+fanOut*(cellSize+cellGap)) + margin

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	y := float64(margin)
	y = drawFrameStrip(dc, snap, counters, fanOut, y)

	for i, view := range processes {
		state := "ready"
		if i == 0 {
			state = "running"
		}
		y = drawProcess(dc, snap.Geometry, view, state, counters, y)
	}

	return dc.SavePNG(path)
}

func fillCell(dc *gg.Context, x, y float64, c rgb) {
	dc.SetRGB(c.r, c.g, c.b)
	dc.DrawRectangle(x, y, cellSize, cellSize)
	dc.Fill()
}

// drawFrameStrip renders the reference count of every frame, fanOut
// frames per row.
func drawFrameStrip(dc *gg.Context, snap vm.Snapshot, counters *stats.Counters, fanOut int, y float64) float64 {
	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("frames (%d free)", snap.FreeFrames), margin, y+12)
	y += labelPad

	for frame, refCount := range snap.FrameRefs {
		x := float64(margin + (frame%fanOut)*(cellSize+cellGap))
		cy := y + float64((frame/fanOut)*(cellSize+cellGap))

		c := colorFree
		switch {
		case refCount == 1:
			c = colorExclusive
		case refCount > 1:
			c = colorShared
		}

		if counters != nil && !counters.FrameTouched(mm.Frame(frame)) {
			c = c.dimmed()
		}

		fillCell(dc, x, cy, c)
	}

	rows := (len(snap.FrameRefs) + fanOut - 1) / fanOut
	return y + float64(rows*(cellSize+cellGap))
}

// drawProcess renders one address-space grid, one row per directory.
func drawProcess(dc *gg.Context, geo mm.Geometry, view vm.ProcessView, state string, counters *stats.Counters, y float64) float64 {
	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("pid %d (%s)", view.PID, state), margin, y+12)
	y += labelPad

	mappings := make(map[mm.Page]vm.MappingView, len(view.Mappings))
	for _, mapping := range view.Mappings {
		mappings[mapping.Page] = mapping
	}

	fanOut := geo.PagesPerTable
	for page := 0; page < geo.TotalPages(); page++ {
		x := float64(margin + (page%fanOut)*(cellSize+cellGap))
		cy := y + float64((page/fanOut)*(cellSize+cellGap))

		c := colorAbsent
		if mapping, present := mappings[mm.Page(page)]; present {
			switch {
			case mapping.Writable:
				c = colorWritable
			case mapping.CopyOnWrite:
				c = colorCow
			default:
				c = colorReadOnly
			}
		}

		if counters != nil && !counters.PageTouched(mm.Page(page)) {
			c = c.dimmed()
		}

		fillCell(dc, x, cy, c)
	}

	return y + float64(fanOut*(cellSize+cellGap))
}
