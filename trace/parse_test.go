package trace

import (
	"strings"
	"testing"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

func TestParse(t *testing.T) {
	script := `
# allocate two pages, fork, fault one
alloc 0 r
a 1 rw
free 2
r 0
write 1
s 2
show
`

	commands, err := Parse(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}

	exp := []Command{
		{Op: OpAlloc, Line: 3, Page: mm.Page(0), Access: mm.AccessRead},
		{Op: OpAlloc, Line: 4, Page: mm.Page(1), Access: mm.AccessRead | mm.AccessWrite},
		{Op: OpFree, Line: 5, Page: mm.Page(2)},
		{Op: OpRead, Line: 6, Page: mm.Page(0)},
		{Op: OpWrite, Line: 7, Page: mm.Page(1)},
		{Op: OpSwitch, Line: 8, PID: mm.PID(2)},
		{Op: OpShow, Line: 9},
	}

	if len(commands) != len(exp) {
		t.Fatalf("expected %d commands; got %d", len(exp), len(commands))
	}

	for i, cmd := range commands {
		if cmd != exp[i] {
			t.Errorf("[command %d] expected %+v; got %+v", i, exp[i], cmd)
		}
	}
}

func TestParseRejects(t *testing.T) {
	specs := []struct {
		line        string
		expFragment string
	}{
		{"poke 1", `unknown command "poke"`},
		{"alloc 0", "takes a page and an access intent"},
		{"alloc 0 x", `bad access intent "x"`},
		{"alloc zero r", `bad page "zero"`},
		{"free", "takes a page"},
		{"read 1 2", "takes a page"},
		{"switch minus", `bad pid "minus"`},
		{"switch -1", `bad pid "-1"`},
		{"show now", "takes no operands"},
	}

	for specIndex, spec := range specs {
		_, err := Parse(strings.NewReader(spec.line))
		if err == nil {
			t.Errorf("[spec %d] expected %q to be rejected", specIndex, spec.line)
			continue
		}

		if !strings.Contains(err.Error(), spec.expFragment) {
			t.Errorf("[spec %d] expected error to contain %q; got %q", specIndex, spec.expFragment, err)
		}

		if !strings.Contains(err.Error(), "line 1") {
			t.Errorf("[spec %d] expected error to carry the line number; got %q", specIndex, err)
		}
	}
}
