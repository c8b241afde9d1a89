package pmm

import (
	"errors"
	"testing"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

func TestPoolAllocateOrder(t *testing.T) {
	pool := NewPool(8)

	for expFrame := mm.Frame(0); expFrame < 8; expFrame++ {
		got, err := pool.Allocate()
		if err != nil {
			t.Fatalf("unexpected allocation error: %v", err)
		}

		if got != expFrame {
			t.Fatalf("expected allocation to return frame %d; got %d", expFrame, got)
		}
	}

	if exp, got := 0, pool.FreeFrames(); got != exp {
		t.Fatalf("expected %d free frames; got %d", exp, got)
	}
}

func TestPoolAllocateReusesLowestFreedFrame(t *testing.T) {
	pool := NewPool(4)

	for i := 0; i < 4; i++ {
		if _, err := pool.Allocate(); err != nil {
			t.Fatalf("unexpected allocation error: %v", err)
		}
	}

	// Free frames 2 and 1; the next allocations must pick 1 then 2.
	if err := pool.DecRef(mm.Frame(2)); err != nil {
		t.Fatal(err)
	}
	if err := pool.DecRef(mm.Frame(1)); err != nil {
		t.Fatal(err)
	}

	for _, expFrame := range []mm.Frame{1, 2} {
		got, err := pool.Allocate()
		if err != nil {
			t.Fatalf("unexpected allocation error: %v", err)
		}

		if got != expFrame {
			t.Fatalf("expected allocation to return frame %d; got %d", expFrame, got)
		}
	}
}

func TestPoolExhaustion(t *testing.T) {
	pool := NewPool(2)

	for i := 0; i < 2; i++ {
		if _, err := pool.Allocate(); err != nil {
			t.Fatalf("unexpected allocation error: %v", err)
		}
	}

	got, err := pool.Allocate()
	if !errors.Is(err, ErrNoFreeFrame) {
		t.Fatalf("expected allocation to fail with ErrNoFreeFrame; got %v", err)
	}

	if got.Valid() {
		t.Fatalf("expected failed allocation to return InvalidFrame; got %d", got)
	}

	// A failed allocation must not disturb the counts.
	for frameIndex := mm.Frame(0); frameIndex < 2; frameIndex++ {
		if exp, got := uint32(1), pool.RefCount(frameIndex); got != exp {
			t.Errorf("expected frame %d to keep a count of %d; got %d", frameIndex, exp, got)
		}
	}
}

func TestPoolRefCounting(t *testing.T) {
	pool := NewPool(4)

	frame, err := pool.Allocate()
	if err != nil {
		t.Fatal(err)
	}

	if err = pool.IncRef(frame); err != nil {
		t.Fatal(err)
	}

	if exp, got := uint32(2), pool.RefCount(frame); got != exp {
		t.Fatalf("expected frame %d to have count %d; got %d", frame, exp, got)
	}

	if exp, got := 3, pool.FreeFrames(); got != exp {
		t.Fatalf("expected %d free frames; got %d", exp, got)
	}

	if err = pool.DecRef(frame); err != nil {
		t.Fatal(err)
	}

	// The frame is still referenced once, so it must not be free yet.
	if exp, got := 3, pool.FreeFrames(); got != exp {
		t.Fatalf("expected %d free frames; got %d", exp, got)
	}

	if err = pool.DecRef(frame); err != nil {
		t.Fatal(err)
	}

	if exp, got := 4, pool.FreeFrames(); got != exp {
		t.Fatalf("expected %d free frames; got %d", exp, got)
	}

	if !errors.Is(pool.DecRef(frame), ErrFrameUnused) {
		t.Fatal("expected DecRef on a free frame to return ErrFrameUnused")
	}
}

func TestPoolBounds(t *testing.T) {
	pool := NewPool(2)

	if !errors.Is(pool.IncRef(mm.Frame(2)), ErrFrameOutOfRange) {
		t.Error("expected IncRef outside the pool to return ErrFrameOutOfRange")
	}

	if !errors.Is(pool.DecRef(mm.Frame(2)), ErrFrameOutOfRange) {
		t.Error("expected DecRef outside the pool to return ErrFrameOutOfRange")
	}

	if exp, got := uint32(0), pool.RefCount(mm.Frame(100)); got != exp {
		t.Errorf("expected RefCount outside the pool to return %d; got %d", exp, got)
	}
}

func TestPoolCountsCopy(t *testing.T) {
	pool := NewPool(3)

	if _, err := pool.Allocate(); err != nil {
		t.Fatal(err)
	}

	counts := pool.Counts()
	counts[0] = 99

	if exp, got := uint32(1), pool.RefCount(mm.Frame(0)); got != exp {
		t.Fatalf("expected Counts() to return a copy; pool count changed to %d", got)
	}
}
