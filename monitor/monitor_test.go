package monitor

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
	"github.com/jins0704/OS-Simulator-VirtualMemory/stats"
	"github.com/jins0704/OS-Simulator-VirtualMemory/vm"
)

func newTestServer(t *testing.T) (*Server, *vm.Machine) {
	t.Helper()

	geo := mm.Geometry{PagesPerTable: 4, Frames: 8}
	machine, err := vm.NewMachine(geo, mm.PID(1))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(machine, stats.New(geo), logger), machine
}

func TestStateEndpoint(t *testing.T) {
	srv, machine := newTestServer(t)

	if _, err := machine.AllocatePage(mm.Page(2), mm.AccessWrite); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d; got %d", http.StatusOK, rec.Code)
	}

	var snap vm.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}

	if snap.Current.PID != mm.PID(1) || len(snap.Current.Mappings) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if snap.Current.Mappings[0].Page != mm.Page(2) || !snap.Current.Mappings[0].Writable {
		t.Fatalf("unexpected mapping view: %+v", snap.Current.Mappings[0])
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d; got %d", http.StatusOK, rec.Code)
	}

	var summary stats.Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d; got %d", http.StatusOK, rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d; got %d", http.StatusOK, resp.StatusCode)
	}

	if err := srv.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
