package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vmsim.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.PagesPerTable != mm.DefaultPagesPerTable || cfg.Frames != mm.DefaultFrames {
		t.Fatalf("expected default geometry; got %+v", cfg.Geometry())
	}

	if exp, got := slog.LevelInfo, cfg.Level(); got != exp {
		t.Fatalf("expected default level %v; got %v", exp, got)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"pages_per_table": 4,
		"frames": 8,
		"log_level": "DEBUG",
		"monitor_addr": "127.0.0.1:0",
		"requires": ">= 1.0.0"
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if exp := (mm.Geometry{PagesPerTable: 4, Frames: 8}); cfg.Geometry() != exp {
		t.Fatalf("expected geometry %+v; got %+v", exp, cfg.Geometry())
	}

	if exp, got := slog.LevelDebug, cfg.Level(); got != exp {
		t.Fatalf("expected level %v; got %v", exp, got)
	}

	if cfg.MonitorAddr != "127.0.0.1:0" {
		t.Fatalf("unexpected monitor address %q", cfg.MonitorAddr)
	}
}

func TestLoadFailures(t *testing.T) {
	specs := []struct {
		descr    string
		contents string
		expErr   error
	}{
		{"malformed json", `{"frames": `, nil},
		{"invalid geometry", `{"frames": -1}`, mm.ErrInvalidGeometry},
		{"bad constraint", `{"requires": "not-a-version"}`, nil},
		{"incompatible version", `{"requires": ">= 99.0.0"}`, ErrIncompatible},
	}

	for specIndex, spec := range specs {
		_, err := Load(writeConfig(t, spec.contents))
		if err == nil {
			t.Errorf("[spec %d] expected %s to be rejected", specIndex, spec.descr)
			continue
		}

		if spec.expErr != nil && !errors.Is(err, spec.expErr) {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected a missing file to be reported")
	}
}

func TestCompatibleConstraintForms(t *testing.T) {
	for specIndex, requires := range []string{"", ">= 1.0.0", "~1.2", "^1.0", "1.2.0"} {
		cfg := Default()
		cfg.Requires = requires

		if err := cfg.checkVersion(); err != nil {
			t.Errorf("[spec %d] expected constraint %q to admit version %s; got %v",
				specIndex, requires, Version, err)
		}
	}
}
