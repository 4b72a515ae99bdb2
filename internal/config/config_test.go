package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: clicktrail, Property 5: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.:-]{1,20}`)

	// Each field is independently either unset or set.
	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasListenAddr") {
			cfg.ListenAddr = nonEmptyString.Draw(t, "listenAddr")
		}
		if rapid.Bool().Draw(t, "hasDwell") {
			cfg.DwellMS = rapid.IntRange(1, 5000).Draw(t, "dwellMS")
		}
		if rapid.Bool().Draw(t, "hasHeadless") {
			h := rapid.Bool().Draw(t, "headless")
			cfg.Headless = &h
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "DefaultFormat",
			global.DefaultFormat, project.DefaultFormat, defaults.DefaultFormat,
			merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			global.OutputDir, project.OutputDir, defaults.OutputDir,
			merged.OutputDir)
		checkStringField(t, "ListenAddr",
			global.ListenAddr, project.ListenAddr, defaults.ListenAddr,
			merged.ListenAddr)

		switch {
		case project.DwellMS > 0:
			if merged.DwellMS != project.DwellMS {
				t.Fatalf("DwellMS: expected project value %d, got %d", project.DwellMS, merged.DwellMS)
			}
		case global.DwellMS > 0:
			if merged.DwellMS != global.DwellMS {
				t.Fatalf("DwellMS: expected global value %d, got %d", global.DwellMS, merged.DwellMS)
			}
		default:
			if merged.DwellMS != defaults.DwellMS {
				t.Fatalf("DwellMS: expected default %d, got %d", defaults.DwellMS, merged.DwellMS)
			}
		}

		want := defaults.IsHeadless()
		if global.Headless != nil {
			want = *global.Headless
		}
		if project.Headless != nil {
			want = *project.Headless
		}
		if merged.IsHeadless() != want {
			t.Fatalf("Headless: expected %v, got %v", want, merged.IsHeadless())
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.DefaultFormat != "pdf" {
		t.Errorf("DefaultFormat: want %q, got %q", "pdf", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.Dwell() != 100*time.Millisecond {
		t.Errorf("Dwell: want 100ms, got %v", d.Dwell())
	}
	if d.IsHeadless() {
		t.Error("Headless: want false")
	}
	if (Config{}).Dwell() != 100*time.Millisecond {
		t.Error("zero Dwell should fall back to the default")
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.DefaultFormat != defaults.DefaultFormat {
		t.Errorf("DefaultFormat: want %q, got %q", defaults.DefaultFormat, cfg.DefaultFormat)
	}
	if cfg.ListenAddr != defaults.ListenAddr {
		t.Errorf("ListenAddr: want %q, got %q", defaults.ListenAddr, cfg.ListenAddr)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadMergesProjectOverGlobal(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgDir := filepath.Join(home, ".config", "clicktrail")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(`{"output_dir":"/reports","dwell_ms":250}`), 0o644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	chdir(t, project)
	if err := os.WriteFile(ProjectFile, []byte(`{"default_format":"json","headless":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "/reports" || cfg.DwellMS != 250 {
		t.Errorf("global values lost: %+v", cfg)
	}
	if cfg.DefaultFormat != "json" || !cfg.IsHeadless() {
		t.Errorf("project values lost: %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "clicktrail")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Path != filepath.Join(cfgDir, "config.json") {
		t.Errorf("ParseError.Path = %q", parseErr.Path)
	}
}

func TestWatchReportsChanges(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 4)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) { changes <- c }, func(err error) { errs <- err })
	}()

	// The watcher registers asynchronously; keep writing until it notices.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-changes:
			if c.DwellMS != 42 {
				t.Fatalf("DwellMS = %d, want 42", c.DwellMS)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-errs:
			// A partially written file may fail to parse; the next write fixes it.
		case <-tick.C:
			if err := os.WriteFile(path, []byte(`{"dwell_ms":42}`), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for a config change")
		}
	}
}
