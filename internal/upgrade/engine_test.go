package upgrade

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/logging"
	"github.com/wexinc/cargo-upgrade/internal/manifest"
	"github.com/wexinc/cargo-upgrade/internal/registry"
)

const demoPath = "/demo/Cargo.toml"

const demoManifest = `[package]
name = "demo"
version = "0.1.0"

[dependencies]
docopt = "0.4"   # cli
pad = { version = "0.1", optional = true, features = ["a"] }
local = { path = "../local" }
renamed = { package = "serde", version = "^1.0.0", default-features = false }
ghost = "1.0"

[dev-dependencies.tempfile]
version = ">= 2.0"
features = ["nightly"]

[target.'cfg(unix)'.dependencies]
libc = "0.2.1"
docopt = "0.4"
`

const demoUpgraded = `[package]
name = "demo"
version = "0.1.0"

[dependencies]
docopt = "0.8.3"   # cli
pad = { version = "0.1.6", optional = true, features = ["a"] }
local = { path = "../local" }
renamed = { package = "serde", version = "^1.0.100", default-features = false }
ghost = "1.0"

[dev-dependencies.tempfile]
version = ">= 3.1.0"
features = ["nightly"]

[target.'cfg(unix)'.dependencies]
libc = "0.2.1"
docopt = "0.8.3"
`

func demoRegistry() *registry.StaticClient {
	return registry.StaticVersions(map[string][]string{
		"docopt":   {"0.4.0", "0.8.3", "0.9.0-alpha"},
		"pad":      {"0.1.0", "0.1.6"},
		"serde":    {"1.0.0", "1.0.100"},
		"tempfile": {"2.0.0", "3.1.0"},
		"libc":     {"0.2.0", "0.2.1"},
	})
}

func loadAll(t *testing.T, loader *manifest.Loader, paths ...string) []*manifest.Manifest {
	t.Helper()
	var out []*manifest.Manifest
	for _, p := range paths {
		m, err := loader.Load(p)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", p, err)
		}
		out = append(out, m)
	}
	return out
}

func changeList(ds []Decision) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Dependency.Section.String()+"/"+d.Dependency.Name+" "+d.Old+" -> "+d.New)
	}
	return out
}

func TestEngineRun(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoManifest})
	loader := manifest.NewLoader(fsys)
	client := demoRegistry()

	var events []EventType
	engine := NewEngine(loader, client, nil)
	opts := DefaultOptions()
	opts.OnEvent = func(ev Event) { events = append(events, ev.Type) }
	engine.SetOptions(opts)

	results, err := engine.Run(context.Background(), loadAll(t, loader, demoPath))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := fsys.File(demoPath); got != demoUpgraded {
		t.Errorf("manifest mismatch\n got:\n%s\nwant:\n%s", got, demoUpgraded)
	}
	if diff := cmp.Diff([]string{demoPath}, fsys.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	r := results[0]
	wantChanges := []string{
		"dependencies/docopt 0.4 -> 0.8.3",
		"dependencies/pad 0.1 -> 0.1.6",
		"dependencies/renamed ^1.0.0 -> ^1.0.100",
		"dev-dependencies/tempfile >= 2.0 -> >= 3.1.0",
		"target.cfg(unix).dependencies/docopt 0.4 -> 0.8.3",
	}
	if diff := cmp.Diff(wantChanges, changeList(r.Changes)); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if !r.Written || r.Name != "demo" {
		t.Errorf("Written = %v, Name = %q", r.Written, r.Name)
	}
	if string(r.Before) != demoManifest || string(r.After) != demoUpgraded {
		t.Error("Before/After do not match the manifest contents")
	}

	skipped := map[string]string{}
	for _, d := range r.Skipped {
		skipped[d.Dependency.Name] = d.Reason
	}
	if diff := cmp.Diff(map[string]string{"local": ReasonNoVersion, "ghost": ReasonNotFound}, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}

	if client.Calls("docopt") != 1 {
		t.Errorf("docopt looked up %d times, want 1", client.Calls("docopt"))
	}
	if len(events) == 0 || events[0] != EventManifestStarted || events[len(events)-1] != EventWritten {
		t.Errorf("unexpected event sequence: %v", events)
	}
}

func TestEngineIdempotent(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoManifest})
	loader := manifest.NewLoader(fsys)
	client := demoRegistry()

	for i := range 2 {
		engine := NewEngine(loader, client, nil)
		if _, err := engine.Run(context.Background(), loadAll(t, loader, demoPath)); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	if got := fsys.File(demoPath); got != demoUpgraded {
		t.Errorf("second run changed the manifest:\n%s", got)
	}
	if n := len(fsys.Writes()); n != 1 {
		t.Errorf("manifest written %d times, want 1", n)
	}
}

func TestEngineNoChangesKeepsBytes(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoUpgraded})
	loader := manifest.NewLoader(fsys)

	results, err := NewEngine(loader, demoRegistry(), nil).Run(context.Background(), loadAll(t, loader, demoPath))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if results[0].Written || len(results[0].Changes) != 0 {
		t.Errorf("unexpected changes: %v", changeList(results[0].Changes))
	}
	if len(fsys.Writes()) != 0 {
		t.Errorf("writes = %v, want none", fsys.Writes())
	}
}

func TestEngineFilter(t *testing.T) {
	const src = "[package]\nname = \"ab\"\n\n[dependencies]\na = \"0.1.0\"\nb = \"0.1.0\"\n"
	fsys := manifest.NewMemFS(map[string]string{"/ab/Cargo.toml": src})
	loader := manifest.NewLoader(fsys)
	client := registry.StaticVersions(map[string][]string{"a": {"0.2.0"}, "b": {"0.2.0"}})

	var missing []string
	engine := NewEngine(loader, client, nil)
	engine.SetOptions(&Options{
		Filter:  manifest.NewFilter("a", "zzz"),
		OnEvent: func(ev Event) {
			if ev.Type == EventMissing {
				missing = append(missing, ev.Name)
			}
		},
	})

	results, err := engine.Run(context.Background(), loadAll(t, loader, "/ab/Cargo.toml"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "[package]\nname = \"ab\"\n\n[dependencies]\na = \"0.2.0\"\nb = \"0.1.0\"\n"
	if got := fsys.File("/ab/Cargo.toml"); got != want {
		t.Errorf("manifest = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"zzz"}, results[0].Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"zzz"}, missing); diff != "" {
		t.Errorf("missing events mismatch (-want +got):\n%s", diff)
	}
	if client.Calls("b") != 0 {
		t.Error("filtered-out dependency was looked up")
	}
}

func TestEngineExcludeAndPrerelease(t *testing.T) {
	const src = "[package]\nname = \"p\"\n\n[dependencies]\na = \"1.0.0\"\nb = \"1.0.0\"\n"
	fsys := manifest.NewMemFS(map[string]string{"/p/Cargo.toml": src})
	loader := manifest.NewLoader(fsys)
	client := registry.StaticVersions(map[string][]string{
		"a": {"1.0.0", "1.1.0-alpha"},
		"b": {"1.0.0", "2.0.0"},
	})

	engine := NewEngine(loader, client, nil)
	engine.SetOptions(&Options{AllowPrerelease: true, Exclude: []string{"b"}})
	results, err := engine.Run(context.Background(), loadAll(t, loader, "/p/Cargo.toml"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "[package]\nname = \"p\"\n\n[dependencies]\na = \"1.1.0-alpha\"\nb = \"1.0.0\"\n"
	if got := fsys.File("/p/Cargo.toml"); got != want {
		t.Errorf("manifest = %q, want %q", got, want)
	}
	if len(results[0].Skipped) != 1 || results[0].Skipped[0].Reason != ReasonExcluded {
		t.Errorf("Skipped = %+v", results[0].Skipped)
	}
}

func TestEngineDryRun(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoManifest})
	loader := manifest.NewLoader(fsys)

	engine := NewEngine(loader, demoRegistry(), nil)
	engine.SetOptions(&Options{DryRun: true})
	results, err := engine.Run(context.Background(), loadAll(t, loader, demoPath))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fsys.Writes()) != 0 {
		t.Errorf("dry run wrote %v", fsys.Writes())
	}
	if string(results[0].After) != demoUpgraded || results[0].Written {
		t.Error("dry run should report the would-be contents without writing")
	}
}

func TestEngineCommitSelection(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoManifest})
	loader := manifest.NewLoader(fsys)
	engine := NewEngine(loader, demoRegistry(), nil)

	plan, err := engine.Plan(context.Background(), loadAll(t, loader, demoPath))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if n := len(plan.Manifests[0].Upgrades()); n != 5 {
		t.Fatalf("len(Upgrades()) = %d, want 5", n)
	}
	if diff := cmp.Diff([]string{"ghost"}, plan.NotFound); diff != "" {
		t.Errorf("NotFound mismatch (-want +got):\n%s", diff)
	}

	results, err := engine.Commit(context.Background(), plan, func(_ *ManifestPlan, d Decision) bool {
		return d.Dependency.Name == "pad"
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if diff := cmp.Diff([]string{"dependencies/pad 0.1 -> 0.1.6"}, changeList(results[0].Changes)); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	m, err := loader.Load(demoPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Doc.Get("dependencies", "docopt"); got.Raw() != `"0.4"` {
		t.Errorf("unselected docopt was rewritten to %s", got.Raw())
	}
}

func TestEngineRejectsVirtualManifest(t *testing.T) {
	const virtual = "[workspace]\nmembers = [\"a\"]\n\n[dependencies]\nx = \"0.1\"\n"
	fsys := manifest.NewMemFS(map[string]string{"/ws/Cargo.toml": virtual})
	loader := manifest.NewLoader(fsys)

	_, err := NewEngine(loader, demoRegistry(), nil).Run(context.Background(), loadAll(t, loader, "/ws/Cargo.toml"))
	if !errors.Is(err, uperrors.ErrVirtualManifest) {
		t.Fatalf("Run() error = %v, want ErrVirtualManifest", err)
	}
	if len(fsys.Writes()) != 0 {
		t.Errorf("writes = %v, want none", fsys.Writes())
	}
}

func TestEngineRegistryFailureWritesNothing(t *testing.T) {
	const other = "/other/Cargo.toml"
	fsys := manifest.NewMemFS(map[string]string{
		demoPath: demoManifest,
		other:    "[package]\nname = \"other\"\n\n[dependencies]\nbroken = \"1\"\n",
	})
	loader := manifest.NewLoader(fsys)
	boom := uperrors.RegistryLookup("broken", errors.New("connection reset"))
	client := failing{Client: demoRegistry(), name: "broken", err: boom}

	_, err := NewEngine(loader, client, nil).Run(context.Background(), loadAll(t, loader, demoPath, other))
	if !errors.Is(err, uperrors.ErrRegistry) {
		t.Fatalf("Run() error = %v, want ErrRegistry", err)
	}
	if len(fsys.Writes()) != 0 {
		t.Errorf("writes = %v, want none", fsys.Writes())
	}
}

type failing struct {
	registry.Client
	name string
	err  error
}

func (f failing) Lookup(ctx context.Context, name string) (registry.VersionSet, error) {
	if name == f.name {
		return registry.VersionSet{}, f.err
	}
	return f.Client.Lookup(ctx, name)
}

func TestEnginePlanWarnsOnSkips(t *testing.T) {
	fsys := manifest.NewMemFS(map[string]string{demoPath: demoManifest})
	loader := manifest.NewLoader(fsys)

	var buf bytes.Buffer
	logger, err := logging.New(&logging.Config{Level: logging.LevelWarn, Console: true, Output: &buf})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	engine := NewEngine(loader, demoRegistry(), logger)
	opts := DefaultOptions()
	opts.Exclude = []string{"pad"}
	engine.SetOptions(opts)

	if _, err := engine.Plan(context.Background(), loadAll(t, loader, demoPath)); err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	out := buf.String()
	if strings.Count(out, "dependency skipped") != 1 || !strings.Contains(out, "dependency=ghost") {
		t.Errorf("expected one warning, for ghost:\n%s", out)
	}
	for _, quiet := range []string{"dependency=local", "dependency=pad"} {
		if strings.Contains(out, quiet) {
			t.Errorf("%s should not be warned about:\n%s", quiet, out)
		}
	}
}
