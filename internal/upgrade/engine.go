package upgrade

import (
	"context"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/logging"
	"github.com/wexinc/cargo-upgrade/internal/manifest"
	"github.com/wexinc/cargo-upgrade/internal/registry"
)

// DefaultConcurrency bounds the registry lookups in flight at once.
const DefaultConcurrency = 8

// EventType identifies the type of engine event.
type EventType string

const (
	EventManifestStarted EventType = "manifest_started"
	EventUpgraded        EventType = "upgraded"
	EventUnchanged       EventType = "unchanged"
	EventSkipped         EventType = "skipped"
	EventMissing         EventType = "missing"
	EventWritten         EventType = "written"
)

// Event is reported to observers while decisions are committed.
type Event struct {
	Type     EventType
	Manifest string
	// Decision is set for upgraded, unchanged and skipped events.
	Decision *Decision
	// Name is the requested dependency of a missing event.
	Name string
}

// EventHandler is a callback for engine events.
type EventHandler func(event Event)

// Options configures an upgrade run.
type Options struct {
	// Filter restricts the run to the named dependencies.
	Filter manifest.Filter
	// Exclude names dependencies that are never upgraded.
	Exclude []string
	// AllowPrerelease lets prerelease versions be selected.
	AllowPrerelease bool
	// DryRun computes and applies changes in memory but writes nothing.
	DryRun bool
	// Concurrency bounds parallel registry lookups.
	Concurrency int
	// OnEvent is called for each engine event (optional).
	OnEvent EventHandler
}

// DefaultOptions returns default engine options.
func DefaultOptions() *Options {
	return &Options{Concurrency: DefaultConcurrency}
}

// ManifestPlan holds the decisions made for one manifest.
type ManifestPlan struct {
	Manifest  *manifest.Manifest
	Decisions []Decision
	// Missing lists filter names the manifest does not declare.
	Missing []string
}

// Upgrades returns the decisions that change a requirement.
func (p *ManifestPlan) Upgrades() []Decision {
	var out []Decision
	for _, d := range p.Decisions {
		if d.Kind == Upgrade {
			out = append(out, d)
		}
	}
	return out
}

// Plan is the set of decisions for a run, one entry per manifest in
// traversal order.
type Plan struct {
	Manifests []*ManifestPlan
	// NotFound lists crates the registry does not know.
	NotFound []string
}

// Result describes what a run did to one manifest.
type Result struct {
	Path string
	Name string
	// Changes are the upgrades applied to the document.
	Changes []Decision
	// Skipped are dependencies that could not be upgraded.
	Skipped []Decision
	Missing []string
	// Before and After are the document bytes around the run.
	Before  []byte
	After   []byte
	Written bool
}

// Engine upgrades dependency requirements across a set of manifests.
type Engine struct {
	loader *manifest.Loader
	client registry.Client
	logger *logging.Logger
	opts   *Options
}

// NewEngine creates an engine that resolves versions through client and
// writes manifests through loader. Lookups are remembered for the life of
// the engine.
func NewEngine(loader *manifest.Loader, client registry.Client, logger *logging.Logger) *Engine {
	if loader == nil {
		loader = manifest.NewLoader(nil)
	}
	if logger == nil {
		logger = logging.Global()
	}
	if _, ok := client.(*registry.Memo); !ok {
		client = registry.NewMemo(client)
	}
	return &Engine{
		loader: loader,
		client: client,
		logger: logger,
		opts:   DefaultOptions(),
	}
}

// SetOptions sets the engine options.
func (e *Engine) SetOptions(opts *Options) {
	if opts != nil {
		e.opts = opts
	}
}

// Run plans and commits every upgrade.
func (e *Engine) Run(ctx context.Context, manifests []*manifest.Manifest) ([]Result, error) {
	plan, err := e.Plan(ctx, manifests)
	if err != nil {
		return nil, err
	}
	return e.Commit(ctx, plan, nil)
}

// Plan locates the dependencies of every manifest, looks up their versions
// and decides each new requirement. Nothing is modified. A virtual manifest
// or a failed registry lookup fails the whole plan.
func (e *Engine) Plan(ctx context.Context, manifests []*manifest.Manifest) (*Plan, error) {
	for _, m := range manifests {
		if m.IsVirtual() {
			return nil, uperrors.VirtualManifest(m.Path)
		}
	}

	excluded := make(map[string]struct{}, len(e.opts.Exclude))
	for _, n := range e.opts.Exclude {
		excluded[n] = struct{}{}
	}

	plan := &Plan{}
	located := make([][]manifest.Dependency, len(manifests))
	var crates []string
	for i, m := range manifests {
		deps := manifest.Locate(m, e.opts.Filter)
		located[i] = deps
		for _, d := range deps {
			if _, skip := excluded[d.Name]; skip || !d.HasVersion {
				continue
			}
			crates = append(crates, d.CrateName())
		}
	}

	e.logger.Debug("looking up versions", "crates", len(crates), "manifests", len(manifests))
	sets, notFound, err := registry.LookupAll(ctx, e.client, crates, e.opts.Concurrency)
	if err != nil {
		return nil, err
	}
	plan.NotFound = notFound
	unknown := make(map[string]struct{}, len(notFound))
	for _, n := range notFound {
		unknown[n] = struct{}{}
	}

	for i, m := range manifests {
		log := e.logger.WithContext(logging.WithManifest(ctx, m.Path))
		mp := &ManifestPlan{
			Manifest: m,
			Missing:  manifest.Missing(e.opts.Filter, located[i]),
		}
		for _, dep := range located[i] {
			var d Decision
			_, isExcluded := excluded[dep.Name]
			_, isUnknown := unknown[dep.CrateName()]
			switch {
			case isExcluded:
				d = skip(Decision{Dependency: dep, Old: dep.Version}, ReasonExcluded)
			case dep.HasVersion && isUnknown:
				d = skip(Decision{Dependency: dep, Old: dep.Version}, ReasonNotFound)
			default:
				d = ComputeNewRequirement(dep, sets[dep.CrateName()], e.opts.AllowPrerelease)
			}
			log.Debug("decided", "dependency", dep.Name, "section", dep.Section.String(),
				"decision", d.Kind.String(), "old", d.Old, "new", d.New, "reason", d.Reason)
			if d.Kind == Skipped && d.Reason != ReasonNoVersion && d.Reason != ReasonExcluded {
				log.Warn("dependency skipped", "dependency", dep.Name, "section", dep.Section.String(), "reason", d.Reason)
			}
			mp.Decisions = append(mp.Decisions, d)
		}
		plan.Manifests = append(plan.Manifests, mp)
	}
	return plan, nil
}

// Commit applies the upgrades of plan for which keep returns true (all of
// them when keep is nil), then writes each changed manifest once. Every
// document is edited before the first write, so a failed edit leaves all
// files untouched. With DryRun set nothing is written.
func (e *Engine) Commit(ctx context.Context, plan *Plan, keep func(*ManifestPlan, Decision) bool) ([]Result, error) {
	results := make([]Result, 0, len(plan.Manifests))
	for _, mp := range plan.Manifests {
		m := mp.Manifest
		e.emit(Event{Type: EventManifestStarted, Manifest: m.Path})
		r := Result{
			Path:    m.Path,
			Name:    m.Name(),
			Missing: mp.Missing,
			Before:  m.Original(),
		}
		for _, d := range mp.Decisions {
			switch d.Kind {
			case Upgrade:
				if keep != nil && !keep(mp, d) {
					continue
				}
				if err := Apply(m, d); err != nil {
					return nil, err
				}
				r.Changes = append(r.Changes, d)
				e.emit(Event{Type: EventUpgraded, Manifest: m.Path, Decision: &d})
			case Unchanged:
				e.emit(Event{Type: EventUnchanged, Manifest: m.Path, Decision: &d})
			case Skipped:
				r.Skipped = append(r.Skipped, d)
				e.emit(Event{Type: EventSkipped, Manifest: m.Path, Decision: &d})
			}
		}
		for _, name := range mp.Missing {
			e.logger.WithContext(logging.WithManifest(ctx, m.Path)).Warn("dependency not declared", "dependency", name)
			e.emit(Event{Type: EventMissing, Manifest: m.Path, Name: name})
		}
		r.After = m.Doc.Bytes()
		results = append(results, r)
	}

	if e.opts.DryRun {
		return results, nil
	}
	for i, mp := range plan.Manifests {
		if !mp.Manifest.Changed() {
			continue
		}
		if err := e.loader.Save(mp.Manifest); err != nil {
			return results, err
		}
		results[i].Written = true
		e.logger.Info("manifest written", "path", mp.Manifest.Path, "changes", len(results[i].Changes))
		e.emit(Event{Type: EventWritten, Manifest: mp.Manifest.Path})
	}
	return results, nil
}

func (e *Engine) emit(ev Event) {
	if e.opts.OnEvent != nil {
		e.opts.OnEvent(ev)
	}
}
