// Package app implements the application layer for ripple.
package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/google/uuid"
	"go.trai.ch/ripple/internal/adapters/settings" //nolint:depguard // Backend names are settings values
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	cleaner      ports.Cleaner
	logger       ports.Logger
	openers      map[string]ports.SignatureStoreOpener
	out          io.Writer
	newRunID     func() string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	cleaner ports.Cleaner,
	log ports.Logger,
	jsonStore ports.SignatureStoreOpener,
	sqliteStore ports.SignatureStoreOpener,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		cleaner:      cleaner,
		logger:       log,
		openers: map[string]ports.SignatureStoreOpener{
			settings.StoreJSON:   jsonStore,
			settings.StoreSQLite: sqliteStore,
		},
		out:      os.Stdout,
		newRunID: uuid.NewString,
	}
}

// WithOutput sets the writer reports and plans are printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// Options configure one invocation.
type Options struct {
	// Cwd is where declaration discovery starts.
	Cwd string
	// File overrides declaration discovery when set.
	File string
	// Store is the signature store backend, "json" when empty.
	Store string
	// Jobs bounds parallel stages; 0 means one per CPU.
	Jobs int
	// Force rebuilds every requested node.
	Force bool
	// DryRun predicts the rebuild set without running stages.
	DryRun bool
}

// DiscoverRoot returns the project root above cwd, or cwd itself when no
// declaration file is found.
func (a *App) DiscoverRoot(cwd string) string {
	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return cwd
	}
	return root
}

func (a *App) load(opts Options) (*domain.Graph, error) {
	cwd := opts.Cwd
	if cwd == "" {
		cwd = "."
	}
	graph, err := a.configLoader.Load(cwd, opts.File)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load declaration")
	}
	return graph, nil
}

func (a *App) openStore(backend, root string) (ports.SignatureStore, error) {
	if backend == "" {
		backend = settings.StoreJSON
	}
	opener, ok := a.openers[backend]
	if !ok || opener == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStoreBackend, "cannot open signature store"), "store", backend)
	}
	return opener.Open(root)
}

// Build brings the requested targets up to date and prints the report.
// Targets are node ids, output paths or aliases; none means all.
// A report with failed, skipped or cancelled nodes yields ErrBuildFailed.
func (a *App) Build(ctx context.Context, targets []string, opts Options) (_ *domain.Report, err error) {
	graph, err := a.load(opts)
	if err != nil {
		return nil, err
	}

	store, err := a.openStore(opts.Store, graph.Root())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, zerr.Wrap(cerr, "failed to close signature store"))
		}
	}()

	report, runErr := a.scheduler.Run(ctx, graph, store, targets, scheduler.Options{
		Parallelism: opts.Jobs,
		Force:       opts.Force,
		DryRun:      opts.DryRun,
		RunID:       a.newRunID(),
	})
	if report == nil {
		return nil, runErr
	}
	if rerr := a.renderReport(report); rerr != nil {
		a.logger.Warn("failed to print report", "error", rerr.Error())
	}
	if runErr != nil {
		return report, errors.Join(domain.ErrBuildFailed, runErr)
	}
	if report.Failed() {
		return report, zerr.With(zerr.Wrap(domain.ErrBuildFailed, "build finished with failures"), "failed", report.Count(domain.StatusFailed))
	}
	return report, nil
}

// Clean removes the outputs of the requested nodes and forgets their records.
// Unlike Build, targets are not expanded to their upstream closure.
func (a *App) Clean(_ context.Context, targets []string, opts Options) (err error) {
	graph, err := a.load(opts)
	if err != nil {
		return err
	}

	ids, err := graph.ResolveTargets(targets)
	if err != nil {
		return err
	}

	var (
		nodes   []string
		outputs []string
	)
	for _, id := range ids {
		node, _ := graph.GetNode(id)
		nodes = append(nodes, id.String())
		outputs = append(outputs, domain.Strings(node.Outputs)...)
	}

	store, err := a.openStore(opts.Store, graph.Root())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, zerr.Wrap(cerr, "failed to close signature store"))
		}
	}()

	removed, removeErr := a.cleaner.Remove(graph.Root(), outputs)
	for _, p := range removed {
		a.logger.Info("removed", "path", p)
	}

	// Records are forgotten even if some outputs could not be removed, so the
	// affected nodes are rebuilt next time.
	if err := store.Delete(nodes...); err != nil {
		return errors.Join(removeErr, err)
	}
	if removeErr != nil {
		return removeErr
	}

	return a.renderClean(len(nodes), removed)
}

// Plan prints the nodes a build of the targets would consider, in execution order.
func (a *App) Plan(_ context.Context, targets []string, opts Options) ([]string, error) {
	graph, err := a.load(opts)
	if err != nil {
		return nil, err
	}

	plan, err := scheduler.Plan(graph, targets)
	if err != nil {
		return nil, err
	}

	if err := a.renderPlan(graph, plan); err != nil {
		return nil, err
	}
	return domain.Strings(plan), nil
}
