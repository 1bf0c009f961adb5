package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope/pkg/analyzer"
	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/maintainers"
	"github.com/depscope/depscope/pkg/observability"
	"github.com/depscope/depscope/pkg/overrides"
	"github.com/depscope/depscope/pkg/repoquery"
	"github.com/depscope/depscope/pkg/storage"
)

// BuilderOptions configures a Builder. Service and LoadConfig are
// required; everything else has a working default.
type BuilderOptions struct {
	// Service fetches partition contents.
	Service repoquery.Service

	// Directory resolves maintainers. Defaults to an empty directory.
	Directory maintainers.Directory

	// Store receives published snapshots. Defaults to a fresh store.
	Store *Store

	// Persist materializes partition results for external consumption
	// and warm starts. Defaults to the null store.
	Persist storage.Store

	// LoadConfig returns the active configuration. Called at the start
	// of every cycle so configuration changes apply without a restart.
	LoadConfig func() (*config.Config, error)

	// LoadOverrides returns the active override filter for the given
	// configuration. Called once per cycle; a load failure aborts the
	// cycle and the previous snapshot stays published.
	LoadOverrides func(*config.Config) (*overrides.Filter, error)

	// Overrides seeds the filter served by the read API before the
	// first cycle completes.
	Overrides *overrides.Filter

	Logger *log.Logger

	// Now injects a clock for tests.
	Now func() time.Time
}

// Builder executes refresh cycles: fetch every configured partition,
// analyze it, filter known false positives, attribute maintainers, and
// publish the assembled snapshot in a single atomic handoff.
type Builder struct {
	service       repoquery.Service
	directory     maintainers.Directory
	store         *Store
	persist       storage.Store
	loadConfig    func() (*config.Config, error)
	loadOverrides func(*config.Config) (*overrides.Filter, error)
	logger        *log.Logger
	now           func() time.Time

	filter atomic.Pointer[overrides.Filter]
}

// NewBuilder creates a Builder from options.
func NewBuilder(opts BuilderOptions) *Builder {
	b := &Builder{
		service:       opts.Service,
		directory:     opts.Directory,
		store:         opts.Store,
		persist:       opts.Persist,
		loadConfig:    opts.LoadConfig,
		loadOverrides: opts.LoadOverrides,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if b.directory == nil {
		b.directory = maintainers.Static{}
	}
	if b.store == nil {
		b.store = NewStore()
	}
	if b.persist == nil {
		b.persist = storage.NewNullStore()
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	if b.now == nil {
		b.now = time.Now
	}
	if opts.Overrides != nil {
		b.filter.Store(opts.Overrides)
	}
	return b
}

// Store returns the snapshot store the builder publishes to.
func (b *Builder) Store() *Store { return b.store }

// Overrides returns the override filter of the most recent cycle, or
// the seed filter before the first cycle. May be nil if never seeded.
func (b *Builder) Overrides() *overrides.Filter { return b.filter.Load() }

// RunCycle executes one full refresh cycle and publishes the resulting
// snapshot. Partition failures fall back to the previous snapshot's
// contribution; only configuration or override load failures abort the
// cycle entirely.
func (b *Builder) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	started := b.now()

	cfg, err := b.loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	filter, err := b.loadOverrides(cfg)
	if err != nil {
		return fmt.Errorf("loading overrides: %w", err)
	}
	b.filter.Store(filter)

	if timeout := cfg.Service.CycleTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	parts, err := cfg.Matrix()
	if err != nil {
		return fmt.Errorf("deriving partition matrix: %w", err)
	}
	prev := b.store.Current()
	hooks := observability.Refresh()
	hooks.OnCycleStart(ctx, cycleID, len(parts))
	b.logger.Info("starting refresh cycle", "cycle", cycleID, "partitions", len(parts))

	results := make([]*PartitionResult, len(parts))
	g := &errgroup.Group{}
	g.SetLimit(cfg.Service.Workers)
	for i, part := range parts {
		g.Go(func() error {
			results[i] = b.refreshPartition(ctx, cycleID, part, filter, prev)
			return nil
		})
	}
	_ = g.Wait()

	next := &Snapshot{
		Generation: prev.Generation + 1,
		CreatedAt:  b.now(),
		Partitions: make(map[string]PartitionResult, len(parts)),
		Admins:     make(map[string]string),
	}
	for i, part := range parts {
		if results[i] == nil {
			continue
		}
		next.Partitions[part.Key()] = *results[i]
		for _, item := range results[i].Items {
			if item.Admin != maintainers.UnknownAdmin {
				next.Admins[item.Source] = item.Admin
			}
		}
	}

	if err := b.store.Publish(next); err != nil {
		return err
	}
	hooks.OnPublish(ctx, next.Generation, len(next.Partitions), next.TotalBroken())
	hooks.OnCycleComplete(ctx, cycleID, next.Generation, b.now().Sub(started), nil)
	b.logger.Info("published snapshot",
		"cycle", cycleID,
		"generation", next.Generation,
		"partitions", len(next.Partitions),
		"broken", next.TotalBroken(),
		"duration", b.now().Sub(started))

	b.materialize(ctx, parts, results)
	return nil
}

// refreshPartition produces one partition's result, falling back to the
// previous snapshot's contribution on failure. A nil return means the
// partition failed and had no previous contribution to fall back to.
func (b *Builder) refreshPartition(ctx context.Context, cycleID string, part config.Partition, filter *overrides.Filter, prev *Snapshot) *PartitionResult {
	key := part.Key()
	hooks := observability.Refresh()
	hooks.OnPartitionStart(ctx, cycleID, key)
	started := b.now()

	prevResult, hadPrev := prev.Partitions[key]
	items, err := b.buildPartition(ctx, part, filter, prevResult)
	if err != nil {
		hooks.OnPartitionComplete(ctx, cycleID, key, 0, b.now().Sub(started), err)
		hooks.OnPartitionFallback(ctx, cycleID, key, err)
		if !hadPrev {
			b.logger.Error("partition refresh failed with no previous data",
				"partition", key, "error", err)
			return nil
		}
		b.logger.Error("partition refresh failed, keeping previous data",
			"partition", key, "error", err)
		return &PartitionResult{
			Fresh:     false,
			UpdatedAt: prevResult.UpdatedAt,
			Items:     prevResult.Items,
		}
	}

	hooks.OnPartitionComplete(ctx, cycleID, key, len(items), b.now().Sub(started), nil)
	return &PartitionResult{Fresh: true, UpdatedAt: b.now(), Items: items}
}

// buildPartition fetches, analyzes, and filters one partition.
func (b *Builder) buildPartition(ctx context.Context, part config.Partition, filter *overrides.Filter, prev PartitionResult) ([]Item, error) {
	pkgs, err := b.service.Fetch(ctx, part)
	if err != nil {
		return nil, err
	}
	broken := analyzer.Analyze(pkgs)

	checked := make(map[string]struct{}, len(part.Check))
	for _, repo := range part.Check {
		checked[repo] = struct{}{}
	}

	byPkg := make(map[itemKey]*Item)
	var order []itemKey
	for _, bd := range broken {
		if len(checked) > 0 {
			if _, ok := checked[bd.Package.Repo]; !ok {
				continue
			}
		}
		if filter.Suppressed(part.Release, part.Arch, bd.Package.Name, bd.Capability) {
			continue
		}

		key := itemKey{pkg: bd.Package.Name, repo: bd.Package.Repo, arch: bd.Package.Arch}
		item, ok := byPkg[key]
		if !ok {
			source := bd.Package.SourceName
			if bd.Package.IsSource() {
				source = bd.Package.Name
			}
			admin, found := b.directory.Admin(source)
			if !found {
				admin = maintainers.UnknownAdmin
			}
			item = &Item{
				Source:      source,
				Package:     bd.Package.Name,
				EVR:         bd.Package.EVR,
				Arch:        bd.Package.Arch,
				Repo:        bd.Package.Repo,
				Admin:       admin,
				Maintainers: b.directory.Maintainers(source),
			}
			byPkg[key] = item
			order = append(order, key)
		}
		item.Broken = append(item.Broken, bd.Capability)
	}

	// Packages broken in the previous cycle keep their original Since.
	prevSince := make(map[itemKey]time.Time, len(prev.Items))
	for _, item := range prev.Items {
		prevSince[item.key()] = item.Since
	}

	now := b.now()
	items := make([]Item, 0, len(order))
	for _, key := range order {
		item := byPkg[key]
		sort.Strings(item.Broken)
		if since, ok := prevSince[key]; ok {
			item.Since = since
		} else {
			item.Since = now
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Package != items[j].Package {
			return items[i].Package < items[j].Package
		}
		if items[i].Arch != items[j].Arch {
			return items[i].Arch < items[j].Arch
		}
		return items[i].Repo < items[j].Repo
	})
	return items, nil
}

// materialize writes freshly computed partition results through to the
// byte store. Failures are logged but never fail the cycle.
func (b *Builder) materialize(ctx context.Context, parts []config.Partition, results []*PartitionResult) {
	hooks := observability.Storage()
	for i, part := range parts {
		if results[i] == nil || !results[i].Fresh {
			continue
		}
		data, err := json.Marshal(results[i])
		if err == nil {
			err = b.persist.Set(ctx, storageKey(part.Key()), data)
		}
		hooks.OnStoreWrite(ctx, storageKey(part.Key()), len(data), err)
		if err != nil {
			b.logger.Error("failed to materialize partition",
				"partition", part.Key(), "error", err)
		}
	}
}

// WarmStart publishes a snapshot restored from the materialized store,
// so cached results are served until the first refresh cycle completes.
// Missing or unreadable entries are skipped; with nothing restored the
// empty snapshot stays published.
func (b *Builder) WarmStart(ctx context.Context) error {
	cfg, err := b.loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	prev := b.store.Current()
	next := &Snapshot{
		Generation: prev.Generation + 1,
		CreatedAt:  b.now(),
		Partitions: make(map[string]PartitionResult),
		Admins:     make(map[string]string),
	}

	parts, err := cfg.Matrix()
	if err != nil {
		return fmt.Errorf("deriving partition matrix: %w", err)
	}

	restored := 0
	for _, part := range parts {
		data, found, err := b.persist.Get(ctx, storageKey(part.Key()))
		if err != nil {
			b.logger.Warn("failed to read materialized partition",
				"partition", part.Key(), "error", err)
			continue
		}
		if !found {
			continue
		}
		var result PartitionResult
		if err := json.Unmarshal(data, &result); err != nil {
			b.logger.Warn("discarding unreadable materialized partition",
				"partition", part.Key(), "error", err)
			continue
		}
		result.Fresh = false
		next.Partitions[part.Key()] = result
		for _, item := range result.Items {
			if item.Admin != maintainers.UnknownAdmin {
				next.Admins[item.Source] = item.Admin
			}
		}
		restored++
	}

	if restored == 0 {
		return nil
	}
	observability.Storage().OnWarmStart(ctx, restored)
	b.logger.Info("restored materialized partitions", "partitions", restored)
	return b.store.Publish(next)
}

func storageKey(partition string) string {
	return "snapshot/" + partition
}
