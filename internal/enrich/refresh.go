package enrich

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/source"
	"github.com/tonasket-wiki/directory-cli/internal/store"
	"github.com/tonasket-wiki/directory-cli/pkg/geocode"
)

// Geocoder resolves an address to coordinates. *geocode.Client
// satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geocode.Result, error)
}

// Params bounds one refresh run. The same parameters always map to the
// same snapshot key, so a rerun replaces its predecessor wholesale.
type Params struct {
	Zip        string
	Limit      int
	ActiveOnly bool
}

// Config tunes batch processing. Batching exists to respect the
// external source's rate limits, not for local resource reasons.
type Config struct {
	BatchSize   int           `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	BatchDelay  time.Duration `yaml:"batch_delay" mapstructure:"batch_delay"`
}

// Refresher re-enriches a working set of businesses and writes the
// result as a whole snapshot.
type Refresher struct {
	store    store.Store
	adapter  source.Adapter
	geocoder Geocoder
	cfg      Config
	clock    func() time.Time
}

// NewRefresher builds a Refresher. clock may be nil, defaulting to
// time.Now; tests inject a fixed clock to control snapshot timestamps.
func NewRefresher(st store.Store, adapter source.Adapter, cfg Config, clock func() time.Time) *Refresher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if clock == nil {
		clock = time.Now
	}
	return &Refresher{store: st, adapter: adapter, cfg: cfg, clock: clock}
}

// WithGeocoder enables coordinate backfill for businesses that have
// none. Geocoding failures never fail the item.
func (r *Refresher) WithGeocoder(g Geocoder) *Refresher {
	r.geocoder = g
	return r
}

// Source reports the name of the adapter the refresher pulls from.
func (r *Refresher) Source() string { return r.adapter.Name() }

// Refresh enriches every business in the working set and replaces the
// snapshot for the parameter key. Per-item failures are logged and
// counted; the failed business passes through in its original form,
// so the snapshot always covers the full working set. A failed cache
// write is logged but the snapshot is still returned.
func (r *Refresher) Refresh(ctx context.Context, p Params) (*model.Snapshot, error) {
	working, err := r.store.ListBusinessesByZip(ctx, p.Zip, p.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: list working set")
	}

	log := zap.L().With(zap.String("zip", p.Zip), zap.String("source", r.adapter.Name()))
	log.Info("starting enrichment refresh",
		zap.Int("businesses", len(working)),
		zap.Int("batch_size", r.cfg.BatchSize),
	)

	out := make([]model.Business, len(working))
	copy(out, working)

	var enriched, failed atomic.Int64

	// Batches run strictly in sequence so the inter-batch delay is
	// honored; fan-out is bounded within each batch.
	for start := 0; start < len(working); start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, len(working))

		if start > 0 && r.cfg.BatchDelay > 0 {
			timer := time.NewTimer(r.cfg.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrap(ctx.Err(), "enrich: canceled between batches")
			case <-timer.C:
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Concurrency)

		for i := start; i < end; i++ {
			g.Go(func() error {
				// Each goroutine owns exactly one slot of out.
				b := out[i]
				merged, err := r.enrichOne(gctx, &b, p)
				if err != nil {
					failed.Add(1)
					log.Warn("enrichment lookup failed",
						zap.String("business", b.ID),
						zap.Error(err),
					)
					return nil // item passes through unchanged; batch continues
				}

				enriched.Add(1)
				if merged {
					out[i] = b
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "enrich: batch")
		}
	}

	snap := &model.Snapshot{
		Businesses: out,
		Timestamp:  r.clock().UTC(),
		Zip:        p.Zip,
		Limit:      p.Limit,
		ActiveOnly: p.ActiveOnly,
		Enriched:   int(enriched.Load()),
		Failed:     int(failed.Load()),
	}

	// The snapshot is written once, at the end, so an abandoned run
	// leaves the previous snapshot intact.
	if err := r.store.SetSnapshot(ctx, snap.ParamKey(), snap); err != nil {
		log.Error("snapshot cache write failed", zap.Error(err))
	}

	log.Info("enrichment refresh complete",
		zap.Int("enriched", snap.Enriched),
		zap.Int("failed", snap.Failed),
	)
	return snap, nil
}

// enrichOne looks up one business and merges the matching result.
// A lookup that returns no usable match is a success with no change.
func (r *Refresher) enrichOne(ctx context.Context, b *model.Business, p Params) (bool, error) {
	q := source.Query{
		Name:       b.Name,
		Zip:        p.Zip,
		Limit:      5,
		ActiveOnly: p.ActiveOnly,
	}
	if ubi, ok := b.SourceData["ubi"].(string); ok && ubi != "" {
		q.UBI = ubi
	}

	results, err := r.adapter.Lookup(ctx, q)
	if err != nil {
		return false, err
	}

	changed := false
	matched := false
	for i := range results {
		if results[i].BusinessID == b.ID {
			changed = Merge(b, &results[i])
			matched = true
			break
		}
	}
	// Fall back to the first result for name-based lookups: the source
	// may format the address differently enough to shift the derived id.
	if !matched && len(results) > 0 && q.UBI == "" && b.NameKey != "" {
		changed = Merge(b, &results[0])
	}

	if r.fillCoordinates(ctx, b) {
		changed = true
	}
	return changed, nil
}

// fillCoordinates backfills missing coordinates from the geocoder.
func (r *Refresher) fillCoordinates(ctx context.Context, b *model.Business) bool {
	if r.geocoder == nil || b.Coordinates != nil || b.Address == "" {
		return false
	}

	res, err := r.geocoder.Geocode(ctx, b.Address)
	if err != nil {
		zap.L().Debug("geocode failed",
			zap.String("business", b.ID),
			zap.Error(err),
		)
		return false
	}
	if res == nil {
		return false
	}

	b.Coordinates = &model.Coordinates{
		Latitude:  res.Latitude,
		Longitude: res.Longitude,
	}
	return true
}
