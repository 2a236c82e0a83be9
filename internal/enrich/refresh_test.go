package enrich

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/source"
	"github.com/tonasket-wiki/directory-cli/internal/store"
	"github.com/tonasket-wiki/directory-cli/pkg/geocode"
)

// scriptedAdapter returns a canned result per business name and fails
// for names in the fail set.
type scriptedAdapter struct {
	byName map[string]model.EnrichmentResult
	fail   map[string]bool
	calls  atomic.Int64
}

func (a *scriptedAdapter) Name() string { return "scripted" }

func (a *scriptedAdapter) Lookup(_ context.Context, q source.Query) ([]model.EnrichmentResult, error) {
	a.calls.Add(1)
	if a.fail[q.Name] {
		return nil, eris.New("upstream unavailable")
	}
	r, ok := a.byName[q.Name]
	if !ok {
		return nil, nil
	}
	return []model.EnrichmentResult{r}, nil
}

func seedBusinesses(t *testing.T, st store.Store, n int) []model.Business {
	t.Helper()
	out := make([]model.Business, 0, n)
	for i := 0; i < n; i++ {
		b := model.Business{
			ID:         fmt.Sprintf("biz-%024d", i),
			Name:       fmt.Sprintf("Business %d", i),
			NameKey:    fmt.Sprintf("business %d", i),
			Address:    "123 Main St, Tonasket, WA 98855",
			AddressKey: "123 main st tonasket wa 98855",
			Category:   "Services",
		}
		require.NoError(t, st.CreateBusiness(context.Background(), &b))
		out = append(out, b)
	}
	return out
}

func TestRefresh_CountsAndFullSnapshot(t *testing.T) {
	st := store.NewMemory()
	seeded := seedBusinesses(t, st, 5)

	adapter := &scriptedAdapter{
		byName: map[string]model.EnrichmentResult{},
		fail:   map[string]bool{seeded[1].Name: true, seeded[3].Name: true},
	}
	for _, b := range seeded {
		adapter.byName[b.Name] = model.EnrichmentResult{
			BusinessID:    b.ID,
			Source:        "scripted",
			LicenseStatus: "Active",
		}
	}

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRefresher(st, adapter, Config{BatchSize: 2, Concurrency: 2}, func() time.Time { return fixed })

	snap, err := r.Refresh(context.Background(), Params{Zip: "98855", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Enriched)
	assert.Equal(t, 2, snap.Failed)
	assert.Len(t, snap.Businesses, 5)
	assert.Equal(t, fixed, snap.Timestamp)

	// Failed items pass through unchanged; enriched items carry the
	// authoritative license status.
	byID := make(map[string]model.Business, len(snap.Businesses))
	for _, b := range snap.Businesses {
		byID[b.ID] = b
	}
	assert.Equal(t, "Active", byID[seeded[0].ID].LicenseStatus)
	assert.Empty(t, byID[seeded[1].ID].LicenseStatus)
}

func TestRefresh_WritesSnapshotUnderParamKey(t *testing.T) {
	st := store.NewMemory()
	seedBusinesses(t, st, 2)

	adapter := &scriptedAdapter{byName: map[string]model.EnrichmentResult{}}
	r := NewRefresher(st, adapter, Config{BatchSize: 10}, nil)

	p := Params{Zip: "98855", Limit: 25, ActiveOnly: true}
	snap, err := r.Refresh(context.Background(), p)
	require.NoError(t, err)

	cached, err := st.GetSnapshot(context.Background(), model.SnapshotKey(p.Zip, p.Limit, p.ActiveOnly))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Len(t, cached.Businesses, len(snap.Businesses))
}

func TestRefresh_RerunReplacesSnapshot(t *testing.T) {
	st := store.NewMemory()
	seeded := seedBusinesses(t, st, 3)

	adapter := &scriptedAdapter{byName: map[string]model.EnrichmentResult{
		seeded[0].Name: {BusinessID: seeded[0].ID, Source: "scripted", LicenseStatus: "Active"},
	}}
	r := NewRefresher(st, adapter, Config{BatchSize: 10}, nil)

	p := Params{Zip: "98855", Limit: 10}
	_, err := r.Refresh(context.Background(), p)
	require.NoError(t, err)

	adapter.byName[seeded[0].Name] = model.EnrichmentResult{
		BusinessID:    seeded[0].ID,
		Source:        "scripted",
		LicenseStatus: "Closed",
	}
	_, err = r.Refresh(context.Background(), p)
	require.NoError(t, err)

	cached, err := st.GetSnapshot(context.Background(), model.SnapshotKey(p.Zip, p.Limit, p.ActiveOnly))
	require.NoError(t, err)
	require.NotNil(t, cached)

	var got string
	for _, b := range cached.Businesses {
		if b.ID == seeded[0].ID {
			got = b.LicenseStatus
		}
	}
	assert.Equal(t, "Closed", got)
}

func TestRefresh_EmptyWorkingSet(t *testing.T) {
	st := store.NewMemory()
	adapter := &scriptedAdapter{}
	r := NewRefresher(st, adapter, Config{}, nil)

	snap, err := r.Refresh(context.Background(), Params{Zip: "98855", Limit: 10})
	require.NoError(t, err)

	assert.Empty(t, snap.Businesses)
	assert.Zero(t, snap.Enriched)
	assert.Zero(t, snap.Failed)
	assert.Zero(t, adapter.calls.Load())
}

type fixedGeocoder struct {
	calls atomic.Int64
}

func (g *fixedGeocoder) Geocode(_ context.Context, address string) (*geocode.Result, error) {
	g.calls.Add(1)
	if address == "" {
		return nil, nil
	}
	return &geocode.Result{Latitude: 48.7049, Longitude: -119.4394}, nil
}

func TestRefresh_BackfillsCoordinates(t *testing.T) {
	st := store.NewMemory()
	seeded := seedBusinesses(t, st, 2)

	// The second business already has coordinates and must be skipped.
	withCoords := seeded[1]
	withCoords.Coordinates = &model.Coordinates{Latitude: 1, Longitude: 2}
	require.NoError(t, st.UpdateBusiness(context.Background(), &withCoords))

	geo := &fixedGeocoder{}
	adapter := &scriptedAdapter{byName: map[string]model.EnrichmentResult{}}
	r := NewRefresher(st, adapter, Config{BatchSize: 10}, nil).WithGeocoder(geo)

	snap, err := r.Refresh(context.Background(), Params{Zip: "98855", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, geo.calls.Load())

	byID := make(map[string]model.Business, len(snap.Businesses))
	for _, b := range snap.Businesses {
		byID[b.ID] = b
	}
	require.NotNil(t, byID[seeded[0].ID].Coordinates)
	assert.InDelta(t, 48.7049, byID[seeded[0].ID].Coordinates.Latitude, 0.0001)
	assert.Equal(t, &model.Coordinates{Latitude: 1, Longitude: 2}, byID[seeded[1].ID].Coordinates)
}

func TestRefresh_ContextCanceledBetweenBatches(t *testing.T) {
	st := store.NewMemory()
	seedBusinesses(t, st, 4)

	adapter := &scriptedAdapter{byName: map[string]model.EnrichmentResult{}}
	r := NewRefresher(st, adapter, Config{BatchSize: 2, BatchDelay: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := r.Refresh(ctx, Params{Zip: "98855", Limit: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
