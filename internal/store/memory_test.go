package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

func TestMemory_ImplementsStore(t *testing.T) {
	var _ Store = NewMemory()
}

func TestMemory_BusinessRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	b := testBusiness()
	require.NoError(t, s.CreateBusiness(ctx, b))
	assert.Error(t, s.CreateBusiness(ctx, b))

	got, err := s.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.Name, got.Name)

	got, err = s.FindByNameKey(ctx, "joes diner")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = s.FindByAddressAndPhone(ctx, b.AddressKey, b.Phone)
	require.NoError(t, err)
	require.NotNil(t, got)

	byZip, err := s.ListBusinessesByZip(ctx, "98855", 0)
	require.NoError(t, err)
	assert.Len(t, byZip, 1)
}

func TestMemory_SubmissionFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for i, status := range []model.SubmissionStatus{model.StatusPending, model.StatusApproved} {
		require.NoError(t, s.CreateSubmission(ctx, &model.Submission{
			ID:          string(rune('a' + i)),
			Status:      status,
			SubmittedAt: time.Now().UTC(),
		}))
	}

	got, err := s.ListSubmissions(ctx, SubmissionFilter{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemory_SnapshotReplace(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	key := model.SnapshotKey("98855", 5, false)

	require.NoError(t, s.SetSnapshot(ctx, key, &model.Snapshot{Enriched: 3}))
	require.NoError(t, s.SetSnapshot(ctx, key, &model.Snapshot{Enriched: 1}))

	got, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Enriched)
}
