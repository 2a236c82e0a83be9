package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testBusiness() *model.Business {
	return &model.Business{
		ID:         "biz-0123456789abcdef01234567",
		Name:       "Joe's Diner",
		NameKey:    "joes diner",
		Address:    "123 Main St, Tonasket, WA 98855",
		AddressKey: "123 main st tonasket wa 98855",
		Phone:      "5095550100",
		Email:      "joe@example.com",
		Website:    "https://joesdiner.example.com",
		Category:   "Dining",
		Services:   []string{"breakfast", "lunch"},
		SocialMedia: map[string]string{
			"facebook": "https://facebook.com/joesdiner",
		},
	}
}

func TestSQLite_CreateAndGetBusiness(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	b := testBusiness()
	require.NoError(t, s.CreateBusiness(ctx, b))

	got, err := s.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Joe's Diner", got.Name)
	assert.Equal(t, []string{"breakfast", "lunch"}, got.Services)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_GetBusiness_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetBusiness(context.Background(), "biz-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_CreateBusiness_DuplicateID(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBusiness(ctx, testBusiness()))
	assert.Error(t, s.CreateBusiness(ctx, testBusiness()))
}

func TestSQLite_FindByNameKey(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBusiness(ctx, testBusiness()))

	got, err := s.FindByNameKey(ctx, "joes diner")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "biz-0123456789abcdef01234567", got.ID)

	got, err = s.FindByNameKey(ctx, "valley dental")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_FindByAddressAndPhone(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBusiness(ctx, testBusiness()))

	got, err := s.FindByAddressAndPhone(ctx, "123 main st tonasket wa 98855", "5095550100")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Same address, different phone: no match.
	got, err = s.FindByAddressAndPhone(ctx, "123 main st tonasket wa 98855", "5095550199")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpdateBusiness(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	b := testBusiness()
	require.NoError(t, s.CreateBusiness(ctx, b))

	b.Description = "Cafe and diner on Main Street"
	b.LicenseStatus = "Active"
	require.NoError(t, s.UpdateBusiness(ctx, b))

	got, err := s.GetBusiness(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cafe and diner on Main Street", got.Description)
	assert.Equal(t, "Active", got.LicenseStatus)
}

func TestSQLite_UpdateBusiness_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	b := testBusiness()
	b.ID = "biz-missing"
	assert.Error(t, s.UpdateBusiness(context.Background(), b))
}

func TestSQLite_ListBusinessesByZip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	b1 := testBusiness()
	require.NoError(t, s.CreateBusiness(ctx, b1))

	b2 := testBusiness()
	b2.ID = "biz-fedcba9876543210fedcba98"
	b2.Name = "Valley Dental"
	b2.NameKey = "valley dental"
	b2.Address = "45 Orchard Ave, Omak, WA 98841"
	b2.AddressKey = "45 orchard ave omak wa 98841"
	require.NoError(t, s.CreateBusiness(ctx, b2))

	got, err := s.ListBusinessesByZip(ctx, "98855", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Joe's Diner", got[0].Name)

	got, err = s.ListBusinessesByZip(ctx, "98841", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Valley Dental", got[0].Name)
}

func TestSQLite_SubmissionLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	sub := &model.Submission{
		ID:          "f3a85f64-5717-4562-b3fc-2c963f66afa6",
		Business:    *testBusiness(),
		Status:      model.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateSubmission(ctx, sub))

	got, err := s.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "Joe's Diner", got.Business.Name)
	assert.Nil(t, got.ReviewedAt)

	now := time.Now().UTC()
	got.Status = model.StatusApproved
	got.ReviewedAt = &now
	require.NoError(t, s.UpdateSubmission(ctx, got))

	got, err = s.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	require.NotNil(t, got.ReviewedAt)
}

func TestSQLite_ListSubmissions_FilterByStatus(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i, status := range []model.SubmissionStatus{model.StatusPending, model.StatusRejected, model.StatusPending} {
		sub := &model.Submission{
			ID:          string(rune('a'+i)) + "3a85f64-5717-4562-b3fc-2c963f66afa6",
			Business:    *testBusiness(),
			Status:      status,
			SubmittedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateSubmission(ctx, sub))
	}

	got, err := s.ListSubmissions(ctx, SubmissionFilter{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListSubmissions(ctx, SubmissionFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLite_SnapshotReplace(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	key := model.SnapshotKey("98855", 10, true)

	got, err := s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	first := &model.Snapshot{
		Businesses: []model.Business{*testBusiness()},
		Timestamp:  time.Now().UTC(),
		Zip:        "98855",
		Limit:      10,
		ActiveOnly: true,
		Enriched:   1,
	}
	require.NoError(t, s.SetSnapshot(ctx, key, first))

	second := &model.Snapshot{
		Timestamp:  time.Now().UTC(),
		Zip:        "98855",
		Limit:      10,
		ActiveOnly: true,
		Failed:     1,
	}
	require.NoError(t, s.SetSnapshot(ctx, key, second))

	got, err = s.GetSnapshot(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	// The second write fully replaced the first.
	assert.Empty(t, got.Businesses)
	assert.Equal(t, 1, got.Failed)
}
