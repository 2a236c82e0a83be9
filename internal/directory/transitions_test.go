package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonasket-wiki/directory-cli/internal/dedup"
	"github.com/tonasket-wiki/directory-cli/internal/model"
)

func submitPending(t *testing.T, svc *Service, in Input) *model.Submission {
	t.Helper()
	sub, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	return sub
}

func TestApprove_CreatesBusinessRecord(t *testing.T) {
	svc, st := newTestService()
	sub := submitPending(t, svc, validInput())

	b, err := svc.Approve(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.Business.ID, b.ID)
	assert.Equal(t, testClock(), b.CreatedAt)

	stored, err := st.GetBusiness(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	reviewed, err := st.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, testClock(), *reviewed.ReviewedAt)
}

func TestApprove_RechecksDuplicates(t *testing.T) {
	svc, _ := newTestService()

	// Two submissions for the same business both pass the pending
	// check; only the first approval may create the record.
	first := submitPending(t, svc, validInput())
	second := submitPending(t, svc, validInput())

	_, err := svc.Approve(context.Background(), first.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), second.ID)
	var derr *dedup.DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dedup.RuleID, derr.Rule)
}

func TestReject_MarksRejected(t *testing.T) {
	svc, st := newTestService()
	sub := submitPending(t, svc, validInput())

	require.NoError(t, svc.Reject(context.Background(), sub.ID))

	stored, err := st.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.NotNil(t, stored.ReviewedAt)

	// Rejection never creates a business record.
	b, err := st.GetBusiness(context.Background(), sub.Business.ID)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestRequestInfoAndResubmit(t *testing.T) {
	svc, st := newTestService()
	sub := submitPending(t, svc, validInput())

	require.NoError(t, svc.RequestInfo(context.Background(), sub.ID))
	stored, err := st.GetSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsInfo, stored.Status)

	updated := validInput()
	updated.Description = "Family diner, open since 1982"
	back, err := svc.Resubmit(context.Background(), sub.ID, &updated)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, back.Status)
	assert.Nil(t, back.ReviewedAt)
	assert.Equal(t, "Family diner, open since 1982", back.Business.Description)
}

func TestResubmit_WithoutUpdateKeepsBusiness(t *testing.T) {
	svc, _ := newTestService()
	sub := submitPending(t, svc, validInput())

	require.NoError(t, svc.RequestInfo(context.Background(), sub.ID))
	back, err := svc.Resubmit(context.Background(), sub.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, back.Status)
	assert.Equal(t, sub.Business.ID, back.Business.ID)
}

func TestTransitions_InvalidState(t *testing.T) {
	svc, _ := newTestService()
	sub := submitPending(t, svc, validInput())
	require.NoError(t, svc.Reject(context.Background(), sub.ID))

	_, err := svc.Approve(context.Background(), sub.ID)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.StatusRejected, terr.From)
	assert.Equal(t, "approve", terr.Action)

	err = svc.RequestInfo(context.Background(), sub.ID)
	require.ErrorAs(t, err, &terr)

	// Resubmit requires needs_info, not rejected.
	_, err = svc.Resubmit(context.Background(), sub.ID, nil)
	require.ErrorAs(t, err, &terr)
}

func TestTransitions_UnknownSubmission(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Approve(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)

	err = svc.Reject(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
