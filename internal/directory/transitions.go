package directory

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

// TransitionError reports a review action applied in the wrong state.
type TransitionError struct {
	SubmissionID string
	From         model.SubmissionStatus
	Action       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s submission %s in status %q", e.Action, e.SubmissionID, e.From)
}

// ErrSubmissionNotFound is returned by review actions for unknown ids.
var ErrSubmissionNotFound = eris.New("submission not found")

// Approve upgrades a pending submission into a directory record and
// marks it approved. The business is created with the submission's
// derived identity key.
func (s *Service) Approve(ctx context.Context, submissionID string) (*model.Business, error) {
	sub, err := s.loadForReview(ctx, submissionID, "approve", model.StatusPending)
	if err != nil {
		return nil, err
	}

	// The duplicate checks re-run at approval time: another submission
	// for the same business may have been approved while this one
	// waited in the queue.
	if err := s.resolver.Check(ctx, &sub.Business); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	b := sub.Business
	b.CreatedAt = now
	b.UpdatedAt = now
	if err := s.store.CreateBusiness(ctx, &b); err != nil {
		return nil, eris.Wrap(err, "directory: create business")
	}

	sub.Status = model.StatusApproved
	sub.ReviewedAt = &now
	if err := s.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, eris.Wrap(err, "directory: update submission")
	}

	zap.L().Info("submission approved",
		zap.String("submission", sub.ID),
		zap.String("business", b.ID),
	)
	return &b, nil
}

// Reject marks a pending submission rejected.
func (s *Service) Reject(ctx context.Context, submissionID string) error {
	sub, err := s.loadForReview(ctx, submissionID, "reject", model.StatusPending)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	sub.Status = model.StatusRejected
	sub.ReviewedAt = &now
	if err := s.store.UpdateSubmission(ctx, sub); err != nil {
		return eris.Wrap(err, "directory: update submission")
	}

	zap.L().Info("submission rejected", zap.String("submission", sub.ID))
	return nil
}

// RequestInfo moves a pending submission to needs_info so the
// submitter can amend it.
func (s *Service) RequestInfo(ctx context.Context, submissionID string) error {
	sub, err := s.loadForReview(ctx, submissionID, "request info on", model.StatusPending)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	sub.Status = model.StatusNeedsInfo
	sub.ReviewedAt = &now
	if err := s.store.UpdateSubmission(ctx, sub); err != nil {
		return eris.Wrap(err, "directory: update submission")
	}

	zap.L().Info("submission needs info", zap.String("submission", sub.ID))
	return nil
}

// Resubmit returns a needs_info submission to the review queue. When
// updated input is given the record is re-normalized and re-checked
// for duplicates; the submission keeps its surrogate id.
func (s *Service) Resubmit(ctx context.Context, submissionID string, updated *Input) (*model.Submission, error) {
	sub, err := s.loadForReview(ctx, submissionID, "resubmit", model.StatusNeedsInfo)
	if err != nil {
		return nil, err
	}

	if updated != nil {
		b, err := s.normalizeInput(*updated)
		if err != nil {
			return nil, err
		}
		if err := s.resolver.Check(ctx, b); err != nil {
			return nil, err
		}
		sub.Business = *b
	}

	sub.Status = model.StatusPending
	sub.ReviewedAt = nil
	sub.SubmittedAt = s.clock().UTC()
	if err := s.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, eris.Wrap(err, "directory: update submission")
	}

	zap.L().Info("submission resubmitted", zap.String("submission", sub.ID))
	return sub, nil
}

// loadForReview fetches a submission and checks it is in the state the
// review action requires.
func (s *Service) loadForReview(ctx context.Context, id, action string, want model.SubmissionStatus) (*model.Submission, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "directory: load submission")
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	if sub.Status != want {
		return nil, &TransitionError{SubmissionID: id, From: sub.Status, Action: action}
	}
	return sub, nil
}
