// Package directory implements the submission flow: raw form input is
// normalized, keyed, checked for duplicates, and persisted as a
// pending submission for later review.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/dedup"
	"github.com/tonasket-wiki/directory-cli/internal/identity"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
	"github.com/tonasket-wiki/directory-cli/internal/store"
)

// Input is the raw submission payload before any normalization.
type Input struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`

	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	Description string            `json:"description,omitempty"`
	Hours       string            `json:"hours,omitempty"`
	Founded     string            `json:"founded,omitempty"`
	Services    []string          `json:"services,omitempty"`
	Products    []string          `json:"products,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	SocialMedia map[string]string `json:"social_media,omitempty"`
}

// Service owns the submission lifecycle against a single store.
type Service struct {
	store    store.Store
	resolver *dedup.Resolver
	clock    func() time.Time
}

// New builds a Service. clock may be nil, defaulting to time.Now.
func New(st store.Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    st,
		resolver: dedup.New(st),
		clock:    clock,
	}
}

// Submit normalizes the input, derives the identity key, runs the
// duplicate checks, and persists a pending submission. Validation
// failures surface as *normalize.ValidationError and duplicates as
// *dedup.DuplicateError so callers can report the specific reason.
func (s *Service) Submit(ctx context.Context, in Input) (*model.Submission, error) {
	b, err := s.normalizeInput(in)
	if err != nil {
		return nil, err
	}

	if err := s.resolver.Check(ctx, b); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	sub := &model.Submission{
		ID:          uuid.NewString(),
		Business:    *b,
		Status:      model.StatusPending,
		SubmittedAt: now,
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, eris.Wrap(err, "directory: persist submission")
	}

	zap.L().Info("submission accepted",
		zap.String("submission", sub.ID),
		zap.String("business", b.ID),
		zap.String("name", b.Name),
	)
	return sub, nil
}

// Import normalizes and dedup-checks one row without queuing it for
// review. Callers persist the returned business themselves, typically
// through a bulk write.
func (s *Service) Import(ctx context.Context, in Input) (*model.Business, error) {
	b, err := s.normalizeInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Check(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// PredictID returns the identity key a submission with this name and
// address would receive. Pure derivation, nothing is stored.
func (s *Service) PredictID(name, address string) (string, error) {
	if _, err := normalize.Name(name); err != nil {
		return "", err
	}
	return identity.GenerateID(normalize.NameKey(name), normalize.AddressKey(address)), nil
}

// GetBusiness returns the approved record for an id, or nil when none exists.
func (s *Service) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	return s.store.GetBusiness(ctx, id)
}

// ListSubmissions returns submissions matching the filter.
func (s *Service) ListSubmissions(ctx context.Context, f store.SubmissionFilter) ([]model.Submission, error) {
	return s.store.ListSubmissions(ctx, f)
}

// normalizeInput converts raw input into a keyed Business. The first
// field that fails validation aborts the whole submission.
func (s *Service) normalizeInput(in Input) (*model.Business, error) {
	name, err := normalize.Name(in.Name)
	if err != nil {
		return nil, err
	}
	if in.Address == "" {
		return nil, &normalize.ValidationError{Field: "address", Reason: "must not be empty"}
	}

	b := &model.Business{
		Name:       name,
		NameKey:    normalize.NameKey(in.Name),
		Address:    normalize.Address(in.Address),
		AddressKey: normalize.AddressKey(in.Address),

		Email:       in.Email,
		Category:    normalize.Category(in.Category),
		Subcategory: in.Subcategory,

		Description: in.Description,
		Hours:       in.Hours,
		Founded:     in.Founded,
		Services:    in.Services,
		Products:    in.Products,
		Tags:        in.Tags,
		SocialMedia: in.SocialMedia,
	}

	if in.Phone != "" {
		phone, err := normalize.Phone(in.Phone)
		if err != nil {
			return nil, err
		}
		b.Phone = phone
	}
	if in.Website != "" {
		website, err := normalize.Website(in.Website)
		if err != nil {
			return nil, err
		}
		b.Website = website
	}

	b.ID = identity.GenerateID(b.NameKey, b.AddressKey)
	return b, nil
}
