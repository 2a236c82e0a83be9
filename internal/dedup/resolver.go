// Package dedup decides whether a candidate business collides with an
// existing directory record.
package dedup

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/model"
)

// Rule identifies which duplicate check matched.
type Rule string

const (
	RuleID           Rule = "id"
	RuleName         Rule = "name"
	RuleAddressPhone Rule = "address_phone"
)

// DuplicateError reports a candidate that collides with an existing
// record. Rule names the check that matched so a reviewer can see why
// the submission was rejected.
type DuplicateError struct {
	Rule       Rule
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate business (rule %s, existing %s)", e.Rule, e.ExistingID)
}

// Lookup is the query capability the resolver needs over existing
// records. Implementations return (nil, nil) when nothing matches.
type Lookup interface {
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	FindByNameKey(ctx context.Context, nameKey string) (*model.Business, error)
	FindByAddressAndPhone(ctx context.Context, addressKey, phone string) (*model.Business, error)
}

// Resolver checks candidates against a Lookup.
type Resolver struct {
	lookup Lookup
}

// New returns a Resolver backed by the given lookup.
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Check runs the duplicate rules in precedence order: exact id, exact
// normalized name, then normalized address + phone. The first match
// wins and is returned as a DuplicateError; no match returns nil.
//
// A name-only collision blocks the candidate even when the address
// differs: either signal alone is treated as a strong indicator of the
// same real-world business.
func (r *Resolver) Check(ctx context.Context, candidate *model.Business) error {
	existing, err := r.lookup.GetBusiness(ctx, candidate.ID)
	if err != nil {
		return eris.Wrap(err, "dedup: lookup by id")
	}
	if existing != nil {
		return &DuplicateError{Rule: RuleID, ExistingID: existing.ID}
	}

	existing, err = r.lookup.FindByNameKey(ctx, candidate.NameKey)
	if err != nil {
		return eris.Wrap(err, "dedup: lookup by name")
	}
	if existing != nil {
		return &DuplicateError{Rule: RuleName, ExistingID: existing.ID}
	}

	// Address+phone is only meaningful when the candidate has a phone.
	if candidate.Phone != "" {
		existing, err = r.lookup.FindByAddressAndPhone(ctx, candidate.AddressKey, candidate.Phone)
		if err != nil {
			return eris.Wrap(err, "dedup: lookup by address and phone")
		}
		if existing != nil {
			return &DuplicateError{Rule: RuleAddressPhone, ExistingID: existing.ID}
		}
	}

	return nil
}
