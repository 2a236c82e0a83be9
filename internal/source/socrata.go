package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/identity"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
	"github.com/tonasket-wiki/directory-cli/pkg/socrata"
)

// SocrataAdapter shapes state license records into EnrichmentResults.
type SocrataAdapter struct {
	client *socrata.Client
}

// NewSocrata wraps a socrata.Client as an Adapter.
func NewSocrata(client *socrata.Client) *SocrataAdapter {
	return &SocrataAdapter{client: client}
}

func (a *SocrataAdapter) Name() string { return "socrata" }

// Lookup queries by UBI when present, then by name, then by location.
// Raw license rows are normalized into the directory's canonical forms
// before they leave this adapter.
func (a *SocrataAdapter) Lookup(ctx context.Context, q Query) ([]model.EnrichmentResult, error) {
	records, err := a.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]model.EnrichmentResult, 0, len(records))
	for _, rec := range records {
		shaped, err := a.shape(rec)
		if err != nil {
			// Rows without a usable name cannot be keyed; skip them.
			continue
		}
		results = append(results, *shaped)
	}
	return results, nil
}

func (a *SocrataAdapter) fetch(ctx context.Context, q Query) ([]socrata.Record, error) {
	switch {
	case q.UBI != "":
		rec, err := a.client.LookupByUBI(ctx, q.UBI)
		if err != nil {
			return nil, eris.Wrap(err, "source: socrata ubi lookup")
		}
		if rec == nil {
			return nil, nil
		}
		return []socrata.Record{*rec}, nil
	case q.Name != "":
		records, err := a.client.LookupByName(ctx, q.Name, q.Limit)
		return records, eris.Wrap(err, "source: socrata name lookup")
	case q.Zip != "":
		records, err := a.client.LookupByLocation(ctx, q.Zip, q.Limit, q.ActiveOnly)
		return records, eris.Wrap(err, "source: socrata location lookup")
	default:
		return nil, eris.New("source: socrata query needs a ubi, name, or zip")
	}
}

func (a *SocrataAdapter) shape(rec socrata.Record) (*model.EnrichmentResult, error) {
	nameKey := normalize.NameKey(rec.BusinessName)
	if nameKey == "" {
		return nil, eris.New("source: socrata record has no business name")
	}

	address := joinAddress(rec.StreetAddress, rec.City, rec.State, rec.Zip)

	result := &model.EnrichmentResult{
		BusinessID:    identity.GenerateID(nameKey, normalize.AddressKey(address)),
		Source:        a.Name(),
		Address:       normalize.Address(address),
		LicenseStatus: rec.LicenseStatus,
		LicenseNumber: rec.LicenseNumber,
		LicenseType:   rec.LicenseType,
		Raw: map[string]any{
			"ubi":              rec.UBI,
			"businessname":     rec.BusinessName,
			"first_issue_date": rec.FirstIssueDate,
		},
	}

	if phone, err := normalize.Phone(rec.Phone); err == nil {
		result.Phone = phone
	}

	return result, nil
}

func joinAddress(parts ...string) string {
	var kept []string
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// State and ZIP are not comma-separated.
		if i == 3 && len(kept) > 0 {
			kept[len(kept)-1] += " " + p
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ", ")
}
