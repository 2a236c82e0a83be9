// Package enrich merges external license data into directory records
// and runs the batch refresh that keeps snapshots current.
package enrich

import (
	"github.com/tonasket-wiki/directory-cli/internal/model"
)

// Merge applies an EnrichmentResult to a business. Contact and address
// fields fill only when the stored field is empty: a value a human set
// is never silently overwritten. License fields are
// authoritative-from-source and always take the external value.
// Returns true when anything changed.
func Merge(b *model.Business, r *model.EnrichmentResult) bool {
	changed := false

	fill := func(dst *string, src string) {
		if src != "" && *dst == "" {
			*dst = src
			changed = true
		}
	}
	authoritative := func(dst *string, src string) {
		if src != "" && *dst != src {
			*dst = src
			changed = true
		}
	}

	fill(&b.Phone, r.Phone)
	fill(&b.Email, r.Email)
	fill(&b.Website, r.Website)
	fill(&b.Address, r.Address)

	authoritative(&b.LicenseStatus, r.LicenseStatus)
	authoritative(&b.LicenseNumber, r.LicenseNumber)
	authoritative(&b.LicenseType, r.LicenseType)

	if len(r.Raw) > 0 {
		if b.SourceData == nil {
			b.SourceData = make(map[string]any, len(r.Raw)+1)
		}
		for k, v := range r.Raw {
			b.SourceData[k] = v
		}
		b.SourceData["source"] = r.Source
		changed = true
	}

	return changed
}
