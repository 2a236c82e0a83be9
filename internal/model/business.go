// Package model defines the core directory entities: businesses,
// submissions, enrichment results, and cached snapshots.
package model

import (
	"time"
)

// SubmissionStatus represents the review state of a business submission.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusApproved  SubmissionStatus = "approved"
	StatusRejected  SubmissionStatus = "rejected"
	StatusNeedsInfo SubmissionStatus = "needs_info"
)

// Coordinates is an optional lat/lng pair for a business location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Business is the canonical directory record. ID is a deterministic
// function of NameKey + AddressKey; two records with the same ID are
// the same real-world business.
type Business struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	NameKey string `json:"name_key" db:"name_key"` // comparison form, never displayed

	Address     string       `json:"address" db:"address"`
	AddressKey  string       `json:"address_key" db:"address_key"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	Phone   string `json:"phone,omitempty" db:"phone"` // digits-only canonical form
	Email   string `json:"email,omitempty" db:"email"`
	Website string `json:"website,omitempty" db:"website"`

	Category    string `json:"category" db:"category"`
	Subcategory string `json:"subcategory,omitempty" db:"subcategory"`

	Description string            `json:"description,omitempty" db:"description"`
	Hours       string            `json:"hours,omitempty" db:"hours"`
	Founded     string            `json:"founded,omitempty" db:"founded"`
	Services    []string          `json:"services,omitempty"`
	Products    []string          `json:"products,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	SocialMedia map[string]string `json:"social_media,omitempty"`

	// Provenance from whichever external source supplied enrichment fields.
	SourceData map[string]any `json:"source_data,omitempty"`

	// License fields are authoritative-from-source: enrichment always
	// overwrites them, users cannot meaningfully edit them.
	LicenseStatus string `json:"license_status,omitempty" db:"license_status"`
	LicenseNumber string `json:"license_number,omitempty" db:"license_number"`
	LicenseType   string `json:"license_type,omitempty" db:"license_type"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Submission is a candidate Business awaiting review.
type Submission struct {
	ID       string           `json:"id" db:"id"` // surrogate uuid, distinct from the business identity key
	Business Business         `json:"business"`
	Status   SubmissionStatus `json:"status" db:"status"`

	SubmittedAt time.Time  `json:"submitted_at" db:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// EnrichmentResult is a partial Business fetched from an external
// source, keyed by the same ID scheme. It is merged into an existing
// record and never persisted on its own.
type EnrichmentResult struct {
	BusinessID string `json:"business_id"`
	Source     string `json:"source"`

	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
	Address string `json:"address,omitempty"`

	LicenseStatus string `json:"license_status,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	LicenseType   string `json:"license_type,omitempty"`

	// Raw is the untouched external payload, retained as provenance.
	Raw map[string]any `json:"raw,omitempty"`
}

// Snapshot is a complete, timestamped replacement of an enrichment
// result set for one parameter key. A new refresh fully replaces the
// previous snapshot for the same key.
type Snapshot struct {
	Businesses []Business `json:"businesses"`
	Timestamp  time.Time  `json:"timestamp"`

	// Query parameters echoed back.
	Zip        string `json:"zip"`
	Limit      int    `json:"limit"`
	ActiveOnly bool   `json:"active_only"`

	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
}

// ParamKey returns the cache key for the query parameters of this snapshot.
func (s *Snapshot) ParamKey() string {
	return SnapshotKey(s.Zip, s.Limit, s.ActiveOnly)
}
