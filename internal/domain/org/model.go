// internal/domain/org/model.go

package org

import (
	"errors"
	"time"
)

// ErrProfileNotFound is returned when an organization profile does not
// exist. A missing profile is a hard error for scoring, never a zero score.
var ErrProfileNotFound = errors.New("organization profile not found")

// Profile holds an organization's declared interests. Profiles are owned by
// the onboarding/settings workflows and are read-only to this engine.
type Profile struct {
	OrgID          string
	Name           string
	PolicyDomains  []string
	FocusAreas     []string
	GeographyScope []string
	Granularity    string
	Sensitive      bool
	Active         bool
	UpdatedAt      time.Time
}

// WatchlistEntry is a name an organization explicitly tracks: a politician,
// an organization, or a piece of legislation. Mutated by organization users,
// read-only to the engine.
type WatchlistEntry struct {
	ID        string
	OrgID     string
	Name      string
	Kind      string
	CreatedAt time.Time
}

// Watchlist entry kinds.
const (
	WatchlistPolitician   = "politician"
	WatchlistOrganization = "organization"
	WatchlistLegislation  = "legislation"
)
