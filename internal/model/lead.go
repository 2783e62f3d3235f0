// Package model defines the lead domain types shared across the pipeline.
package model

import (
	"strings"
	"time"
)

// Source identifies how a lead entered the funnel. The set is closed: the
// CRM's lead_source custom field is a choices field provisioned with exactly
// these values.
type Source string

const (
	SourceQualifiedNoBook       Source = "qualified-no-book"
	SourceDisqualified          Source = "disqualified"
	SourceCreditReportGPT       Source = "credit-report-gpt"
	SourceCreditReportTypeform  Source = "credit-report-typeform"
	SourceAppliedNoBooking      Source = "applied-no-booking"
	SourceWebinarWatchedFull    Source = "webinar-watched-full"
	SourceWebinarWatchedPartial Source = "webinar-watched-partial"
	SourceWebinarNoShow         Source = "webinar-no-show"
	SourceTypeformDisqualified  Source = "typeform-disqualified"
	SourceBooked                Source = "booked"
)

// AllSources lists every valid lead source, in the order the CRM choices
// field is provisioned.
var AllSources = []Source{
	SourceQualifiedNoBook,
	SourceDisqualified,
	SourceCreditReportGPT,
	SourceCreditReportTypeform,
	SourceAppliedNoBooking,
	SourceWebinarWatchedFull,
	SourceWebinarWatchedPartial,
	SourceWebinarNoShow,
	SourceTypeformDisqualified,
	SourceBooked,
}

// Valid reports whether s belongs to the closed source set.
func (s Source) Valid() bool {
	for _, v := range AllSources {
		if s == v {
			return true
		}
	}
	return false
}

// Tier is a setter call-list bucket. It labels both the saved-search
// partition and the annotation shown to setters.
type Tier string

const (
	TierHot  Tier = "HOT"
	TierWarm Tier = "WARM"
	TierCold Tier = "COLD"
)

// TierForPriority maps a lead priority to its call-list tier. This is the
// only priority-to-tier mapping in the codebase; the classifier assigns
// priorities and everything downstream (annotations, list definitions)
// derives tiers through here.
func TierForPriority(priority int) Tier {
	switch {
	case priority >= 8:
		return TierHot
	case priority >= 3:
		return TierWarm
	default:
		return TierCold
	}
}

// Classification is the classifier's verdict for a single inbound event.
// It is ephemeral: produced, consumed by the upsert engine, never stored.
type Classification struct {
	Source         Source
	Priority       int
	SetterEligible bool
	MinutesWatched *int
}

// Lead is the transient view of a CRM lead record. The remote store owns
// the data; the pipeline only holds it during processing.
type Lead struct {
	ID          string
	DisplayName string
	Email       string
	Source      Source
	WatchTime   *int
	Priority    *int
	WebinarDate string
	CreatedAt   time.Time
}

// NormalizeEmail canonicalizes an email for dedup lookups. Matching in the
// store is exact on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
