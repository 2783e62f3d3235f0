package calllist

import (
	"time"

	"github.com/sells-group/leadflow/internal/model"
)

// Saved-search display names. Identity of a call list is its name; the
// synthesizer keeps at most one saved search per name alive.
const (
	HotListName  = "🔥 HOT - Call Today"
	WarmListName = "🟡 WARM - Call If Time"
	ColdListName = "🧊 COLD - Low Priority"
)

// Recency windows relative to the reference date.
const (
	hotWindowDays  = 3
	coldBorderDays = 7
)

// Definition binds a tier to its name and predicate builder.
type Definition struct {
	Tier  model.Tier
	Name  string
	build func(ref time.Time, b model.FieldBinding, setterMin int) Query
}

// Definitions returns the three call-list definitions in their fixed
// processing order (HOT, WARM, COLD).
func Definitions() []Definition {
	return []Definition{
		{Tier: model.TierHot, Name: HotListName, build: hotQuery},
		{Tier: model.TierWarm, Name: WarmListName, build: warmQuery},
		{Tier: model.TierCold, Name: ColdListName, build: coldQuery},
	}
}

// Build produces the tier's predicate for the given reference date and
// field binding. Output is deterministic: equal inputs yield byte-identical
// queries. Windows are computed on the UTC calendar day, so a local-time
// reference near midnight cannot shift a boundary.
func (d Definition) Build(ref time.Time, b model.FieldBinding, setterMin int) Query {
	return d.build(ref.UTC(), b, setterMin)
}

// exclusions removes booked and disqualified leads. Every tier carries
// these: a booked lead is out of the setter workflow no matter how it got
// classified, and disqualified leads are never called.
func exclusions(source string) []Clause {
	return []Clause{
		Not{Field: source, Value: string(model.SourceBooked)},
		Not{Field: source, Value: string(model.SourceTypeformDisqualified)},
		Not{Field: source, Value: string(model.SourceDisqualified)},
	}
}

// hotQuery: qualified or high-intent sources, not partial watchers, created
// within the hot window, best priority first.
func hotQuery(ref time.Time, b model.FieldBinding, _ int) Query {
	source := CustomField(b.LeadSource)
	clauses := []Clause{
		AnyOf{
			Eq{Field: source, Value: string(model.SourceAppliedNoBooking)},
			Eq{Field: source, Value: string(model.SourceWebinarWatchedFull)},
			Eq{Field: source, Value: string(model.SourceCreditReportGPT)},
			Eq{Field: source, Value: string(model.SourceCreditReportTypeform)},
		},
		Not{Field: source, Value: string(model.SourceWebinarWatchedPartial)},
	}
	clauses = append(clauses, exclusions(source)...)
	clauses = append(clauses, Date{Field: "date_created", Op: ">=", Value: ref.AddDate(0, 0, -hotWindowDays)})
	return Query{Clauses: clauses, SortDesc: CustomField(b.Priority)}
}

// warmQuery: partial watchers above the setter minimum, recent, longest
// watch first.
func warmQuery(ref time.Time, b model.FieldBinding, setterMin int) Query {
	source := CustomField(b.LeadSource)
	watch := CustomField(b.WatchTime)
	clauses := []Clause{
		Eq{Field: source, Value: string(model.SourceWebinarWatchedPartial)},
		Num{Field: watch, Op: ">=", Value: setterMin},
	}
	clauses = append(clauses, exclusions(source)...)
	clauses = append(clauses, Date{Field: "date_created", Op: ">=", Value: ref.AddDate(0, 0, -coldBorderDays)})
	return Query{Clauses: clauses, SortDesc: watch}
}

// coldQuery: engaged leads that have aged past the warm window.
func coldQuery(ref time.Time, b model.FieldBinding, setterMin int) Query {
	source := CustomField(b.LeadSource)
	watch := CustomField(b.WatchTime)
	clauses := []Clause{
		AnyOf{
			Num{Field: watch, Op: ">=", Value: setterMin},
			Eq{Field: source, Value: string(model.SourceAppliedNoBooking)},
		},
	}
	clauses = append(clauses, exclusions(source)...)
	clauses = append(clauses, Date{Field: "date_created", Op: "<", Value: ref.AddDate(0, 0, -coldBorderDays)})
	return Query{Clauses: clauses, SortDesc: CustomField(b.Priority)}
}
