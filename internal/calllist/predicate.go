// Package calllist builds and reconciles the three setter call-list saved
// searches (HOT / WARM / COLD). Predicates are assembled from a small typed
// clause set and serialized once, so every emitted query is well formed and
// testable without the remote store.
package calllist

import (
	"fmt"
	"strings"
	"time"
)

// Clause is one term of a lead search predicate. Terms at the top level of
// a query are implicitly AND-combined.
type Clause interface {
	writeTo(b *strings.Builder)
}

// Eq matches a field equal to a value: field:"value".
type Eq struct {
	Field string
	Value string
}

func (c Eq) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "%s:%q", c.Field, c.Value)
}

// Not negates an equality: NOT field:"value".
type Not struct {
	Field string
	Value string
}

func (c Not) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "NOT %s:%q", c.Field, c.Value)
}

// Num compares a numeric field: field >= 30.
type Num struct {
	Field string
	Op    string
	Value int
}

func (c Num) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "%s %s %d", c.Field, c.Op, c.Value)
}

// Date compares a date field against a YYYY-MM-DD literal:
// date_created >= "2026-02-09".
type Date struct {
	Field string
	Op    string
	Value time.Time
}

func (c Date) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "%s %s %q", c.Field, c.Op, c.Value.Format("2006-01-02"))
}

// AnyOf is a parenthesized OR group: (a OR b OR c).
type AnyOf []Clause

func (c AnyOf) writeTo(b *strings.Builder) {
	b.WriteString("(")
	for i, inner := range c {
		if i > 0 {
			b.WriteString(" OR ")
		}
		inner.writeTo(b)
	}
	b.WriteString(")")
}

// Query is a full saved-search predicate: AND-combined clauses plus an
// optional descending sort directive.
type Query struct {
	Clauses []Clause
	// SortDesc, when set, appends sort:-<field>.
	SortDesc string
}

// String serializes the query in the store's search mini-language. This is
// the only serialization point; nothing else concatenates predicate text.
func (q Query) String() string {
	var b strings.Builder
	for i, c := range q.Clauses {
		if i > 0 {
			b.WriteString(" ")
		}
		c.writeTo(&b)
	}
	if q.SortDesc != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("sort:-" + q.SortDesc)
	}
	return b.String()
}

// CustomField names a custom field for use in query clauses.
func CustomField(fieldID string) string {
	return "custom." + fieldID
}
