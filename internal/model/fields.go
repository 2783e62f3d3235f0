package model

// Logical custom-field keys provisioned on the CRM lead object.
const (
	FieldLeadSource  = "lead_source"
	FieldWatchTime   = "webinar_watch_time"
	FieldPriority    = "priority"
	FieldWebinarDate = "webinar_date"
)

// FieldBinding maps the four logical field keys to the store-assigned
// custom field IDs. It is resolved once per process (provision-or-find)
// and never mutated afterwards; field IDs are immutable once provisioned,
// so a racing re-resolution at worst wastes a lookup.
type FieldBinding struct {
	LeadSource  string
	WatchTime   string
	Priority    string
	WebinarDate string
}

// Resolved reports whether every logical key has a field ID. Callers must
// re-resolve the binding while any key is empty.
func (b FieldBinding) Resolved() bool {
	return b.LeadSource != "" && b.WatchTime != "" && b.Priority != "" && b.WebinarDate != ""
}
