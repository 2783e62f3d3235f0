package close

import (
	"encoding/json"
	"strings"
	"time"
)

const customPrefix = "custom."

// Contact is a person attached to a lead.
type Contact struct {
	Name   string         `json:"name"`
	Emails []ContactEmail `json:"emails"`
}

// ContactEmail is a single email address on a contact.
type ContactEmail struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
}

// Lead is a Close lead record. Custom field values arrive as top-level
// "custom.<field_id>" keys, which the custom unmarshaler collects into
// Custom keyed by field ID.
type Lead struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Contacts    []Contact `json:"contacts"`
	DateCreated time.Time `json:"date_created"`
	Custom      map[string]any
}

// leadAlias avoids recursing into UnmarshalJSON.
type leadAlias Lead

// UnmarshalJSON decodes the fixed fields and gathers the dynamic
// custom.<field_id> keys.
func (l *Lead) UnmarshalJSON(data []byte) error {
	var alias leadAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		fieldID, ok := strings.CutPrefix(key, customPrefix)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		if alias.Custom == nil {
			alias.Custom = make(map[string]any)
		}
		alias.Custom[fieldID] = v
	}

	*l = Lead(alias)
	return nil
}

// Email returns the lead's first contact email, or "".
func (l *Lead) Email() string {
	for _, c := range l.Contacts {
		for _, e := range c.Emails {
			if e.Email != "" {
				return e.Email
			}
		}
	}
	return ""
}

// CustomString returns the string value of a custom field, or "".
func (l *Lead) CustomString(fieldID string) string {
	if s, ok := l.Custom[fieldID].(string); ok {
		return s
	}
	return ""
}

// CustomInt returns the numeric value of a custom field truncated to an
// int, or 0. Close returns number fields as JSON numbers.
func (l *Lead) CustomInt(fieldID string) int {
	if f, ok := l.Custom[fieldID].(float64); ok {
		return int(f)
	}
	return 0
}

// CreateLeadRequest holds the fields for a new lead. Custom maps field IDs
// to values; entries with an empty field ID are dropped at marshal time, so
// callers can pass values for fields whose binding is unresolved and they
// are omitted rather than sent broken.
type CreateLeadRequest struct {
	Name   string
	Email  string
	Custom map[string]any
}

// MarshalJSON emits the Close lead create payload: the display name, one
// contact carrying the email, and custom fields as "custom.<id>" keys.
func (r CreateLeadRequest) MarshalJSON() ([]byte, error) {
	name := r.Name
	if name == "" {
		// Fall back to the mailbox part of the address.
		if at := strings.Index(r.Email, "@"); at > 0 {
			name = r.Email[:at]
		} else {
			name = r.Email
		}
	}

	payload := map[string]any{
		"name": name,
		"contacts": []Contact{
			{
				Name:   r.Name,
				Emails: []ContactEmail{{Email: r.Email, Type: "office"}},
			},
		},
	}
	for fieldID, val := range r.Custom {
		if fieldID == "" || val == nil {
			continue
		}
		payload[customPrefix+fieldID] = val
	}
	return json.Marshal(payload)
}
