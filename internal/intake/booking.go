package intake

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/resilience"
)

// Booking is a normalized booking confirmation.
type Booking struct {
	Email string
	Name  string
}

// bookingPayload covers the vendor payload shapes booking notifications
// arrive in: Calendly nests invitee fields under payload, Cal.com nests an
// attendee list, and generic integrations post a flat email/name pair.
type bookingPayload struct {
	Payload struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		Attendees []struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"attendees"`
	} `json:"payload"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ParseBooking extracts the attendee from whichever vendor shape matches.
func ParseBooking(body []byte) (Booking, error) {
	var p bookingPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Booking{}, eris.Wrap(err, "intake: decode booking")
	}

	switch {
	case p.Payload.Email != "": // Calendly
		return Booking{Email: p.Payload.Email, Name: p.Payload.Name}, nil
	case len(p.Payload.Attendees) > 0 && p.Payload.Attendees[0].Email != "": // Cal.com
		return Booking{Email: p.Payload.Attendees[0].Email, Name: p.Payload.Attendees[0].Name}, nil
	case p.Email != "": // generic
		return Booking{Email: p.Email, Name: p.Name}, nil
	}

	return Booking{}, &resilience.ValidationError{Field: "email", Reason: "not present in booking"}
}

// CreditReportSubmission is the flat JSON body the GPT intake posts.
type CreditReportSubmission struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ParseCreditReportSubmission decodes the GPT credit-report body.
func ParseCreditReportSubmission(body []byte) (CreditReportSubmission, error) {
	var sub CreditReportSubmission
	if err := json.Unmarshal(body, &sub); err != nil {
		return CreditReportSubmission{}, eris.Wrap(err, "intake: decode credit report submission")
	}
	if sub.Email == "" {
		return CreditReportSubmission{}, &resilience.ValidationError{Field: "email", Reason: "required"}
	}
	return sub, nil
}
