// Package intake normalizes the inbound webhook payload shapes (Typeform
// form responses, GPT credit-report submissions, booking confirmations)
// into the flat values the classifier consumes.
package intake

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/resilience"
)

// Typeform field IDs on the application form. These are stable per form;
// answers are extracted by ID, not position.
const (
	fieldFirstName   = "3aDeSiYqOA8G"
	fieldLastName    = "OWRZpWQY1Byw"
	fieldPhone       = "nt58OEKYPr1m"
	fieldEmail       = "SMBBbqRTngKp"
	fieldCreditScore = "8ggNhSkGlNZ4"
	fieldIncome      = "X8AtyKppT4Un"
	fieldBizRevenue  = "X388ZvxUH5Hw"
	fieldAssets      = "QfFEKPW4lcuF"
)

// formResponse is the envelope Typeform posts to webhooks.
type formResponse struct {
	FormResponse struct {
		Answers []answer `json:"answers"`
	} `json:"form_response"`
}

// answer is one answered form field. Exactly one of the value fields is
// populated depending on the question type.
type answer struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Choice      struct {
		Label string `json:"label"`
	} `json:"choice"`
	Field struct {
		ID   string `json:"id"`
		Ref  string `json:"ref"`
		Type string `json:"type"`
	} `json:"field"`
}

// value returns the answer's content regardless of question type.
func (a answer) value() string {
	switch {
	case a.Text != "":
		return a.Text
	case a.Email != "":
		return a.Email
	case a.PhoneNumber != "":
		return a.PhoneNumber
	default:
		return a.Choice.Label
	}
}

// Application is a normalized application-form submission.
type Application struct {
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	CreditScore string
	Income      string
	BizRevenue  string
	Assets      string
}

// Name joins the name parts for display.
func (a Application) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ParseApplication extracts the application form's answers by field ID.
// A submission without an email is a validation failure; nothing is
// written for it.
func ParseApplication(body []byte) (Application, error) {
	var fr formResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return Application{}, eris.Wrap(err, "intake: decode application form")
	}

	byID := make(map[string]string, len(fr.FormResponse.Answers))
	for _, a := range fr.FormResponse.Answers {
		byID[a.Field.ID] = a.value()
	}

	app := Application{
		FirstName:   byID[fieldFirstName],
		LastName:    byID[fieldLastName],
		Phone:       byID[fieldPhone],
		Email:       byID[fieldEmail],
		CreditScore: byID[fieldCreditScore],
		Income:      byID[fieldIncome],
		BizRevenue:  byID[fieldBizRevenue],
		Assets:      byID[fieldAssets],
	}
	if app.Email == "" {
		return Application{}, &resilience.ValidationError{Field: "email", Reason: "not present in submission"}
	}
	return app, nil
}

// CreditReportForm is a normalized credit-report form submission.
type CreditReportForm struct {
	Email string
	Name  string
}

// ParseCreditReportForm extracts email and name from the credit-report
// Typeform. The form layout shifts, so extraction is by answer type: the
// email question by type, the name from any text answer whose field ref
// mentions "name", with a fallback scan for a field typed as email.
func ParseCreditReportForm(body []byte) (CreditReportForm, error) {
	var fr formResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return CreditReportForm{}, eris.Wrap(err, "intake: decode credit report form")
	}

	var out CreditReportForm
	for _, a := range fr.FormResponse.Answers {
		if a.Type == "email" && out.Email == "" {
			out.Email = a.Email
		}
		if a.Type == "text" && strings.Contains(strings.ToLower(a.Field.Ref), "name") {
			out.Name = a.Text
		}
	}
	if out.Email == "" {
		for _, a := range fr.FormResponse.Answers {
			if a.Field.Type == "email" && a.Email != "" {
				out.Email = a.Email
				break
			}
		}
	}

	if out.Email == "" {
		return CreditReportForm{}, &resilience.ValidationError{Field: "email", Reason: "not present in submission"}
	}
	return out, nil
}
