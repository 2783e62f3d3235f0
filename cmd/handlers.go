package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/classify"
	"github.com/sells-group/leadflow/internal/intake"
	"github.com/sells-group/leadflow/internal/leads"
	"github.com/sells-group/leadflow/internal/notes"
	"github.com/sells-group/leadflow/internal/resilience"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// failures are the caller's fault, everything else is reported as a server
// error.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if resilience.IsValidation(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *app) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "running",
		"service": "leadflow",
		"endpoints": map[string]string{
			"POST /webhook/typeform-application":   "Application form submissions",
			"POST /webhook/typeform-credit-report": "Typeform credit report submissions",
			"POST /webhook/gpt-credit-report":      "GPT credit report submissions",
			"POST /webhook/booking":                "Calendar booking notifications",
			"POST /process-webinar/{id}":           "Process a specific webinar",
			"POST /process-recent-webinars":        "Process all recent webinars",
			"POST /setup-smart-views":              "Rebuild the setter call lists",
		},
	})
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleTypeformApplication(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	application, err := intake.ParseApplication(body)
	if err != nil {
		writeError(w, err)
		return
	}

	answers := classify.ApplicationAnswers{
		CreditScore: application.CreditScore,
		Income:      application.Income,
		Assets:      application.Assets,
	}
	cls := a.classifier.Application(answers)

	outcome, err := a.engine.Upsert(r.Context(), leads.UpsertInput{
		Email:          application.Email,
		Name:           application.Name(),
		Classification: cls,
		Application: &notes.ApplicationDetails{
			Name:        application.Name(),
			Phone:       application.Phone,
			CreditScore: application.CreditScore,
			Income:      application.Income,
			BizRevenue:  application.BizRevenue,
			Assets:      application.Assets,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	zap.L().Info("application processed",
		zap.String("email", application.Email),
		zap.String("source", string(cls.Source)),
		zap.Bool("qualified", answers.Qualified()))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"email":     application.Email,
		"qualified": answers.Qualified(),
		"source":    cls.Source,
		"priority":  cls.Priority,
		"outcome":   outcome.Status,
	})
}

func (a *app) handleTypeformCreditReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	form, err := intake.ParseCreditReportForm(body)
	if err != nil {
		writeError(w, err)
		return
	}

	cls := a.classifier.CreditReport(classify.ChannelTypeform)
	outcome, err := a.engine.Upsert(r.Context(), leads.UpsertInput{
		Email:          form.Email,
		Name:           form.Name,
		Classification: cls,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"email":          form.Email,
		"source":         cls.Source,
		"setterEligible": cls.SetterEligible,
		"outcome":        outcome.Status,
	})
}

func (a *app) handleGPTCreditReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := intake.ParseCreditReportSubmission(body)
	if err != nil {
		writeError(w, err)
		return
	}

	cls := a.classifier.CreditReport(classify.ChannelGPT)
	outcome, err := a.engine.Upsert(r.Context(), leads.UpsertInput{
		Email:          sub.Email,
		Name:           sub.Name,
		Classification: cls,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"email":          sub.Email,
		"source":         cls.Source,
		"setterEligible": cls.SetterEligible,
		"outcome":        outcome.Status,
	})
}

func (a *app) handleBooking(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	booking, err := intake.ParseBooking(body)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome, err := a.engine.Upsert(r.Context(), leads.UpsertInput{
		Email:          booking.Email,
		Name:           booking.Name,
		Classification: a.classifier.Booked(),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"email":   booking.Email,
		"message": "Lead marked as booked (removed from setter lists)",
		"outcome": outcome.Status,
	})
}

func (a *app) handleProcessWebinar(w http.ResponseWriter, r *http.Request) {
	webinarID := chi.URLParam(r, "id")
	if webinarID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "webinar id is required"})
		return
	}

	summary, err := a.engine.ProcessWebinar(r.Context(), webinarID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *app) handleProcessRecent(w http.ResponseWriter, r *http.Request) {
	summary, err := a.engine.ProcessRecent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *app) handleSetupSmartViews(w http.ResponseWriter, r *http.Request) {
	results, err := a.engine.SyncCallLists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"views":   results,
	})
}
