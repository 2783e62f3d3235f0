package leads

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/metrics"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/resilience"
)

// LeadError records a per-lead failure inside a batch. Transient marks
// failures from temporary remote conditions, which are worth re-running;
// the run itself never retries them.
type LeadError struct {
	Email     string `json:"email"`
	Err       string `json:"error"`
	Transient bool   `json:"transient,omitempty"`
}

func newLeadError(email string, err error) LeadError {
	return LeadError{Email: email, Err: err.Error(), Transient: resilience.IsTransient(err)}
}

// WebinarSummary reports the results of processing one webinar's attendance.
type WebinarSummary struct {
	WebinarID      string      `json:"webinar_id"`
	Processed      int         `json:"processed"`
	Created        int         `json:"created"`
	Skipped        int         `json:"skipped"`
	WatchedFull    int         `json:"watched_full"`
	WatchedPartial int         `json:"watched_partial"`
	SetterEligible int         `json:"setter_eligible"`
	NoShows        int         `json:"no_shows"`
	ViewsSynced    int         `json:"views_synced"`
	Errors         []LeadError `json:"errors,omitempty"`
}

// ProcessWebinar scores and upserts every participant of one past webinar,
// then the absentees, then refreshes the call lists. Leads are processed
// strictly sequentially; a failed lead is recorded and the batch moves on.
// Only fatal errors (field provisioning) abort the run.
func (e *Engine) ProcessWebinar(ctx context.Context, webinarID string) (*WebinarSummary, error) {
	participants, err := e.zoom.ListParticipants(ctx, webinarID)
	if err != nil {
		metrics.RecordRemoteError("zoom")
		return nil, eris.Wrap(err, "leads: list participants")
	}
	zap.L().Info("processing webinar",
		zap.String("webinar_id", webinarID),
		zap.Int("participants", len(participants)))

	summary := &WebinarSummary{WebinarID: webinarID}
	webinarDate := e.now().Format("2006-01-02")

	for _, p := range participants {
		if p.Email == "" {
			continue
		}

		cls, ok := e.classifier.Attendee(p.Duration)
		if !ok {
			// Zero watched minutes: no classification, no write.
			continue
		}

		outcome, err := e.Upsert(ctx, UpsertInput{
			Email:          p.Email,
			Name:           p.Name,
			Classification: cls,
			WebinarDate:    webinarDate,
		})
		if err != nil {
			if resilience.IsFatal(err) {
				return summary, err
			}
			summary.Errors = append(summary.Errors, newLeadError(p.Email, err))
			continue
		}

		summary.Processed++
		if outcome.Status == StatusCreated {
			summary.Created++
		} else {
			summary.Skipped++
		}
		switch cls.Source {
		case model.SourceWebinarWatchedFull:
			summary.WatchedFull++
		case model.SourceWebinarWatchedPartial:
			summary.WatchedPartial++
		}
		if cls.SetterEligible {
			summary.SetterEligible++
		}
	}

	// Absentees are best effort: the endpoint is unavailable for some
	// webinar types.
	absentees, err := e.zoom.ListAbsentees(ctx, webinarID)
	if err != nil {
		zap.L().Warn("could not fetch absentees",
			zap.String("webinar_id", webinarID),
			zap.Error(err))
	}
	for _, a := range absentees {
		if a.Email == "" {
			continue
		}
		if _, err := e.Upsert(ctx, UpsertInput{
			Email:          a.Email,
			Name:           a.DisplayName(),
			Classification: e.classifier.NoShow(),
			WebinarDate:    webinarDate,
		}); err != nil {
			if resilience.IsFatal(err) {
				return summary, err
			}
			summary.Errors = append(summary.Errors, newLeadError(a.Email, err))
			continue
		}
		summary.NoShows++
	}

	results, err := e.SyncCallLists(ctx)
	summary.ViewsSynced = len(results)
	if err != nil {
		zap.L().Error("call list sync failed after webinar", zap.Error(err))
	}

	return summary, nil
}

// RecentSummary reports a multi-webinar processing run.
type RecentSummary struct {
	Webinars []WebinarSummary `json:"webinars"`
}

// ProcessRecent processes every recent past webinar in sequence, refreshing
// the call lists once at the end. Per-webinar failures are recorded against
// that webinar and the run continues.
func (e *Engine) ProcessRecent(ctx context.Context) (*RecentSummary, error) {
	webinars, err := e.zoom.ListPastWebinars(ctx)
	if err != nil {
		metrics.RecordRemoteError("zoom")
		return nil, eris.Wrap(err, "leads: list past webinars")
	}
	zap.L().Info("processing recent webinars", zap.Int("count", len(webinars)))

	summary := &RecentSummary{}
	for _, w := range webinars {
		ws, err := e.processParticipants(ctx, w.ID)
		if err != nil {
			if resilience.IsFatal(err) {
				return summary, err
			}
			ws = &WebinarSummary{
				WebinarID: w.ID,
				Errors:    []LeadError{newLeadError("", err)},
			}
		}
		summary.Webinars = append(summary.Webinars, *ws)
	}

	if _, err := e.SyncCallLists(ctx); err != nil {
		zap.L().Error("call list sync failed after recent webinars", zap.Error(err))
	}

	return summary, nil
}

// processParticipants is the attendee-only slice of ProcessWebinar used by
// the multi-webinar run, which skips absentees and defers the view sync.
func (e *Engine) processParticipants(ctx context.Context, webinarID string) (*WebinarSummary, error) {
	participants, err := e.zoom.ListParticipants(ctx, webinarID)
	if err != nil {
		metrics.RecordRemoteError("zoom")
		return nil, eris.Wrap(err, "leads: list participants")
	}

	summary := &WebinarSummary{WebinarID: webinarID}
	webinarDate := e.now().Format("2006-01-02")

	for _, p := range participants {
		if p.Email == "" {
			continue
		}
		cls, ok := e.classifier.Attendee(p.Duration)
		if !ok {
			continue
		}
		outcome, err := e.Upsert(ctx, UpsertInput{
			Email:          p.Email,
			Name:           p.Name,
			Classification: cls,
			WebinarDate:    webinarDate,
		})
		if err != nil {
			if resilience.IsFatal(err) {
				return summary, err
			}
			summary.Errors = append(summary.Errors, newLeadError(p.Email, err))
			continue
		}
		summary.Processed++
		if outcome.Status == StatusCreated {
			summary.Created++
		} else {
			summary.Skipped++
		}
		if cls.Source == model.SourceWebinarWatchedFull {
			summary.WatchedFull++
		}
		if cls.SetterEligible {
			summary.SetterEligible++
		}
	}
	return summary, nil
}
