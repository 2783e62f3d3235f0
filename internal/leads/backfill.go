package leads

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/calllist"
	"github.com/sells-group/leadflow/internal/metrics"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/notes"
	"github.com/sells-group/leadflow/internal/resilience"
)

// BackfillSummary reports a note-backfill run. NextSkip is the offset to
// resume from if the run stopped early.
type BackfillSummary struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	NextSkip  int         `json:"next_skip"`
	Errors    []LeadError `json:"errors,omitempty"`
}

// BackfillNotes attaches an annotation to every stored lead that carries a
// lead_source value, re-rendered from the lead's classification fields.
// The lead set can exceed one search page, so the walk is offset-paginated
// and resumable via skip; a failed lead is counted and the walk continues.
func (e *Engine) BackfillNotes(ctx context.Context, skip int) (*BackfillSummary, error) {
	binding, err := e.Binding(ctx)
	if err != nil {
		return nil, err
	}

	// Every lead the pipeline has ever written has a source.
	query := calllist.CustomField(binding.LeadSource) + ":*"
	summary := &BackfillSummary{NextSkip: skip}

	for {
		page, hasMore, err := e.store.SearchLeads(ctx, query, e.pageSize, summary.NextSkip)
		if err != nil {
			metrics.RecordRemoteError("close")
			return summary, eris.Wrap(err, "leads: backfill page")
		}
		if len(page) == 0 {
			return summary, nil
		}

		for _, lead := range page {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			watch := lead.CustomInt(binding.WatchTime)
			note := notes.Render(notes.Input{
				Source:      model.Source(lead.CustomString(binding.LeadSource)),
				WatchTime:   &watch,
				Priority:    lead.CustomInt(binding.Priority),
				WebinarDate: lead.CustomString(binding.WebinarDate),
			})

			e.pause(ctx)
			if err := e.store.CreateNote(ctx, lead.ID, note); err != nil {
				if resilience.IsFatal(err) {
					return summary, err
				}
				summary.Failed++
				summary.Errors = append(summary.Errors, newLeadError(lead.Email(), err))
				continue
			}
			summary.Processed++
			zap.L().Debug("backfilled note",
				zap.String("lead_id", lead.ID),
				zap.String("name", lead.DisplayName))
		}

		summary.NextSkip += len(page)
		if !hasMore {
			return summary, nil
		}
	}
}
