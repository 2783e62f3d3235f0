// Package leads drives the write path: classify-once upsert of individual
// leads, webinar batch processing, and retroactive note backfill.
package leads

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/calllist"
	"github.com/sells-group/leadflow/internal/classify"
	"github.com/sells-group/leadflow/internal/metrics"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/notes"
	"github.com/sells-group/leadflow/internal/resilience"
	closeapi "github.com/sells-group/leadflow/pkg/close"
	"github.com/sells-group/leadflow/pkg/zoom"
)

// Status is the outcome of a single upsert.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
)

// Outcome reports what an upsert did. LeadID is set for both outcomes: the
// new record's ID on create, the existing record's on skip.
type Outcome struct {
	Status Status
	LeadID string
}

// Config wires an Engine.
type Config struct {
	Store       closeapi.Client
	Zoom        zoom.Client
	Classifier  *classify.Classifier
	Synthesizer *calllist.Synthesizer

	// Delay is the minimum pause between dependent store calls.
	Delay time.Duration
	// PageSize is the lead search page size for backfill pagination.
	PageSize int
	// Now supplies the reference date for webinar dates and call-list
	// windows. Defaults to time.Now.
	Now func() time.Time
}

// Engine owns every store mutation in the pipeline. Processing is strictly
// sequential: one in-flight mutation at a time, separated by the configured
// delay, which is all the store's rate limit requires.
type Engine struct {
	store       closeapi.Client
	zoom        zoom.Client
	classifier  *classify.Classifier
	synthesizer *calllist.Synthesizer
	delay       time.Duration
	pageSize    int
	now         func() time.Time

	mu      sync.Mutex
	binding model.FieldBinding
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		store:       cfg.Store,
		zoom:        cfg.Zoom,
		classifier:  cfg.Classifier,
		synthesizer: cfg.Synthesizer,
		delay:       cfg.Delay,
		pageSize:    cfg.PageSize,
		now:         cfg.Now,
	}
}

// Binding returns the resolved field binding, provisioning the custom
// fields on first use. Re-resolution only happens while a key is missing;
// once complete the cached value is immutable.
func (e *Engine) Binding(ctx context.Context) (model.FieldBinding, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.binding.Resolved() {
		return e.binding, nil
	}
	binding, err := closeapi.EnsureFields(ctx, e.store)
	if err != nil {
		return model.FieldBinding{}, err
	}
	e.binding = binding
	return binding, nil
}

// UpsertInput is one classified lead ready to write.
type UpsertInput struct {
	Email          string
	Name           string
	Classification model.Classification
	// WebinarDate is a YYYY-MM-DD date, set only for webinar-derived leads.
	WebinarDate string
	// Application carries form answers echoed into the annotation.
	Application *notes.ApplicationDetails
}

// Upsert writes a newly classified lead, deduplicating by email. The first
// classification wins: if a lead already exists for the address, nothing is
// updated regardless of how the priorities compare, and the call reports
// StatusSkipped with zero store mutations. A new lead gets exactly one
// create plus one annotation note.
func (e *Engine) Upsert(ctx context.Context, in UpsertInput) (Outcome, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" {
		return Outcome{}, &resilience.ValidationError{Field: "email", Reason: "required"}
	}

	e.pause(ctx)

	existing, err := e.store.FindLeadByEmail(ctx, email)
	if err != nil {
		metrics.RecordRemoteError("close")
		return Outcome{}, err
	}
	if existing != nil {
		zap.L().Debug("lead exists, skipping",
			zap.String("email", email),
			zap.String("lead_id", existing.ID))
		metrics.RecordUpsert(string(in.Classification.Source), string(StatusSkipped))
		return Outcome{Status: StatusSkipped, LeadID: existing.ID}, nil
	}

	binding, err := e.Binding(ctx)
	if err != nil {
		return Outcome{}, err
	}

	custom := map[string]any{
		binding.LeadSource: string(in.Classification.Source),
		binding.Priority:   in.Classification.Priority,
	}
	if in.Classification.MinutesWatched != nil {
		custom[binding.WatchTime] = *in.Classification.MinutesWatched
	}
	if in.WebinarDate != "" {
		custom[binding.WebinarDate] = in.WebinarDate
	}

	created, err := e.store.CreateLead(ctx, closeapi.CreateLeadRequest{
		Name:   in.Name,
		Email:  email,
		Custom: custom,
	})
	if err != nil {
		metrics.RecordRemoteError("close")
		return Outcome{}, err
	}

	note := notes.Render(notes.Input{
		Source:      in.Classification.Source,
		WatchTime:   in.Classification.MinutesWatched,
		Priority:    in.Classification.Priority,
		WebinarDate: in.WebinarDate,
		Application: in.Application,
	})
	if err := e.store.CreateNote(ctx, created.ID, note); err != nil {
		// The lead exists; a lost note is not worth failing the event over.
		zap.L().Warn("note creation failed",
			zap.String("lead_id", created.ID),
			zap.Error(err))
	}

	zap.L().Info("lead created",
		zap.String("email", email),
		zap.String("source", string(in.Classification.Source)),
		zap.Int("priority", in.Classification.Priority))
	metrics.RecordUpsert(string(in.Classification.Source), string(StatusCreated))
	return Outcome{Status: StatusCreated, LeadID: created.ID}, nil
}

// SyncCallLists rebuilds the three setter call lists for today's date.
func (e *Engine) SyncCallLists(ctx context.Context) ([]calllist.Result, error) {
	return e.SyncCallListsAt(ctx, e.now())
}

// SyncCallListsAt rebuilds the call lists against an explicit reference
// date, resolving the field binding first.
func (e *Engine) SyncCallListsAt(ctx context.Context, ref time.Time) ([]calllist.Result, error) {
	binding, err := e.Binding(ctx)
	if err != nil {
		return nil, err
	}
	results, err := e.synthesizer.Synchronize(ctx, ref, binding)
	for _, r := range results {
		metrics.RecordCallListSync(string(r.Tier), string(r.Action))
	}
	if err != nil {
		return results, eris.Wrap(err, "leads: sync call lists")
	}
	return results, nil
}

// pause enforces the inter-call delay, returning early on cancellation.
func (e *Engine) pause(ctx context.Context) {
	if e.delay <= 0 {
		return
	}
	t := time.NewTimer(e.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
