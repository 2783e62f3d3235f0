package calllist

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
	closeapi "github.com/sells-group/leadflow/pkg/close"
)

// SearchStore is the slice of the CRM client the synthesizer needs.
type SearchStore interface {
	ListSavedSearches(ctx context.Context) ([]closeapi.SavedSearch, error)
	CreateSavedSearch(ctx context.Context, name, query string) (*closeapi.SavedSearch, error)
	UpdateSavedSearch(ctx context.Context, id, query string) error
	DeleteSavedSearch(ctx context.Context, id string) error
}

// Action records how a tier's saved search was reconciled.
type Action string

const (
	ActionUpdated   Action = "updated"
	ActionRecreated Action = "recreated"
	ActionCreated   Action = "created"
)

// Result is the outcome for one tier.
type Result struct {
	Tier   model.Tier
	Name   string
	ViewID string
	Action Action
}

// Synthesizer reconciles the three call-list saved searches against the
// store.
type Synthesizer struct {
	store     SearchStore
	setterMin int
	delay     time.Duration
}

// NewSynthesizer creates a Synthesizer. setterMin is the WARM/COLD watch-time
// floor in minutes; delay is the pause between dependent store calls.
func NewSynthesizer(store SearchStore, setterMin int, delay time.Duration) *Synthesizer {
	return &Synthesizer{store: store, setterMin: setterMin, delay: delay}
}

// Synchronize rebuilds the three tier queries for the reference date and
// reconciles each against the store: update the existing saved search in
// place; if the store rejects the update, delete it and recreate fresh; if
// none exists, create. The store's update endpoint rejects edits to views
// it does not consider owned, which is why delete-and-recreate is the
// guaranteed path. Tiers are processed in fixed order and independently: a
// failed tier is reported but never blocks the others.
func (s *Synthesizer) Synchronize(ctx context.Context, referenceDate time.Time, binding model.FieldBinding) ([]Result, error) {
	existing, err := s.store.ListSavedSearches(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "calllist: list saved searches")
	}

	byName := make(map[string][]closeapi.SavedSearch)
	for _, ss := range existing {
		byName[ss.Name] = append(byName[ss.Name], ss)
	}

	var results []Result
	var errs []error
	for _, def := range Definitions() {
		res, err := s.reconcile(ctx, def, referenceDate, binding, byName[def.Name])
		if err != nil {
			zap.L().Error("call list reconciliation failed",
				zap.String("tier", string(def.Tier)),
				zap.Error(err))
			errs = append(errs, eris.Wrap(err, "calllist: reconcile "+string(def.Tier)))
			continue
		}
		zap.L().Info("call list reconciled",
			zap.String("tier", string(def.Tier)),
			zap.String("view_id", res.ViewID),
			zap.String("action", string(res.Action)))
		results = append(results, res)

		s.pause(ctx)
	}

	return results, errors.Join(errs...)
}

// reconcile applies the three-way fallback for one tier. matches holds the
// saved searches already carrying the tier's name; the first is canonical
// and any surplus duplicates are removed to restore the one-per-tier
// invariant.
func (s *Synthesizer) reconcile(ctx context.Context, def Definition, ref time.Time, binding model.FieldBinding, matches []closeapi.SavedSearch) (Result, error) {
	query := def.Build(ref, binding, s.setterMin).String()

	if len(matches) == 0 {
		created, err := s.store.CreateSavedSearch(ctx, def.Name, query)
		if err != nil {
			return Result{}, err
		}
		return Result{Tier: def.Tier, Name: def.Name, ViewID: created.ID, Action: ActionCreated}, nil
	}

	for _, dup := range matches[1:] {
		if err := s.store.DeleteSavedSearch(ctx, dup.ID); err != nil {
			zap.L().Warn("could not delete duplicate call list",
				zap.String("tier", string(def.Tier)),
				zap.String("view_id", dup.ID),
				zap.Error(err))
		}
	}

	canonical := matches[0]
	updateErr := s.store.UpdateSavedSearch(ctx, canonical.ID, query)
	if updateErr == nil {
		return Result{Tier: def.Tier, Name: def.Name, ViewID: canonical.ID, Action: ActionUpdated}, nil
	}
	zap.L().Warn("saved search update rejected, recreating",
		zap.String("tier", string(def.Tier)),
		zap.String("view_id", canonical.ID),
		zap.Error(updateErr))

	if err := s.store.DeleteSavedSearch(ctx, canonical.ID); err != nil {
		return Result{}, err
	}
	s.pause(ctx)
	created, err := s.store.CreateSavedSearch(ctx, def.Name, query)
	if err != nil {
		return Result{}, err
	}
	return Result{Tier: def.Tier, Name: def.Name, ViewID: created.ID, Action: ActionRecreated}, nil
}

// pause waits the configured inter-call delay, returning early on
// cancellation.
func (s *Synthesizer) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
