package main

import (
	"github.com/sells-group/leadflow/internal/calllist"
	"github.com/sells-group/leadflow/internal/classify"
	"github.com/sells-group/leadflow/internal/config"
	"github.com/sells-group/leadflow/internal/leads"
	closeapi "github.com/sells-group/leadflow/pkg/close"
	"github.com/sells-group/leadflow/pkg/zoom"
)

// app bundles the wired pipeline for the commands and webhook handlers.
type app struct {
	cfg        *config.Config
	classifier *classify.Classifier
	engine     *leads.Engine
}

// initApp wires the API clients, classifier, synthesizer, and engine from
// the loaded configuration.
func initApp(cfg *config.Config) (*app, error) {
	scoring := classify.Config{
		PitchMinute:      cfg.Scoring.PitchMinute,
		SetterMinMinutes: cfg.Scoring.SetterMinMinutes,
	}
	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	classifier := classify.New(scoring)

	store := closeapi.NewClient(cfg.Close.APIKey,
		closeapi.WithBaseURL(cfg.Close.BaseURL),
		closeapi.WithRateLimit(cfg.Close.RateLimitRPS),
	)
	zoomClient := zoom.NewClient(cfg.Zoom.AccountID, cfg.Zoom.ClientID, cfg.Zoom.ClientSecret,
		zoom.WithBaseURL(cfg.Zoom.BaseURL),
		zoom.WithOAuthURL(cfg.Zoom.OAuthURL),
	)

	synthesizer := calllist.NewSynthesizer(store, cfg.Scoring.SetterMinMinutes, cfg.Close.MutationDelay())

	engine := leads.NewEngine(leads.Config{
		Store:       store,
		Zoom:        zoomClient,
		Classifier:  classifier,
		Synthesizer: synthesizer,
		Delay:       cfg.Close.MutationDelay(),
		PageSize:    cfg.Close.SearchPageSize,
	})

	return &app{cfg: cfg, classifier: classifier, engine: engine}, nil
}
