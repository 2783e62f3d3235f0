// Package classify maps inbound funnel events to a lead source, a 0-10
// priority, and setter eligibility. All functions here are pure; the upsert
// engine owns every side effect.
package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/model"
)

// Default watch-time thresholds, in minutes.
const (
	DefaultPitchMinute      = 75
	DefaultSetterMinMinutes = 30
)

// Config holds the webinar watch-time thresholds.
type Config struct {
	// PitchMinute is the minute mark at which the pitch completes.
	PitchMinute int
	// SetterMinMinutes is the minimum watch time for a partial watcher to
	// rate a setter call.
	SetterMinMinutes int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{PitchMinute: DefaultPitchMinute, SetterMinMinutes: DefaultSetterMinMinutes}
}

// Validate enforces PitchMinute > SetterMinMinutes > 0.
func (c Config) Validate() error {
	if c.SetterMinMinutes <= 0 {
		return eris.Errorf("classify: setter minimum must be positive, got %d", c.SetterMinMinutes)
	}
	if c.PitchMinute <= c.SetterMinMinutes {
		return eris.Errorf("classify: pitch minute (%d) must exceed setter minimum (%d)",
			c.PitchMinute, c.SetterMinMinutes)
	}
	return nil
}

// Classifier scores inbound events against the configured thresholds.
type Classifier struct {
	cfg Config
}

// New creates a Classifier. The thresholds must already be validated.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Attendee classifies a webinar attendance record by watch time. Zoom
// reports duration in seconds; priority is a step function of the floored
// minute count. ok is false when the record carries zero watched minutes,
// in which case no lead is written — callers skip the record.
func (c *Classifier) Attendee(durationSeconds int) (model.Classification, bool) {
	minutes := durationSeconds / 60
	if minutes <= 0 {
		return model.Classification{}, false
	}

	cls := model.Classification{MinutesWatched: &minutes}
	switch {
	case minutes >= c.cfg.PitchMinute:
		cls.Source = model.SourceWebinarWatchedFull
		cls.Priority = 10
		cls.SetterEligible = true
	case minutes >= c.cfg.SetterMinMinutes:
		cls.Source = model.SourceWebinarWatchedPartial
		cls.Priority = 3
		cls.SetterEligible = true
	default:
		cls.Source = model.SourceWebinarWatchedPartial
		cls.Priority = 1
		cls.SetterEligible = false
	}
	return cls, true
}

// NoShow classifies a registrant who never joined.
func (c *Classifier) NoShow() model.Classification {
	return model.Classification{
		Source:   model.SourceWebinarNoShow,
		Priority: 0,
	}
}

// CreditReportChannel tags which intake path delivered a credit report.
type CreditReportChannel string

const (
	ChannelGPT      CreditReportChannel = "gpt"
	ChannelTypeform CreditReportChannel = "typeform"
)

// CreditReport classifies a credit-report submission. Sharing a credit
// report is a high-intent signal regardless of channel.
func (c *Classifier) CreditReport(channel CreditReportChannel) model.Classification {
	src := model.SourceCreditReportGPT
	if channel == ChannelTypeform {
		src = model.SourceCreditReportTypeform
	}
	return model.Classification{
		Source:         src,
		Priority:       8,
		SetterEligible: true,
	}
}

// Booked classifies a confirmed booking. Priority ties with a full watch,
// but booked leads exit the setter workflow entirely, so they are never
// setter eligible and every call list excludes them.
func (c *Classifier) Booked() model.Classification {
	return model.Classification{
		Source:   model.SourceBooked,
		Priority: 10,
	}
}

// ApplicationAnswers carries the qualification-relevant answers from the
// application form. Values are the raw choice labels.
type ApplicationAnswers struct {
	CreditScore string
	Income      string
	Assets      string
}

// Qualified applies the application qualification rule: a credit score below
// the cutoff disqualifies outright; otherwise landing in the lowest income
// and lowest asset brackets disqualifies unless the credit score is in the
// top bracket.
func (a ApplicationAnswers) Qualified() bool {
	belowCutoff := strings.Contains(strings.ToLower(a.CreditScore), "below")
	lowIncome := strings.Contains(a.Income, "$0-5k")
	lowAssets := strings.Contains(a.Assets, "$0-10k")
	topCredit := strings.Contains(a.CreditScore, "750+")

	if belowCutoff {
		return false
	}
	if lowIncome && lowAssets && !topCredit {
		return false
	}
	return true
}

// Application classifies an application-form submission by its
// qualification outcome.
func (c *Classifier) Application(answers ApplicationAnswers) model.Classification {
	if !answers.Qualified() {
		return model.Classification{
			Source:   model.SourceTypeformDisqualified,
			Priority: 0,
		}
	}
	return model.Classification{
		Source:         model.SourceAppliedNoBooking,
		Priority:       7,
		SetterEligible: true,
	}
}
