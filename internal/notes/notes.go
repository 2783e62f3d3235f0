// Package notes renders the setter-facing annotation attached to each new
// lead. The output is plain text for humans; nothing ever parses it back.
package notes

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadflow/internal/model"
)

const divider = "━━━━━━━━━━━━━━━━━━"

// statusDescriptions explains each lead source to the setter reading the note.
var statusDescriptions = map[model.Source]string{
	model.SourceBooked:                "✅ BOOKED - Already scheduled a call",
	model.SourceAppliedNoBooking:      "🔥 HOT - Filled application & QUALIFIED but didn't book",
	model.SourceCreditReportGPT:       "💳 Submitted credit report via GPT",
	model.SourceCreditReportTypeform:  "💳 Submitted credit report via Typeform",
	model.SourceWebinarWatchedFull:    "🎯 Watched FULL webinar (through the pitch)",
	model.SourceWebinarWatchedPartial: "👀 Watched partial webinar",
	model.SourceWebinarNoShow:         "❌ Registered but no-show",
	model.SourceTypeformDisqualified:  "❌ DISQUALIFIED - Credit below cutoff or low income/assets",
}

// tierLabels are the display labels used in the note body.
var tierLabels = map[model.Tier]string{
	model.TierHot:  "🔥 HOT",
	model.TierWarm: "🟡 WARM",
	model.TierCold: "🧊 COLD",
}

// ApplicationDetails carries the application-form answers echoed into the
// note when present.
type ApplicationDetails struct {
	Name        string
	Phone       string
	CreditScore string
	Income      string
	BizRevenue  string
	Assets      string
}

// Input is everything the renderer needs for one lead.
type Input struct {
	Source      model.Source
	WatchTime   *int
	Priority    int
	WebinarDate string
	Application *ApplicationDetails
}

// Render produces the deterministic multi-section note text. The tier label
// comes from the shared priority mapping so the note can never disagree
// with the call-list the lead lands in.
func Render(in Input) string {
	tier := model.TierForPriority(in.Priority)
	label := tierLabels[tier]

	webinarDate := in.WebinarDate
	if webinarDate == "" {
		webinarDate = "Unknown"
	}

	watchTime := 0
	if in.WatchTime != nil {
		watchTime = *in.WatchTime
	}

	status, ok := statusDescriptions[in.Source]
	if !ok {
		status = string(in.Source)
	}

	var b strings.Builder
	b.WriteString("📋 SETTER CALL INFO\n")
	b.WriteString(divider + divider + "\n\n")
	fmt.Fprintf(&b, "📊 LIST: %s\n", label)
	fmt.Fprintf(&b, "📅 WEBINAR DATE: %s\n", webinarDate)
	fmt.Fprintf(&b, "⏱️  WATCH TIME: %d minutes\n", watchTime)
	fmt.Fprintf(&b, "📝 STATUS: %s\n", status)

	if in.Application != nil {
		b.WriteString("\n📝 APPLICATION SUBMISSION:\n")
		b.WriteString(divider + "\n")
		fmt.Fprintf(&b, "👤 Name: %s\n", orNA(in.Application.Name))
		fmt.Fprintf(&b, "📞 Phone: %s\n", orNA(in.Application.Phone))
		fmt.Fprintf(&b, "💳 Credit Score: %s\n", orNA(in.Application.CreditScore))
		fmt.Fprintf(&b, "💰 Income: %s\n", orNA(in.Application.Income))
		fmt.Fprintf(&b, "🏢 Business Revenue: %s\n", orNA(in.Application.BizRevenue))
		fmt.Fprintf(&b, "💵 Liquid Assets: %s\n", orNA(in.Application.Assets))
	}

	fmt.Fprintf(&b, "\n🎯 WHY IN %s LIST:\n", label)
	b.WriteString(divider + "\n")
	b.WriteString(rationale(tier, in.Source) + "\n")

	b.WriteString("\n🔔 ACTION REQUIRED:\n")
	b.WriteString(divider + "\n")
	b.WriteString(action(tier))

	return b.String()
}

// rationale explains the tier placement. HOT leads get a source-specific
// reason; WARM and COLD are uniform.
func rationale(tier model.Tier, source model.Source) string {
	switch tier {
	case model.TierHot:
		switch {
		case source == model.SourceAppliedNoBooking:
			return "✅ Filled out full application & QUALIFIED\n" +
				"✅ Met all credit/income requirements\n" +
				"❌ Did NOT book yet - HIGH PRIORITY CALL"
		case source == model.SourceCreditReportGPT || source == model.SourceCreditReportTypeform:
			return "✅ Shared their credit report (high intent)\n" +
				"✅ Watched significant portion of webinar\n" +
				"🎯 Ready to discuss funding options"
		default:
			return "✅ Watched FULL webinar\n" +
				"✅ Heard complete pitch\n" +
				"🎯 Engaged and interested - call ASAP"
		}
	case model.TierWarm:
		return "⚠️  Watched a partial webinar\n" +
			"⚠️  Didn't hear full pitch or take action\n" +
			"📞 Worth calling but lower priority than HOT leads"
	default:
		return "❄️  Lead is getting cold\n" +
			"⏰ Follow up if no other leads available\n" +
			"💡 May need email nurture first"
	}
}

func action(tier model.Tier) string {
	switch tier {
	case model.TierHot:
		return "🚨 CALL TODAY - High priority qualified lead!"
	case model.TierWarm:
		return "📞 Call if time permits after HOT list is done"
	default:
		return "❄️  Low priority - call only if no HOT/WARM leads available"
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
