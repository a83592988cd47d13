package interpreter

import (
	"regexp"
	"strings"
	"time"

	"VoiceCalendarAI/backend/go/internal/models"
)

// Fallback path: a fixed set of pattern rules applied when the LLM path is
// unavailable or returned a malformed response. It resolves the same fields
// under the same policies, so explicit values come out identical on either
// path.

var (
	cancelRe = regexp.MustCompile(`(?i)\b(cancel|delete|remove|scrap)\b`)
	moveRe   = regexp.MustCompile(`(?i)\b(move|reschedule|push|shift)\b`)
)

// fallbackExtract interprets a transcript with the rule set alone.
// It never guesses a start time: when no date or time expression is found
// the outcome is a ParseFailure naming the missing field.
func (i *Interpreter) fallbackExtract(req models.InterpretRequest, ref time.Time) *models.InterpretOutcome {
	transcript := strings.TrimSpace(req.Transcript)
	intent := fallbackIntent(transcript)

	title := deriveTitle(transcript)
	attendees := resolveAttendees(transcript)

	if intent == models.IntentCancelEvent {
		// Cancelling needs a target, not a time.
		if !eventNounRe.MatchString(transcript) && len(attendees) == 0 {
			return failure(models.FailureUnknownIntent, "title")
		}
		return i.outcome(&models.EventIntent{
			Intent:    intent,
			Title:     title,
			Attendees: attendees,
		}, models.SourceFallback, ref)
	}

	date, haveDate := resolveDate(transcript, ref)
	clock, haveClock := resolveClock(transcript, i.cfg.BusinessHoursStart, i.cfg.BusinessHoursEnd)

	switch {
	case haveDate && haveClock:
		start := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, ref.Location())
		return i.timedOutcome(intent, title, attendees, transcript, start, ref)
	case haveClock:
		// Time without a date: nearest future occurrence of that clock time.
		start := time.Date(ref.Year(), ref.Month(), ref.Day(), clock.Hour, clock.Minute, 0, 0, ref.Location())
		if !start.After(ref) {
			start = start.AddDate(0, 0, 1)
		}
		return i.timedOutcome(intent, title, attendees, transcript, start, ref)
	case haveDate:
		// Date without a time is an all-day event.
		return i.outcome(&models.EventIntent{
			Intent:    intent,
			Title:     title,
			Start:     date,
			AllDay:    true,
			Attendees: attendees,
		}, models.SourceFallback, ref)
	default:
		return failure(models.FailureMissingStart, "start")
	}
}

// timedOutcome assembles a timed EventIntent, applying the default duration
// when the transcript did not state one.
func (i *Interpreter) timedOutcome(intent models.IntentType, title string, attendees []string, transcript string, start time.Time, ref time.Time) *models.InterpretOutcome {
	minutes, ok := resolveDuration(transcript)
	if !ok {
		minutes = i.cfg.DefaultDurationMinutes
	}
	return i.outcome(&models.EventIntent{
		Intent:          intent,
		Title:           title,
		Start:           start,
		DurationMinutes: minutes,
		Attendees:       attendees,
	}, models.SourceFallback, ref)
}

// fallbackIntent classifies the operation from keywords; creation is the
// default, matching how the commands are overwhelmingly used.
func fallbackIntent(transcript string) models.IntentType {
	switch {
	case cancelRe.MatchString(transcript):
		return models.IntentCancelEvent
	case moveRe.MatchString(transcript):
		return models.IntentMoveEvent
	default:
		return models.IntentCreateEvent
	}
}
