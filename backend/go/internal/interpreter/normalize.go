package interpreter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The fixed rule set shared by both interpretation paths. The fallback path
// extracts every field with these rules; the LLM path reuses the date rules
// to re-anchor relative expressions the model resolved against a stale "now".

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var (
	nextWeekdayRe = regexp.MustCompile(`(?i)\bnext\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	bareWeekdayRe = regexp.MustCompile(`(?i)\b(?:on\s+|this\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	monthDayRe    = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRe    = regexp.MustCompile(`(?i)\b(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s+of\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b`)

	clockColonRe = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?\b`)
	clockAtRe    = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)?\b`)
	clockAmPmRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)\b`)

	durationNumRe  = regexp.MustCompile(`(?i)\bfor\s+(\d+)\s*(minutes?|mins?|hours?|hrs?)\b`)
	durationHourRe = regexp.MustCompile(`(?i)\bfor\s+(?:an?|one)\s+hour\b`)
	durationHalfRe = regexp.MustCompile(`(?i)\bfor\s+half\s+an?\s+hour\b`)

	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	eventNounRe = regexp.MustCompile(`(?i)\b(meeting|call|lunch|dinner|coffee|appointment|sync|standup|stand-up|review|interview|demo|session|one-on-one|catch-?up)\b`)
)

// nextOccurrence returns the date of the next occurrence of the given
// weekday strictly after the reference day. From a Monday, "Friday" and
// "next Friday" are both that same week's Friday.
func nextOccurrence(target time.Weekday, ref time.Time) time.Time {
	days := (int(target) - int(ref.Weekday())) % 7
	if days <= 0 {
		days += 7
	}
	return ref.AddDate(0, 0, days)
}

// resolveDate scans the transcript for a date expression and resolves it
// against the reference timestamp. The returned time is midnight in ref's
// location. Expressions without a year resolve to the nearest future
// occurrence.
func resolveDate(transcript string, ref time.Time) (time.Time, bool) {
	lower := strings.ToLower(transcript)
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	if strings.Contains(lower, "day after tomorrow") {
		return midnight.AddDate(0, 0, 2), true
	}
	if strings.Contains(lower, "tomorrow") {
		return midnight.AddDate(0, 0, 1), true
	}
	if strings.Contains(lower, "today") || strings.Contains(lower, "tonight") {
		return midnight, true
	}

	if m := nextWeekdayRe.FindStringSubmatch(lower); m != nil {
		d := nextOccurrence(weekdayNames[m[1]], midnight)
		return d, true
	}

	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		return resolveMonthDay(monthNames[m[1]], m[2], ref)
	}
	if m := dayMonthRe.FindStringSubmatch(lower); m != nil {
		return resolveMonthDay(monthNames[m[2]], m[1], ref)
	}

	if m := bareWeekdayRe.FindStringSubmatch(lower); m != nil {
		d := nextOccurrence(weekdayNames[m[1]], midnight)
		return d, true
	}

	return time.Time{}, false
}

// resolveMonthDay resolves a month/day pair without a year to the nearest
// future occurrence: this year if the date has not passed, otherwise next.
func resolveMonthDay(month time.Month, dayStr string, ref time.Time) (time.Time, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(ref.Year(), month, day, 0, 0, 0, 0, ref.Location())
	if d.Month() != month { // e.g. February 30 rolled over
		return time.Time{}, false
	}
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if d.Before(refDay) {
		d = time.Date(ref.Year()+1, month, day, 0, 0, 0, 0, ref.Location())
	}
	return d, true
}

// clockTime is a resolved time of day. Explicit is true when the transcript
// disambiguated it (AM/PM marker, 24-hour value, noon/midnight); otherwise
// the business-hours policy was applied.
type clockTime struct {
	Hour     int
	Minute   int
	Explicit bool
}

// resolveClock scans the transcript for a time-of-day expression.
// Bare hours without an AM/PM marker are disambiguated with the configured
// business-hours window; the policy is explicit and overridable, never a
// silent guess.
func resolveClock(transcript string, businessStart, businessEnd int) (clockTime, bool) {
	lower := strings.ToLower(transcript)

	if strings.Contains(lower, "noon") {
		return clockTime{Hour: 12, Explicit: true}, true
	}
	if strings.Contains(lower, "midnight") {
		return clockTime{Hour: 0, Explicit: true}, true
	}

	if m := clockColonRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour <= 23 && minute <= 59 {
			return applyMeridiem(hour, minute, m[3], businessStart, businessEnd), true
		}
	}
	if m := clockAtRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 23 {
			return applyMeridiem(hour, 0, m[2], businessStart, businessEnd), true
		}
	}
	if m := clockAmPmRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour <= 12 {
			return applyMeridiem(hour, 0, m[2], businessStart, businessEnd), true
		}
	}

	return clockTime{}, false
}

// applyMeridiem converts a parsed hour to 24-hour form. With an AM/PM marker
// or a 24-hour value the time is explicit; otherwise hours before the start
// of the business window are assumed to be afternoon.
func applyMeridiem(hour, minute int, meridiem string, businessStart, businessEnd int) clockTime {
	meridiem = strings.ReplaceAll(strings.ToLower(meridiem), ".", "")
	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
		return clockTime{Hour: hour, Minute: minute, Explicit: true}
	case "pm":
		if hour < 12 {
			hour += 12
		}
		return clockTime{Hour: hour, Minute: minute, Explicit: true}
	}

	if hour == 0 || hour > 12 {
		// Already unambiguous 24-hour form.
		return clockTime{Hour: hour, Minute: minute, Explicit: true}
	}

	if hour < businessStart && hour+12 <= businessEnd {
		hour += 12
	}
	return clockTime{Hour: hour, Minute: minute}
}

// resolveDuration scans the transcript for an explicit duration and returns
// it in minutes.
func resolveDuration(transcript string) (int, bool) {
	lower := strings.ToLower(transcript)

	if m := durationNumRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return 0, false
		}
		if strings.HasPrefix(m[2], "h") {
			return n * 60, true
		}
		return n, true
	}
	if durationHalfRe.MatchString(lower) {
		return 30, true
	}
	if durationHourRe.MatchString(lower) {
		return 60, true
	}
	return 0, false
}

// attendee collection stops at tokens that begin a time or date expression.
var attendeeStopWords = map[string]bool{
	"at": true, "on": true, "next": true, "tomorrow": true, "today": true,
	"tonight": true, "for": true, "from": true, "this": true, "in": true,
}

// resolveAttendees extracts participant identifiers: e-mail addresses
// anywhere in the transcript, plus names following a "with".
func resolveAttendees(transcript string) []string {
	var attendees []string
	seen := map[string]bool{}

	for _, email := range emailRe.FindAllString(transcript, -1) {
		key := strings.ToLower(email)
		if !seen[key] {
			seen[key] = true
			attendees = append(attendees, email)
		}
	}

	for _, name := range namesAfterWith(transcript) {
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			attendees = append(attendees, name)
		}
	}

	return attendees
}

// namesAfterWith collects the word tokens following "with" until a stop
// word, skipping connectives. Tokens are title-cased since transcripts may
// arrive fully lowercased.
func namesAfterWith(transcript string) []string {
	tokens := strings.Fields(transcript)
	var names []string
	collecting := false
	for _, tok := range tokens {
		word := strings.Trim(tok, ",.?!")
		lower := strings.ToLower(word)
		if !collecting {
			if lower == "with" {
				collecting = true
			}
			continue
		}
		if attendeeStopWords[lower] {
			break
		}
		if lower == "and" || lower == "" {
			continue
		}
		if emailRe.MatchString(word) {
			continue // already collected
		}
		names = append(names, titleCase(lower))
	}
	return names
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// deriveTitle builds an event title from the transcript: the recognized
// event noun plus the attendee names, e.g. "meeting with John". Falls back
// to "Meeting" when nothing better is found.
func deriveTitle(transcript string) string {
	noun := "Meeting"
	if m := eventNounRe.FindString(transcript); m != "" {
		noun = strings.ToLower(m)
	}
	if names := namesAfterWith(transcript); len(names) > 0 {
		return noun + " with " + strings.Join(names, " and ")
	}
	if noun == "Meeting" {
		return noun
	}
	return noun
}
