// Package dates implements the date/token grammar used across board
// grooming: natural-language due-date tokens embedded in card and
// checklist-item titles, and the calendar helpers the auto-due rules
// are built on.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDueHour is the hour assigned when a token carries no explicit time.
const DefaultDueHour = 12

var monthAbbrevs = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var (
	// Full ISO date-time token, ex. 1941-12-07T14:00.
	reDateTime = regexp.MustCompile(`\d{4}-[01]\d-[0-3]\dT[0-2]\d:[0-5]\d`)
	// Month abbreviation + day + optional @time, ex. Feb3@16:20.
	reMonthDayTime = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[0-9]{1,2}(@[0-9]{1,2}(:[0-9]{1,2})?((?i) ?[AP]M)?)?`)
	// Weekday token: @Mon with optional time, or Mon@13:30. A standalone
	// weekday word without the @ marker is prose, not a date.
	reDayNameTime = regexp.MustCompile(`@(Mon|Tue|Wed|Thu|Fri|Sat|Sun)\b(@[0-9]{1,2}(:[0-9]{1,2})?((?i) ?[AP]M)?)?|(Mon|Tue|Wed|Thu|Fri|Sat|Sun)@[0-9]{1,2}(:[0-9]{1,2})?((?i) ?[AP]M)?`)
	// History list names, ex. "March 2025".
	reMonthYear = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* [0-9]{4}$`)

	reConventionalTime = regexp.MustCompile(`^([0-9]{1,2})(:([0-9]{1,2}))?(?i: ?([AP])M)$`)
)

// MatchesMonthYear reports whether a list name looks like "March 2025".
func MatchesMonthYear(name string) bool {
	return reMonthYear.MatchString(name)
}

// MonthNumFromAbbrev resolves a three-letter month abbreviation to its
// zero-based month number (Jan == 0, Dec == 11).
func MonthNumFromAbbrev(abbrev string) (int, bool) {
	for i, m := range monthAbbrevs {
		if abbrev == m {
			return i, true
		}
	}
	return 0, false
}

// WeekdayNumFromAbbrev resolves a weekday abbreviation to its zero-based
// weekday number (Sun == 0). The abbreviation must be a prefix of the
// full weekday name, so "Mon", "Monda" and "Monday" all resolve.
func WeekdayNumFromAbbrev(abbrev string) (int, bool) {
	if abbrev == "" {
		return 0, false
	}
	for i, name := range weekdayNames {
		if strings.HasPrefix(name, abbrev) {
			return i, true
		}
	}
	return 0, false
}

// NextWeekday returns the next occurrence of the given weekday at or
// after now. Today counts as a match.
func NextWeekday(now time.Time, weekday time.Weekday) time.Time {
	return now.AddDate(0, 0, (7+int(weekday)-int(now.Weekday()))%7)
}

// NDaysFromNow returns the date n days from now. n may be negative.
func NDaysFromNow(n int) time.Time {
	return time.Now().AddDate(0, 0, n)
}

// NDaysFromDate returns the date n days from the given date.
func NDaysFromDate(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// RemnDaysInWeek returns the number of days left until the coming Sunday.
func RemnDaysInWeek(now time.Time) int {
	return (7 - int(now.Weekday())) % 7
}

// RemnDaysInMonth returns the number of days left in the current month.
func RemnDaysInMonth(now time.Time) int {
	firstOfNext := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	lastOfMonth := firstOfNext.AddDate(0, 0, -1)
	return lastOfMonth.Day() - now.Day()
}

// RemnDaysInYear returns the number of days left in the current year.
func RemnDaysInYear(now time.Time) int {
	lastOfYear := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
	return lastOfYear.YearDay() - now.YearDay()
}

// DiffBtwnDatesInDays returns b - a expressed in whole days.
func DiffBtwnDatesInDays(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// MidPointBetweenDates returns the instant halfway between a and b.
func MidPointBetweenDates(a, b time.Time) time.Time {
	return a.Add(b.Sub(a) / 2)
}

// ConventionalToMilitaryTime converts a 12-hour clock string with an
// AM/PM suffix to 24-hour form: "2:30 PM" becomes "14:30".
// Input that does not look like a conventional time is returned unchanged.
func ConventionalToMilitaryTime(conventional string) string {
	m := reConventionalTime.FindStringSubmatch(strings.TrimSpace(conventional))
	if m == nil {
		return conventional
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[3] != "" {
		minute, _ = strconv.Atoi(m[3])
	}
	meridiem := strings.ToUpper(m[4])
	if hour == 12 {
		hour = 0
	}
	if meridiem == "P" {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseResult carries the outcome of ParseDueDate: the input with the
// date token stripped, and the resolved due date (nil when no token was
// found and no default was supplied).
type ParseResult struct {
	CleanedText string
	Due         *time.Time
}

// ParseDueDate parses a card or checklist-item name for an embedded
// date, day, or time token. Patterns are tried in priority order: a full
// ISO date-time, a month-day token like "Feb3@16:20", then a weekday
// token like "Mon@13:30". A matched token is stripped from the returned
// text. When nothing matches, the text is returned unchanged along with
// defaultDue, which enables due-date inheritance from a parent card. An
// unrecognized month or weekday abbreviation yields the same no-match
// result, never an error.
func ParseDueDate(input string, defaultDue *time.Time, now time.Time) ParseResult {
	if token := reDateTime.FindString(input); token != "" {
		due, err := time.ParseInLocation("2006-01-02T15:04", token, now.Location())
		if err != nil {
			return ParseResult{CleanedText: input, Due: defaultDue}
		}
		return ParseResult{CleanedText: stripToken(input, token), Due: &due}
	}

	if token := reMonthDayTime.FindString(input); token != "" {
		dayPart, timePart, _ := strings.Cut(token, "@")
		monthNum, ok := MonthNumFromAbbrev(dayPart[:3])
		if !ok {
			return ParseResult{CleanedText: input, Due: defaultDue}
		}
		dayNum, err := strconv.Atoi(dayPart[3:])
		if err != nil {
			return ParseResult{CleanedText: input, Due: defaultDue}
		}
		hour, minute := parseClock(timePart)
		due := time.Date(now.Year(), time.Month(monthNum+1), dayNum, hour, minute, 0, 0, now.Location())
		// A month/day earlier in the year refers to next year's occurrence.
		if due.Before(now) {
			due = due.AddDate(1, 0, 0)
		}
		return ParseResult{CleanedText: stripToken(input, token), Due: &due}
	}

	if token := reDayNameTime.FindString(input); token != "" {
		trimmed := strings.TrimPrefix(token, "@")
		dayPart, timePart, _ := strings.Cut(trimmed, "@")
		weekdayNum, ok := WeekdayNumFromAbbrev(dayPart)
		if !ok {
			return ParseResult{CleanedText: input, Due: defaultDue}
		}
		hour, minute := parseClock(timePart)
		day := NextWeekday(now, time.Weekday(weekdayNum))
		due := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
		return ParseResult{CleanedText: stripToken(input, token), Due: &due}
	}

	return ParseResult{CleanedText: input, Due: defaultDue}
}

// parseClock parses the "@"-suffixed portion of a token, normalizing
// 12-hour forms before numeric parsing. Noon when no time was given.
func parseClock(timePart string) (hour, minute int) {
	hour, minute = DefaultDueHour, 0
	if timePart == "" {
		return hour, minute
	}
	if reConventionalTime.MatchString(strings.TrimSpace(timePart)) {
		timePart = ConventionalToMilitaryTime(timePart)
	}
	hourStr, minuteStr, hasMinutes := strings.Cut(timePart, ":")
	if h, err := strconv.Atoi(strings.TrimSpace(hourStr)); err == nil {
		hour = h
	}
	if hasMinutes {
		if m, err := strconv.Atoi(strings.TrimSpace(minuteStr)); err == nil {
			minute = m
		}
	}
	return hour, minute
}

// stripToken removes the matched token and tidies up the whitespace the
// removal leaves behind.
func stripToken(input, token string) string {
	cleaned := strings.Replace(input, token, "", 1)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return cleaned
}
