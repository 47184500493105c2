package aitime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StrictLayout is the only layout accepted by the strict tier.
const StrictLayout = "2006-01-02 15:04"

// DefaultHour is the hour used when a date is found without a time.
const DefaultHour = 9

var (
	monthAlt = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	monthDayPattern  = regexp.MustCompile(`\b` + monthAlt + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthPattern  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthAlt + `\b\.?(?:,?\s+(\d{4})\b)?`)

	ampmPattern   = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)(?:\s|$|[^a-z])`)
	clock24       = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	inDaysPattern = regexp.MustCompile(`\bin\s+(\d{1,3}|a|an|one|two|three|four|five|six|seven)\s+(day|days|week|weeks)\b`)
	weekdayRegexp = regexp.MustCompile(`\b(?:(next|this|on)\s+)?(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thu|friday|fri|saturday|sat|sunday|sun)\b\.?`)
)

var monthByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdayByPrefix = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

var smallNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
}

// Parser parses English date/time phrases relative to a reference time.
type Parser struct {
	timezone *time.Location
}

// NewParser creates a new time parser with the given timezone.
func NewParser(timezone *time.Location) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	return &Parser{timezone: timezone}
}

// Location returns the parser's timezone.
func (p *Parser) Location() *time.Location {
	return p.timezone
}

// ParseStrict accepts exactly "YYYY-MM-DD HH:MM".
func (p *Parser) ParseStrict(input string) (time.Time, error) {
	return time.ParseInLocation(StrictLayout, strings.TrimSpace(input), p.timezone)
}

// dateParts accumulates what the lenient scanner found.
type dateParts struct {
	date     time.Time // midnight of the matched day
	hasDate  bool
	hour     int
	minute   int
	hasTime  bool
	explicit bool // year was written out
}

// Parse parses a phrase leniently: free ordering, partial dates, weekday
// names and relative words. Unknown words are ignored; the phrase must
// contain at least one date or time component.
//
// Rules:
//   - Bare month/day takes the current year, or next year if that day has passed.
//   - Weekday names resolve to the next upcoming occurrence, today included.
//   - A date without a time gets 09:00.
//   - A time without a date lands on today.
func (p *Parser) Parse(input string, now time.Time) (time.Time, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return time.Time{}, fmt.Errorf("empty input")
	}
	now = now.In(p.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.timezone)

	parts := dateParts{}
	rest, err := p.scanDate(text, today, &parts)
	if err != nil {
		return time.Time{}, err
	}
	p.scanTime(rest, &parts)

	if !parts.hasDate && !parts.hasTime {
		return time.Time{}, fmt.Errorf("unable to parse time: %s", input)
	}
	if !parts.hasDate {
		parts.date = today
	}
	if !parts.hasTime {
		parts.hour, parts.minute = DefaultHour, 0
	}
	return time.Date(parts.date.Year(), parts.date.Month(), parts.date.Day(),
		parts.hour, parts.minute, 0, 0, p.timezone), nil
}

// scanDate finds the first date component and returns the text with it removed
// so numeric days are not re-read as hours. A day past the end of its month
// is an error.
func (p *Parser) scanDate(text string, today time.Time, parts *dateParts) (string, error) {
	if m := isoDatePattern.FindStringSubmatchIndex(text); m != nil {
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		d, _ := strconv.Atoi(text[m[6]:m[7]])
		if validMonthDay(mo, d) {
			date, err := p.calendarDate(y, time.Month(mo), d)
			if err != nil {
				return text, err
			}
			parts.setDate(date, true)
			return cut(text, m[0], m[1]), nil
		}
	}

	if m := monthDayPattern.FindStringSubmatchIndex(text); m != nil {
		month := monthByPrefix[text[m[2]:m[2]+3]]
		d, _ := strconv.Atoi(text[m[4]:m[5]])
		if validMonthDay(int(month), d) {
			year, explicit := p.yearFrom(text, m[6], m[7])
			date, err := p.inferYear(year, explicit, month, d, today)
			if err != nil {
				return text, err
			}
			parts.setDate(date, explicit)
			return cut(text, m[0], m[1]), nil
		}
	}

	if m := dayMonthPattern.FindStringSubmatchIndex(text); m != nil {
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		month := monthByPrefix[text[m[4]:m[4]+3]]
		if validMonthDay(int(month), d) {
			year, explicit := p.yearFrom(text, m[6], m[7])
			date, err := p.inferYear(year, explicit, month, d, today)
			if err != nil {
				return text, err
			}
			parts.setDate(date, explicit)
			return cut(text, m[0], m[1]), nil
		}
	}

	if m := slashDatePattern.FindStringSubmatchIndex(text); m != nil {
		mo, _ := strconv.Atoi(text[m[2]:m[3]])
		d, _ := strconv.Atoi(text[m[4]:m[5]])
		if validMonthDay(mo, d) {
			year, explicit := p.yearFrom(text, m[6], m[7])
			if explicit && year < 100 {
				year += 2000
			}
			date, err := p.inferYear(year, explicit, time.Month(mo), d, today)
			if err != nil {
				return text, err
			}
			parts.setDate(date, explicit)
			return cut(text, m[0], m[1]), nil
		}
	}

	switch {
	case strings.Contains(text, "day after tomorrow"):
		parts.setDate(today.AddDate(0, 0, 2), false)
		return strings.Replace(text, "day after tomorrow", " ", 1), nil
	case strings.Contains(text, "tomorrow"):
		parts.setDate(today.AddDate(0, 0, 1), false)
		return strings.Replace(text, "tomorrow", " ", 1), nil
	case strings.Contains(text, "tonight"):
		parts.setDate(today, false)
		if !ampmPattern.MatchString(text) && !clock24.MatchString(text) {
			parts.hour, parts.minute, parts.hasTime = 19, 0, true
		}
		return strings.Replace(text, "tonight", " ", 1), nil
	case strings.Contains(text, "today"):
		parts.setDate(today, false)
		return strings.Replace(text, "today", " ", 1), nil
	}

	if m := inDaysPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = smallNumbers[m[1]]
		}
		if strings.HasPrefix(m[2], "week") {
			n *= 7
		}
		parts.setDate(today.AddDate(0, 0, n), false)
		return strings.Replace(text, m[0], " ", 1), nil
	}

	if m := weekdayRegexp.FindStringSubmatch(text); m != nil {
		target := weekdayByPrefix[m[2][:3]]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if m[1] == "next" && days == 0 {
			days = 7
		}
		parts.setDate(today.AddDate(0, 0, days), false)
		return strings.Replace(text, m[0], " ", 1), nil
	}

	if strings.Contains(text, "next week") {
		parts.setDate(today.AddDate(0, 0, 7), false)
		return strings.Replace(text, "next week", " ", 1), nil
	}

	return text, nil
}

func (p *Parser) scanTime(text string, parts *dateParts) {
	if parts.hasTime {
		return
	}
	if m := ampmPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || minute > 59 {
			return
		}
		if strings.HasPrefix(m[3], "p") && h != 12 {
			h += 12
		}
		if strings.HasPrefix(m[3], "a") && h == 12 {
			h = 0
		}
		parts.hour, parts.minute, parts.hasTime = h, minute, true
		return
	}
	if m := clock24.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h <= 23 && minute <= 59 {
			parts.hour, parts.minute, parts.hasTime = h, minute, true
		}
		return
	}
	switch {
	case strings.Contains(text, "noon"):
		parts.hour, parts.minute, parts.hasTime = 12, 0, true
	case strings.Contains(text, "midnight"):
		parts.hour, parts.minute, parts.hasTime = 0, 0, true
	}
}

func (d *dateParts) setDate(t time.Time, explicit bool) {
	d.date = t
	d.hasDate = true
	d.explicit = explicit
}

func (p *Parser) yearFrom(text string, start, end int) (int, bool) {
	if start < 0 {
		return 0, false
	}
	y, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, false
	}
	return y, true
}

// inferYear applies the year rule for dates whose year was not written:
// force the current year, and advance one year if that day is already past.
// The day must exist in the year that is finally chosen.
func (p *Parser) inferYear(year int, explicit bool, month time.Month, day int, today time.Time) (time.Time, error) {
	if !explicit {
		year = today.Year()
		if time.Date(year, month, day, 0, 0, 0, 0, p.timezone).Before(today) {
			year++
		}
	}
	return p.calendarDate(year, month, day)
}

// calendarDate builds midnight of the given day, rejecting days time.Date
// would normalize into the next month.
func (p *Parser) calendarDate(year int, month time.Month, day int) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("day %d is out of range for %s %d", day, month, year)
	}
	return t, nil
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func cut(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}
