package task

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskvault/internal/date"
)

// Recurrence rule types.
const (
	RecurDaily   = "daily"
	RecurWeekly  = "weekly"
	RecurMonthly = "monthly"
	RecurYearly  = "yearly"
	RecurCustom  = "custom"
)

// Recurrence describes how a completed task regenerates. It is immutable
// once parsed; Raw preserves the original rule text for round-trip
// serialization.
type Recurrence struct {
	Type       string         `json:"type"`
	Interval   int            `json:"interval"`
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
	EndDate    *date.Date     `json:"end_date,omitempty"`
	Raw        string         `json:"raw"`
}

var (
	everyRe = regexp.MustCompile(`^every (\d+) (day|days|week|weeks|month|months|year|years)$`)
	untilRe = regexp.MustCompile(`\s+until (\d{4}-\d{2}-\d{2})$`)
	onRe    = regexp.MustCompile(`\s+on ([a-z, ]+)$`)
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseRecurrence parses a rule text from a [repeat:...] tag. The grammar is
// fixed: "daily" / "weekly" / "monthly" / "yearly", "every N <unit>s",
// an optional "on mon,wed,fri" weekday set for weekly rules, and an
// optional "until YYYY-MM-DD" end date. Unrecognized rules degrade to a
// custom daily rule; parsing never fails and Raw always keeps the
// original text.
func ParseRecurrence(raw string) Recurrence {
	r := Recurrence{Type: RecurCustom, Interval: 1, Raw: raw}
	rule := strings.ToLower(strings.TrimSpace(raw))

	if m := untilRe.FindStringSubmatch(rule); m != nil {
		if d, err := date.Parse(m[1]); err == nil {
			r.EndDate = &d
		}
		rule = strings.TrimSuffix(rule, m[0])
	}

	if m := onRe.FindStringSubmatch(rule); m != nil {
		if days := parseWeekdays(m[1]); len(days) > 0 {
			r.DaysOfWeek = days
		}
		rule = strings.TrimSuffix(rule, m[0])
	}

	switch rule {
	case "daily":
		r.Type = RecurDaily
	case "weekly":
		r.Type = RecurWeekly
	case "monthly":
		r.Type = RecurMonthly
	case "yearly", "annually":
		r.Type = RecurYearly
	default:
		if m := everyRe.FindStringSubmatch(rule); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n < 1 {
				n = 1
			}
			r.Interval = n
			switch strings.TrimSuffix(m[2], "s") {
			case "day":
				r.Type = RecurDaily
			case "week":
				r.Type = RecurWeekly
			case "month":
				r.Type = RecurMonthly
			case "year":
				r.Type = RecurYearly
			}
		}
	}

	// A weekday set only makes sense for weekly rules.
	if r.Type != RecurWeekly {
		r.DaysOfWeek = nil
	}

	return r
}

func parseWeekdays(s string) []time.Weekday {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s, ",") {
		wd, ok := weekdayNames[strings.TrimSpace(part)]
		if ok && !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	return days
}

// NextDue computes the due date of the next occurrence after current.
// Weekly rules with an explicit weekday set advance to the next listed
// weekday (wrapping into the following week) and ignore the interval.
// Returns false when the rule's end date would be exceeded, meaning no
// further occurrence should be created.
func (r *Recurrence) NextDue(current date.Date) (date.Date, bool) {
	var next date.Date
	switch r.Type {
	case RecurWeekly:
		if len(r.DaysOfWeek) > 0 {
			next = current.NextWeekday(r.DaysOfWeek)
		} else {
			next = current.AddWeeks(r.Interval)
		}
	case RecurMonthly:
		next = current.AddMonths(r.Interval)
	case RecurYearly:
		next = current.AddYears(r.Interval)
	default: // daily and custom advance by interval days
		next = current.AddDays(r.Interval)
	}

	if r.EndDate != nil && next.AfterDate(*r.EndDate) {
		return date.Date{}, false
	}
	return next, true
}
