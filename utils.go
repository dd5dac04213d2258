package timepulse

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dayAliases = map[string]int{
	"mon": 0, "monday": 0, "mo": 0,
	"tue": 1, "tues": 1, "tuesday": 1, "tu": 1,
	"wed": 2, "weds": 2, "wednesday": 2, "we": 2,
	"thu": 3, "thur": 3, "thurs": 3, "thursday": 3, "th": 3,
	"fri": 4, "friday": 4, "fr": 4,
	"sat": 5, "saturday": 5, "sa": 5,
	"sun": 6, "sunday": 6, "su": 6,
}

// DayIndex resolves a day name or abbreviation to its DailyHours index.
func DayIndex(name string) (int, bool) {
	idx, ok := dayAliases[strings.ToLower(strings.TrimSpace(strings.TrimSuffix(name, ".")))]
	return idx, ok
}

func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -WeekdayIndex(t.Weekday()))
}

func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// RoundHours rounds to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
