package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/totegamma/timepulse"
)

// parsed is what a strategy found before validation.
type parsed struct {
	hours    timepulse.DailyHours
	found    [7]bool
	total    *float64
	employee string
	client   string
	tabular  bool
	empty    bool
}

func (p parsed) daysFound() int {
	n := 0
	for _, f := range p.found {
		if f {
			n++
		}
	}
	return n
}

var (
	dayRe       = regexp.MustCompile(`(?i)\b(mon(?:day)?|tue(?:s|sday)?|wed(?:s|nesday)?|thu(?:rs?|rsday)?|fri(?:day)?|sat(?:urday)?|sun(?:day)?)\b\.?`)
	dateRe      = regexp.MustCompile(`\b\d{1,4}/\d{1,2}(?:/\d{1,4})?\b|\b\d{1,4}-\d{1,2}-\d{1,4}\b|\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`)
	rangeRe     = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([ap]\.?m\.?)?\s*(?:-|–|to)\s*(\d{1,2}):(\d{2})\s*([ap]\.?m\.?)?`)
	durationRe  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	numberRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:h|hr|hrs|hours?)?\b`)
	totalRe     = regexp.MustCompile(`(?i)\b(?:grand\s+)?total(?:\s+hours)?\s*[:=\-]?\s*(\d+(?:[.,]\d+)?)`)
	employeeRe  = regexp.MustCompile(`(?im)^\s*(?:employee(?:\s+name)?|name|worker|consultant|contractor)\s*[:\t\-]\s*(.+?)\s*$`)
	clientRe    = regexp.MustCompile(`(?im)^\s*(?:client(?:\s+name)?|customer|project|company)\s*[:\t\-]\s*(.+?)\s*$`)
	cellSplitRe = regexp.MustCompile(`\t|\s{2,}`)
)

// parseText reads hours from free text, one weekday per segment.
func parseText(text string) parsed {
	var p parsed
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		p.empty = true
		return p
	}

	var pendingDays []int
	for _, line := range strings.Split(text, "\n") {
		// the total may share a row with the days, as in flattened tables
		if loc := totalRe.FindStringSubmatchIndex(line); loc != nil {
			if v, ok := parseNumber(line[loc[2]:loc[3]]); ok {
				p.total = &v
			}
			line = line[:loc[0]] + " " + line[loc[1]:]
			if strings.TrimSpace(line) == "" {
				pendingDays = nil
				continue
			}
		}

		clean := dateRe.ReplaceAllString(line, " ")
		matches := dayRe.FindAllStringSubmatchIndex(clean, -1)

		// A row of bare numbers under a row of weekday names.
		if len(matches) == 0 && len(pendingDays) > 0 {
			values := numbersIn(clean)
			if len(values) >= len(pendingDays) {
				for i, day := range pendingDays {
					p.add(day, values[i])
				}
			}
			pendingDays = nil
			continue
		}

		if len(matches) >= 3 && len(numbersIn(clean)) == 0 {
			pendingDays = pendingDays[:0]
			for _, m := range matches {
				if idx, ok := timepulse.DayIndex(clean[m[2]:m[3]]); ok {
					pendingDays = append(pendingDays, idx)
				}
			}
			continue
		}
		pendingDays = nil

		for i, m := range matches {
			idx, ok := timepulse.DayIndex(clean[m[2]:m[3]])
			if !ok {
				continue
			}
			end := len(clean)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			if h, ok := hoursIn(clean[m[1]:end]); ok {
				p.add(idx, h)
			}
		}
	}

	if m := employeeRe.FindStringSubmatch(text); m != nil {
		p.employee = cleanName(m[1])
	}
	if m := clientRe.FindStringSubmatch(text); m != nil {
		p.client = cleanName(m[1])
	}
	return p
}

func (p *parsed) add(day int, hours float64) {
	p.hours[day] += hours
	p.found[day] = true
}

// hoursIn reads the first hour value of a segment: a clock range, an H:MM
// duration or a plain number.
func hoursIn(segment string) (float64, bool) {
	if m := rangeRe.FindStringSubmatch(segment); m != nil {
		start := clockHour(atoi(m[1]), m[3])*60 + atoi(m[2])
		end := clockHour(atoi(m[4]), m[6])*60 + atoi(m[5])
		if end < start {
			// 9:00-5:00 is an afternoon end on a 12h clock, 22:00-06:00 a night shift
			if m[3] == "" && m[6] == "" && end+12*60 > start {
				end += 12 * 60
			} else {
				end += 24 * 60
			}
		}
		return timepulse.RoundHours(float64(end-start) / 60), true
	}
	if m := durationRe.FindStringSubmatch(segment); m != nil {
		return timepulse.RoundHours(float64(atoi(m[1])) + float64(atoi(m[2]))/60), true
	}
	if m := numberRe.FindStringSubmatch(segment); m != nil {
		return parseNumber(m[1])
	}
	return 0, false
}

func clockHour(h int, meridiem string) int {
	switch strings.ToLower(meridiem[:min(1, len(meridiem))]) {
	case "p":
		if h < 12 {
			return h + 12
		}
	case "a":
		if h == 12 {
			return 0
		}
	}
	return h
}

func numbersIn(line string) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllStringSubmatch(line, -1) {
		if v, ok := parseNumber(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// parseHoursCell reads a spreadsheet cell: "8", "7,5", "7.5h", "7:30".
func parseHoursCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" {
		return 0, false
	}
	return hoursIn(cell)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

var titleCaser = cases.Title(language.English)

// cleanName trims label noise and fixes all-caps or all-lowercase names.
func cleanName(raw string) string {
	name := cellSplitRe.Split(strings.TrimSpace(raw), 2)[0]
	name = strings.Trim(name, " :-|,;")
	if name == "" || len([]rune(name)) > 80 {
		return ""
	}
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return ""
	}
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		name = titleCaser.String(strings.ToLower(name))
	}
	return name
}
