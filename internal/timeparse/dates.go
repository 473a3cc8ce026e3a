package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
	"domingo":   time.Sunday,
}

var months = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var (
	reDayOfMonth = regexp.MustCompile(`\b(\d{1,2})\s+de\s+([a-záéíóú]+)(?:\s+de(?:l)?\s+(\d{4}))?`)
	dateLayouts  = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006"}
)

// ParseDate converts a free-form Spanish date phrase ("hoy", "mañana", "el
// lunes", "15 de junio", "2024-06-10") into a calendar date in loc, truncated
// to midnight. Phrases without a year prefer the future: a day/month already
// behind now rolls into the next year, and a bare weekday means the next
// occurrence of that weekday.
func ParseDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = reZeroWidth.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, " ")
	if s == "" {
		return time.Time{}, ErrUnrecognizedDate
	}

	today := midnight(now.In(loc))

	switch {
	case strings.Contains(s, "pasado mañana") || strings.Contains(s, "pasado manana"):
		return today.AddDate(0, 0, 2), nil
	case strings.Contains(s, "mañana") || strings.Contains(s, "manana"):
		return today.AddDate(0, 0, 1), nil
	case strings.Contains(s, "hoy"):
		return today, nil
	}

	for word, wd := range weekdays {
		if strings.Contains(s, word) {
			days := int(wd-today.Weekday()+7) % 7
			if days == 0 {
				days = 7
			}
			return today.AddDate(0, 0, days), nil
		}
	}

	if m := reDayOfMonth.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := months[m[2]]
		if !ok {
			return time.Time{}, ErrUnrecognizedDate
		}
		year := today.Year()
		explicitYear := m[3] != ""
		if explicitYear {
			year, _ = strconv.Atoi(m[3])
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if d.Day() != day {
			return time.Time{}, ErrUnrecognizedDate
		}
		if !explicitYear && d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d, nil
	}

	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return midnight(d), nil
		}
	}

	return time.Time{}, ErrUnrecognizedDate
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
