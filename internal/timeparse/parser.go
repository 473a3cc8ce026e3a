// Package timeparse converts free-form Spanish time and date phrases into
// canonical values. It is pure: no clock access except what the caller passes
// in, and failures are returned as errors rather than panics.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnrecognizedTime = errors.New("unrecognized time phrase")
	ErrUnrecognizedDate = errors.New("unrecognized date phrase")
)

// TimeOfDay is an hour/minute pair within a single day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Spanish number words users actually type for hours. Larger values never
// occur as spoken hours.
var numberWords = map[string]int{
	"cero":       0,
	"una":        1,
	"uno":        1,
	"dos":        2,
	"tres":       3,
	"cuatro":     4,
	"cinco":      5,
	"seis":       6,
	"siete":      7,
	"ocho":       8,
	"nueve":      9,
	"diez":       10,
	"once":       11,
	"doce":       12,
	"trece":      13,
	"catorce":    14,
	"quince":     15,
	"dieciseis":  16,
	"diecisiete": 17,
	"dieciocho":  18,
}

var (
	reZeroWidth  = regexp.MustCompile(`[\x{200b}\x{200c}\x{200d}\x{feff}]`)
	reMeridiemAM = regexp.MustCompile(`\ba\.?\s*m\.?\b`)
	reMeridiemPM = regexp.MustCompile(`\bp\.?\s*m\.?\b`)
	reHourUnit   = regexp.MustCompile(`\b(horas?|hrs?|hs)\b`)
	reHourGlued  = regexp.MustCompile(`\b(\d{1,2})h(\d{2})\b`)
	reHourSuffix = regexp.MustCompile(`\b(\d{1,2})h\b`)
	reSpaces     = regexp.MustCompile(`\s+`)

	reQuarterTo = regexp.MustCompile(`cuarto\s+para\s+las?\s+(\d{1,2})`)
	reHalfPast  = regexp.MustCompile(`\b(\d{1,2})\s+y\s+media\b`)
	reQuarter   = regexp.MustCompile(`\b(\d{1,2})\s+y\s+cuarto\b`)
	reClock     = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\b`)
)

// pmTokens and amTokens are matched as substrings of the normalized phrase.
// "mañana" alone is ambiguous ("tomorrow" vs "morning"), so only the full
// "de la mañana" form counts as an AM marker.
var pmTokens = []string{"de la tarde", "de la noche", "por la tarde", "por la noche", "esta tarde", "esta noche"}
var amTokens = []string{"de la mañana", "de la manana", "de la madrugada", "por la mañana", "por la manana"}

// normalizeTime lowercases the phrase, removes zero-width characters, folds
// the "h"/"hrs"/"horas" unit spellings and meridiem punctuation, and
// collapses whitespace.
func normalizeTime(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = reZeroWidth.ReplaceAllString(s, "")
	s = reMeridiemAM.ReplaceAllString(s, "am")
	s = reMeridiemPM.ReplaceAllString(s, "pm")
	s = reHourGlued.ReplaceAllString(s, "$1:$2") // "15h30" -> "15:30"
	s = reHourSuffix.ReplaceAllString(s, "$1")   // "15h" -> "15"
	s = reHourUnit.ReplaceAllString(s, " ")      // "15 hrs" -> "15"
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// replaceNumberWords substitutes standalone Spanish number words with digits
// so the numeric patterns can resolve them.
func replaceNumberWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if n, ok := numberWords[f]; ok {
			fields[i] = strconv.Itoa(n)
		}
	}
	return strings.Join(fields, " ")
}

type meridiem int

const (
	meridiemNone meridiem = iota
	meridiemAM
	meridiemPM
)

func detectMeridiem(s string) meridiem {
	compact := strings.NewReplacer(" ", "", ".", "", ",", "").Replace(s)
	for _, tok := range pmTokens {
		if strings.Contains(s, tok) || strings.Contains(compact, strings.ReplaceAll(tok, " ", "")) {
			return meridiemPM
		}
	}
	for _, tok := range amTokens {
		if strings.Contains(s, tok) || strings.Contains(compact, strings.ReplaceAll(tok, " ", "")) {
			return meridiemAM
		}
	}
	if reMeridiemPM.MatchString(s) || strings.Contains(s, "pm") {
		return meridiemPM
	}
	if reMeridiemAM.MatchString(s) || strings.Contains(s, "am") {
		return meridiemAM
	}
	return meridiemNone
}

// applyMeridiem resolves the final 24-hour value. With no explicit marker,
// hours below 8 are shifted into the afternoon: the shop opens at 08:00, so a
// bare "3" almost always means 15:00. This default is a deliberate judgment
// call and only applies while the shifted value stays inside the day.
func applyMeridiem(hour int, m meridiem) int {
	switch m {
	case meridiemPM:
		if hour < 12 {
			hour += 12
		}
	case meridiemAM:
		if hour == 12 {
			hour = 0
		}
	case meridiemNone:
		if hour >= 1 && hour < 8 && hour+12 < 24 {
			hour += 12
		}
	}
	return hour
}

// ParseTime converts a free-form Spanish phrase ("3 y media", "cuarto para
// las 5", "15:30", "2 pm", "mediodía") into a TimeOfDay. Patterns are tried
// in order; the first match wins. ErrUnrecognizedTime is returned when no
// pattern applies or the resolved minute is out of range.
func ParseTime(raw string) (TimeOfDay, error) {
	s := normalizeTime(raw)
	if s == "" {
		return TimeOfDay{}, ErrUnrecognizedTime
	}

	// Fixed phrases first: they carry their own period.
	if strings.Contains(s, "mediodia") || strings.Contains(s, "mediodía") {
		return TimeOfDay{Hour: 12}, nil
	}
	if strings.Contains(s, "medianoche") {
		return TimeOfDay{Hour: 0}, nil
	}

	mer := detectMeridiem(s)
	s = replaceNumberWords(s)

	// "cuarto para las 5" -> 4:45. The afternoon default is not applied
	// here: the referenced hour already encodes the speaker's context, so
	// only an explicit marker ("cuarto para las 5 de la tarde") shifts it.
	if m := reQuarterTo.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		hour := (n - 1 + 24) % 24
		if mer != meridiemNone {
			hour = applyMeridiem(hour, mer)
		}
		if hour > 23 {
			return TimeOfDay{}, ErrUnrecognizedTime
		}
		return TimeOfDay{Hour: hour, Minute: 45}, nil
	}

	// "3 y media" -> 3:30, "3 y cuarto" -> 3:15
	for _, p := range []struct {
		re     *regexp.Regexp
		minute int
	}{{reHalfPast, 30}, {reQuarter, 15}} {
		if m := p.re.FindStringSubmatch(s); m != nil {
			hour, _ := strconv.Atoi(m[1])
			if hour > 23 {
				return TimeOfDay{}, ErrUnrecognizedTime
			}
			hour = applyMeridiem(hour, mer)
			if hour > 23 {
				return TimeOfDay{}, ErrUnrecognizedTime
			}
			return TimeOfDay{Hour: hour, Minute: p.minute}, nil
		}
	}

	// Generic "H", "H:MM" or "H.MM".
	if m := reClock.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		explicit := false
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
			explicit = true
		}
		if hour > 23 || minute > 59 {
			return TimeOfDay{}, ErrUnrecognizedTime
		}
		// A fully written 24-hour value ("15:30") needs no period guessing.
		if !explicit || hour < 12 {
			hour = applyMeridiem(hour, mer)
		}
		if hour > 23 {
			return TimeOfDay{}, ErrUnrecognizedTime
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	return TimeOfDay{}, ErrUnrecognizedTime
}
