package schedule

import "strings"

// NoAvailabilityMessage is the fixed user-facing text used instead of an
// empty slot table.
const NoAvailabilityMessage = "No hay horarios disponibles para ese día."

// FormatStarts renders the slot start times as a comma-joined "HH:MM" list.
func FormatStarts(slots []Interval) string {
	if len(slots) == 0 {
		return NoAvailabilityMessage
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.Start.Format("15:04")
	}
	return strings.Join(parts, ", ")
}

// FormatTable renders the slots as a two-column "start - end" table, one slot
// per line.
func FormatTable(slots []Interval) string {
	if len(slots) == 0 {
		return NoAvailabilityMessage
	}
	var sb strings.Builder
	for i, s := range slots {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.Start.Format("15:04"))
		sb.WriteString(" - ")
		sb.WriteString(s.End.Format("15:04"))
	}
	return sb.String()
}
