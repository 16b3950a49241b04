package history

import "time"

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"

	dateLabelLayout = "January 2, 2006"
	timeLabelLayout = "03:04 PM"
)

// DayGroup is one bucket of entries sharing a calendar day.
type DayGroup struct {
	Label   string  `json:"label"`
	Entries []Entry `json:"entries"`
}

// GroupByDay buckets entries by calendar day in loc relative to now. Buckets
// appear in the order their first entry is seen and keep entry order; they
// are not sorted by date.
func GroupByDay(entries []Entry, now time.Time, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}

	var groups []DayGroup
	index := make(map[string]int)

	for _, e := range entries {
		label := DayLabel(e.Timestamp, now, loc)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DayGroup{Label: label})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// DayLabel names the calendar day of t: "Today", "Yesterday", or a long date.
func DayLabel(t, now time.Time, loc *time.Location) string {
	t = t.In(loc)
	now = now.In(loc)
	yesterday := now.AddDate(0, 0, -1)

	switch {
	case sameDay(t, now):
		return LabelToday
	case sameDay(t, yesterday):
		return LabelYesterday
	}
	return t.Format(dateLabelLayout)
}

// FormatTime renders the hour and minute shown next to each entry.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLabelLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
