package timeline

import (
	"sort"
	"time"

	"taskdeck/internal/domain"
)

// MonthOption is one entry of the month picker.
type MonthOption struct {
	Month     string    `json:"month"`
	Start     time.Time `json:"start"`
	Deadlines int       `json:"deadlines"`
}

// MonthOptions lists every month between the earliest and latest task date,
// plus the month of now, with the number of deadlines falling in each.
func MonthOptions(tasks []domain.Task, now time.Time) []MonthOption {
	loc := now.Location()
	counts := map[string]int{}
	var earliest, latest time.Time
	for _, t := range tasks {
		for _, v := range []*string{t.StartDate, t.Deadline} {
			d, ok := domain.DateOf(v)
			if !ok {
				continue
			}
			d = d.In(loc)
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
			if latest.IsZero() || d.After(latest) {
				latest = d
			}
		}
	}
	if !earliest.IsZero() {
		last := MonthWindow(latest).Start
		for m := MonthWindow(earliest).Start; !m.After(last); m = m.AddDate(0, 1, 0) {
			counts[m.Format("2006-01")] = 0
		}
	}
	for _, t := range tasks {
		if d, ok := domain.DateOf(t.Deadline); ok {
			counts[d.In(loc).Format("2006-01")]++
		}
	}
	current := now.Format("2006-01")
	if _, ok := counts[current]; !ok {
		counts[current] = 0
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MonthOption, 0, len(keys))
	for _, k := range keys {
		w, err := ParseMonth(k, loc)
		if err != nil {
			continue
		}
		out = append(out, MonthOption{Month: k, Start: w.Start, Deadlines: counts[k]})
	}
	return out
}

// Overdue returns incomplete tasks whose deadline has passed.
func Overdue(tasks []domain.Task, now time.Time) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if d, ok := domain.DateOf(t.Deadline); ok && d.Before(now) {
			out = append(out, t)
		}
	}
	return out
}

// CurrentTimeOffset is the x position of now inside w. It reports false when
// now falls outside the window.
func CurrentTimeOffset(w Window, m Metrics, now time.Time) (float64, bool) {
	loc := w.Start.Location()
	idx := calendarDays(now, w.Start, loc)
	if idx < 0 || idx >= w.Days() {
		return 0, false
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayLen := midnight.AddDate(0, 0, 1).Sub(midnight)
	frac := float64(local.Sub(midnight)) / float64(dayLen)
	return (float64(idx) + frac) * m.DayWidth, true
}
