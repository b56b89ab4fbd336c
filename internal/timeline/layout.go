package timeline

import (
	"sort"
	"time"

	"taskdeck/internal/domain"
)

const day = 24 * time.Hour

// Metrics are the fixed pixel sizes of the timeline grid.
type Metrics struct {
	DayWidth     float64 `json:"dayWidth"`
	RowHeight    float64 `json:"rowHeight"`
	HeaderHeight float64 `json:"headerHeight"`
	EmptyHeight  float64 `json:"emptyHeight"`
	Gap          float64 `json:"gap"`
}

func DefaultMetrics() Metrics {
	return Metrics{DayWidth: 48, RowHeight: 52, HeaderHeight: 60, EmptyHeight: 100, Gap: 4}
}

// Window is the visible date range. End is inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the calendar month containing t, in t's location.
func MonthWindow(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// ParseMonth parses a YYYY-MM key into its month window.
func ParseMonth(key string, loc *time.Location) (Window, error) {
	t, err := time.ParseInLocation("2006-01", key, loc)
	if err != nil {
		return Window{}, err
	}
	return MonthWindow(t), nil
}

// Days is the number of calendar days the window covers.
func (w Window) Days() int {
	return calendarDays(w.End, w.Start, w.Start.Location()) + 1
}

func (w Window) Key() string {
	return w.Start.Format("2006-01")
}

func (w Window) intersects(start, end time.Time) bool {
	return !start.After(w.End) && !end.Before(w.Start)
}

func (w Window) clamp(start, end time.Time) (time.Time, time.Time) {
	if start.Before(w.Start) {
		start = w.Start
	}
	if end.After(w.End) {
		end = w.End
	}
	return start, end
}

// Interval is a span that occupies a lane until End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// PackLanes assigns each interval, in the given order, to the first lane
// that is free at its start. Fed in ascending start order it uses the
// minimum number of lanes.
func PackLanes(intervals []Interval) ([]int, int) {
	lanes := make([]int, len(intervals))
	var freeFrom []time.Time
	for i, iv := range intervals {
		lane := -1
		for l, free := range freeFrom {
			if !free.After(iv.Start) {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(freeFrom)
			freeFrom = append(freeFrom, time.Time{})
		}
		freeFrom[lane] = iv.End
		lanes[i] = lane
	}
	return lanes, len(freeFrom)
}

// Bar is the rendered geometry of one task.
type Bar struct {
	TaskID    string  `json:"taskId"`
	Title     string  `json:"title"`
	Lane      int     `json:"lane"`
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	Top       float64 `json:"top"`
	Color     string  `json:"color"`
	Completed bool    `json:"completed"`
	Overdue   bool    `json:"overdue"`
}

type Layout struct {
	Month     string         `json:"month"`
	Days      int            `json:"days"`
	Lanes     map[string]int `json:"lanes"`
	LaneCount int            `json:"laneCount"`
	Bars      []Bar          `json:"bars"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
}

type scheduled struct {
	task       domain.Task
	start, end time.Time
}

// Eligible returns the tasks that can be drawn in w, in lane-assignment
// order.
func Eligible(tasks []domain.Task, w Window) []domain.Task {
	items := eligible(tasks, w)
	out := make([]domain.Task, len(items))
	for i, it := range items {
		out[i] = it.task
	}
	return out
}

func eligible(tasks []domain.Task, w Window) []scheduled {
	var items []scheduled
	for _, t := range tasks {
		start, ok := domain.DateOf(t.StartDate)
		if !ok {
			continue
		}
		end, ok := domain.DateOf(t.Deadline)
		if !ok || end.Before(start) || !w.intersects(start, end) {
			continue
		}
		items = append(items, scheduled{task: t, start: start, end: end})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		qa := domain.BadgeQuadrant(a.task.Urgency, a.task.Importance)
		qb := domain.BadgeQuadrant(b.task.Urgency, b.task.Importance)
		if qa != qb {
			return qa < qb
		}
		if sa, sb := a.task.Score(), b.task.Score(); sa != sb {
			return sa > sb
		}
		return a.task.Title < b.task.Title
	})
	return items
}

// Compute lays out tasks inside w. Clamping to the window affects geometry
// only; task dates are never modified.
func Compute(tasks []domain.Task, w Window, m Metrics, now time.Time) Layout {
	items := eligible(tasks, w)
	intervals := make([]Interval, len(items))
	for i, it := range items {
		s, e := w.clamp(it.start, it.end)
		intervals[i] = Interval{Start: s, End: e}
	}
	lanes, count := PackLanes(intervals)

	out := Layout{
		Month:     w.Key(),
		Days:      w.Days(),
		Lanes:     make(map[string]int, len(items)),
		LaneCount: count,
		Bars:      []Bar{},
	}
	out.Width = float64(out.Days) * m.DayWidth
	if count > 0 {
		out.Height = float64(count)*m.RowHeight + m.HeaderHeight
	} else {
		out.Height = m.EmptyHeight + m.HeaderHeight
	}

	for i, it := range items {
		out.Lanes[it.task.ID] = lanes[i]
		bar, ok := barFor(it, intervals[i], lanes[i], w, m)
		if !ok {
			continue
		}
		bar.Overdue = !it.task.Completed && it.end.Before(now)
		out.Bars = append(out.Bars, bar)
	}
	return out
}

func barFor(it scheduled, iv Interval, lane int, w Window, m Metrics) (Bar, bool) {
	if m.DayWidth == 0 || !iv.End.After(iv.Start) {
		return Bar{}, false
	}
	loc := w.Start.Location()
	left := float64(calendarDays(iv.Start, w.Start, loc)) * m.DayWidth
	width := float64(calendarDays(iv.End, iv.Start, loc)+1)*m.DayWidth - m.Gap
	if width <= 0 {
		return Bar{}, false
	}
	return Bar{
		TaskID:    it.task.ID,
		Title:     it.task.Title,
		Lane:      lane,
		Left:      left,
		Width:     width,
		Top:       float64(lane) * m.RowHeight,
		Color:     it.task.Color,
		Completed: it.task.Completed,
	}, true
}

// calendarDays counts calendar-day boundaries from b to a as seen in loc.
func calendarDays(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(da.Sub(db) / day)
}

// PixelsToDuration converts a horizontal pixel distance into time.
func PixelsToDuration(px float64, m Metrics) time.Duration {
	if m.DayWidth == 0 {
		return 0
	}
	return time.Duration(px / m.DayWidth * float64(day))
}

// DateFromPixel maps an x offset inside the window to a timestamp.
func DateFromPixel(px float64, w Window, m Metrics) time.Time {
	return w.Start.Add(PixelsToDuration(px, m))
}
