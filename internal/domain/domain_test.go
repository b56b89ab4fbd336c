package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func s(v string) *string { return &v }

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		name string
		u, i *float64
		want Quadrant
	}{
		{"both high", f(8), f(9), QuadrantDo},
		{"important only", f(2), f(7), QuadrantDecide},
		{"urgent only", f(6), f(3), QuadrantDelegate},
		{"exactly five is not urgent", f(5), f(5), QuadrantDelete},
		{"five and six", f(5), f(6), QuadrantDecide},
		{"missing scores", nil, nil, QuadrantDelete},
		{"missing importance", f(10), nil, QuadrantDelegate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.u, tc.i))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for u := 0.0; u <= 10; u += 0.5 {
		for i := 0.0; i <= 10; i += 0.5 {
			q := Classify(f(u), f(i))
			require.GreaterOrEqual(t, int(q), int(QuadrantDo))
			require.LessOrEqual(t, int(q), int(QuadrantDelete))
			require.Equal(t, q.Color(), ColorFor(f(u), f(i)))
		}
	}
}

func TestBadgeQuadrantDiffersAtFive(t *testing.T) {
	assert.Equal(t, QuadrantDelete, Classify(f(5), f(5)))
	assert.Equal(t, QuadrantDo, BadgeQuadrant(f(5), f(5)))
	assert.Equal(t, QuadrantDelegate, BadgeQuadrant(f(6), f(3)))
}

func TestQuadrantColors(t *testing.T) {
	assert.Equal(t, "hsl(0 100% 50%)", QuadrantDo.Color())
	assert.Equal(t, "hsl(39 80% 53%)", QuadrantDecide.Color())
	assert.Equal(t, "hsl(153 96% 49%)", QuadrantDelegate.Color())
	assert.Equal(t, "hsl(259 89% 53%)", QuadrantDelete.Color())
}

func TestRecolorIgnoresStoredColor(t *testing.T) {
	tasks := []Task{{Title: "a", Urgency: f(9), Importance: f(9), Color: "blue"}}
	Recolor(tasks)
	assert.Equal(t, ColorDo, tasks[0].Color)
}

func TestParseTimeAcceptsISOForms(t *testing.T) {
	for _, v := range []string{
		"2024-03-01T10:00:00.000Z",
		"2024-03-01T10:00:00Z",
		"2024-03-01T10:00:00+02:00",
		"2024-03-01T10:00:00.123456",
		"2024-03-01T10:00",
		"2024-03-01 10:00:00",
		"2024-03-01",
		"2024-03",
	} {
		_, ok := ParseTime(v)
		assert.True(t, ok, v)
	}
	for _, v := range []string{"", "   ", "tomorrow", "2024-13-01", "01/03/2024"} {
		_, ok := ParseTime(v)
		assert.False(t, ok, v)
	}
}

func TestCoerceDateIsIdempotent(t *testing.T) {
	for _, in := range []*string{nil, s(""), s("garbage"), s("2024-03-01"), s("2024-03-01T00:00:00.000Z")} {
		once := CoerceDate(in)
		twice := CoerceDate(once)
		assert.Equal(t, once, twice)
	}
	assert.Nil(t, CoerceDate(s("not a date")))
	assert.Equal(t, "2024-03-01", *CoerceDate(s("2024-03-01")))
}

func TestFormatTimeIsUTCMillis(t *testing.T) {
	tm, ok := ParseTime("2024-03-01T10:00:00+02:00")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01T08:00:00.000Z", FormatTime(tm))
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := Project{ID: "p", Deadline: s("2024-01-01"), Tasks: []Task{{ID: "t", Urgency: f(3)}}}
	c := p.Clone()
	*c.Deadline = "2025-01-01"
	*c.Tasks[0].Urgency = 9
	c.Tasks[0].Title = "changed"
	assert.Equal(t, "2024-01-01", *p.Deadline)
	assert.Equal(t, 3.0, *p.Tasks[0].Urgency)
	assert.Empty(t, p.Tasks[0].Title)
}

func TestProgressOf(t *testing.T) {
	assert.Equal(t, Progress{}, ProgressOf(nil))
	p := ProgressOf([]Task{{Completed: true}, {}, {}, {Completed: true}})
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 4, p.Total)
	assert.InDelta(t, 50.0, p.Percent, 0.001)
}

func TestMatrixScore(t *testing.T) {
	assert.Equal(t, 0.0, MatrixScore(-3))
	assert.Equal(t, 10.0, MatrixScore(10.7))
	assert.InDelta(t, 7.3, MatrixScore(7.26), 1e-9)
	assert.InDelta(t, 4.0, MatrixScore(4.04), 1e-9)
}
