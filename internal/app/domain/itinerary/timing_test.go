package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		label string
		want  time.Duration
	}{
		{"3小时", 3 * time.Hour},
		{"约1.5小时", 90 * time.Minute},
		{"0小时", 0},
		{"4 hours", 4 * time.Hour},
		{"2h", 2 * time.Hour},
		{"半天", DefaultDuration},
		{"", DefaultDuration},
		{"a while", DefaultDuration},
		{"8760小时", 8760 * time.Hour},
		{"3000000小时", DefaultDuration},
		{"99999999999999999999小时", DefaultDuration},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.label, DefaultDuration))
		})
	}
}

func TestClock(t *testing.T) {
	c, err := ParseClock("09:00")
	require.NoError(t, err)
	assert.Equal(t, DefaultDayStart, c)
	assert.Equal(t, "12:30", c.Add(210*time.Minute).String())
	assert.Equal(t, "25:15", Clock(23*60).Add(135*time.Minute).String(), "no rollover")

	late, err := ParseClock("25:15")
	require.NoError(t, err)
	assert.Equal(t, Clock(25*60+15), late)

	assert.Equal(t, "00:00", Clock(-90).String())

	for _, bad := range []string{"", "9", "09:60", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestAnnotate(t *testing.T) {
	t.Run("three hour stop at day start ends at noon", func(t *testing.T) {
		it := Itinerary{Days: []Day{{Stops: []Stop{{Name: "Forbidden City", Duration: "3小时"}}}}}
		out := Annotate(it)

		s := out.Days[0].Stops[0]
		assert.Equal(t, "09:00", s.StartTime)
		assert.Equal(t, "12:00", s.EndTime)
		assert.Equal(t, "09:00 - 12:00", s.TimeSlot)
	})

	t.Run("absurd duration label falls back to two hours", func(t *testing.T) {
		it := Itinerary{Days: []Day{{Stops: []Stop{{Name: "Great Wall", Duration: "3000000小时"}}}}}
		s := Reannotate(it).Days[0].Stops[0]
		assert.Equal(t, "09:00 - 11:00", s.TimeSlot)
	})

	t.Run("unparseable duration falls back to two hours", func(t *testing.T) {
		it := Itinerary{Days: []Day{{Stops: []Stop{{Name: "Summer Palace", Duration: "半天"}}}}}
		s := Annotate(it).Days[0].Stops[0]
		assert.Equal(t, "11:00", s.EndTime)
	})

	t.Run("default starts follow the flat grid", func(t *testing.T) {
		it := Itinerary{Days: []Day{
			{Stops: []Stop{{Name: "A", Duration: "1小时"}, {Name: "B", Duration: "5小时"}, {Name: "C"}}},
			{Stops: []Stop{{Name: "D"}}},
		}}
		out := Annotate(it)

		day := out.Days[0].Stops
		assert.Equal(t, []string{"09:00", "11:30", "14:00"}, []string{day[0].StartTime, day[1].StartTime, day[2].StartTime})
		assert.Equal(t, "16:30", day[1].EndTime, "end of B overlaps C's start; the grid does not chain")
		assert.Equal(t, "09:00", out.Days[1].Stops[0].StartTime, "days do not share a clock")
	})

	t.Run("start times increase within a day", func(t *testing.T) {
		stops := make([]Stop, 8)
		for i := range stops {
			stops[i] = Stop{Name: "s", Duration: "7小时"}
		}
		out := Annotate(Itinerary{Days: []Day{{Stops: stops}}})
		for i := 1; i < len(stops); i++ {
			prev, err := ParseClock(out.Days[0].Stops[i-1].StartTime)
			require.NoError(t, err)
			cur, err := ParseClock(out.Days[0].Stops[i].StartTime)
			require.NoError(t, err)
			assert.Greater(t, int(cur), int(prev))
		}
	})

	t.Run("externally supplied times win", func(t *testing.T) {
		it := Itinerary{Days: []Day{{Stops: []Stop{
			{Name: "A", StartTime: "08:15", EndTime: "10:00"},
			{Name: "B", StartTime: "13:00", Duration: "1小时"},
		}}}}
		out := Annotate(it)

		assert.Equal(t, "08:15 - 10:00", out.Days[0].Stops[0].TimeSlot)
		assert.Equal(t, "13:00 - 14:00", out.Days[0].Stops[1].TimeSlot)
		assert.Empty(t, it.Days[0].Stops[0].TimeSlot, "input must not change")
	})

	t.Run("reannotate overwrites stale times", func(t *testing.T) {
		it := Itinerary{Days: []Day{{Stops: []Stop{
			{Name: "A", StartTime: "14:00", EndTime: "15:00", Duration: "1小时"},
			{Name: "B", StartTime: "08:00", EndTime: "09:00", Duration: "1小时"},
		}}}}
		out := Reannotate(it)

		assert.Equal(t, "09:00 - 10:00", out.Days[0].Stops[0].TimeSlot)
		assert.Equal(t, "11:30 - 12:30", out.Days[0].Stops[1].TimeSlot)
	})

	t.Run("structure is unchanged", func(t *testing.T) {
		it := twoDayTrip()
		out := Annotate(it)
		require.Len(t, out.Days, len(it.Days))
		for i := range it.Days {
			assert.Equal(t, names(it.Days[i].Stops), names(out.Days[i].Stops))
			assert.Equal(t, it.Days[i].Date, out.Days[i].Date)
		}
	})
}

func TestChainedAnnotator(t *testing.T) {
	a := DefaultAnnotator()
	a.Chained = true

	it := Itinerary{Days: []Day{{Stops: []Stop{
		{Name: "A", Duration: "1小时"},
		{Name: "B", Duration: "3小时"},
		{Name: "C"},
	}}}}
	out := a.Reannotate(it)

	assert.Equal(t, "09:00 - 10:00", out.Days[0].Stops[0].TimeSlot)
	assert.Equal(t, "10:00 - 13:00", out.Days[0].Stops[1].TimeSlot)
	assert.Equal(t, "13:00 - 15:00", out.Days[0].Stops[2].TimeSlot)
}
