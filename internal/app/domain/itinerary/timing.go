package itinerary

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Clock is a time of day in minutes since midnight. Values past 23:59 are
// kept as-is; itineraries never roll over into the next day.
type Clock int

const (
	DefaultDayStart        Clock         = 9 * 60
	DefaultSpacing         time.Duration = 150 * time.Minute
	DefaultDuration        time.Duration = 2 * time.Hour
	timeSlotSeparator                    = " - "

	// labels longer than a year are treated as unparseable
	maxDurationHours = 24 * 365
)

var (
	clockPattern    = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)
	durationPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:小时|hours?\b|hrs?\b|h\b)`)
)

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return Clock(h*60 + mm), nil
}

// Add returns c advanced by d, truncated to whole minutes.
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

func (c Clock) String() string {
	if c < 0 {
		c = 0
	}
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDuration extracts the number of hours from a label such as "3小时".
// Labels that do not match fall back to def.
func ParseDuration(label string, def time.Duration) time.Duration {
	m := durationPattern.FindStringSubmatch(label)
	if m == nil {
		return def
	}
	hours, err := strconv.ParseFloat(m[1], 64)
	if err != nil || hours < 0 || hours > maxDurationHours {
		return def
	}
	return time.Duration(math.Round(hours*60)) * time.Minute
}

// Annotator derives start/end times and the time slot label of every stop.
// Days do not share a clock.
type Annotator struct {
	DayStart        Clock
	Spacing         time.Duration
	DefaultDuration time.Duration

	// Chained starts each default slot at the previous stop's end instead of
	// the flat DayStart + i*Spacing grid.
	Chained bool
}

// DefaultAnnotator returns the 09:00 / 2.5h / 2h annotator.
func DefaultAnnotator() Annotator {
	return Annotator{
		DayStart:        DefaultDayStart,
		Spacing:         DefaultSpacing,
		DefaultDuration: DefaultDuration,
	}
}

// Annotate fills in missing times. Times already carried by a stop win over
// the computed defaults.
func (a Annotator) Annotate(it Itinerary) Itinerary {
	return a.apply(it, false)
}

// Reannotate recomputes every stop's times from scratch, discarding any
// previously set values. Used after the stop order has changed.
func (a Annotator) Reannotate(it Itinerary) Itinerary {
	return a.apply(it, true)
}

func (a Annotator) apply(it Itinerary, overwrite bool) Itinerary {
	out := it.withDays()
	for i, d := range out.Days {
		d.Stops = a.annotateDay(d.Stops, overwrite)
		out.Days[i] = d
	}
	return out
}

func (a Annotator) annotateDay(stops []Stop, overwrite bool) []Stop {
	if stops == nil {
		return nil
	}
	out := cloneStops(stops)
	var prevEnd Clock
	for i := range out {
		s := &out[i]

		start := a.defaultStart(i, prevEnd)
		if !overwrite {
			if c, err := ParseClock(s.StartTime); err == nil {
				start = c
			}
		}

		end := start.Add(ParseDuration(s.Duration, a.DefaultDuration))
		if !overwrite {
			if c, err := ParseClock(s.EndTime); err == nil {
				end = c
			}
		}

		s.StartTime = start.String()
		s.EndTime = end.String()
		s.TimeSlot = s.StartTime + timeSlotSeparator + s.EndTime
		prevEnd = end
	}
	return out
}

func (a Annotator) defaultStart(i int, prevEnd Clock) Clock {
	if i == 0 {
		return a.DayStart
	}
	if a.Chained {
		return prevEnd
	}
	return a.DayStart.Add(time.Duration(i) * a.Spacing)
}

// Annotate fills in missing times using the default annotator.
func Annotate(it Itinerary) Itinerary {
	return DefaultAnnotator().Annotate(it)
}

// Reannotate recomputes all times using the default annotator.
func Reannotate(it Itinerary) Itinerary {
	return DefaultAnnotator().Reannotate(it)
}
