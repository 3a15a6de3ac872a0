package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Coordinates holds a position as (longitude, latitude) in degrees.
type Coordinates struct {
	Lon float64
	Lat float64
}

// MarshalJSON encodes coordinates as a [lon, lat] pair, the shape the map layer expects.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates must be a [lon, lat] pair: %w", err)
	}
	c.Lon, c.Lat = pair[0], pair[1]
	return nil
}

// Stop is a single point of interest visited during a day.
// StartTime, EndTime and TimeSlot are derived by the Annotator and are
// only authored by the upstream generator.
type Stop struct {
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	Description string      `json:"description,omitempty"`
	Duration    string      `json:"duration,omitempty"`
	StartTime   string      `json:"start_time,omitempty"`
	EndTime     string      `json:"end_time,omitempty"`
	TimeSlot    string      `json:"time_slot,omitempty"`
}

// Day is one calendar day of the trip. Its number is its position in the
// itinerary and is never stored.
type Day struct {
	Date  string `json:"date"`
	Stops []Stop `json:"stops"`
}

// Itinerary is the ordered list of days of a trip.
//
// Values are treated as immutable: every operation in this package returns a
// new Itinerary, cloning only the days it touches.
type Itinerary struct {
	Title string `json:"title,omitempty"`
	Days  []Day  `json:"days"`
}

// DayNumber returns the 1-based number of the day at index i.
func (it Itinerary) DayNumber(i int) int {
	return i + 1
}

// StopCount returns the total number of stops across all days.
func (it Itinerary) StopCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Stops)
	}
	return n
}

func (it Itinerary) hasDay(day int) bool {
	return day >= 0 && day < len(it.Days)
}

func (it Itinerary) hasStop(day, stop int) bool {
	return it.hasDay(day) && stop >= 0 && stop < len(it.Days[day].Stops)
}

// withDays returns a shallow copy of it whose day slice can be written
// without affecting the receiver.
func (it Itinerary) withDays() Itinerary {
	days := make([]Day, len(it.Days))
	copy(days, it.Days)
	it.Days = days
	return it
}

func cloneStops(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	copy(out, stops)
	return out
}

type dayJSON struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	Stops []Stop `json:"stops"`
}

type itineraryJSON struct {
	Title string    `json:"title,omitempty"`
	Days  []dayJSON `json:"days"`
}

// MarshalJSON writes each day with its derived "day" number.
func (it Itinerary) MarshalJSON() ([]byte, error) {
	out := itineraryJSON{Title: it.Title, Days: make([]dayJSON, len(it.Days))}
	for i, d := range it.Days {
		stops := d.Stops
		if stops == nil {
			stops = []Stop{}
		}
		out.Days[i] = dayJSON{Day: it.DayNumber(i), Date: d.Date, Stops: stops}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the generator's shape and drops any incoming "day"
// field; numbering always follows position.
func (it *Itinerary) UnmarshalJSON(data []byte) error {
	var in itineraryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	it.Title = in.Title
	it.Days = make([]Day, len(in.Days))
	for i, d := range in.Days {
		it.Days[i] = Day{Date: d.Date, Stops: d.Stops}
	}
	return nil
}

// Validate reports shape errors the core does not check for itself.
func (it Itinerary) Validate() error {
	for i, d := range it.Days {
		for j, s := range d.Stops {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("day %d stop %d: %w", it.DayNumber(i), j, err)
			}
		}
	}
	return nil
}

func (s Stop) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if !finite(s.Coordinates.Lon) || !finite(s.Coordinates.Lat) {
		return errors.New("coordinates must be finite")
	}
	if s.Coordinates.Lon < -180 || s.Coordinates.Lon > 180 || s.Coordinates.Lat < -90 || s.Coordinates.Lat > 90 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
