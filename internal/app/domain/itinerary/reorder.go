package itinerary

// DeleteStop removes the stop at (day, stop). Out-of-range positions return
// it unchanged. Times are not recomputed.
func DeleteStop(it Itinerary, day, stop int) Itinerary {
	if !it.hasStop(day, stop) {
		return it
	}
	src := it.Days[day].Stops
	stops := make([]Stop, 0, len(src)-1)
	stops = append(stops, src[:stop]...)
	stops = append(stops, src[stop+1:]...)

	out := it.withDays()
	out.Days[day].Stops = stops
	return out
}

// MoveStop takes the stop at (srcDay, srcStop) and inserts it at slot
// dstStop of dstDay. Slots index the target day as rendered before the
// move, so slot len(stops) means "after the last stop". For a move further
// down the same day the slot is shifted by one to account for the removal.
//
// The caller is expected to Reannotate the result.
func MoveStop(it Itinerary, srcDay, srcStop, dstDay, dstStop int) Itinerary {
	if !it.hasStop(srcDay, srcStop) || !it.hasDay(dstDay) {
		return it
	}

	sameDay := srcDay == dstDay
	if sameDay && dstStop > srcStop {
		dstStop--
	}
	if sameDay && dstStop == srcStop {
		return it
	}

	out := it.withDays()
	moved := it.Days[srcDay].Stops[srcStop]

	src := it.Days[srcDay].Stops
	remaining := make([]Stop, 0, len(src)-1)
	remaining = append(remaining, src[:srcStop]...)
	remaining = append(remaining, src[srcStop+1:]...)
	out.Days[srcDay].Stops = remaining

	target := out.Days[dstDay].Stops
	dstStop = clamp(dstStop, 0, len(target))
	if sameDay && dstStop == srcStop {
		return it
	}
	out.Days[dstDay].Stops = insertStop(target, dstStop, moved)
	return out
}

// AddStop inserts s at index of day; index is clamped to the day's bounds.
// An unknown day returns it unchanged.
func AddStop(it Itinerary, day, index int, s Stop) Itinerary {
	if !it.hasDay(day) {
		return it
	}
	stops := it.Days[day].Stops
	out := it.withDays()
	out.Days[day].Stops = insertStop(stops, clamp(index, 0, len(stops)), s)
	return out
}

// UpdateStop replaces the stop at (day, stop) with s.
func UpdateStop(it Itinerary, day, stop int, s Stop) Itinerary {
	if !it.hasStop(day, stop) {
		return it
	}
	stops := cloneStops(it.Days[day].Stops)
	stops[stop] = s
	out := it.withDays()
	out.Days[day].Stops = stops
	return out
}

func insertStop(stops []Stop, at int, s Stop) []Stop {
	out := make([]Stop, 0, len(stops)+1)
	out = append(out, stops[:at]...)
	out = append(out, s)
	return append(out, stops[at:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
