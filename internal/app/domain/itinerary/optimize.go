package itinerary

import "math"

const earthRadiusKm = 6371.0

// DistanceFunc measures the distance between two coordinates. Only the
// ordering of the results matters to the optimizer.
type DistanceFunc func(a, b Coordinates) float64

// Euclidean is the straight-line distance in raw coordinate space. It is a
// fair approximation at city scale only.
func Euclidean(a, b Coordinates) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	return math.Sqrt(dx*dx + dy*dy)
}

// Haversine is the great-circle distance in kilometres.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceByName resolves a configured metric name; anything other than
// "haversine" selects Euclidean.
func DistanceByName(name string) DistanceFunc {
	if name == "haversine" {
		return Haversine
	}
	return Euclidean
}

// Optimizer reorders the stops of a day along a greedy nearest-neighbour
// route.
type Optimizer struct {
	Distance DistanceFunc
}

// OptimizeRoute reorders one day with the Euclidean optimizer.
func OptimizeRoute(it Itinerary, day int) Itinerary {
	return Optimizer{Distance: Euclidean}.OptimizeRoute(it, day)
}

// OptimizeRoute keeps the first stop of the day fixed and repeatedly appends
// the closest stop not yet placed. Ties go to the earliest original index.
// Days with two stops or fewer, and unknown days, are returned unchanged.
func (o Optimizer) OptimizeRoute(it Itinerary, day int) Itinerary {
	if !it.hasDay(day) || len(it.Days[day].Stops) <= 2 {
		return it
	}
	dist := o.Distance
	if dist == nil {
		dist = Euclidean
	}

	stops := it.Days[day].Stops
	remaining := make([]int, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		remaining = append(remaining, i)
	}

	route := make([]Stop, 0, len(stops))
	route = append(route, stops[0])
	current := stops[0]

	for len(remaining) > 0 {
		best := 0
		bestDist := math.Inf(1)
		for k, idx := range remaining {
			// strict less-than keeps the earliest index on ties
			if d := dist(current.Coordinates, stops[idx].Coordinates); d < bestDist {
				best, bestDist = k, d
			}
		}
		current = stops[remaining[best]]
		route = append(route, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	out := it.withDays()
	out.Days[day].Stops = route
	return out
}
