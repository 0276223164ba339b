package model

import "time"

// Point is a single (date, value) observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a canonical time series: ascending by date, one point per date.
type Series struct {
	Name   string
	Points []Point
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Last returns the most recent point. ok is false for an empty series.
func (s Series) Last() (p Point, ok bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// First returns the oldest point. ok is false for an empty series.
func (s Series) First() (p Point, ok bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[0], true
}

// Values returns the value column.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s.Points))
	for i, p := range s.Points {
		vals[i] = p.Value
	}
	return vals
}

// Day truncates t to its calendar date at midnight UTC. The calendar date is
// taken in t's own location, so 2024-01-02T00:30+02:00 stays on January 2nd.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a midnight UTC timestamp.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
