package calculator

import (
	"math"
	"sort"

	"BigPictureWatch/internal/model"
)

// Canonicalize brings raw observations into canonical form: timestamps are
// truncated to the calendar date, non-finite values are dropped, points are
// sorted ascending and duplicate dates keep the last observation seen.
func Canonicalize(name string, raw []model.Point) model.Series {
	pts := make([]model.Point, 0, len(raw))
	for _, p := range raw {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		pts = append(pts, model.Point{Time: model.Day(p.Time), Value: p.Value})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })

	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return model.Series{Name: name, Points: out}
}

// NormalizeTimes rewrites every timestamp as a midnight UTC date. Values are
// left untouched, including any Inf/NaN produced by derivations.
func NormalizeTimes(s *model.Series) {
	for i := range s.Points {
		s.Points[i].Time = model.Day(s.Points[i].Time)
	}
}
