package calculator

import (
	"errors"
	"fmt"
	"time"

	"BigPictureWatch/internal/model"
)

// ErrEmptyWindow is returned when a reference window contains no points.
var ErrEmptyWindow = errors.New("no points in window")

// MeanInWindow returns the mean value of s over the open interval (from, to).
func MeanInWindow(s model.Series, from, to time.Time) (float64, error) {
	sum, n := 0.0, 0
	for _, p := range s.Points {
		if p.Time.After(from) && p.Time.Before(to) {
			sum += p.Value
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%s between %s and %s: %w",
			s.Name, from.Format(time.DateOnly), to.Format(time.DateOnly), ErrEmptyWindow)
	}
	return sum / float64(n), nil
}

// NormalizeToWindow divides s by its own mean over the reference window
// (from, to), so the result averages 1.0 inside that window.
func NormalizeToWindow(s model.Series, from, to time.Time) (model.Series, error) {
	mean, err := MeanInWindow(s, from, to)
	if err != nil {
		return model.Series{}, err
	}
	out := Scale(s, 1/mean)
	out.Name = s.Name + "_norm"
	return out, nil
}

// Scale multiplies every value of s by factor.
func Scale(s model.Series, factor float64) model.Series {
	out := model.Series{Name: s.Name, Points: make([]model.Point, len(s.Points))}
	for i, p := range s.Points {
		out.Points[i] = model.Point{Time: p.Time, Value: p.Value * factor}
	}
	return out
}

// Rebase rescales s so that its first value on or after baseline equals base.
func Rebase(s model.Series, baseline time.Time, base float64) (model.Series, error) {
	for _, p := range s.Points {
		if !p.Time.Before(baseline) {
			return Scale(s, base/p.Value), nil
		}
	}
	return model.Series{}, fmt.Errorf("%s on or after %s: %w",
		s.Name, baseline.Format(time.DateOnly), ErrEmptyWindow)
}

// Window returns the points of s within the closed interval [from, to].
func Window(s model.Series, from, to time.Time) model.Series {
	out := model.Series{Name: s.Name}
	for _, p := range s.Points {
		if p.Time.Before(from) || p.Time.After(to) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}
