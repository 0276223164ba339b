package calculator

import (
	"errors"
	"fmt"
	"math"

	"BigPictureWatch/internal/model"
)

// Operator is one of the four arithmetic operators understood by Combine.
type Operator string

const (
	Divide   Operator = "/"
	Multiply Operator = "*"
	Add      Operator = "+"
	Subtract Operator = "-"
)

// ErrUnknownOperator is returned by Combine for an operator outside / * + -.
var ErrUnknownOperator = errors.New("unknown operator")

func (op Operator) apply(a, b float64) (float64, error) {
	switch op {
	case Divide:
		return a / b, nil
	case Multiply:
		return a * b, nil
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownOperator, string(op))
	}
}

// Combine inner-joins a and b on exact date equality and applies op to each
// matched pair. Dates present in only one input are dropped, as are pairs
// where either side is NaN. Division by zero yields ±Inf or NaN, not an
// error. Both inputs must be canonical (ascending, no duplicate dates).
func Combine(a model.Series, op Operator, b model.Series) (model.Series, error) {
	if _, err := op.apply(1, 1); err != nil {
		return model.Series{}, err
	}

	out := model.Series{Name: fmt.Sprintf("%s%s%s", a.Name, op, b.Name)}
	i, j := 0, 0
	for i < len(a.Points) && j < len(b.Points) {
		pa, pb := a.Points[i], b.Points[j]
		switch {
		case pa.Time.Before(pb.Time):
			i++
		case pb.Time.Before(pa.Time):
			j++
		default:
			i++
			j++
			if math.IsNaN(pa.Value) || math.IsNaN(pb.Value) {
				continue
			}
			v, _ := op.apply(pa.Value, pb.Value)
			out.Points = append(out.Points, model.Point{Time: pa.Time, Value: v})
		}
	}
	return out, nil
}
