package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BigPictureWatch/internal/model"
)

func day(n int) time.Time { return model.Date(2020, time.January, n) }

func series(name string, pts ...float64) model.Series {
	// pts is a flat list of (day, value) pairs.
	s := model.Series{Name: name}
	for i := 0; i+1 < len(pts); i += 2 {
		s.Points = append(s.Points, model.Point{Time: day(int(pts[i])), Value: pts[i+1]})
	}
	return s
}

func TestCombine_EndToEndRatio(t *testing.T) {
	a := series("A", 1, 100, 2, 110)
	b := series("B", 1, 50, 2, 55)

	got, err := Combine(a, Divide, b)
	require.NoError(t, err)
	assert.Equal(t, []model.Point{
		{Time: day(1), Value: 2.0},
		{Time: day(2), Value: 2.0},
	}, got.Points)
}

func TestCombine_InnerJoin(t *testing.T) {
	a := series("A", 1, 1, 2, 2, 3, 3)
	b := series("B", 2, 20, 3, 30, 4, 40)

	for _, op := range []Operator{Divide, Multiply, Add, Subtract} {
		got, err := Combine(a, op, b)
		require.NoError(t, err, "op %s", op)
		require.Len(t, got.Points, 2, "op %s", op)
		assert.Equal(t, day(2), got.Points[0].Time)
		assert.Equal(t, day(3), got.Points[1].Time)
	}
}

func TestCombine_Operators(t *testing.T) {
	a := series("A", 1, 6)
	b := series("B", 1, 3)
	tests := []struct {
		op   Operator
		want float64
	}{
		{Divide, 2},
		{Multiply, 18},
		{Add, 9},
		{Subtract, 3},
	}
	for _, tt := range tests {
		got, err := Combine(a, tt.op, b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Points[0].Value, "op %s", tt.op)
	}
}

func TestCombine_Commutativity(t *testing.T) {
	a := series("A", 1, 1.5, 2, 4, 3, 7)
	b := series("B", 1, 3, 2, 0.5, 3, 2)

	ab, err := Combine(a, Add, b)
	require.NoError(t, err)
	ba, err := Combine(b, Add, a)
	require.NoError(t, err)
	assert.Equal(t, ab.Points, ba.Points)

	ab, err = Combine(a, Multiply, b)
	require.NoError(t, err)
	ba, err = Combine(b, Multiply, a)
	require.NoError(t, err)
	assert.Equal(t, ab.Points, ba.Points)

	ab, err = Combine(a, Divide, b)
	require.NoError(t, err)
	ba, err = Combine(b, Divide, a)
	require.NoError(t, err)
	for i := range ab.Points {
		assert.NotEqual(t, ab.Points[i].Value, ba.Points[i].Value, "row %d", i)
	}
}

func TestCombine_DivisionByZero(t *testing.T) {
	a := series("A", 1, 1, 2, 0, 3, -1)
	b := series("B", 1, 0, 2, 0, 3, 0)

	got, err := Combine(a, Divide, b)
	require.NoError(t, err)
	require.Len(t, got.Points, 3)
	assert.True(t, math.IsInf(got.Points[0].Value, 1))
	assert.True(t, math.IsNaN(got.Points[1].Value))
	assert.True(t, math.IsInf(got.Points[2].Value, -1))
}

func TestCombine_DropsNaNRows(t *testing.T) {
	a := series("A", 1, math.NaN(), 2, 4)
	b := series("B", 1, 1, 2, 2)

	got, err := Combine(a, Divide, b)
	require.NoError(t, err)
	assert.Equal(t, []model.Point{{Time: day(2), Value: 2}}, got.Points)
}

func TestCombine_UnknownOperator(t *testing.T) {
	_, err := Combine(series("A", 1, 1), Operator("%"), series("B", 1, 1))
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestCombine_Disjoint(t *testing.T) {
	got, err := Combine(series("A", 1, 1), Add, series("B", 2, 1))
	require.NoError(t, err)
	assert.Empty(t, got.Points)
}
