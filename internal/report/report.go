// Package report renders plain-text digests of an assembled dataset.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"BigPictureWatch/internal/model"
)

// headline lists the series quoted in short notifications.
var headline = []string{
	"SP500",
	"ShillerPE10",
	"TobinQ",
	"treasury_yield_spread_adj",
	"vix",
	"uer",
}

// Summary writes the latest value of every series in ds, one per line.
func Summary(w io.Writer, ds *model.Dataset, generated time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "BigPictureWatch %s\n", generated.Format(time.DateOnly))
	fmt.Fprintf(&b, "plot window %s .. %s\n\n",
		ds.Windows.PlotStart.Format(time.DateOnly), ds.Windows.PlotEnd.Format(time.DateOnly))
	fmt.Fprintf(&b, "%-30s %-10s %14s %6s\n", "SERIES", "LAST", "VALUE", "POINTS")

	total, empty := 0, 0
	ds.Collection.Range(func(key string, s model.Series) {
		total++
		date, value := "-", "-"
		if p, ok := s.Last(); ok {
			date = p.Time.Format(time.DateOnly)
			value = FormatValue(p.Value)
		} else {
			empty++
		}
		fmt.Fprintf(&b, "%-30s %-10s %14s %6d\n", key, date, value, s.Len())
	})
	fmt.Fprintf(&b, "\n%d series, %d empty\n", total, empty)

	_, err := io.WriteString(w, b.String())
	return err
}

// Headline returns a few key readings, one "name: value (date)" per line.
func Headline(c *model.Collection) string {
	byKey := make(map[string]*model.Series)
	for _, ns := range c.TopLevel() {
		byKey[ns.Key] = ns.Series
	}
	var b strings.Builder
	for _, key := range headline {
		p, ok := byKey[key].Last()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", key, FormatValue(p.Value), p.Time.Format(time.DateOnly))
	}
	return b.String()
}

// FormatValue renders v with thousands separators and at most two decimals.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return humanize.CommafWithDigits(v, 2)
}
