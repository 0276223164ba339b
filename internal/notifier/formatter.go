package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"BigPictureWatch/internal/recorder"
	"BigPictureWatch/internal/report"
)

// FormatRunReport formats the outcome of an assembly run. On success the
// headline readings are appended; on failure the diagnostic is quoted.
func FormatRunReport(run *recorder.Run, headline string) string {
	var b strings.Builder
	took := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)

	if run.Status == recorder.StatusFailed {
		fmt.Fprintf(&b, "❌ <b>BigPictureWatch</b> | %s\n\n", run.StartedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "Assembly failed after %s:\n<code>%s</code>\n", took, html.EscapeString(run.Error))
		return b.String()
	}

	source := "downloaded"
	if run.CacheHit {
		source = "from cache"
	}
	fmt.Fprintf(&b, "📊 <b>BigPictureWatch</b> | %s\n\n", run.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%d series %s in %s\n", run.SeriesCount, source, took)
	if headline != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(headline))
	}
	return b.String()
}

// FormatHistory lists recent runs, newest first.
func FormatHistory(runs []recorder.Run) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		status := "✅"
		if r.Status == recorder.StatusFailed {
			status = "❌"
		}
		cached := ""
		if r.CacheHit {
			cached = " (cache)"
		}
		fmt.Fprintf(&b, "%s %s %d series%s\n", status, r.StartedAt.Format("2006-01-02 15:04"), r.SeriesCount, cached)
	}
	return b.String()
}

// FormatSeries renders the latest value of a single series statistic.
func FormatSeries(st recorder.SeriesStat) string {
	if st.Points == 0 {
		return fmt.Sprintf("%s: no data", st.Name)
	}
	return fmt.Sprintf("%s: %s (%s, %d points)",
		st.Name, report.FormatValue(st.LastValue), st.LastDate.Format(time.DateOnly), st.Points)
}
