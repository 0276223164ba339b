package recorder

import (
	"math"
	"time"

	"github.com/google/uuid"

	"BigPictureWatch/internal/model"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one assembly attempt.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	CacheHit    bool
	Status      string // StatusOK or StatusFailed
	Error       string
	SeriesCount int
	Series      []SeriesStat
}

// SeriesStat summarizes one series of a successful run.
type SeriesStat struct {
	Name      string
	Points    int
	FirstDate time.Time
	LastDate  time.Time
	LastValue float64 // NaN when the series is empty or ends in a non-finite value
}

// NewRun starts a run record with a fresh ID.
func NewRun(startedAt time.Time) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: startedAt}
}

// Finish completes the run from the assembly result.
func (r *Run) Finish(finishedAt time.Time, cacheHit bool, c *model.Collection, err error) {
	r.FinishedAt = finishedAt
	r.CacheHit = cacheHit
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusOK
	if c != nil {
		r.Series = StatsOf(c)
		r.SeriesCount = len(r.Series)
	}
}

// StatsOf summarizes every series of c, nested ones included.
func StatsOf(c *model.Collection) []SeriesStat {
	var stats []SeriesStat
	c.Range(func(key string, s model.Series) {
		st := SeriesStat{Name: key, Points: s.Len(), LastValue: math.NaN()}
		if p, ok := s.First(); ok {
			st.FirstDate = p.Time
		}
		if p, ok := s.Last(); ok {
			st.LastDate = p.Time
			st.LastValue = p.Value
		}
		stats = append(stats, st)
	})
	return stats
}

// Recorder persists the run history.
type Recorder interface {
	RecordRun(run *Run) error
	Recent(n int) ([]Run, error)
	Close() error
}
