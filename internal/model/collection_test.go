package model

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCollection() *Collection {
	pt := func(v float64) Series {
		return Series{Points: []Point{{Time: Date(2024, time.January, 2), Value: v}}}
	}
	c := &Collection{
		CaseShiller:  map[string]Series{"National": pt(310), "Chicago": pt(180)},
		Futures:      map[string]Series{"Gold": pt(2000), "Crude": pt(75)},
		FuturesOrder: []string{"Gold", "Crude"},
	}
	c.SP500 = pt(4742.83)
	return c
}

func TestCollection_RangeMatchesEach(t *testing.T) {
	c := testCollection()

	var ranged, each []string
	c.Range(func(key string, _ Series) { ranged = append(ranged, key) })
	c.Each(func(key string, _ *Series) { each = append(each, key) })

	assert.Equal(t, each, ranged)
	assert.Equal(t, len(c.TopLevel())+4, c.Count())
	assert.Equal(t, []string{"caseshiller/Chicago", "caseshiller/National", "futures/Gold", "futures/Crude"},
		ranged[len(ranged)-4:])
}

func TestCollection_RangeDoesNotWrite(t *testing.T) {
	c := testCollection()

	c.Range(func(_ string, s Series) { s.Name = "changed" })
	assert.Empty(t, c.SP500.Name)
	assert.Empty(t, c.CaseShiller["Chicago"].Name)
	assert.Empty(t, c.Futures["Gold"].Name)

	// Readers share one collection without synchronization.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Range(func(string, Series) {})
			}
		}()
	}
	wg.Wait()
}

func TestCollection_EachWritesBack(t *testing.T) {
	c := testCollection()

	c.Each(func(key string, s *Series) { s.Name = key })
	assert.Equal(t, "SP500", c.SP500.Name)
	require.Contains(t, c.CaseShiller, "Chicago")
	assert.Equal(t, "caseshiller/Chicago", c.CaseShiller["Chicago"].Name)
	assert.Equal(t, "futures/Crude", c.Futures["Crude"].Name)
}
