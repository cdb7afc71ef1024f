package extractor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPageMetrics(t *testing.T) {
	tests := []struct {
		name       string
		blocks     []TextBlock
		wantOK     bool
		wantHeader int
		wantFooter int
		wantHH     float64
		wantFH     float64
	}{
		{
			name:   "empty page",
			blocks: nil,
			wantOK: false,
		},
		{
			name:       "single block is both candidates",
			blocks:     []TextBlock{block("only", 100, 20)},
			wantOK:     true,
			wantHeader: 0,
			wantFooter: 0,
			wantHH:     20,
			wantFH:     20,
		},
		{
			name: "top and bottom blocks",
			blocks: []TextBlock{
				block("body", 100, 300),
				block("Header", 20, 10),
				block("Page 1", 760, 8),
			},
			wantOK:     true,
			wantHeader: 1,
			wantFooter: 2,
			wantHH:     10,
			wantFH:     8,
		},
		{
			name: "ties keep the first block",
			blocks: []TextBlock{
				block("a", 20, 10),
				block("b", 20, 12),
				block("c", 700, 32),
				block("d", 720, 12),
			},
			wantOK:     true,
			wantHeader: 0,
			wantFooter: 2,
			wantHH:     10,
			wantFH:     32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := CollectPageMetrics(tt.blocks)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantHeader, m.HeaderIdx)
			assert.Equal(t, tt.wantFooter, m.FooterIdx)
			assert.Equal(t, tt.wantHH, m.HeaderHeight)
			assert.Equal(t, tt.wantFH, m.FooterHeight)
			assert.Len(t, m.Blocks, len(tt.blocks))
		})
	}
}

func uniformPages(n int, headerHeight func(i int) float64, footerHeight func(i int) float64) []PageMetrics {
	metrics := make([]PageMetrics, 0, n)
	for i := 0; i < n; i++ {
		m, _ := CollectPageMetrics([]TextBlock{
			block("Header", 20, headerHeight(i)),
			block("body", 100, 500),
			block("Page", 760, footerHeight(i)),
		})
		metrics = append(metrics, m)
	}
	return metrics
}

func TestDetectHeaderFooter(t *testing.T) {
	fixed := func(h float64) func(int) float64 { return func(int) float64 { return h } }

	t.Run("no pages", func(t *testing.T) {
		assert.Equal(t, Verdict{}, DetectHeaderFooter(nil, DefaultThreshold))
	})

	t.Run("uniform header and footer", func(t *testing.T) {
		v := DetectHeaderFooter(uniformPages(3, fixed(10), fixed(8)), DefaultThreshold)
		assert.Equal(t, Verdict{Header: true, Footer: true}, v)
	})

	t.Run("decisions are independent", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		random := func(int) float64 { return 5 + rng.Float64()*20 }
		v := DetectHeaderFooter(uniformPages(20, fixed(10), random), DefaultThreshold)
		assert.Equal(t, Verdict{Header: true, Footer: false}, v)
	})

	t.Run("ratio exactly at threshold", func(t *testing.T) {
		// 9 of 10 pages share the header height.
		h := func(i int) float64 {
			if i == 0 {
				return 14
			}
			return 10
		}
		v := DetectHeaderFooter(uniformPages(10, h, fixed(8)), 0.9)
		assert.True(t, v.Header)
	})

	t.Run("ratio below threshold", func(t *testing.T) {
		// 8 of 10 pages share the header height.
		h := func(i int) float64 {
			if i < 2 {
				return float64(11 + i)
			}
			return 10
		}
		v := DetectHeaderFooter(uniformPages(10, h, fixed(8)), 0.9)
		assert.False(t, v.Header)
		assert.True(t, v.Footer)
	})
}

func TestFilterHeaderFooter(t *testing.T) {
	t.Run("nothing detected returns pages unchanged", func(t *testing.T) {
		metrics := uniformPages(2, func(int) float64 { return 10 }, func(int) float64 { return 8 })
		pages := FilterHeaderFooter(metrics, Verdict{})
		require.Len(t, pages, 2)
		for i := range pages {
			assert.Equal(t, metrics[i].Blocks, pages[i])
			assert.Same(t, &metrics[i].Blocks[0], &pages[i][0])
		}
	})

	t.Run("header only", func(t *testing.T) {
		metrics := uniformPages(2, func(int) float64 { return 10 }, func(int) float64 { return 8 })
		pages := FilterHeaderFooter(metrics, Verdict{Header: true})
		for _, blocks := range pages {
			require.Len(t, blocks, 2)
			assert.Equal(t, "body", blocks[0].Text)
			assert.Equal(t, "Page", blocks[1].Text)
		}
	})

	t.Run("both keep order of remaining blocks", func(t *testing.T) {
		m, _ := CollectPageMetrics([]TextBlock{
			block("first", 100, 10),
			block("Header", 20, 10),
			block("second", 200, 10),
			block("Footer", 760, 8),
			block("third", 300, 10),
		})
		pages := FilterHeaderFooter([]PageMetrics{m}, Verdict{Header: true, Footer: true})
		require.Len(t, pages, 1)
		var texts []string
		for _, b := range pages[0] {
			texts = append(texts, b.Text)
		}
		assert.Equal(t, []string{"first", "second", "third"}, texts)
	})

	t.Run("single block page removes one index", func(t *testing.T) {
		m, _ := CollectPageMetrics([]TextBlock{block("alone", 100, 10)})
		for _, v := range []Verdict{{Header: true}, {Footer: true}, {Header: true, Footer: true}} {
			pages := FilterHeaderFooter([]PageMetrics{m}, v)
			require.Len(t, pages, 1)
			assert.Empty(t, pages[0])
		}
	})

	t.Run("at most two blocks removed per page", func(t *testing.T) {
		metrics := uniformPages(5, func(int) float64 { return 10 }, func(int) float64 { return 8 })
		pages := FilterHeaderFooter(metrics, Verdict{Header: true, Footer: true})
		for i, blocks := range pages {
			removed := len(metrics[i].Blocks) - len(blocks)
			assert.GreaterOrEqual(t, removed, 0)
			assert.LessOrEqual(t, removed, 2)
		}
	})
}
