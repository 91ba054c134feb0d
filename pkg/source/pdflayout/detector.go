package pdflayout

import (
	"math"
	"sort"
	"strings"

	"github.com/jmylchreest/tabscrape/pkg/table"
)

// Word is a run of glyphs on one baseline. Coordinates are PDF user space:
// Y grows upward.
type Word struct {
	Text   string
	X0, X1 float64
	Y      float64
	Height float64
}

// Config tunes the alignment detector. All distances are in points.
type Config struct {
	// LineTolerance is the baseline difference under which words share a line.
	LineTolerance float64
	// SnapTolerance is the grid word start positions are snapped to.
	SnapTolerance float64
	// GapFactor splits a page into separate tables where the vertical gap
	// between lines exceeds this many line heights.
	GapFactor float64
	// MinShare is the fraction of a cluster's lines that must start a word
	// at a position for it to become a column.
	MinShare float64
	// MinColumns and MinRows bound the smallest grid reported.
	MinColumns int
	MinRows    int
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		LineTolerance: 3.0,
		SnapTolerance: 3.0,
		GapFactor:     2.5,
		MinShare:      0.3,
		MinColumns:    2,
		MinRows:       2,
	}
}

type line struct {
	words  []Word
	y      float64
	height float64
}

// Detect finds aligned tables among words. Each returned grid has its first
// row marked as the structural header.
func Detect(words []Word, cfg Config) []table.Grid {
	var grids []table.Grid
	for _, cluster := range clusters(lines(words, cfg.LineTolerance), cfg.GapFactor) {
		if len(cluster) < cfg.MinRows {
			continue
		}
		anchors := columnAnchors(cluster, cfg)
		if len(anchors) < cfg.MinColumns {
			continue
		}
		rows := assign(cluster, anchors, 3*cfg.SnapTolerance)
		if len(rows) < cfg.MinRows {
			continue
		}

		b := table.NewBuilder()
		for _, r := range rows {
			b.Add(r...)
		}
		b.MarkHeader()
		grids = append(grids, b.Grid())
	}
	return grids
}

// lines groups words by baseline, top of the page first, each line sorted
// left to right.
func lines(words []Word, tolerance float64) []line {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X0 < sorted[j].X0
	})

	var out []line
	cur := line{words: []Word{sorted[0]}, y: sorted[0].Y, height: sorted[0].Height}
	for _, w := range sorted[1:] {
		if math.Abs(w.Y-cur.y) < tolerance {
			cur.words = append(cur.words, w)
			cur.height = max(cur.height, w.Height)
			continue
		}
		out = append(out, cur)
		cur = line{words: []Word{w}, y: w.Y, height: w.Height}
	}
	out = append(out, cur)

	for i := range out {
		ws := out[i].words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].X0 < ws[b].X0 })
	}
	return out
}

// clusters splits lines into vertically contiguous blocks.
func clusters(ls []line, gapFactor float64) [][]line {
	if len(ls) == 0 {
		return nil
	}
	var out [][]line
	cur := []line{ls[0]}
	for i := 1; i < len(ls); i++ {
		prev := ls[i-1]
		height := max(prev.height, ls[i].height, 1)
		if prev.y-ls[i].y > gapFactor*height {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, ls[i])
	}
	return append(out, cur)
}

// columnAnchors returns the snapped word start positions that recur in at
// least max(2, MinShare of the lines) lines, sorted left to right. Anchors
// closer than one snap step are merged, keeping the more frequent one.
func columnAnchors(ls []line, cfg Config) []float64 {
	snap := cfg.SnapTolerance
	counts := make(map[float64]int)
	for _, l := range ls {
		seen := make(map[float64]bool)
		for _, w := range l.words {
			x := math.Round(w.X0/snap) * snap
			if !seen[x] {
				seen[x] = true
				counts[x]++
			}
		}
	}

	minCount := max(2, int(math.Ceil(float64(len(ls))*cfg.MinShare)))
	var candidates []float64
	for x, c := range counts {
		if c >= minCount {
			candidates = append(candidates, x)
		}
	}
	sort.Float64s(candidates)

	var anchors []float64
	for _, x := range candidates {
		n := len(anchors)
		if n > 0 && x-anchors[n-1] <= snap {
			if counts[x] > counts[anchors[n-1]] {
				anchors[n-1] = x
			}
			continue
		}
		anchors = append(anchors, x)
	}
	return anchors
}

// assign places the words of every line into anchor columns. A word goes to
// the nearest anchor within reach, otherwise to the last anchor
// left of it, so that multi-word cells stay together. Leading and trailing
// lines that fill fewer than two cells (titles, footnotes) are trimmed.
func assign(ls []line, anchors []float64, reach float64) [][]string {
	rows := make([][]string, 0, len(ls))
	for _, l := range ls {
		cells := make([][]string, len(anchors))
		for _, w := range l.words {
			col := nearest(w.X0, anchors, reach)
			cells[col] = append(cells[col], w.Text)
		}
		row := make([]string, len(anchors))
		for i, parts := range cells {
			row[i] = strings.Join(parts, " ")
		}
		rows = append(rows, row)
	}

	start, end := 0, len(rows)
	for start < end && filled(rows[start]) < 2 {
		start++
	}
	for end > start && filled(rows[end-1]) < 2 {
		end--
	}
	return rows[start:end]
}

func nearest(x float64, anchors []float64, reach float64) int {
	best, bestDist := -1, math.MaxFloat64
	for i, a := range anchors {
		if d := math.Abs(x - a); d < bestDist && d <= reach {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return best
	}
	best = 0
	for i, a := range anchors {
		if a <= x {
			best = i
		}
	}
	return best
}

func filled(row []string) int {
	n := 0
	for _, c := range row {
		if c != "" {
			n++
		}
	}
	return n
}
