package codep

import (
	"context"
	"math"
	"runtime"
	"sync"
)

// CorrStat is the Pearson correlation and ordinary least squares slope of one
// vector pair, with the count of valid (both present) sample pairs used.
type CorrStat struct {
	R     float64
	Slope float64
	N     int
}

// Edge is one surviving undirected gene pair. (A,B) and (B,A) denote the same
// edge; the sweep emits each pair once by construction. R and Slope are
// rounded to 3 decimals so displayed values stay stable under re-sorting.
type Edge struct {
	GeneA string
	GeneB string
	RowA  int
	RowB  int

	R     float64
	Slope float64
	N     int

	Cluster int // 1-based connected component label, set by AssignClusters
}

// PearsonSlope computes the Pearson correlation of x and y and the OLS slope
// of y on x over the given columns (all positions when cols is nil). Pairs
// where either value is NaN are excluded. With fewer than 3 valid pairs the
// result is soft-failed as {NaN, NaN, 0}; a constant vector (zero variance)
// yields NaN correlation and slope, signalling "undefined" rather than zero.
func PearsonSlope(x, y []float64, cols []int) CorrStat {
	var n int
	var sx, sy, sxy, sxx, syy float64

	if cols == nil {
		limit := len(x)
		if len(y) < limit {
			limit = len(y)
		}

		for i := 0; i < limit; i++ {
			a, b := x[i], y[i]

			if math.IsNaN(a) || math.IsNaN(b) {
				continue
			}

			n++
			sx += a
			sy += b
			sxy += a * b
			sxx += a * a
			syy += b * b
		}
	} else {
		for _, c := range cols {
			a, b := x[c], y[c]

			if math.IsNaN(a) || math.IsNaN(b) {
				continue
			}

			n++
			sx += a
			sy += b
			sxy += a * b
			sxx += a * a
			syy += b * b
		}
	}

	if n < 3 {
		return CorrStat{R: math.NaN(), Slope: math.NaN(), N: 0}
	}

	fn := float64(n)

	cov := sxy - sx*sy/fn
	vx := sxx - sx*sx/fn
	vy := syy - sy*sy/fn

	if vx == 0 || vy == 0 {
		return CorrStat{R: math.NaN(), Slope: math.NaN(), N: n}
	}

	return CorrStat{
		R:     cov / math.Sqrt(vx*vy),
		Slope: cov / vx,
		N:     n,
	}
}

// SweepMode selects which gene pairs a sweep evaluates.
type SweepMode int

const (
	// SweepWithin evaluates each unordered pair within the gene list.
	SweepWithin SweepMode = iota
	// SweepExpand evaluates each listed gene against the whole genome.
	SweepExpand
)

// SweepOptions carries the pair selection and edge thresholds of one sweep.
type SweepOptions struct {
	Mode     SweepMode
	Cols     []int   // cell line subset, nil for the full population
	MinR     float64 // minimum |correlation|
	MinN     int     // minimum valid pair count
	MinSlope float64 // minimum |slope|
	Workers  int     // 0 = all CPUs
}

// non overlapping ranges of the outer gene loop, each worker fills its own
// edge buffer so no shared state is written during the sweep
type sweepTask struct {
	start int
	end   int // inclusive
	edges []Edge
}

// Sweep evaluates gene pairs over the shared matrix and returns the edges
// passing all thresholds, in deterministic outer-loop order. In within mode
// every unordered pair of geneRows is tested; in expand mode every listed
// gene is tested against every other gene in the genome, emitting a pair of
// two listed genes only once. Ill-conditioned pairs are skipped, never abort
// the batch. When no edge survives, a *EmptyResultError carrying the cutoff
// is returned. The context is checked at each outer-loop iteration.
func Sweep(ctx context.Context, m *Matrix, geneRows []int, opt SweepOptions) ([]Edge, error) {
	if len(geneRows) == 0 {
		return nil, &ValidationError{Reason: "empty gene list"}
	}

	// position of each listed row within the list, used to emit listed pairs
	// exactly once in expand mode
	listPos := make(map[int]int, len(geneRows))
	for i, row := range geneRows {
		listPos[row] = i
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(geneRows) {
		workers = len(geneRows)
	}

	tasks := make([]*sweepTask, workers)

	step := float64(len(geneRows)) / float64(workers)

	var start int

	for i := 0; i < workers; i++ {
		end := int((float64(i)+1)*step) - 1

		tasks[i] = &sweepTask{start: start, end: end}

		start = end + 1
	}

	tasks[workers-1].end = len(geneRows) - 1

	var wg sync.WaitGroup

	wg.Add(workers)

	for _, task := range tasks {
		go func(t *sweepTask) {
			defer wg.Done()

			sweepRange(ctx, m, geneRows, listPos, opt, t)
		}(task)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var edges []Edge

	for _, t := range tasks {
		edges = append(edges, t.edges...)
	}

	if len(edges) == 0 {
		return nil, &EmptyResultError{Cutoff: opt.MinR}
	}

	return edges, nil
}

// sweepRange evaluates the outer-loop range of one worker.
func sweepRange(ctx context.Context, m *Matrix, geneRows []int, listPos map[int]int, opt SweepOptions, t *sweepTask) {
	for i := t.start; i <= t.end; i++ {
		if ctx.Err() != nil {
			return
		}

		rowA := geneRows[i]
		x := m.Row(rowA)

		if opt.Mode == SweepWithin {
			for j := i + 1; j < len(geneRows); j++ {
				t.tryEdge(m, opt, rowA, geneRows[j], x)
			}

			continue
		}

		// expand: test against the whole genome, skipping self pairs and
		// emitting listed/listed pairs only from the lower list position
		for rowB := 0; rowB < m.NGenes(); rowB++ {
			if rowB == rowA {
				continue
			}

			if pos, ok := listPos[rowB]; ok && pos < i {
				continue
			}

			t.tryEdge(m, opt, rowA, rowB, x)
		}
	}
}

func (t *sweepTask) tryEdge(m *Matrix, opt SweepOptions, rowA, rowB int, x []float64) {
	cs := PearsonSlope(x, m.Row(rowB), opt.Cols)

	if cs.N < opt.MinN || cs.N < 3 {
		return
	}

	if math.IsNaN(cs.R) || math.Abs(cs.R) < opt.MinR || math.Abs(cs.Slope) < opt.MinSlope {
		return
	}

	t.edges = append(t.edges, Edge{
		GeneA: m.Gene(rowA),
		GeneB: m.Gene(rowB),
		RowA:  rowA,
		RowB:  rowB,
		R:     round3(cs.R),
		Slope: round3(cs.Slope),
		N:     cs.N,
	})
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
