package codep

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonSlopePerfectPositive(t *testing.T) {
	cs := PearsonSlope([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10}, nil)

	assert.Equal(t, 5, cs.N)
	assert.InDelta(t, 1.0, cs.R, 1e-12)
	assert.InDelta(t, 2.0, cs.Slope, 1e-12)
}

func TestPearsonSlopePerfectNegative(t *testing.T) {
	cs := PearsonSlope([]float64{1, 2, 3}, []float64{3, 2, 1}, nil)

	assert.Equal(t, 3, cs.N)
	assert.InDelta(t, -1.0, cs.R, 1e-12)
	assert.InDelta(t, -1.0, cs.Slope, 1e-12)
}

func TestPearsonSlopeSymmetric(t *testing.T) {
	x := []float64{0.3, -1.2, 0.7, 2.2, -0.4, 1.1}
	y := []float64{1.0, 0.2, -0.5, 1.9, 0.8, -1.3}

	assert.InDelta(t, PearsonSlope(x, y, nil).R, PearsonSlope(y, x, nil).R, 1e-12)
}

func TestPearsonSlopeExcludesMissingPairs(t *testing.T) {
	nan := math.NaN()

	x := []float64{1, 2, nan, 4, 5, 6}
	y := []float64{2, 4, 6, nan, 10, 12}

	cs := PearsonSlope(x, y, nil)

	// positions 2 and 3 drop out, the rest stays perfectly linear
	assert.Equal(t, 4, cs.N)
	assert.InDelta(t, 1.0, cs.R, 1e-12)
	assert.InDelta(t, 2.0, cs.Slope, 1e-12)
}

func TestPearsonSlopeTooFewPairs(t *testing.T) {
	nan := math.NaN()

	cs := PearsonSlope([]float64{1, 2, nan, nan}, []float64{2, 4, 1, 1}, nil)

	assert.Equal(t, 0, cs.N)
	assert.True(t, math.IsNaN(cs.R))
	assert.True(t, math.IsNaN(cs.Slope))
}

func TestPearsonSlopeConstantVector(t *testing.T) {
	// zero variance means correlation and slope are undefined, not zero
	cs := PearsonSlope([]float64{1, 1, 1, 1}, []float64{1, 2, 3, 4}, nil)

	assert.Equal(t, 4, cs.N)
	assert.True(t, math.IsNaN(cs.R))
	assert.True(t, math.IsNaN(cs.Slope))
}

func TestPearsonSlopeColumnSubset(t *testing.T) {
	x := []float64{1, 100, 2, 100, 3, 100}
	y := []float64{2, -50, 4, -50, 6, -50}

	cs := PearsonSlope(x, y, []int{0, 2, 4})

	assert.Equal(t, 3, cs.N)
	assert.InDelta(t, 1.0, cs.R, 1e-12)
	assert.InDelta(t, 2.0, cs.Slope, 1e-12)
}

// sweepMatrix builds a 5 gene x 12 cell line matrix with two perfectly
// correlated partners of the base ramp, one anti-correlated partner, one
// noisy gene and one constant gene.
func sweepMatrix(t *testing.T) *Matrix {
	t.Helper()

	const nCells = 12

	genes := []string{"SOX10", "MITF", "FOXD3", "KRAS", "EGFR"}
	cells := make([]string, nCells)

	for i := range cells {
		cells[i] = cellName(i)
	}

	data := make([]float64, 0, len(genes)*nCells)

	ramp := make([]float64, nCells)
	for i := range ramp {
		ramp[i] = -1.5 + 0.1*float64(i)
	}

	// SOX10: base ramp
	data = append(data, ramp...)

	// MITF: 0.5*ramp - 0.1 (r = 1, slope 0.5)
	for _, v := range ramp {
		data = append(data, 0.5*v-0.1)
	}

	// FOXD3: -ramp - 1 (r = -1, slope -1)
	for _, v := range ramp {
		data = append(data, -v-1)
	}

	// KRAS: alternating pattern, weakly correlated with the ramp
	for i := range ramp {
		if i%2 == 0 {
			data = append(data, -0.2)
		} else {
			data = append(data, -0.8)
		}
	}

	// EGFR: constant, degenerate against everything
	for range ramp {
		data = append(data, -0.8)
	}

	m, err := NewMatrix(genes, cells, data)
	require.NoError(t, err)

	return m
}

func TestSweepWithinList(t *testing.T) {
	m := sweepMatrix(t)

	edges, err := Sweep(context.Background(), m, []int{0, 1, 2, 3}, SweepOptions{
		Mode: SweepWithin,
		MinR: 0.5,
		MinN: 3,
	})
	require.NoError(t, err)

	require.Len(t, edges, 3)

	type pair struct{ a, b string }

	got := make(map[pair]Edge)
	for _, e := range edges {
		got[pair{e.GeneA, e.GeneB}] = e
	}

	e, ok := got[pair{"SOX10", "MITF"}]
	require.True(t, ok)
	assert.Equal(t, 1.0, e.R)
	assert.Equal(t, 0.5, e.Slope)
	assert.Equal(t, 12, e.N)

	e, ok = got[pair{"SOX10", "FOXD3"}]
	require.True(t, ok)
	assert.Equal(t, -1.0, e.R)
	assert.Equal(t, -1.0, e.Slope)

	_, ok = got[pair{"MITF", "FOXD3"}]
	assert.True(t, ok)
}

func TestSweepExpandNoDuplicates(t *testing.T) {
	m := sweepMatrix(t)

	// both SOX10 and MITF are listed: their mutual edge must come out once
	edges, err := Sweep(context.Background(), m, []int{0, 1}, SweepOptions{
		Mode: SweepExpand,
		MinR: 0.5,
		MinN: 3,
	})
	require.NoError(t, err)

	seen := make(map[[2]int]int)

	for _, e := range edges {
		key := [2]int{e.RowA, e.RowB}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}

		seen[key]++

		assert.NotEqual(t, e.RowA, e.RowB, "self pair emitted")
	}

	for key, count := range seen {
		assert.Equal(t, 1, count, "pair %v emitted %d times", key, count)
	}

	// the listed/listed pair survives exactly once
	assert.Equal(t, 1, seen[[2]int{0, 1}])
}

func TestSweepUnattainableCutoff(t *testing.T) {
	m := sweepMatrix(t)

	edges, err := Sweep(context.Background(), m, []int{0, 1, 2}, SweepOptions{
		Mode: SweepWithin,
		MinR: 1.1, // beyond any attainable correlation
		MinN: 3,
	})

	assert.Nil(t, edges)

	var emptyErr *EmptyResultError

	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, 1.1, emptyErr.Cutoff)
}

func TestSweepMinNThreshold(t *testing.T) {
	m := sweepMatrix(t)

	// only 12 samples exist, so minN 13 filters everything
	_, err := Sweep(context.Background(), m, []int{0, 1, 2}, SweepOptions{
		Mode: SweepWithin,
		MinR: 0.5,
		MinN: 13,
	})

	var emptyErr *EmptyResultError

	require.ErrorAs(t, err, &emptyErr)
}

func TestSweepMinSlopeThreshold(t *testing.T) {
	m := sweepMatrix(t)

	edges, err := Sweep(context.Background(), m, []int{0, 1, 2}, SweepOptions{
		Mode:     SweepWithin,
		MinR:     0.5,
		MinN:     3,
		MinSlope: 0.9, // drops the |slope| = 0.5 edge
	})
	require.NoError(t, err)

	for _, e := range edges {
		assert.GreaterOrEqual(t, math.Abs(e.Slope), 0.9)
	}
}

func TestSweepEmptyGeneList(t *testing.T) {
	m := sweepMatrix(t)

	_, err := Sweep(context.Background(), m, nil, SweepOptions{Mode: SweepWithin, MinR: 0.5})

	var valErr *ValidationError

	require.ErrorAs(t, err, &valErr)
}

func TestSweepCancelled(t *testing.T) {
	m := sweepMatrix(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, m, []int{0, 1, 2}, SweepOptions{Mode: SweepWithin, MinR: 0.5, MinN: 3})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweepDeterministicOrder(t *testing.T) {
	m := sweepMatrix(t)

	opt := SweepOptions{Mode: SweepWithin, MinR: 0.5, MinN: 3, Workers: 2}

	first, err := Sweep(context.Background(), m, []int{0, 1, 2, 3}, opt)
	require.NoError(t, err)

	second, err := Sweep(context.Background(), m, []int{0, 1, 2, 3}, opt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
