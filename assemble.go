package codep

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// GeneStats is the descriptive statistics of one clustered gene over the
// whole cell line population and over the run's filtered subset. Means and
// standard deviations are rounded to 2 decimals for reporting.
type GeneStats struct {
	Gene    string
	Row     int
	Cluster int

	NAll    int
	MeanAll float64
	SDAll   float64

	NSub    int
	MeanSub float64
	SDSub   float64
}

// validValues collects the non missing scores of row at the given columns
// (all columns when cols is nil).
func validValues(row []float64, cols []int) []float64 {
	var vals []float64

	if cols == nil {
		for _, v := range row {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}

		return vals
	}

	for _, c := range cols {
		if v := row[c]; !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}

	return vals
}

func describe(vals []float64) (n int, mean, sd float64) {
	n = len(vals)

	if n == 0 {
		return 0, math.NaN(), math.NaN()
	}

	mean = stat.Mean(vals, nil)

	if n < 2 {
		return n, round2(mean), math.NaN()
	}

	sd = stat.StdDev(vals, nil)

	return n, round2(mean), round2(sd)
}

// assembleStats folds per-gene descriptive statistics onto the cluster
// output: for every clustered row, mean/SD/count over the full population and
// over the run's subset. Rows keeps the deterministic discovery order of
// AssignClusters.
func assembleStats(m *Matrix, clusters map[int]int, rows []int, cols []int, narrowed bool) []GeneStats {
	stats := make([]GeneStats, 0, len(rows))

	for _, row := range rows {
		scores := m.Row(row)

		gs := GeneStats{
			Gene:    m.Gene(row),
			Row:     row,
			Cluster: clusters[row],
		}

		gs.NAll, gs.MeanAll, gs.SDAll = describe(validValues(scores, nil))

		if narrowed {
			gs.NSub, gs.MeanSub, gs.SDSub = describe(validValues(scores, cols))
		} else {
			gs.NSub, gs.MeanSub, gs.SDSub = gs.NAll, gs.MeanAll, gs.SDAll
		}

		stats = append(stats, gs)
	}

	return stats
}
