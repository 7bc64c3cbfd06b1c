package codep

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
)

// TTest is the outcome of one Welch two-sample comparison.
type TTest struct {
	N1    int
	N2    int
	Mean1 float64
	Mean2 float64

	T  float64
	DF float64
	P  float64 // two tailed
}

// moments returns the count, mean and unbiased sample variance of the non
// missing values of row at the given columns.
func moments(row []float64, cols []int) (n int, mean, variance float64) {
	var sum float64

	for _, c := range cols {
		v := row[c]

		if math.IsNaN(v) {
			continue
		}

		n++
		sum += v
	}

	if n == 0 {
		return 0, math.NaN(), math.NaN()
	}

	mean = sum / float64(n)

	if n < 2 {
		return n, mean, math.NaN()
	}

	var sqDiffSum float64

	for _, c := range cols {
		v := row[c]

		if math.IsNaN(v) {
			continue
		}

		diff := v - mean
		sqDiffSum += diff * diff
	}

	variance = sqDiffSum / float64(n-1)

	return n, mean, variance
}

// welch runs Welch's t-test from precomputed group moments with Satterthwaite
// degrees of freedom. Below 2 samples in either group the statistics are NaN
// with p = 1; a zero pooled standard error yields t = 0, p = 1 instead of a
// division by zero.
func welch(n1 int, m1, v1 float64, n2 int, m2, v2 float64) TTest {
	res := TTest{
		N1: n1, N2: n2,
		Mean1: m1, Mean2: m2,
		T: math.NaN(), DF: math.NaN(), P: 1,
	}

	if n1 < 2 || n2 < 2 {
		return res
	}

	se1 := v1 / float64(n1)
	se2 := v2 / float64(n2)

	se := math.Sqrt(se1 + se2)

	if se == 0 {
		res.T = 0
		res.DF = 0
		res.P = 1

		return res
	}

	res.T = (m1 - m2) / se

	num := (se1 + se2) * (se1 + se2)
	den := se1*se1/float64(n1-1) + se2*se2/float64(n2-1)

	res.DF = num / den
	res.P = studentP(res.T, res.DF)

	return res
}

// WelchTTest compares two samples without assuming equal variances. NaN
// entries are excluded per group.
func WelchTTest(g1, g2 []float64) TTest {
	n1, m1, v1 := momentsOf(g1)
	n2, m2, v2 := momentsOf(g2)

	return welch(n1, m1, v1, n2, m2, v2)
}

func momentsOf(vals []float64) (n int, mean, variance float64) {
	var sum float64

	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}

		n++
		sum += v
	}

	if n == 0 {
		return 0, math.NaN(), math.NaN()
	}

	mean = sum / float64(n)

	if n < 2 {
		return n, mean, math.NaN()
	}

	var sqDiffSum float64

	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}

		diff := v - mean
		sqDiffSum += diff * diff
	}

	return n, mean, sqDiffSum / float64(n-1)
}

// DoseGroups is a cell line subset partitioned by hotspot mutation dosage.
type DoseGroups struct {
	Wild []int // dosage 0
	One  []int // dosage 1
	Two  []int // dosage >= 2
}

// Mutant returns the combined one-copy and two-copy columns.
func (g DoseGroups) Mutant() []int {
	mut := make([]int, 0, len(g.One)+len(g.Two))
	mut = append(mut, g.One...)
	mut = append(mut, g.Two...)

	return mut
}

// PartitionByDosage splits the cell line subset by the mutation dosage of a
// hotspot gene. Cell lines absent from the table count as wild-type.
func PartitionByDosage(cells []CellInfo, cols []int, hotspots HotspotTable, gene string) DoseGroups {
	var groups DoseGroups

	for _, c := range cols {
		switch d := hotspots.Dosage(gene, cells[c].ID); {
		case d >= 2:
			groups.Two = append(groups.Two, c)
		case d == 1:
			groups.One = append(groups.One, c)
		default:
			groups.Wild = append(groups.Wild, c)
		}
	}

	return groups
}

// DiffResult is the differential dependency outcome of one gene: wild-type vs
// combined mutant, and when enough two-copy lines exist, wild-type vs
// two-copy only (Two.N2 == 0 otherwise).
type DiffResult struct {
	Gene string
	Row  int

	Mut TTest // wild-type vs one-copy + two-copy
	Two TTest // wild-type vs two-copy only

	MeanDiffMut float64 // mutant mean - wild-type mean
	MeanDiffTwo float64 // two-copy mean - wild-type mean
}

// DiffOptions carries the thresholds of a differential scan.
type DiffOptions struct {
	MinGroup int     // minimum cell lines per tested group, default 3
	MaxP     float64 // keep genes with p <= MaxP on either test, 0 keeps all
	Workers  int     // 0 = all CPUs
}

type diffTask struct {
	start   int
	end     int // inclusive
	results []DiffResult
}

// DifferentialScan tests every gene in the matrix for a dependency shift
// between the wild-type and mutant groups. Group sizes are validated up
// front; per gene shortfalls (missing values) degrade to p = 1 locally and
// never abort the scan. Results are filtered by MaxP on either test and
// sorted by ascending combined-mutant p-value.
func DifferentialScan(ctx context.Context, m *Matrix, groups DoseGroups, opt DiffOptions) ([]DiffResult, error) {
	minGroup := opt.MinGroup
	if minGroup <= 0 {
		minGroup = 3
	}

	if len(groups.Wild) < minGroup {
		return nil, &InsufficientSamplesError{Group: "wild-type", Got: len(groups.Wild), Need: minGroup}
	}

	mutant := groups.Mutant()

	if len(mutant) < minGroup {
		return nil, &InsufficientSamplesError{Group: "mutant", Got: len(mutant), Need: minGroup}
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > m.NGenes() {
		workers = m.NGenes()
	}

	tasks := make([]*diffTask, workers)

	step := float64(m.NGenes()) / float64(workers)

	var start int

	for i := 0; i < workers; i++ {
		end := int((float64(i)+1)*step) - 1

		tasks[i] = &diffTask{start: start, end: end}

		start = end + 1
	}

	tasks[workers-1].end = m.NGenes() - 1

	var wg sync.WaitGroup

	wg.Add(workers)

	for _, task := range tasks {
		go func(t *diffTask) {
			defer wg.Done()

			diffRange(ctx, m, groups, mutant, minGroup, opt.MaxP, t)
		}(task)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []DiffResult

	for _, t := range tasks {
		results = append(results, t.results...)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Mut.P < results[j].Mut.P
	})

	return results, nil
}

func diffRange(ctx context.Context, m *Matrix, groups DoseGroups, mutant []int, minGroup int, maxP float64, t *diffTask) {
	for row := t.start; row <= t.end; row++ {
		if ctx.Err() != nil {
			return
		}

		scores := m.Row(row)

		nWild, mWild, vWild := moments(scores, groups.Wild)
		nMut, mMut, vMut := moments(scores, mutant)

		res := DiffResult{
			Gene: m.Gene(row),
			Row:  row,
			Mut:  welch(nWild, mWild, vWild, nMut, mMut, vMut),
		}

		res.MeanDiffMut = res.Mut.Mean2 - res.Mut.Mean1

		nTwo, mTwo, vTwo := moments(scores, groups.Two)

		if nTwo >= minGroup {
			res.Two = welch(nWild, mWild, vWild, nTwo, mTwo, vTwo)
			res.MeanDiffTwo = res.Two.Mean2 - res.Two.Mean1
		} else {
			res.Two = TTest{N1: nWild, Mean1: mWild, T: math.NaN(), DF: math.NaN(), P: 1}
			res.MeanDiffTwo = math.NaN()
		}

		if maxP > 0 && res.Mut.P > maxP && res.Two.P > maxP {
			continue
		}

		t.results = append(t.results, res)
	}
}
