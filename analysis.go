package codep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MinViableCells is the smallest cell line subset an analysis accepts; a
// filter narrowing below this is rejected before any computation.
const MinViableCells = 10

// Analyzer owns the read-only dataset handles shared by every analysis
// request: the decoded matrix, the cell line lineage table and the hotspot
// dosage table. It is constructed once after data load and is safe for
// concurrent use; each request allocates its own working state.
type Analyzer struct {
	mat      *Matrix
	cells    []CellInfo
	hotspots HotspotTable
	log      *zap.Logger
}

// NewAnalyzer wires an analyzer over a loaded dataset. A nil logger disables
// logging.
func NewAnalyzer(m *Matrix, cells []CellInfo, hotspots HotspotTable, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}

	if hotspots == nil {
		hotspots = make(HotspotTable)
	}

	return &Analyzer{mat: m, cells: cells, hotspots: hotspots, log: log}
}

// Matrix returns the shared dependency matrix handle.
func (an *Analyzer) Matrix() *Matrix { return an.mat }

// CorrelationRequest describes one co-dependency sweep.
type CorrelationRequest struct {
	Genes    []string
	Expand   bool    // test the gene list against the whole genome
	Cutoff   float64 // minimum |correlation|
	MinN     int     // minimum valid sample pairs per edge
	MinSlope float64 // minimum |OLS slope|
	Filter   *Filter
	Workers  int
}

// CorrelationReport is the complete outcome of a sweep: deduplicated edges
// with cluster labels plus descriptive statistics per clustered gene.
type CorrelationReport struct {
	Edges    []Edge
	Stats    []GeneStats
	Narrowed bool // whether the filter actually reduced the population
	Cutoff   float64
	NCells   int // size of the analyzed cell line subset
}

// resolveRows maps request gene symbols to matrix rows, dropping duplicates
// while keeping the request order.
func (an *Analyzer) resolveRows(symbols []string) ([]int, error) {
	rows := make([]int, 0, len(symbols))
	seen := make(map[int]bool, len(symbols))

	for _, sym := range symbols {
		row, ok := an.mat.GeneIndex(sym)
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown gene symbol %q", sym)}
		}

		if seen[row] {
			continue
		}

		seen[row] = true
		rows = append(rows, row)
	}

	return rows, nil
}

func (an *Analyzer) resolveSubset(f *Filter) ([]int, bool, error) {
	cols, narrowed := ResolveFilter(f, an.cells, an.hotspots)

	if len(cols) < MinViableCells {
		return nil, false, &ValidationError{
			Reason: fmt.Sprintf("filter leaves %d cell lines, need at least %d", len(cols), MinViableCells),
		}
	}

	return cols, narrowed, nil
}

// RunCorrelation validates the request, sweeps the gene pairs, groups the
// surviving edges into clusters and assembles per-gene statistics. The soft
// no-edges outcome surfaces as *EmptyResultError.
func (an *Analyzer) RunCorrelation(ctx context.Context, req *CorrelationRequest) (*CorrelationReport, error) {
	if len(req.Genes) == 0 {
		return nil, &ValidationError{Reason: "empty gene list"}
	}

	if !req.Expand && len(req.Genes) < 2 {
		return nil, &ValidationError{Reason: "within-list mode needs at least 2 genes"}
	}

	if req.Cutoff <= 0 {
		return nil, &ValidationError{Reason: "correlation cutoff must be positive"}
	}

	rows, err := an.resolveRows(req.Genes)
	if err != nil {
		return nil, err
	}

	cols, narrowed, err := an.resolveSubset(req.Filter)
	if err != nil {
		return nil, err
	}

	mode := SweepWithin
	if req.Expand {
		mode = SweepExpand
	}

	minN := req.MinN
	if minN < 3 {
		minN = 3
	}

	started := time.Now()

	an.log.Info("correlation sweep started",
		zap.Int("genes", len(rows)),
		zap.Bool("expand", req.Expand),
		zap.Int("cellLines", len(cols)),
		zap.Float64("cutoff", req.Cutoff),
		zap.Int("minN", minN),
		zap.Float64("minSlope", req.MinSlope))

	var subset []int
	if narrowed {
		subset = cols
	}

	edges, err := Sweep(ctx, an.mat, rows, SweepOptions{
		Mode:     mode,
		Cols:     subset,
		MinR:     req.Cutoff,
		MinN:     minN,
		MinSlope: req.MinSlope,
		Workers:  req.Workers,
	})
	if err != nil {
		if _, empty := err.(*EmptyResultError); empty {
			an.log.Warn("correlation sweep found no edges", zap.Float64("cutoff", req.Cutoff))
		}

		return nil, err
	}

	clusters, order := AssignClusters(edges)

	report := &CorrelationReport{
		Edges:    edges,
		Stats:    assembleStats(an.mat, clusters, order, cols, narrowed),
		Narrowed: narrowed,
		Cutoff:   req.Cutoff,
		NCells:   len(cols),
	}

	an.log.Info("correlation sweep finished",
		zap.Int("edges", len(edges)),
		zap.Int("clusteredGenes", len(order)),
		zap.Duration("elapsed", time.Since(started)))

	return report, nil
}

// DifferentialRequest describes one genome-wide differential dependency scan
// for a hotspot gene.
type DifferentialRequest struct {
	HotspotGene string
	MaxP        float64 // p-value threshold on either test
	MinGroup    int     // minimum group size, default 3
	Filter      *Filter
	Workers     int
}

// DifferentialReport is the sorted differential scan outcome plus the
// mutation group sizes of the run.
type DifferentialReport struct {
	HotspotGene string
	Results     []DiffResult
	NWild       int
	NOne        int
	NTwo        int
	MaxP        float64
	Narrowed    bool
}

// RunDifferential partitions the cell line subset by the hotspot gene's
// mutation dosage and Welch-tests every gene in the matrix between the
// wild-type and mutant groups.
func (an *Analyzer) RunDifferential(ctx context.Context, req *DifferentialRequest) (*DifferentialReport, error) {
	if req.HotspotGene == "" {
		return nil, &ValidationError{Reason: "no hotspot gene given"}
	}

	if !an.hotspots.Has(req.HotspotGene) {
		return nil, &ValidationError{Reason: fmt.Sprintf("no hotspot data for gene %q", req.HotspotGene)}
	}

	cols, narrowed, err := an.resolveSubset(req.Filter)
	if err != nil {
		return nil, err
	}

	groups := PartitionByDosage(an.cells, cols, an.hotspots, req.HotspotGene)

	started := time.Now()

	an.log.Info("differential scan started",
		zap.String("hotspotGene", req.HotspotGene),
		zap.Int("wildType", len(groups.Wild)),
		zap.Int("oneCopy", len(groups.One)),
		zap.Int("twoCopy", len(groups.Two)),
		zap.Float64("maxP", req.MaxP))

	results, err := DifferentialScan(ctx, an.mat, groups, DiffOptions{
		MinGroup: req.MinGroup,
		MaxP:     req.MaxP,
		Workers:  req.Workers,
	})
	if err != nil {
		return nil, err
	}

	an.log.Info("differential scan finished",
		zap.Int("genes", len(results)),
		zap.Duration("elapsed", time.Since(started)))

	return &DifferentialReport{
		HotspotGene: req.HotspotGene,
		Results:     results,
		NWild:       len(groups.Wild),
		NOne:        len(groups.One),
		NTwo:        len(groups.Two),
		MaxP:        req.MaxP,
		Narrowed:    narrowed,
	}, nil
}
