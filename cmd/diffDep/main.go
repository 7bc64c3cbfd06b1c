// CLI tool to scan a packed CRISPR dependency dataset for genes whose
// dependency shifts with the mutation dosage of a hotspot gene.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/depquant/codep"
	"go.uber.org/zap"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
diffDep [OPTIONS] -gene HOTSPOT -hotspots FILE <PREFIX>

diffDep reads a packed dependency dataset (PREFIX.dep, PREFIX.info, PREFIX.genes, PREFIX.cells) and a hotspot mutation table, partitions the cell lines into wild-type (dosage 0), one-copy and two-copy groups of the given hotspot gene, and runs Welch's t-test for every gene in the matrix between wild-type and the combined mutant group. When at least 3 two-copy lines carry a valid score for a gene, wild-type vs two-copy only is tested as well.

Results below the p-value threshold on either test are printed to STDOUT sorted by ascending combined-mutant p-value, as tab separated columns:
    gene                 gene symbol
    nWT nMut nHom        group sizes (valid scores)
    meanWT meanMut       group means
    diffMut              mutant mean - wild-type mean
    t df p               Welch statistic vs combined mutant
    tHom dfHom pHom      Welch statistic vs two-copy only (NA if not tested)

optional flags:
-maxp FLOAT        p-value threshold (default 0.05, use 1 to keep everything)
-mingroup INT      minimum cell lines per tested group (default 3)
-lineage STR       restrict to cell lines of this lineage
-sublineage STR    restrict to cell lines of this sub-lineage
-threads INT       worker count (default all CPUs)`)

	os.Exit(0)
}

func main() {
	var gene, hotspotsFn, lineage, sublineage string
	var maxP float64
	var minGroup, threads int

	flag.StringVar(&gene, "gene", "", "hotspot gene to partition by")
	flag.StringVar(&hotspotsFn, "hotspots", "", "hotspot mutation table file")
	flag.Float64Var(&maxP, "maxp", 0.05, "p-value threshold")
	flag.IntVar(&minGroup, "mingroup", 3, "minimum cell lines per tested group")
	flag.StringVar(&lineage, "lineage", "", "lineage filter")
	flag.StringVar(&sublineage, "sublineage", "", "sub-lineage filter")
	flag.IntVar(&threads, "threads", 0, "number of threads, default all CPUs")

	flag.Parse()

	args := flag.Args()

	if len(args) != 1 || gene == "" || hotspotsFn == "" {
		printHelp()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	mat, cells, err := codep.LoadDataset(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	hotspots, err := codep.ReadHotspots(hotspotsFn)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var filter *codep.Filter

	if lineage != "" || sublineage != "" {
		filter = &codep.Filter{Lineage: lineage, Sublineage: sublineage}
	}

	analyzer := codep.NewAnalyzer(mat, cells, hotspots, logger)

	report, err := analyzer.RunDifferential(context.Background(), &codep.DifferentialRequest{
		HotspotGene: gene,
		MaxP:        maxP,
		MinGroup:    minGroup,
		Filter:      filter,
		Workers:     threads,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("# hotspot %s: %d wild-type, %d one-copy, %d two-copy cell lines\n",
		report.HotspotGene, report.NWild, report.NOne, report.NTwo)
	fmt.Printf("gene\tnWT\tnMut\tnHom\tmeanWT\tmeanMut\tdiffMut\tt\tdf\tp\ttHom\tdfHom\tpHom\n")

	for _, r := range report.Results {
		homCols := "NA\tNA\tNA"

		if r.Two.N2 > 0 {
			homCols = fmt.Sprintf("%.4f\t%.2f\t%.3g", r.Two.T, r.Two.DF, r.Two.P)
		}

		fmt.Printf("%s\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.2f\t%.3g\t%s\n",
			r.Gene, r.Mut.N1, r.Mut.N2, r.Two.N2,
			r.Mut.Mean1, r.Mut.Mean2, r.MeanDiffMut,
			r.Mut.T, r.Mut.DF, r.Mut.P, homCols)
	}
}
