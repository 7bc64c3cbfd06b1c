// CLI tool to
//	run a co-dependency sweep over a packed CRISPR dependency dataset
//	group the correlated genes into clusters
//	print the surviving gene pairs and per gene statistics
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/depquant/codep"
	"go.uber.org/zap"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
corrDep [OPTIONS] -genes SYM1,SYM2,... <PREFIX>

corrDep reads a packed dependency dataset (PREFIX.dep, PREFIX.info, PREFIX.genes, PREFIX.cells) and computes pairwise Pearson correlation with regression slope between the listed genes (or, with -expand, between each listed gene and every gene in the genome). Pairs passing the thresholds are grouped into clusters of co-dependent genes by transitive connection.

The gene pair table is printed to STDOUT as tab separated columns:
    cluster    cluster number of the pair
    geneA      first gene symbol
    geneB      second gene symbol
    r          Pearson correlation (3 decimals)
    slope      OLS slope of geneB on geneA (3 decimals)
    n          valid cell line pairs used

Per gene descriptive statistics (mean/SD of the dependency score over the whole population and over the filtered subset) are written to PREFIX.genestats.tsv.

optional flags:
-expand            test the gene list against the whole genome instead of within the list
-cutoff FLOAT      minimum absolute correlation of a surviving pair (default 0.3)
-minn INT          minimum valid sample pairs (default 20)
-minslope FLOAT    minimum absolute regression slope (default 0)
-lineage STR       restrict to cell lines of this lineage
-sublineage STR    restrict to cell lines of this sub-lineage
-hotspot GENE      restrict by the mutation dosage of this hotspot gene (needs -hotspots)
-dosage STR        dosage constraint: any, wt, het, mut or hom (default any)
-hotspots FILE     hotspot mutation table (gene TAB cellLine TAB dosage)
-threads INT       worker count (default all CPUs)
-out PREFIX        output prefix for the statistics file (default dataset prefix)`)

	os.Exit(0)
}

func main() {
	var genesStr, lineage, sublineage, hotspotGene, dosageStr, hotspotsFn, outPref string
	var expand bool
	var cutoff, minSlope float64
	var minN, threads int

	flag.StringVar(&genesStr, "genes", "", "comma separated gene symbols")
	flag.BoolVar(&expand, "expand", false, "test the gene list against the whole genome")
	flag.Float64Var(&cutoff, "cutoff", 0.3, "minimum absolute correlation")
	flag.IntVar(&minN, "minn", 20, "minimum valid sample pairs")
	flag.Float64Var(&minSlope, "minslope", 0, "minimum absolute regression slope")
	flag.StringVar(&lineage, "lineage", "", "lineage filter")
	flag.StringVar(&sublineage, "sublineage", "", "sub-lineage filter")
	flag.StringVar(&hotspotGene, "hotspot", "", "hotspot gene for dosage filtering")
	flag.StringVar(&dosageStr, "dosage", "any", "dosage constraint (any, wt, het, mut, hom)")
	flag.StringVar(&hotspotsFn, "hotspots", "", "hotspot mutation table file")
	flag.IntVar(&threads, "threads", 0, "number of threads, default all CPUs")
	flag.StringVar(&outPref, "out", "", "output prefix, default dataset prefix")

	flag.Parse()

	args := flag.Args()

	if len(args) != 1 || genesStr == "" {
		printHelp()
	}

	prefix := args[0]

	if outPref == "" {
		outPref = prefix
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	mat, cells, err := codep.LoadDataset(prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var hotspots codep.HotspotTable

	if hotspotsFn != "" {
		hotspots, err = codep.ReadHotspots(hotspotsFn)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	dosage, err := codep.ParseDose(dosageStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var filter *codep.Filter

	if lineage != "" || sublineage != "" || hotspotGene != "" {
		filter = &codep.Filter{
			Lineage:     lineage,
			Sublineage:  sublineage,
			HotspotGene: hotspotGene,
			Dosage:      dosage,
		}
	}

	analyzer := codep.NewAnalyzer(mat, cells, hotspots, logger)

	report, err := analyzer.RunCorrelation(context.Background(), &codep.CorrelationRequest{
		Genes:    strings.Split(genesStr, ","),
		Expand:   expand,
		Cutoff:   cutoff,
		MinN:     minN,
		MinSlope: minSlope,
		Filter:   filter,
		Workers:  threads,
	})

	var emptyErr *codep.EmptyResultError

	if errors.As(err, &emptyErr) {
		// soft outcome, explain the cutoff instead of failing
		fmt.Printf("no co-dependent gene pairs at correlation cutoff %g\n", emptyErr.Cutoff)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	printEdges(report)

	if err := writeGeneStats(outPref+".genestats.tsv", report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// print the clustered gene pairs to STDOUT in flat format
func printEdges(report *codep.CorrelationReport) {
	fmt.Printf("cluster\tgeneA\tgeneB\tr\tslope\tn\n")

	for _, e := range report.Edges {
		fmt.Printf("Cluster%d\t%s\t%s\t%.3f\t%.3f\t%d\n", e.Cluster, e.GeneA, e.GeneB, e.R, e.Slope, e.N)
	}
}

// write per gene descriptive statistics, the filtered columns are only
// emitted when the run's filter actually narrowed the population
func writeGeneStats(fn string, report *codep.CorrelationReport) error {
	outFile, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer outFile.Close()

	writer := bufio.NewWriter(outFile)

	if report.Narrowed {
		fmt.Fprintf(writer, "cluster\tgene\tn\tmean\tSD\tn (filtered)\tmean (filtered)\tSD (filtered)\n")

		for _, gs := range report.Stats {
			fmt.Fprintf(writer, "Cluster%d\t%s\t%d\t%.2f\t%.2f\t%d\t%.2f\t%.2f\n",
				gs.Cluster, gs.Gene, gs.NAll, gs.MeanAll, gs.SDAll, gs.NSub, gs.MeanSub, gs.SDSub)
		}
	} else {
		fmt.Fprintf(writer, "cluster\tgene\tn\tmean\tSD\n")

		for _, gs := range report.Stats {
			fmt.Fprintf(writer, "Cluster%d\t%s\t%d\t%.2f\t%.2f\n",
				gs.Cluster, gs.Gene, gs.NAll, gs.MeanAll, gs.SDAll)
		}
	}

	return writer.Flush()
}
