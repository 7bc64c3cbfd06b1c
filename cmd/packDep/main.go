// CLI tool to pack a plain text dependency score matrix into the quantized
// compressed dataset format (and optionally a numpy .npy file).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/depquant/codep"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
packDep [OPTIONS] <MATRIX.tsv>

packDep reads a tab separated dependency score matrix with a header row of cell line IDs and one row per gene (first column the gene symbol, empty or NA entries mark missing scores):

    gene	ACH-000001	ACH-000002	...
    SOX10	-1.234	0.012	...

Scores are quantized as round(score*scale) into 16-bit integers, missing values become the sentinel, and the row-major payload is gzip compressed. The tool writes PREFIX.dep, PREFIX.info, PREFIX.genes and PREFIX.cells (PREFIX defaults to the matrix file name without extension).

optional flags:
-scale FLOAT       quantization scale factor (default 1000)
-sentinel INT      missing data sentinel (default -32768)
-cells FILE        cell line lineage table (cellLine TAB lineage TAB sublineage) to merge into PREFIX.cells
-npy               also write the dense float64 matrix as PREFIX.npy
-out PREFIX        output prefix`)

	os.Exit(0)
}

// read the TSV score matrix, return gene symbols, cell line IDs and the
// row-major scores with NaN for missing entries
func readScoreTSV(fn string) ([]string, []string, []float64, error) {
	inFile, err := os.Open(fn)
	if err != nil {
		return nil, nil, nil, err
	}
	defer inFile.Close()

	scanner := bufio.NewScanner(inFile)

	// matrices can have thousands of columns
	scanner.Buffer(make([]byte, 1024*1024), bufio.MaxScanTokenSize)

	if !scanner.Scan() {
		return nil, nil, nil, fmt.Errorf("%s: empty matrix file", fn)
	}

	header := strings.Split(scanner.Text(), "\t")

	if len(header) < 2 {
		return nil, nil, nil, fmt.Errorf("%s: header has no cell line columns", fn)
	}

	cells := header[1:]

	var genes []string
	var data []float64
	var lineno = 1

	for scanner.Scan() {
		lineno++

		fields := strings.Split(scanner.Text(), "\t")

		if len(fields) != len(cells)+1 {
			return nil, nil, nil, fmt.Errorf("%s:%d: expected %d columns, got %d",
				fn, lineno, len(cells)+1, len(fields))
		}

		genes = append(genes, fields[0])

		for _, field := range fields[1:] {
			if field == "" || field == "NA" {
				data = append(data, math.NaN())

				continue
			}

			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s:%d: bad score %q", fn, lineno, field)
			}

			data = append(data, v)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	return genes, cells, data, nil
}

func main() {
	var scale float64
	var sentinel int
	var cellsFn, outPref string
	var npy bool

	flag.Float64Var(&scale, "scale", 1000, "quantization scale factor")
	flag.IntVar(&sentinel, "sentinel", -32768, "missing data sentinel")
	flag.StringVar(&cellsFn, "cells", "", "cell line lineage table to merge")
	flag.BoolVar(&npy, "npy", false, "also write the matrix as numpy .npy")
	flag.StringVar(&outPref, "out", "", "output prefix")

	flag.Parse()

	args := flag.Args()

	if len(args) != 1 {
		printHelp()
	}

	if outPref == "" {
		fext := path.Ext(args[0])
		outPref = args[0][0 : len(args[0])-len(fext)]
	}

	genes, cellIDs, data, err := readScoreTSV(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	mat, err := codep.NewMatrix(genes, cellIDs, data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// merge lineage info when provided, otherwise emit bare cell line IDs
	cells := make([]codep.CellInfo, len(cellIDs))
	for i, id := range cellIDs {
		cells[i] = codep.CellInfo{ID: id}
	}

	if cellsFn != "" {
		known, err := codep.ReadCells(cellsFn)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}

		byID := make(map[string]codep.CellInfo, len(known))
		for _, ci := range known {
			byID[ci.ID] = ci
		}

		for i, id := range cellIDs {
			if ci, ok := byID[id]; ok {
				cells[i] = ci
			}
		}
	}

	if err := codep.WriteDataset(outPref, mat, cells, scale, int16(sentinel)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if npy {
		if err := codep.WriteMatrixNPY(outPref+".npy", mat); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	fmt.Printf("packed %d genes x %d cell lines into %s.dep\n", mat.NGenes(), mat.NCells(), outPref)
}
