package codep

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kshedden/gonpy"
)

// Matrix is the dense gene x cell line dependency score table. Rows are genes,
// columns are cell lines, missing scores are NaN. It is built once at data
// load and never mutated afterwards, so concurrent reads are safe without
// locking.
type Matrix struct {
	genes []string
	cells []string

	geneIdx map[string]int // upper cased symbol -> row
	cellIdx map[string]int // cell line ID -> column

	nGenes int
	nCells int

	data []float64 // row major, nGenes*nCells
}

// DecodeQuant converts a decompressed payload of little endian int16 values
// into dependency scores. Values equal to sentinel become NaN, everything
// else is int/scale. The payload must hold exactly nGenes*nCells values.
func DecodeQuant(payload []byte, scale float64, sentinel int16, nGenes, nCells int) ([]float64, error) {
	want := nGenes * nCells

	if len(payload)%2 != 0 || len(payload)/2 != want {
		return nil, &DecodeError{Expected: want, Got: len(payload) / 2}
	}

	data := make([]float64, want)

	for i := range data {
		v := int16(binary.LittleEndian.Uint16(payload[2*i:]))

		if v == sentinel {
			data[i] = math.NaN()
		} else {
			data[i] = float64(v) / scale
		}
	}

	return data, nil
}

// EncodeQuant is the inverse of DecodeQuant: scores are quantized as
// round(value*scale), NaN becomes the sentinel. Quantized values outside the
// int16 range are clamped.
func EncodeQuant(data []float64, scale float64, sentinel int16) []byte {
	payload := make([]byte, 2*len(data))

	for i, v := range data {
		var q int16

		if math.IsNaN(v) {
			q = sentinel
		} else {
			r := math.Round(v * scale)

			switch {
			case r > math.MaxInt16:
				q = math.MaxInt16
			case r < math.MinInt16:
				q = math.MinInt16
			default:
				q = int16(r)
			}
		}

		binary.LittleEndian.PutUint16(payload[2*i:], uint16(q))
	}

	return payload
}

// DecodeMatrix gunzips a compressed quantized payload and decodes it.
func DecodeMatrix(compressed []byte, scale float64, sentinel int16, nGenes, nCells int) ([]float64, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("matrix decompress: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("matrix decompress: %w", err)
	}

	return DecodeQuant(payload, scale, sentinel, nGenes, nCells)
}

// NewMatrix wraps decoded scores with the gene and cell line index tables.
// The index maps are bijective and fixed for the lifetime of the matrix, gene
// symbol lookup is case insensitive. On duplicate symbols the first row wins.
func NewMatrix(genes, cells []string, data []float64) (*Matrix, error) {
	if len(data) != len(genes)*len(cells) {
		return nil, &DecodeError{Expected: len(genes) * len(cells), Got: len(data)}
	}

	m := &Matrix{
		genes:   genes,
		cells:   cells,
		geneIdx: make(map[string]int, len(genes)),
		cellIdx: make(map[string]int, len(cells)),
		nGenes:  len(genes),
		nCells:  len(cells),
		data:    data,
	}

	for i, g := range genes {
		key := strings.ToUpper(g)

		if _, ok := m.geneIdx[key]; !ok {
			m.geneIdx[key] = i
		}
	}

	for i, c := range cells {
		if _, ok := m.cellIdx[c]; !ok {
			m.cellIdx[c] = i
		}
	}

	return m, nil
}

// NGenes returns the row count.
func (m *Matrix) NGenes() int { return m.nGenes }

// NCells returns the column count.
func (m *Matrix) NCells() int { return m.nCells }

// Genes returns the gene symbols in row order.
func (m *Matrix) Genes() []string { return m.genes }

// Cells returns the cell line IDs in column order.
func (m *Matrix) Cells() []string { return m.cells }

// Gene returns the symbol of a row.
func (m *Matrix) Gene(row int) string { return m.genes[row] }

// Row returns the scores of one gene for all cell lines as a read only view
// into the matrix, no copy is made. Callers must not modify the slice.
func (m *Matrix) Row(row int) []float64 {
	lo := row * m.nCells
	hi := lo + m.nCells

	return m.data[lo:hi:hi]
}

// GeneIndex resolves a gene symbol (case insensitive) to its row.
func (m *Matrix) GeneIndex(symbol string) (int, bool) {
	row, ok := m.geneIdx[strings.ToUpper(symbol)]

	return row, ok
}

// GeneRow resolves a symbol and returns its row view.
func (m *Matrix) GeneRow(symbol string) ([]float64, bool) {
	row, ok := m.GeneIndex(symbol)
	if !ok {
		return nil, false
	}

	return m.Row(row), true
}

// CellIndex resolves a cell line ID to its column.
func (m *Matrix) CellIndex(id string) (int, bool) {
	col, ok := m.cellIdx[id]

	return col, ok
}

// LoadMatrixNPY reads a dense float64 matrix from a numpy .npy file
// (shape [nGenes, nCells], NaN for missing) as an alternative to the
// quantized format.
func LoadMatrixNPY(fn string, genes, cells []string) (*Matrix, error) {
	r, err := gonpy.NewFileReader(fn)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	if len(r.Shape) != 2 || r.Shape[0] != len(genes) || r.Shape[1] != len(cells) {
		return nil, fmt.Errorf("%s: shape %v does not match %d genes x %d cell lines",
			fn, r.Shape, len(genes), len(cells))
	}

	flat, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	data := flat

	// gonpy returns the raw buffer, re-order when the file is column major
	if r.ColumnMajor {
		data = make([]float64, len(flat))

		for i := 0; i < len(genes); i++ {
			for j := 0; j < len(cells); j++ {
				data[i*len(cells)+j] = flat[j*len(genes)+i]
			}
		}
	}

	return NewMatrix(genes, cells, data)
}

// WriteMatrixNPY writes the dense score table to a numpy .npy file.
func WriteMatrixNPY(fn string, m *Matrix) error {
	w, err := gonpy.NewFileWriter(fn)
	if err != nil {
		return fmt.Errorf("writing %s: %w", fn, err)
	}

	w.Shape = []int{m.nGenes, m.nCells}

	if err := w.WriteFloat64(m.data); err != nil {
		return fmt.Errorf("writing %s: %w", fn, err)
	}

	return nil
}
