package codep

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DatasetInfo holds the decode parameters of a packed dependency dataset.
type DatasetInfo struct {
	NGenes   int
	NCells   int
	Scale    float64
	Sentinel int16
}

// CellInfo is one cell line with its cancer type classification.
type CellInfo struct {
	ID         string
	Lineage    string
	Sublineage string
}

// HotspotTable maps gene symbol (upper cased) -> cell line ID -> mutation
// dosage (0, 1 or 2). Absent entries imply dosage 0.
type HotspotTable map[string]map[string]int

// Dosage returns the mutation dosage of a hotspot gene in a cell line.
func (t HotspotTable) Dosage(gene, cell string) int {
	return t[strings.ToUpper(gene)][cell]
}

// Has reports whether any dosage data exists for a hotspot gene.
func (t HotspotTable) Has(gene string) bool {
	_, ok := t[strings.ToUpper(gene)]

	return ok
}

// ReadInfo reads a .info file holding a single header line
// "DEPQ <nGenes> <nCells> <scale> <sentinel>".
func ReadInfo(fn string) (*DatasetInfo, error) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	var info DatasetInfo

	_, err = fmt.Sscanf(string(raw), "DEPQ %d %d %g %d", &info.NGenes, &info.NCells, &info.Scale, &info.Sentinel)
	if err != nil {
		return nil, fmt.Errorf("invalid info file %s: %w", fn, err)
	}

	if info.NGenes <= 0 || info.NCells <= 0 || info.Scale <= 0 {
		return nil, fmt.Errorf("invalid info file %s: non positive dimensions or scale", fn)
	}

	return &info, nil
}

// WriteInfo writes the .info header file.
func WriteInfo(fn string, info *DatasetInfo) error {
	line := fmt.Sprintf("DEPQ %d %d %g %d\n", info.NGenes, info.NCells, info.Scale, info.Sentinel)

	return os.WriteFile(fn, []byte(line), 0o644)
}

// ReadGenes reads a .genes file, one gene symbol per line in row order.
func ReadGenes(fn string) ([]string, error) {
	inFile, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer inFile.Close()

	scanner := bufio.NewScanner(inFile)

	var genes []string
	var lineno int

	for scanner.Scan() {
		lineno++

		sym := strings.TrimSpace(scanner.Text())

		if sym == "" {
			return nil, fmt.Errorf("empty gene symbol in %s at line %d", fn, lineno)
		}

		genes = append(genes, sym)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	return genes, nil
}

// ReadCells reads a .cells file, one tab separated line per cell line in
// column order:
//
//	CELLLINE	LINEAGE	SUBLINEAGE
//
// lineage and sublineage may be empty.
func ReadCells(fn string) ([]CellInfo, error) {
	inFile, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer inFile.Close()

	scanner := bufio.NewScanner(inFile)

	var cells []CellInfo
	var lineno int

	for scanner.Scan() {
		lineno++

		fields := strings.Split(scanner.Text(), "\t")

		if fields[0] == "" {
			return nil, fmt.Errorf("invalid cells line at %s:%d", fn, lineno)
		}

		ci := CellInfo{ID: fields[0]}

		if len(fields) > 1 {
			ci.Lineage = fields[1]
		}
		if len(fields) > 2 {
			ci.Sublineage = fields[2]
		}

		cells = append(cells, ci)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	return cells, nil
}

// ReadHotspots reads a hotspot mutation table, one tab separated line per
// gene/cell line pair:
//
//	GENE	CELLLINE	DOSAGE
//
// with dosage 0, 1 or 2. Pairs not listed imply dosage 0.
func ReadHotspots(fn string) (HotspotTable, error) {
	inFile, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer inFile.Close()

	scanner := bufio.NewScanner(inFile)

	table := make(HotspotTable)

	var lineno int

	for scanner.Scan() {
		lineno++

		line := scanner.Text()

		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")

		if len(fields) != 3 {
			return nil, fmt.Errorf("invalid hotspot line at %s:%d", fn, lineno)
		}

		dosage, err := strconv.Atoi(fields[2])
		if err != nil || dosage < 0 || dosage > 2 {
			return nil, fmt.Errorf("invalid hotspot dosage %q at %s:%d", fields[2], fn, lineno)
		}

		gene := strings.ToUpper(fields[0])

		if table[gene] == nil {
			table[gene] = make(map[string]int)
		}

		table[gene][fields[1]] = dosage
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fn, err)
	}

	return table, nil
}

// LoadDataset reads a packed dataset by prefix (<prefix>.dep, .info, .genes,
// .cells) and returns the decoded matrix plus the cell line lineage table.
// Decoding happens once up front, the matrix is immutable afterwards.
func LoadDataset(prefix string) (*Matrix, []CellInfo, error) {
	info, err := ReadInfo(prefix + ".info")
	if err != nil {
		return nil, nil, err
	}

	genes, err := ReadGenes(prefix + ".genes")
	if err != nil {
		return nil, nil, err
	}

	cells, err := ReadCells(prefix + ".cells")
	if err != nil {
		return nil, nil, err
	}

	if len(genes) != info.NGenes {
		return nil, nil, fmt.Errorf("gene count in %s.genes (%d) does not match info file (%d)",
			prefix, len(genes), info.NGenes)
	}
	if len(cells) != info.NCells {
		return nil, nil, fmt.Errorf("cell line count in %s.cells (%d) does not match info file (%d)",
			prefix, len(cells), info.NCells)
	}

	compressed, err := os.ReadFile(prefix + ".dep")
	if err != nil {
		return nil, nil, err
	}

	data, err := DecodeMatrix(compressed, info.Scale, info.Sentinel, info.NGenes, info.NCells)
	if err != nil {
		return nil, nil, err
	}

	cellIDs := make([]string, len(cells))
	for i, c := range cells {
		cellIDs[i] = c.ID
	}

	m, err := NewMatrix(genes, cellIDs, data)
	if err != nil {
		return nil, nil, err
	}

	return m, cells, nil
}

// WriteDataset packs a matrix into <prefix>.dep/.info/.genes/.cells.
func WriteDataset(prefix string, m *Matrix, cells []CellInfo, scale float64, sentinel int16) error {
	info := &DatasetInfo{NGenes: m.NGenes(), NCells: m.NCells(), Scale: scale, Sentinel: sentinel}

	if err := WriteInfo(prefix+".info", info); err != nil {
		return err
	}

	if err := writeLines(prefix+".genes", m.Genes()); err != nil {
		return err
	}

	cellLines := make([]string, len(cells))
	for i, c := range cells {
		cellLines[i] = strings.Join([]string{c.ID, c.Lineage, c.Sublineage}, "\t")
	}

	if err := writeLines(prefix+".cells", cellLines); err != nil {
		return err
	}

	outFile, err := os.Create(prefix + ".dep")
	if err != nil {
		return err
	}
	defer outFile.Close()

	zw := gzip.NewWriter(outFile)

	if _, err := zw.Write(EncodeQuant(m.data, scale, sentinel)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}

	return nil
}

func writeLines(fn string, lines []string) error {
	outFile, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer outFile.Close()

	writer := bufio.NewWriter(outFile)

	for _, line := range lines {
		if _, err := io.WriteString(writer, line+"\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}
