package codep

import "fmt"

// DecodeError reports a quantized matrix payload whose decompressed size does
// not match the expected gene x cell line count. It is fatal to data load.
type DecodeError struct {
	Expected int // expected value count (nGenes * nCells)
	Got      int // decoded value count
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("matrix decode: expected %d values, got %d (truncated or corrupted payload?)", e.Expected, e.Got)
}

// ValidationError rejects a malformed analysis request before any computation
// is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// InsufficientSamplesError reports a mutation group that is too small to test
// after missing data exclusion.
type InsufficientSamplesError struct {
	Group string // group name (wild-type / mutant)
	Got   int
	Need  int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("%s group has %d valid cell lines, need at least %d", e.Group, e.Got, e.Need)
}

// EmptyResultError is the soft outcome of a sweep where no gene pair met the
// thresholds. It carries the cutoff used so the caller can explain the result.
type EmptyResultError struct {
	Cutoff float64
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no gene pair reached the correlation cutoff %g", e.Cutoff)
}
