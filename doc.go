// Package codep analyzes a genome-scale CRISPR dependency matrix (genes x
// cell lines) to find genes whose knockout effects move together and to test
// whether a hotspot mutation shifts a gene's dependency.
//
// The matrix is decoded once from its quantized compressed form and shared
// read-only by all analysis requests. A correlation run computes pairwise
// Pearson correlation with OLS slope under pairwise missing-data exclusion,
// keeps the pairs passing the thresholds and groups them into connected
// components. A differential run partitions the cell lines by hotspot
// mutation dosage and Welch-tests every gene between wild-type and mutant
// groups, with exact Student-t p-values computed from scratch (Lanczos
// log-gamma, continued fraction incomplete beta).
//
// The CLI front-ends live under cmd/: corrDep (co-dependency sweep), diffDep
// (differential dependency scan) and packDep (dataset packer).
package codep
