// Package datanorm turns spreadsheet rows into normalized shipment rows.
//
// It covers the three steps that need no reference data: decoding CSV/XLSX
// files into header-keyed rows (Parse), suggesting a header mapping
// (SuggestMapping) and applying a mapping with transforms and defaults
// (Normalize). Nothing in this package performs I/O beyond reading the
// supplied file, and Normalize never fails.
package datanorm
