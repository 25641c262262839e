// Package lookup builds the immutable reference index used to resolve
// departments, localities, agencies and service types during an import.
//
// An Index is loaded once per run from a Source and is never mutated
// afterwards, so it can be shared freely between goroutines.
package lookup
