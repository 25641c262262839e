// Package templates stores saved column mappings and matches new uploads
// against them by header signature. Matching only reports candidates; it
// never applies a template.
package templates
