// Package normalisers turns raw file bytes into domain.Document values. The
// Registry dispatches on format; the subpackages hold one normaliser each.
package normalisers
