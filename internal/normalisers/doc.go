// Package normalisers extracts plain text from uploaded files.
//
// Each subpackage handles one family of formats and returns the text as
// ordered segments: one per page, slide or sheet where the format has
// them, otherwise a single segment. Registry dispatches by file type and
// reports every extraction failure as domain.ErrExtraction.
package normalisers
