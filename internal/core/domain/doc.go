// Package domain defines the core business entities for sercha-server.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - User: a tenant, identified by an externally assigned id
//   - Notebook: a named collection of documents owned by one user
//   - Document: an uploaded file and its aggregate processing status
//   - Chunk: a contiguous slice of a document's text, the unit of embedding
//   - RawFile: uploaded bytes before text extraction
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
