// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Converts text into fixed-dimension vectors
//   - VectorIndex: Per-notebook collections with k-NN retrieval by L2 distance
//   - UserStore, NotebookStore, DocumentStore, ChunkStore: Metadata persistence
//   - FileStore: Raw upload persistence
//   - Normaliser, NormaliserRegistry: Text extraction from uploaded files
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
