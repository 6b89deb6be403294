package domain

import (
	"fmt"
	"time"
)

// ProcessingStatus is a document's aggregate processing state.
type ProcessingStatus string

// Document processing states.
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// IsTerminal returns true once no further transitions are possible.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation.
func (s ProcessingStatus) String() string {
	return string(s)
}

// ChunkState is the processing state of a single chunk.
type ChunkState string

// Chunk states. A chunk moves pending -> processing -> completed|failed.
const (
	ChunkPending    ChunkState = "pending"
	ChunkProcessing ChunkState = "processing"
	ChunkCompleted  ChunkState = "completed"
	ChunkFailed     ChunkState = "failed"
)

// Document is an uploaded file and the aggregate state of its chunks.
type Document struct {
	// ID is the generated identifier.
	ID string

	// NotebookID is the owning notebook.
	NotebookID string

	// UserID is the owning user, denormalised from the notebook.
	UserID string

	// Filename is the name supplied at upload.
	Filename string

	// FileType is the lower-cased extension without the dot (e.g. "pdf").
	FileType FileType

	// FileSize is the upload size in bytes.
	FileSize int64

	// FileHash is the hex-encoded sha256 of the uploaded bytes.
	FileHash string

	// StoragePath locates the stored upload, relative to the file store root.
	StoragePath string

	// Status is the aggregate processing status.
	Status ProcessingStatus

	// ErrorMessage describes why processing failed, if it did.
	ErrorMessage string

	// ChunkCount is the number of chunks produced by chunking.
	ChunkCount int

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// ProcessedAt is when the document reached a terminal status.
	ProcessedAt *time.Time
}

// Chunk is a contiguous slice of a document's extracted text and
// the atomic unit of embedding work and of query results.
type Chunk struct {
	// ID is derived from the document id and Index. See ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// NotebookID links to the owning Notebook.
	NotebookID string

	// UserID links to the owning User.
	UserID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// State is the per-chunk processing state.
	State ChunkState

	// Error holds the terminal failure, if any.
	Error string

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}

// ChunkID returns the stable identifier for the chunk at index within a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}

// StateCounts tallies chunks by state.
type StateCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Total returns the number of chunks counted.
func (c StateCounts) Total() int {
	return c.Pending + c.Processing + c.Completed + c.Failed
}

// Add increments the counter for state.
func (c *StateCounts) Add(state ChunkState, n int) {
	switch state {
	case ChunkPending:
		c.Pending += n
	case ChunkProcessing:
		c.Processing += n
	case ChunkCompleted:
		c.Completed += n
	case ChunkFailed:
		c.Failed += n
	}
}

// Move transfers one chunk between states.
func (c *StateCounts) Move(from, to ChunkState) {
	c.Add(from, -1)
	c.Add(to, 1)
}

// DeriveStatus computes a document's aggregate status from its chunk counts.
//
//   - completed iff every chunk is completed
//   - failed iff at least one chunk failed and none are pending or processing
//   - processing otherwise
//
// A document without chunks is still pending.
func DeriveStatus(c StateCounts) ProcessingStatus {
	switch {
	case c.Total() == 0:
		return StatusPending
	case c.Completed == c.Total():
		return StatusCompleted
	case c.Failed > 0 && c.Pending == 0 && c.Processing == 0:
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// DocumentStatus is the externally visible processing summary of a document.
type DocumentStatus struct {
	// DocumentID identifies the document.
	DocumentID string

	// Status is the aggregate processing status.
	Status ProcessingStatus

	// ChunkCount is the number of chunks produced.
	ChunkCount int

	// Counts tallies chunks by state.
	Counts StateCounts

	// ErrorMessage is set when the document failed.
	ErrorMessage string
}
