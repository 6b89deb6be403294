package domain

import "time"

// Notebook field limits.
const (
	MaxNotebookNameLength        = 255
	MaxNotebookDescriptionLength = 1000
)

// Notebook is a named collection of documents belonging to one user.
// It is the unit of search scoping and maps to one vector collection.
type Notebook struct {
	// ID is the generated identifier.
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name (1..255 characters).
	Name string

	// Description is optional free text (at most 1000 characters).
	Description string

	// DocumentCount is derived from the documents table on read.
	// It is never stored.
	DocumentCount int

	// CreatedAt is when the notebook was created.
	CreatedAt time.Time

	// UpdatedAt is when the notebook was last modified.
	UpdatedAt time.Time
}

// NotebookUpdate carries optional changes to a notebook.
// Nil fields are left unchanged.
type NotebookUpdate struct {
	Name        *string
	Description *string
}
